package course

import "gorm.io/gorm"

// Module is an ordered section within a course. Position is 1-based and
// gap-tolerant; allocation happens inside the creating transaction.
type Module struct {
	gorm.Model
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Position    int    `json:"position" gorm:"default:0"`
}
