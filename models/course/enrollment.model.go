package course

import (
	"time"

	"gorm.io/gorm"
)

// Enrollment statuses
const (
	StatusEnrolled  = "enrolled"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

// Enrollment ties a user to a course. Progress is the fraction of
// content items completed, in [0,1]. The completed status is set only
// by the progress engine, never by a client request.
type Enrollment struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_user_course;not null"`
	CourseID    uint       `json:"course_id" gorm:"uniqueIndex:idx_user_course;not null"`
	Status      string     `json:"status" gorm:"default:'enrolled'"`
	Progress    float64    `json:"progress" gorm:"default:0"`
	EnrolledAt  time.Time  `json:"enrolled_at" gorm:"autoCreateTime"`
	CompletedAt *time.Time `json:"completed_at"`
}
