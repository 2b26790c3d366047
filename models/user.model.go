package models

import "gorm.io/gorm"

// User is an authenticated account. IsSystemAdmin bypasses all
// entity-scoped access checks.
type User struct {
	gorm.Model
	Email               string `json:"email" gorm:"uniqueIndex;not null"`
	Password            string `json:"-"`
	FirstName           string `json:"first_name"`
	LastName            string `json:"last_name"`
	ProfileImage        string `json:"profile_image"`
	IsSystemAdmin       bool   `json:"is_system_admin" gorm:"default:false"`
	IsIndividualLearner bool   `json:"is_individual_learner" gorm:"default:false"`
}
