package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordResetToken is single-use and short-lived. Issuing a new token
// invalidates all outstanding ones for the user in the same transaction.
type PasswordResetToken struct {
	gorm.Model
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	Token     string     `json:"token" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
