package course

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Progress record statuses
const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
	ProgressSubmitted  = "submitted"
)

// ProgressRecord tracks a single content item within one enrollment.
// Created lazily on the first progress update; TimeSpent accumulates
// across updates; CompletedAt is written exactly once.
type ProgressRecord struct {
	gorm.Model
	EnrollmentID  uint           `json:"enrollment_id" gorm:"uniqueIndex:idx_enrollment_item;not null"`
	ContentItemID uint           `json:"content_item_id" gorm:"uniqueIndex:idx_enrollment_item;not null"`
	Status        string         `json:"status" gorm:"default:'not_started'"`
	Score         *float64       `json:"score"` // 0-100
	TimeSpent     int            `json:"time_spent" gorm:"default:0"` // seconds
	CompletedAt   *time.Time     `json:"completed_at"`
	Data          datatypes.JSON `json:"data"` // quiz answers, submissions, grading feedback
}

// ValidProgressStatus reports whether status is one of the defined
// progress states.
func ValidProgressStatus(status string) bool {
	switch status {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted, ProgressSubmitted:
		return true
	}
	return false
}
