package enroll

import (
	"errors"
	"math"
	"time"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

type ProgressInput struct {
	Status    string   `json:"status" validate:"required"`
	Score     *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	TimeSpent int      `json:"time_spent" validate:"omitempty,min=0"`
}

// RecordProgress upserts the progress record for one content item and
// recomputes the enrollment's aggregate. TimeSpent accumulates, Score
// overwrites when provided, CompletedAt is written exactly once. The
// whole update runs in a single transaction.
func (s *Service) RecordProgress(userID, courseID, contentItemID uint, input ProgressInput) (*courseModels.ProgressRecord, *courseModels.Enrollment, error) {
	if !courseModels.ValidProgressStatus(input.Status) {
		return nil, nil, apperr.InvalidArgument("invalid progress status %q", input.Status)
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > 100) {
		return nil, nil, apperr.InvalidArgument("score must be between 0 and 100")
	}
	if input.TimeSpent < 0 {
		return nil, nil, apperr.InvalidArgument("time spent cannot be negative")
	}

	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.verifyItemInCourse(contentItemID, courseID); err != nil {
		return nil, nil, err
	}

	var record *courseModels.ProgressRecord
	err = s.db.Transaction(func(tx *gorm.DB) error {
		record, err = upsertProgress(tx, enrollment.ID, contentItemID, func(r *courseModels.ProgressRecord) {
			r.Status = input.Status
			r.TimeSpent += input.TimeSpent
			if input.Score != nil {
				r.Score = input.Score
			}
			if input.Status == courseModels.ProgressCompleted && r.CompletedAt == nil {
				now := time.Now()
				r.CompletedAt = &now
			}
		})
		if err != nil {
			return err
		}
		return recalcEnrollment(tx, enrollment)
	})
	if err != nil {
		return nil, nil, apperr.Internal(err, "failed to record progress")
	}

	s.cache.InvalidateUserAccess(userID, courseID)
	return record, enrollment, nil
}

// upsertProgress loads or creates the record for (enrollment, item),
// applies mutate, and saves it.
func upsertProgress(tx *gorm.DB, enrollmentID, contentItemID uint, mutate func(*courseModels.ProgressRecord)) (*courseModels.ProgressRecord, error) {
	var record courseModels.ProgressRecord
	err := tx.Where("enrollment_id = ? AND content_item_id = ?", enrollmentID, contentItemID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = courseModels.ProgressRecord{
			EnrollmentID:  enrollmentID,
			ContentItemID: contentItemID,
			Status:        courseModels.ProgressNotStarted,
		}
	} else if err != nil {
		return nil, err
	}

	mutate(&record)

	if err := tx.Save(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// recalcEnrollment recomputes the completed/total aggregate and flips
// the enrollment to completed when every item is done. This is the only
// code path that sets the completed status.
func recalcEnrollment(tx *gorm.DB, enrollment *courseModels.Enrollment) error {
	var total int64
	err := tx.Model(&courseModels.ContentItem{}).
		Joins("JOIN modules ON modules.id = content_items.module_id AND modules.deleted_at IS NULL").
		Where("modules.course_id = ?", enrollment.CourseID).
		Count(&total).Error
	if err != nil {
		return err
	}

	var completed int64
	err = tx.Model(&courseModels.ProgressRecord{}).
		Where("enrollment_id = ? AND status = ?", enrollment.ID, courseModels.ProgressCompleted).
		Count(&completed).Error
	if err != nil {
		return err
	}

	progress := 0.0
	if total > 0 {
		progress = math.Round(float64(completed)/float64(total)*100) / 100
	}

	updates := map[string]interface{}{"progress": progress}
	// an empty course never auto-completes
	if total > 0 && completed == total && enrollment.Status != courseModels.StatusCompleted {
		now := time.Now()
		updates["status"] = courseModels.StatusCompleted
		updates["completed_at"] = now
		enrollment.Status = courseModels.StatusCompleted
		enrollment.CompletedAt = &now
	}
	enrollment.Progress = progress

	return tx.Model(enrollment).Updates(updates).Error
}

// verifyItemInCourse confirms the content item sits under one of the
// course's modules.
func (s *Service) verifyItemInCourse(contentItemID, courseID uint) error {
	var count int64
	err := s.db.Model(&courseModels.ContentItem{}).
		Joins("JOIN modules ON modules.id = content_items.module_id AND modules.deleted_at IS NULL").
		Where("content_items.id = ? AND modules.course_id = ?", contentItemID, courseID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal(err, "failed to verify content item")
	}
	if count == 0 {
		return apperr.NotFound("content item not found in this course")
	}
	return nil
}

// fetchItemInCourse loads a content item after verifying it belongs to
// the course.
func (s *Service) fetchItemInCourse(contentItemID, courseID uint) (*courseModels.ContentItem, error) {
	if err := s.verifyItemInCourse(contentItemID, courseID); err != nil {
		return nil, err
	}
	var item courseModels.ContentItem
	if err := s.db.First(&item, contentItemID).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch content item")
	}
	return &item, nil
}
