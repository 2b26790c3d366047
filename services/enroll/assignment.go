package enroll

import (
	"encoding/json"
	"errors"
	"time"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmitAssignmentInput struct {
	Content   string `json:"content" validate:"required"`
	TimeSpent int    `json:"time_spent" validate:"omitempty,min=0"`
}

// SubmissionResult describes a recorded assignment submission.
type SubmissionResult struct {
	Record *courseModels.ProgressRecord `json:"record"`
	IsLate bool                         `json:"is_late"`
}

// SubmitAssignment records a submission awaiting review. The record
// stays at status submitted with no score until an instructor grades
// it; submissions after the due date are accepted but flagged late.
func (s *Service) SubmitAssignment(userID, courseID, contentItemID uint, input SubmitAssignmentInput) (*SubmissionResult, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	item, err := s.fetchItemInCourse(contentItemID, courseID)
	if err != nil {
		return nil, err
	}
	if item.ContentType != courseModels.ContentTypeAssignment {
		return nil, apperr.InvalidArgument("content item is not an assignment")
	}

	assignment, err := item.AssignmentPayload()
	if err != nil {
		return nil, apperr.Internal(err, "failed to read assignment")
	}

	isLate := assignment.DueDate != nil && time.Now().After(*assignment.DueDate)

	data, err := json.Marshal(map[string]interface{}{
		"submission":   input.Content,
		"submitted_at": time.Now(),
		"is_late":      isLate,
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode submission")
	}

	var record *courseModels.ProgressRecord
	err = s.db.Transaction(func(tx *gorm.DB) error {
		record, err = upsertProgress(tx, enrollment.ID, contentItemID, func(r *courseModels.ProgressRecord) {
			r.Status = courseModels.ProgressSubmitted
			r.Score = nil
			r.TimeSpent += input.TimeSpent
			r.Data = datatypes.JSON(data)
		})
		if err != nil {
			return err
		}
		return recalcEnrollment(tx, enrollment)
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to record submission")
	}

	s.cache.InvalidateUserAccess(userID, courseID)
	return &SubmissionResult{Record: record, IsLate: isLate}, nil
}

type GradeInput struct {
	Score    float64 `json:"score" validate:"min=0,max=100"`
	Feedback string  `json:"feedback"`
}

// GradeAssignment scores a submitted assignment. Requires edit rights
// on the course; the record transitions to completed and the grading
// trail is merged into its data payload.
func (s *Service) GradeAssignment(graderID, courseID, contentItemID, studentID uint, input GradeInput) (*courseModels.ProgressRecord, error) {
	if err := s.access.RequireEdit(graderID, courseID); err != nil {
		return nil, err
	}
	if input.Score < 0 || input.Score > 100 {
		return nil, apperr.InvalidArgument("score must be between 0 and 100")
	}

	item, err := s.fetchItemInCourse(contentItemID, courseID)
	if err != nil {
		return nil, err
	}
	if item.ContentType != courseModels.ContentTypeAssignment {
		return nil, apperr.InvalidArgument("content item is not an assignment")
	}

	var enrollment courseModels.Enrollment
	err = s.db.Where("user_id = ? AND course_id = ?", studentID, courseID).First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no submission found for this student")
		}
		return nil, apperr.Internal(err, "failed to fetch enrollment")
	}

	var record courseModels.ProgressRecord
	err = s.db.Where("enrollment_id = ? AND content_item_id = ? AND status = ?",
		enrollment.ID, contentItemID, courseModels.ProgressSubmitted).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("no submission found for this student")
		}
		return nil, apperr.Internal(err, "failed to fetch submission")
	}

	// merge the grading trail into the submission payload
	payload := map[string]interface{}{}
	if len(record.Data) > 0 {
		if err := json.Unmarshal(record.Data, &payload); err != nil {
			payload = map[string]interface{}{}
		}
	}
	payload["feedback"] = input.Feedback
	payload["graded_by"] = graderID
	payload["graded_at"] = time.Now()

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, apperr.Internal(err, "failed to encode grade")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		record.Status = courseModels.ProgressCompleted
		record.Score = &input.Score
		record.Data = datatypes.JSON(data)
		if record.CompletedAt == nil {
			record.CompletedAt = &now
		}
		if err := tx.Save(&record).Error; err != nil {
			return err
		}
		return recalcEnrollment(tx, &enrollment)
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to record grade")
	}

	s.cache.InvalidateUserAccess(studentID, courseID)
	return &record, nil
}
