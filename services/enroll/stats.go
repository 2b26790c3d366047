package enroll

import (
	"math"

	"lms/apperr"
	courseModels "lms/models/course"
)

// CourseStats summarizes enrollment outcomes for one course.
type CourseStats struct {
	TotalEnrollments     int64    `json:"total_enrollments"`
	ActiveEnrollments    int64    `json:"active_enrollments"`
	CompletedEnrollments int64    `json:"completed_enrollments"`
	DroppedEnrollments   int64    `json:"dropped_enrollments"`
	AverageProgress      float64  `json:"average_progress"`
	CompletionRate       float64  `json:"completion_rate"`
	AvgDaysToComplete    *float64 `json:"avg_days_to_complete"`
}

// GetCourseStats computes enrollment statistics for a course. Dropped
// enrollments are excluded from the completion-rate denominator.
// Restricted to callers with edit rights.
func (s *Service) GetCourseStats(userID, courseID uint) (*CourseStats, error) {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return nil, err
	}

	var enrollments []courseModels.Enrollment
	if err := s.db.Where("course_id = ?", courseID).Find(&enrollments).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch enrollments")
	}

	stats := &CourseStats{}
	var progressSum float64
	var daysSum float64
	var daysCount int64

	for _, e := range enrollments {
		stats.TotalEnrollments++
		progressSum += e.Progress
		switch e.Status {
		case courseModels.StatusEnrolled:
			stats.ActiveEnrollments++
		case courseModels.StatusCompleted:
			stats.CompletedEnrollments++
			if e.CompletedAt != nil {
				daysSum += e.CompletedAt.Sub(e.EnrolledAt).Hours() / 24
				daysCount++
			}
		case courseModels.StatusDropped:
			stats.DroppedEnrollments++
		}
	}

	if stats.TotalEnrollments > 0 {
		stats.AverageProgress = progressSum / float64(stats.TotalEnrollments)
	}
	started := stats.TotalEnrollments - stats.DroppedEnrollments
	if started > 0 {
		stats.CompletionRate = math.Round(float64(stats.CompletedEnrollments)/float64(started)*100*100) / 100
	}
	if daysCount > 0 {
		avg := daysSum / float64(daysCount)
		stats.AvgDaysToComplete = &avg
	}
	return stats, nil
}

// ItemProgress pairs a content item with the learner's record for it.
type ItemProgress struct {
	Item   courseModels.ContentItem     `json:"item"`
	Record *courseModels.ProgressRecord `json:"record"`
}

// ModuleProgress rolls up one module.
type ModuleProgress struct {
	Module         courseModels.Module `json:"module"`
	Items          []ItemProgress      `json:"items"`
	CompletedItems int                 `json:"completed_items"`
}

// UserProgress is the full per-module view of one enrollment.
type UserProgress struct {
	Enrollment     courseModels.Enrollment `json:"enrollment"`
	Modules        []ModuleProgress        `json:"modules"`
	TotalItems     int                     `json:"total_items"`
	CompletedItems int                     `json:"completed_items"`
	TotalTimeSpent int                     `json:"total_time_spent"`
}

// GetUserProgress returns the caller's detailed progress through a
// course, item by item under each module.
func (s *Service) GetUserProgress(userID, courseID uint) (*UserProgress, error) {
	enrollment, err := s.activeEnrollment(userID, courseID)
	if err != nil {
		return nil, err
	}

	var modules []courseModels.Module
	if err := s.db.Where("course_id = ?", courseID).Order("position asc").Find(&modules).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch modules")
	}

	moduleIDs := make([]uint, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}

	var items []courseModels.ContentItem
	if len(moduleIDs) > 0 {
		if err := s.db.Where("module_id IN ?", moduleIDs).Order("position asc").Find(&items).Error; err != nil {
			return nil, apperr.Internal(err, "failed to fetch content items")
		}
	}

	var records []courseModels.ProgressRecord
	if err := s.db.Where("enrollment_id = ?", enrollment.ID).Find(&records).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch progress records")
	}
	recordByItem := make(map[uint]*courseModels.ProgressRecord, len(records))
	for i := range records {
		recordByItem[records[i].ContentItemID] = &records[i]
	}

	itemsByModule := make(map[uint][]courseModels.ContentItem)
	for _, item := range items {
		itemsByModule[item.ModuleID] = append(itemsByModule[item.ModuleID], item)
	}

	result := &UserProgress{Enrollment: *enrollment}
	for _, m := range modules {
		mp := ModuleProgress{Module: m}
		for _, item := range itemsByModule[m.ID] {
			record := recordByItem[item.ID]
			mp.Items = append(mp.Items, ItemProgress{Item: item, Record: record})
			result.TotalItems++
			if record != nil {
				result.TotalTimeSpent += record.TimeSpent
				if record.Status == courseModels.ProgressCompleted {
					mp.CompletedItems++
					result.CompletedItems++
				}
			}
		}
		result.Modules = append(result.Modules, mp)
	}
	return result, nil
}
