package enroll

import (
	"encoding/json"
	"sort"
	"time"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/datatypes"
)

// UpcomingTask is an unfinished quiz or assignment with a future due
// date, across all of a learner's enrollments.
type UpcomingTask struct {
	ContentItemID uint      `json:"content_item_id"`
	Title         string    `json:"title"`
	ContentType   string    `json:"content_type"`
	DueDate       time.Time `json:"due_date"`
	CourseID      uint      `json:"course_id"`
	CourseTitle   string    `json:"course_title"`
}

// ActivityEntry is one row of the learner's recent activity feed.
type ActivityEntry struct {
	RecordID    uint      `json:"record_id"`
	Status      string    `json:"status"`
	Score       *float64  `json:"score"`
	TimeSpent   int       `json:"time_spent"`
	UpdatedAt   time.Time `json:"updated_at"`
	ItemTitle   string    `json:"item_title"`
	ContentType string    `json:"content_type"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
}

// PerformanceMetrics aggregates scores over completed items.
type PerformanceMetrics struct {
	AverageScore        float64 `json:"average_score"`
	TotalAttempts       int64   `json:"total_attempts"`
	CoursesWithActivity int64   `json:"courses_with_activity"`
}

// CompletionStats counts completed items per content type across the
// learner's active enrollments.
type CompletionStats struct {
	CompletedItems       int64   `json:"completed_items"`
	TotalItems           int64   `json:"total_items"`
	CompletedQuizzes     int64   `json:"completed_quizzes"`
	CompletedAssignments int64   `json:"completed_assignments"`
	CompletedVideos      int64   `json:"completed_videos"`
	CompletedTexts       int64   `json:"completed_texts"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

// TimeSpentStats breaks recorded time down by content type.
type TimeSpentStats struct {
	TotalTimeSpent    int     `json:"total_time_spent"`
	AvgTimePerItem    float64 `json:"avg_time_per_item"`
	TimeOnVideos      int     `json:"time_on_videos"`
	TimeOnQuizzes     int     `json:"time_on_quizzes"`
	TimeOnAssignments int     `json:"time_on_assignments"`
	TimeOnReadings    int     `json:"time_on_readings"`
}

// Dashboard is the aggregated learner home view.
type Dashboard struct {
	EnrolledCourses         []EnrollmentWithCourse `json:"enrolled_courses"`
	OverallProgress         float64                `json:"overall_progress"`
	UpcomingTasks           []UpcomingTask         `json:"upcoming_tasks"`
	UpcomingDeadlines       []UpcomingTask         `json:"upcoming_deadlines"`
	RecentActivity          []ActivityEntry        `json:"recent_activity"`
	Performance             *PerformanceMetrics    `json:"performance_metrics"`
	Completion              *CompletionStats       `json:"completion_stats"`
	TimeSpent               *TimeSpentStats        `json:"time_spent_stats"`
	CoursesNeedingAttention []EnrollmentWithCourse `json:"courses_needing_attention"`
}

// GetDashboard aggregates every learner analytics view into one
// response.
func (s *Service) GetDashboard(userID uint) (*Dashboard, error) {
	enrolled, err := s.UserEnrollments(userID, courseModels.StatusEnrolled)
	if err != nil {
		return nil, err
	}
	tasks, err := s.UpcomingTasks(userID)
	if err != nil {
		return nil, err
	}
	activity, err := s.RecentActivity(userID)
	if err != nil {
		return nil, err
	}
	performance, err := s.GetPerformanceMetrics(userID)
	if err != nil {
		return nil, err
	}
	completion, err := s.GetCompletionStats(userID)
	if err != nil {
		return nil, err
	}
	timeSpent, err := s.GetTimeSpentStats(userID)
	if err != nil {
		return nil, err
	}

	overall := 0.0
	if len(enrolled) > 0 {
		for _, e := range enrolled {
			overall += e.Progress
		}
		overall /= float64(len(enrolled))
	}

	var attention []EnrollmentWithCourse
	for _, e := range enrolled {
		if e.Progress < 0.3 {
			attention = append(attention, e)
			if len(attention) == 3 {
				break
			}
		}
	}

	weekOut := time.Now().Add(7 * 24 * time.Hour)
	var deadlines []UpcomingTask
	for _, task := range tasks {
		if task.DueDate.Before(weekOut) {
			deadlines = append(deadlines, task)
			if len(deadlines) == 5 {
				break
			}
		}
	}

	return &Dashboard{
		EnrolledCourses:         enrolled,
		OverallProgress:         overall,
		UpcomingTasks:           tasks,
		UpcomingDeadlines:       deadlines,
		RecentActivity:          activity,
		Performance:             performance,
		Completion:              completion,
		TimeSpent:               timeSpent,
		CoursesNeedingAttention: attention,
	}, nil
}

// UpcomingTasks lists unfinished quiz and assignment items with due
// dates from today onward, ordered soonest first. Due dates live inside
// the JSON payload, so candidates are filtered in memory.
func (s *Service) UpcomingTasks(userID uint) ([]UpcomingTask, error) {
	type row struct {
		ItemID      uint
		Title       string
		ContentType string
		Content     datatypes.JSON
		CourseID    uint
		CourseTitle string
	}

	var rows []row
	err := s.db.Model(&courseModels.ContentItem{}).
		Select(`content_items.id AS item_id, content_items.title,
			content_items.content_type, content_items.content,
			courses.id AS course_id, courses.title AS course_title`).
		Joins("JOIN modules ON modules.id = content_items.module_id AND modules.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = modules.course_id AND courses.deleted_at IS NULL").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND enrollments.status != ?", userID, courseModels.StatusDropped).
		Where("content_items.content_type IN ?", []string{courseModels.ContentTypeQuiz, courseModels.ContentTypeAssignment}).
		Where("content_items.id NOT IN (?)", s.db.Model(&courseModels.ProgressRecord{}).
			Select("content_item_id").
			Joins("JOIN enrollments e2 ON e2.id = progress_records.enrollment_id").
			Where("e2.user_id = ? AND progress_records.status = ?", userID, courseModels.ProgressCompleted)).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch upcoming tasks")
	}

	today := time.Now().Truncate(24 * time.Hour)
	var tasks []UpcomingTask
	for _, r := range rows {
		var payload courseModels.AssignmentContent
		if err := json.Unmarshal(r.Content, &payload); err != nil || payload.DueDate == nil {
			continue
		}
		if payload.DueDate.Before(today) {
			continue
		}
		tasks = append(tasks, UpcomingTask{
			ContentItemID: r.ItemID,
			Title:         r.Title,
			ContentType:   r.ContentType,
			DueDate:       *payload.DueDate,
			CourseID:      r.CourseID,
			CourseTitle:   r.CourseTitle,
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	return tasks, nil
}

// RecentActivity returns the learner's latest 10 progress records with
// their item and course context.
func (s *Service) RecentActivity(userID uint) ([]ActivityEntry, error) {
	var entries []ActivityEntry
	err := s.db.Model(&courseModels.ProgressRecord{}).
		Select(`progress_records.id AS record_id, progress_records.status,
			progress_records.score, progress_records.time_spent,
			progress_records.updated_at,
			content_items.title AS item_title, content_items.content_type,
			courses.id AS course_id, courses.title AS course_title`).
		Joins("JOIN enrollments ON enrollments.id = progress_records.enrollment_id AND enrollments.deleted_at IS NULL").
		Joins("JOIN content_items ON content_items.id = progress_records.content_item_id AND content_items.deleted_at IS NULL").
		Joins("JOIN modules ON modules.id = content_items.module_id AND modules.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = modules.course_id AND courses.deleted_at IS NULL").
		Where("enrollments.user_id = ?", userID).
		Order("progress_records.updated_at desc").
		Limit(10).
		Find(&entries).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch recent activity")
	}
	return entries, nil
}

// GetPerformanceMetrics averages scores over the learner's completed
// items.
func (s *Service) GetPerformanceMetrics(userID uint) (*PerformanceMetrics, error) {
	var metrics PerformanceMetrics
	err := s.db.Model(&courseModels.ProgressRecord{}).
		Select(`COALESCE(AVG(progress_records.score), 0) AS average_score,
			COUNT(progress_records.id) AS total_attempts,
			COUNT(DISTINCT enrollments.course_id) AS courses_with_activity`).
		Joins("JOIN enrollments ON enrollments.id = progress_records.enrollment_id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ? AND progress_records.status = ?", userID, courseModels.ProgressCompleted).
		Scan(&metrics).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch performance metrics")
	}
	return &metrics, nil
}

// GetCompletionStats counts completed items by content type across the
// learner's active enrollments.
func (s *Service) GetCompletionStats(userID uint) (*CompletionStats, error) {
	var stats CompletionStats
	err := s.db.Model(&courseModels.Enrollment{}).
		Select(`COUNT(CASE WHEN progress_records.status = 'completed' THEN 1 END) AS completed_items,
			COUNT(DISTINCT content_items.id) AS total_items,
			COUNT(CASE WHEN content_items.content_type = 'quiz' AND progress_records.status = 'completed' THEN 1 END) AS completed_quizzes,
			COUNT(CASE WHEN content_items.content_type = 'assignment' AND progress_records.status = 'completed' THEN 1 END) AS completed_assignments,
			COUNT(CASE WHEN content_items.content_type = 'video' AND progress_records.status = 'completed' THEN 1 END) AS completed_videos,
			COUNT(CASE WHEN content_items.content_type = 'text' AND progress_records.status = 'completed' THEN 1 END) AS completed_texts`).
		Joins("JOIN modules ON modules.course_id = enrollments.course_id AND modules.deleted_at IS NULL").
		Joins("JOIN content_items ON content_items.module_id = modules.id AND content_items.deleted_at IS NULL").
		Joins("LEFT JOIN progress_records ON progress_records.content_item_id = content_items.id AND progress_records.enrollment_id = enrollments.id").
		Where("enrollments.user_id = ? AND enrollments.status = ?", userID, courseModels.StatusEnrolled).
		Scan(&stats).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch completion stats")
	}
	if stats.TotalItems > 0 {
		stats.CompletionPercentage = float64(stats.CompletedItems) / float64(stats.TotalItems) * 100
	}
	return &stats, nil
}

// GetTimeSpentStats totals recorded time per content type.
func (s *Service) GetTimeSpentStats(userID uint) (*TimeSpentStats, error) {
	var stats TimeSpentStats
	err := s.db.Model(&courseModels.ProgressRecord{}).
		Select(`COALESCE(SUM(progress_records.time_spent), 0) AS total_time_spent,
			COALESCE(AVG(progress_records.time_spent), 0) AS avg_time_per_item,
			COALESCE(SUM(CASE WHEN content_items.content_type = 'video' THEN progress_records.time_spent ELSE 0 END), 0) AS time_on_videos,
			COALESCE(SUM(CASE WHEN content_items.content_type = 'quiz' THEN progress_records.time_spent ELSE 0 END), 0) AS time_on_quizzes,
			COALESCE(SUM(CASE WHEN content_items.content_type = 'assignment' THEN progress_records.time_spent ELSE 0 END), 0) AS time_on_assignments,
			COALESCE(SUM(CASE WHEN content_items.content_type = 'text' THEN progress_records.time_spent ELSE 0 END), 0) AS time_on_readings`).
		Joins("JOIN enrollments ON enrollments.id = progress_records.enrollment_id AND enrollments.deleted_at IS NULL").
		Joins("JOIN content_items ON content_items.id = progress_records.content_item_id AND content_items.deleted_at IS NULL").
		Where("enrollments.user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to fetch time spent stats")
	}
	return &stats, nil
}
