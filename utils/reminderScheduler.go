package utils

import (
	"encoding/json"
	"log"
	"time"

	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// InitializeReminderScheduler starts the daily due-date reminder job.
func InitializeReminderScheduler(db *gorm.DB) *cron.Cron {
	log.Println("[REMINDER-SCHEDULER] Initializing due-date reminder scheduler...")

	c := cron.New()

	// Run daily at 8 AM to remind learners about work due within 2 days
	c.AddFunc("0 8 * * *", func() {
		log.Println("[REMINDER-SCHEDULER] Running daily due-date check...")
		ProcessDueDateReminders(db)
	})

	c.Start()
	log.Println("[REMINDER-SCHEDULER] Scheduler started - runs daily at 8 AM")
	return c
}

// ProcessDueDateReminders emails every enrolled learner who has not
// completed a quiz or assignment due within the next two days.
func ProcessDueDateReminders(db *gorm.DB) {
	type candidate struct {
		ItemID      uint
		ItemTitle   string
		Content     []byte
		CourseTitle string
		Email       string
		FirstName   string
	}

	var candidates []candidate
	err := db.Model(&courseModels.ContentItem{}).
		Select(`content_items.id AS item_id, content_items.title AS item_title,
			content_items.content, courses.title AS course_title,
			users.email, users.first_name`).
		Joins("JOIN modules ON modules.id = content_items.module_id AND modules.deleted_at IS NULL").
		Joins("JOIN courses ON courses.id = modules.course_id AND courses.deleted_at IS NULL").
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL").
		Joins("JOIN users ON users.id = enrollments.user_id AND users.deleted_at IS NULL").
		Where("enrollments.status = ?", courseModels.StatusEnrolled).
		Where("content_items.content_type IN ?", []string{courseModels.ContentTypeQuiz, courseModels.ContentTypeAssignment}).
		Where(`NOT EXISTS (
			SELECT 1 FROM progress_records
			WHERE progress_records.enrollment_id = enrollments.id
			AND progress_records.content_item_id = content_items.id
			AND progress_records.status IN ('completed', 'submitted')
		)`).
		Find(&candidates).Error
	if err != nil {
		log.Printf("[REMINDER-SCHEDULER] Error fetching candidates: %v", err)
		return
	}

	now := time.Now()
	horizon := now.AddDate(0, 0, 2)
	sent := 0

	for _, cand := range candidates {
		var payload courseModels.AssignmentContent
		if err := json.Unmarshal(cand.Content, &payload); err != nil || payload.DueDate == nil {
			continue
		}
		if payload.DueDate.Before(now) || payload.DueDate.After(horizon) {
			continue
		}
		if err := SendDueDateReminder(cand.Email, cand.FirstName, cand.ItemTitle, cand.CourseTitle, *payload.DueDate); err != nil {
			continue
		}
		sent++
	}

	log.Printf("[REMINDER-SCHEDULER] Sent %d due-date reminders", sent)
}
