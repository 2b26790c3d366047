package enroll

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"lms/apperr"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return New(db, nil, access.NewEvaluator(db, nil, false)), db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedCourse builds a public course with one module holding n text items.
func seedCourse(t *testing.T, db *gorm.DB, items int) (*courseModels.Course, []courseModels.ContentItem) {
	t.Helper()
	course := &courseModels.Course{Title: "Course", OwnerType: courseModels.OwnerTypeSystem, IsPublic: true}
	require.NoError(t, db.Create(course).Error)
	module := &courseModels.Module{CourseID: course.ID, Title: "M1", Position: 1}
	require.NoError(t, db.Create(module).Error)

	created := make([]courseModels.ContentItem, items)
	for i := 0; i < items; i++ {
		item := courseModels.ContentItem{
			ModuleID:    module.ID,
			Title:       fmt.Sprintf("Item %d", i+1),
			ContentType: courseModels.ContentTypeText,
			Content:     datatypes.JSON(`{"text":"hello"}`),
			Position:    i + 1,
		}
		require.NoError(t, db.Create(&item).Error)
		created[i] = item
	}
	return course, created
}

func seedQuiz(t *testing.T, db *gorm.DB, courseID uint, questions string) *courseModels.ContentItem {
	t.Helper()
	module := &courseModels.Module{CourseID: courseID, Title: "Quiz Module", Position: 99}
	require.NoError(t, db.Create(module).Error)
	item := &courseModels.ContentItem{
		ModuleID:    module.ID,
		Title:       "Quiz",
		ContentType: courseModels.ContentTypeQuiz,
		Content:     datatypes.JSON(questions),
		Position:    1,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestEnrollIsIdempotent(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, _ := seedCourse(t, db, 1)

	first, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	second, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&courseModels.Enrollment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnrollPrivateCourseDenied(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course := &courseModels.Course{Title: "Private", OwnerType: courseModels.OwnerTypeSystem}
	require.NoError(t, db.Create(course).Error)

	_, err := svc.Enroll(user.ID, course.ID)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestDropAndReenrollKeepsRow(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, _ := seedCourse(t, db, 1)

	first, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	dropped, err := svc.Drop(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusDropped, dropped.Status)

	// dropping twice reports not enrolled
	_, err = svc.Drop(user.ID, course.ID)
	assert.Equal(t, apperr.KindNotEnrolled, apperr.KindOf(err))

	again, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, courseModels.StatusEnrolled, again.Status)
	assert.Nil(t, again.CompletedAt)
}

func TestCompletedEnrollmentStaysCompleted(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 1)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	_, enrollment, err := svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted,
	})
	require.NoError(t, err)
	require.Equal(t, courseModels.StatusCompleted, enrollment.Status)

	again, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusCompleted, again.Status)
	assert.NotNil(t, again.CompletedAt)
}

func TestRecordProgressAggregates(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 4)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	// 2 of 4 completed -> 0.5, still enrolled
	for i := 0; i < 2; i++ {
		_, enrollment, err := svc.RecordProgress(user.ID, course.ID, items[i].ID, ProgressInput{
			Status: courseModels.ProgressCompleted, TimeSpent: 60,
		})
		require.NoError(t, err)
		if i == 1 {
			assert.InDelta(t, 0.5, enrollment.Progress, 0.001)
			assert.Equal(t, courseModels.StatusEnrolled, enrollment.Status)
		}
	}

	// in_progress does not count toward the aggregate
	_, enrollment, err := svc.RecordProgress(user.ID, course.ID, items[2].ID, ProgressInput{
		Status: courseModels.ProgressInProgress,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, enrollment.Progress, 0.001)

	// completing everything flips the enrollment exactly once
	for i := 2; i < 4; i++ {
		_, enrollment, err = svc.RecordProgress(user.ID, course.ID, items[i].ID, ProgressInput{
			Status: courseModels.ProgressCompleted,
		})
		require.NoError(t, err)
	}
	assert.InDelta(t, 1.0, enrollment.Progress, 0.001)
	assert.Equal(t, courseModels.StatusCompleted, enrollment.Status)
	require.NotNil(t, enrollment.CompletedAt)
	completedAt := *enrollment.CompletedAt

	// re-recording a completed item keeps status and timestamp
	_, enrollment, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted, TimeSpent: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, courseModels.StatusCompleted, enrollment.Status)
	assert.Equal(t, completedAt.Unix(), enrollment.CompletedAt.Unix())
}

func TestRecordProgressTimeAccumulatesAndScoreOverwrites(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 2)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	score1 := 70.0
	record, _, err := svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressInProgress, TimeSpent: 100, Score: &score1,
	})
	require.NoError(t, err)

	score2 := 85.0
	record, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted, TimeSpent: 50, Score: &score2,
	})
	require.NoError(t, err)
	assert.Equal(t, 150, record.TimeSpent)
	require.NotNil(t, record.Score)
	assert.Equal(t, 85.0, *record.Score)

	// completed_at written once
	firstCompleted := *record.CompletedAt
	record, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, firstCompleted.Unix(), record.CompletedAt.Unix())
}

func TestRecordProgressValidation(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 1)
	otherCourse, _ := seedCourse(t, db, 1)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{Status: "done"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	bad := 120.0
	_, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted, Score: &bad,
	})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	// enrolled elsewhere, but the item belongs to a different course
	_, err = svc.Enroll(user.ID, otherCourse.ID)
	require.NoError(t, err)
	_, _, err = svc.RecordProgress(user.ID, otherCourse.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// not enrolled at all
	stranger := seedUser(t, db, "s@example.com")
	_, _, err = svc.RecordProgress(stranger.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted,
	})
	assert.Equal(t, apperr.KindNotEnrolled, apperr.KindOf(err))
}

func TestSubmitQuizGrading(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, _ := seedCourse(t, db, 0)
	quiz := seedQuiz(t, db, course.ID, `{"questions":[
		{"id":"q1","type":"multiple_choice","correct_answer":2},
		{"id":"q2","type":"true_false","correct_answer":true},
		{"id":"q3","type":"multiple_select","correct_answers":["a","c"]},
		{"id":"q4","type":"text","exact_match":true,"correct_answer":"Gopher"},
		{"id":"q5","type":"text","keywords":["interface","channel"]}
	]}`)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	result, err := svc.SubmitQuiz(user.ID, course.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", Value: float64(2)},
		{QuestionID: "q2", Value: true},
		{QuestionID: "q3", Value: []interface{}{"c", "a"}},
		{QuestionID: "q4", Value: "  gopher "},
		{QuestionID: "q5", Value: "I would use a channel here"},
	}, 300)
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, 5, result.CorrectAnswers)
	assert.Equal(t, 5, result.TotalQuestions)
	assert.Equal(t, "Excellent! You've mastered this material.", result.Feedback)

	// all wrong, including an unknown question id, scores zero
	result, err = svc.SubmitQuiz(user.ID, course.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", Value: float64(0)},
		{QuestionID: "q2", Value: false},
		{QuestionID: "q3", Value: []interface{}{"a"}},
		{QuestionID: "q4", Value: "badger"},
		{QuestionID: "ghost", Value: "anything"},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
	for _, g := range result.GradedAnswers {
		assert.False(t, g.IsCorrect)
	}
}

func TestSubmitQuizPartialScore(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, _ := seedCourse(t, db, 0)
	quiz := seedQuiz(t, db, course.ID, `{"questions":[
		{"id":"q1","type":"multiple_choice","correct_answer":1},
		{"id":"q2","type":"multiple_choice","correct_answer":2},
		{"id":"q3","type":"multiple_choice","correct_answer":3},
		{"id":"q4","type":"multiple_choice","correct_answer":4}
	]}`)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	// unanswered questions simply count against the score
	result, err := svc.SubmitQuiz(user.ID, course.ID, quiz.ID, []QuizAnswer{
		{QuestionID: "q1", Value: float64(1)},
		{QuestionID: "q2", Value: float64(2)},
		{QuestionID: "q3", Value: float64(9)},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Score)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 4, result.TotalQuestions)
}

func TestSubmitQuizWrongContentType(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 1)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)

	_, err = svc.SubmitQuiz(user.ID, course.ID, items[0].ID, nil, 0)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func seedAssignment(t *testing.T, db *gorm.DB, courseID uint, due *time.Time) *courseModels.ContentItem {
	t.Helper()
	payload := courseModels.AssignmentContent{Description: "Write an essay", DueDate: due}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	module := &courseModels.Module{CourseID: courseID, Title: "Assignments", Position: 50}
	require.NoError(t, db.Create(module).Error)
	item := &courseModels.ContentItem{
		ModuleID:    module.ID,
		Title:       "Essay",
		ContentType: courseModels.ContentTypeAssignment,
		Content:     datatypes.JSON(raw),
		Position:    1,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestAssignmentWorkflow(t *testing.T) {
	svc, db := newTestService(t)
	student := seedUser(t, db, "student@example.com")
	grader := &models.User{Email: "grader@example.com", Password: "x", IsSystemAdmin: true}
	require.NoError(t, db.Create(grader).Error)

	course, _ := seedCourse(t, db, 0)
	due := time.Now().Add(48 * time.Hour)
	item := seedAssignment(t, db, course.ID, &due)

	_, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	// grading before any submission
	_, err = svc.GradeAssignment(grader.ID, course.ID, item.ID, student.ID, GradeInput{Score: 90})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	submission, err := svc.SubmitAssignment(student.ID, course.ID, item.ID, SubmitAssignmentInput{
		Content: "my essay", TimeSpent: 600,
	})
	require.NoError(t, err)
	assert.False(t, submission.IsLate)
	assert.Equal(t, courseModels.ProgressSubmitted, submission.Record.Status)
	assert.Nil(t, submission.Record.Score)

	// submitted does not complete the course
	var enrollment courseModels.Enrollment
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.StatusEnrolled, enrollment.Status)

	// students cannot grade
	_, err = svc.GradeAssignment(student.ID, course.ID, item.ID, student.ID, GradeInput{Score: 100})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	record, err := svc.GradeAssignment(grader.ID, course.ID, item.ID, student.ID, GradeInput{
		Score: 88, Feedback: "Solid work",
	})
	require.NoError(t, err)
	assert.Equal(t, courseModels.ProgressCompleted, record.Status)
	require.NotNil(t, record.Score)
	assert.Equal(t, 88.0, *record.Score)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(record.Data, &data))
	assert.Equal(t, "Solid work", data["feedback"])
	assert.Equal(t, "my essay", data["submission"])

	// grading completed the only item, so the enrollment completes
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&enrollment).Error)
	assert.Equal(t, courseModels.StatusCompleted, enrollment.Status)
}

func TestLateSubmissionFlagged(t *testing.T) {
	svc, db := newTestService(t)
	student := seedUser(t, db, "student@example.com")
	course, _ := seedCourse(t, db, 0)
	due := time.Now().Add(-24 * time.Hour)
	item := seedAssignment(t, db, course.ID, &due)

	_, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	submission, err := svc.SubmitAssignment(student.ID, course.ID, item.ID, SubmitAssignmentInput{Content: "late essay"})
	require.NoError(t, err)
	assert.True(t, submission.IsLate)
}

func TestGradeValidatesScore(t *testing.T) {
	svc, db := newTestService(t)
	student := seedUser(t, db, "student@example.com")
	grader := &models.User{Email: "grader@example.com", Password: "x", IsSystemAdmin: true}
	require.NoError(t, db.Create(grader).Error)
	course, _ := seedCourse(t, db, 0)
	item := seedAssignment(t, db, course.ID, nil)

	_, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.SubmitAssignment(student.ID, course.ID, item.ID, SubmitAssignmentInput{Content: "essay"})
	require.NoError(t, err)

	_, err = svc.GradeAssignment(grader.ID, course.ID, item.ID, student.ID, GradeInput{Score: 101})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestCourseStats(t *testing.T) {
	svc, db := newTestService(t)
	grader := &models.User{Email: "root@example.com", Password: "x", IsSystemAdmin: true}
	require.NoError(t, db.Create(grader).Error)
	course, items := seedCourse(t, db, 1)

	// one completed, one active, one dropped
	done := seedUser(t, db, "done@example.com")
	_, err := svc.Enroll(done.ID, course.ID)
	require.NoError(t, err)
	_, _, err = svc.RecordProgress(done.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted,
	})
	require.NoError(t, err)

	active := seedUser(t, db, "active@example.com")
	_, err = svc.Enroll(active.ID, course.ID)
	require.NoError(t, err)

	quitter := seedUser(t, db, "quit@example.com")
	_, err = svc.Enroll(quitter.ID, course.ID)
	require.NoError(t, err)
	_, err = svc.Drop(quitter.ID, course.ID)
	require.NoError(t, err)

	stats, err := svc.GetCourseStats(grader.ID, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.TotalEnrollments)
	assert.EqualValues(t, 1, stats.ActiveEnrollments)
	assert.EqualValues(t, 1, stats.CompletedEnrollments)
	assert.EqualValues(t, 1, stats.DroppedEnrollments)
	// dropped excluded from the denominator: 1 of 2 starters finished
	assert.InDelta(t, 50.0, stats.CompletionRate, 0.001)
	require.NotNil(t, stats.AvgDaysToComplete)
}

func TestUserProgressRollup(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 3)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	_, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted, TimeSpent: 120,
	})
	require.NoError(t, err)

	progress, err := svc.GetUserProgress(user.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, progress.TotalItems)
	assert.Equal(t, 1, progress.CompletedItems)
	assert.Equal(t, 120, progress.TotalTimeSpent)
	require.Len(t, progress.Modules, 1)
	assert.Equal(t, 1, progress.Modules[0].CompletedItems)
}

func TestDashboardAggregation(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")
	course, items := seedCourse(t, db, 2)
	due := time.Now().Add(3 * 24 * time.Hour)
	assignment := seedAssignment(t, db, course.ID, &due)

	_, err := svc.Enroll(user.ID, course.ID)
	require.NoError(t, err)
	score := 80.0
	_, _, err = svc.RecordProgress(user.ID, course.ID, items[0].ID, ProgressInput{
		Status: courseModels.ProgressCompleted, TimeSpent: 200, Score: &score,
	})
	require.NoError(t, err)

	dashboard, err := svc.GetDashboard(user.ID)
	require.NoError(t, err)

	require.Len(t, dashboard.EnrolledCourses, 1)
	assert.Equal(t, course.ID, dashboard.EnrolledCourses[0].Course.ID)

	require.Len(t, dashboard.UpcomingTasks, 1)
	assert.Equal(t, assignment.ID, dashboard.UpcomingTasks[0].ContentItemID)
	require.Len(t, dashboard.UpcomingDeadlines, 1)

	require.Len(t, dashboard.RecentActivity, 1)
	assert.Equal(t, items[0].Title, dashboard.RecentActivity[0].ItemTitle)

	assert.InDelta(t, 80.0, dashboard.Performance.AverageScore, 0.001)
	assert.EqualValues(t, 1, dashboard.Performance.TotalAttempts)

	assert.EqualValues(t, 1, dashboard.Completion.CompletedItems)
	assert.EqualValues(t, 3, dashboard.Completion.TotalItems)

	assert.Equal(t, 200, dashboard.TimeSpent.TotalTimeSpent)
	assert.Equal(t, 200, dashboard.TimeSpent.TimeOnReadings)
}
