package catalog

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"lms/apperr"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/access"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func seedAdmin(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x", IsSystemAdmin: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateCoursePermissions(t *testing.T) {
	svc, db := newTestService(t)
	admin := seedAdmin(t, db, "root@example.com")
	user := seedUser(t, db, "a@example.com")

	// system-owned requires a system admin
	_, err := svc.CreateCourse(user.ID, CreateCourseInput{Title: "Nope", OwnerType: courseModels.OwnerTypeSystem})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	course, err := svc.CreateCourse(admin.ID, CreateCourseInput{Title: "Sys", OwnerType: courseModels.OwnerTypeSystem, IsPublic: true})
	require.NoError(t, err)
	assert.Nil(t, course.OwnerID)

	// user-owned defaults to the caller
	mine, err := svc.CreateCourse(user.ID, CreateCourseInput{Title: "Mine", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)
	require.NotNil(t, mine.OwnerID)
	assert.Equal(t, user.ID, *mine.OwnerID)

	// entity-owned requires a grant at the entity
	client := &models.Client{Name: "Acme", Type: models.ClientTypeOrganization}
	require.NoError(t, db.Create(client).Error)
	clientID := client.ID

	_, err = svc.CreateCourse(user.ID, CreateCourseInput{Title: "Org", OwnerType: courseModels.OwnerTypeClient, OwnerID: &clientID})
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	require.NoError(t, db.Create(&models.UserRole{
		UserID: user.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleInstructor, Status: models.RoleStatusActive,
	}).Error)
	_, err = svc.CreateCourse(user.ID, CreateCourseInput{Title: "Org", OwnerType: courseModels.OwnerTypeClient, OwnerID: &clientID})
	require.NoError(t, err)
}

func TestUpdateCoursePartial(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@example.com")

	course, err := svc.CreateCourse(user.ID, CreateCourseInput{
		Title: "Original", Description: "Keep me", OwnerType: courseModels.OwnerTypeUser,
	})
	require.NoError(t, err)

	title := "Renamed"
	updated, err := svc.UpdateCourse(user.ID, course.ID, UpdateCourseInput{Title: &title})
	require.NoError(t, err)

	var stored courseModels.Course
	require.NoError(t, db.First(&stored, updated.ID).Error)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, "Keep me", stored.Description)
}

func TestDeleteCourseCascades(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	learner := seedUser(t, db, "learner@example.com")

	course, err := svc.CreateCourse(owner.ID, CreateCourseInput{
		Title: "Doomed", OwnerType: courseModels.OwnerTypeUser, IsPublic: true,
	})
	require.NoError(t, err)

	module, err := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "M1"})
	require.NoError(t, err)
	item, err := svc.AddContent(owner.ID, module.ID, AddContentInput{
		Title: "Reading", ContentType: courseModels.ContentTypeText,
		Content: json.RawMessage(`{"text":"hello"}`),
	})
	require.NoError(t, err)

	enrollment := &courseModels.Enrollment{UserID: learner.ID, CourseID: course.ID}
	require.NoError(t, db.Create(enrollment).Error)
	require.NoError(t, db.Create(&courseModels.ProgressRecord{
		EnrollmentID: enrollment.ID, ContentItemID: item.ID, Status: courseModels.ProgressCompleted,
	}).Error)

	// learners cannot delete
	err = svc.DeleteCourse(learner.ID, course.ID)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))

	require.NoError(t, svc.DeleteCourse(owner.ID, course.ID))

	for _, check := range []struct {
		model interface{}
		name  string
	}{
		{&courseModels.Course{}, "courses"},
		{&courseModels.Module{}, "modules"},
		{&courseModels.ContentItem{}, "content items"},
		{&courseModels.Enrollment{}, "enrollments"},
		{&courseModels.ProgressRecord{}, "progress records"},
	} {
		var count int64
		require.NoError(t, db.Unscoped().Model(check.model).Count(&count).Error)
		assert.Zero(t, count, check.name)
	}
}

func TestModulePositionsAllocateSequentially(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")

	course, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "C", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)

	m1, err := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "First"})
	require.NoError(t, err)
	m2, err := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "Second"})
	require.NoError(t, err)

	assert.Equal(t, 1, m1.Position)
	assert.Equal(t, 2, m2.Position)
}

func TestReorderModules(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")

	course, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "C", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)
	m1, _ := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "A"})
	m2, _ := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "B"})
	m3, _ := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "C"})

	// partial list rejected
	err = svc.ReorderModules(owner.ID, course.ID, []uint{m3.ID, m1.ID})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	// foreign module rejected
	other, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "Other", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)
	foreign, _ := svc.AddModule(owner.ID, other.ID, AddModuleInput{Title: "X"})
	err = svc.ReorderModules(owner.ID, course.ID, []uint{m3.ID, m1.ID, foreign.ID})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	require.NoError(t, svc.ReorderModules(owner.ID, course.ID, []uint{m3.ID, m1.ID, m2.ID}))

	modules, err := svc.ListModules(owner.ID, course.ID)
	require.NoError(t, err)
	require.Len(t, modules, 3)
	assert.Equal(t, m3.ID, modules[0].ID)
	assert.Equal(t, m1.ID, modules[1].ID)
	assert.Equal(t, m2.ID, modules[2].ID)
}

func TestAddContentValidatesPayload(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")

	course, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "C", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)
	module, err := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "M"})
	require.NoError(t, err)

	// wrong shape for the declared type
	_, err = svc.AddContent(owner.ID, module.ID, AddContentInput{
		Title: "Bad", ContentType: courseModels.ContentTypeVideo,
		Content: json.RawMessage(`{"text":"not a video"}`),
	})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	// unknown type
	_, err = svc.AddContent(owner.ID, module.ID, AddContentInput{
		Title: "Bad", ContentType: "slideshow",
		Content: json.RawMessage(`{}`),
	})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	// quiz with questions passes
	item, err := svc.AddContent(owner.ID, module.ID, AddContentInput{
		Title: "Quiz", ContentType: courseModels.ContentTypeQuiz,
		Content: json.RawMessage(`{"questions":[{"id":"q1","type":"multiple_choice","correct_answer":2}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Position)
}

func TestUpdateContentRevalidates(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")

	course, _ := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "C", OwnerType: courseModels.OwnerTypeUser})
	module, _ := svc.AddModule(owner.ID, course.ID, AddModuleInput{Title: "M"})
	item, err := svc.AddContent(owner.ID, module.ID, AddContentInput{
		Title: "Reading", ContentType: courseModels.ContentTypeText,
		Content: json.RawMessage(`{"text":"v1"}`),
	})
	require.NoError(t, err)

	_, err = svc.UpdateContent(owner.ID, item.ID, UpdateContentInput{
		Content: json.RawMessage(`{"nope":true}`),
	})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = svc.UpdateContent(owner.ID, item.ID, UpdateContentInput{
		Content: json.RawMessage(`{"text":"v2"}`),
	})
	require.NoError(t, err)
}

func TestListCoursesVisibility(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")
	learner := seedUser(t, db, "learner@example.com")

	public, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "Open Go", OwnerType: courseModels.OwnerTypeUser, IsPublic: true})
	require.NoError(t, err)
	private, err := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "Closed", OwnerType: courseModels.OwnerTypeUser})
	require.NoError(t, err)

	// anonymous sees only the public course
	courses, total, err := svc.ListCourses(0, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, public.ID, courses[0].ID)

	// the owner sees both
	_, total, err = svc.ListCourses(owner.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// enrollment makes a private course visible
	require.NoError(t, db.Create(&courseModels.Enrollment{UserID: learner.ID, CourseID: private.ID}).Error)
	_, total, err = svc.ListCourses(learner.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// search matches titles within the visible set
	results, _, err := svc.SearchCourses(0, "go", 1, 20)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, public.ID, results[0].ID)
}

func TestMostEnrolledRanksByActiveEnrollments(t *testing.T) {
	svc, db := newTestService(t)
	owner := seedUser(t, db, "owner@example.com")

	a, _ := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "A", OwnerType: courseModels.OwnerTypeUser, IsPublic: true})
	b, _ := svc.CreateCourse(owner.ID, CreateCourseInput{Title: "B", OwnerType: courseModels.OwnerTypeUser, IsPublic: true})

	for i := 0; i < 3; i++ {
		u := seedUser(t, db, string(rune('c'+i))+"@example.com")
		require.NoError(t, db.Create(&courseModels.Enrollment{UserID: u.ID, CourseID: b.ID}).Error)
	}
	dropped := seedUser(t, db, "dropped@example.com")
	require.NoError(t, db.Create(&courseModels.Enrollment{
		UserID: dropped.ID, CourseID: a.ID, Status: courseModels.StatusDropped,
	}).Error)

	ranked, err := svc.MostEnrolled(10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, b.ID, ranked[0].ID)
	assert.EqualValues(t, 3, ranked[0].EnrollmentCount)
	assert.EqualValues(t, 0, ranked[1].EnrollmentCount)
}
