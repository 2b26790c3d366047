package access

import (
	"path/filepath"
	"testing"

	"lms/apperr"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, systemAdmin bool) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x", FirstName: "Test", IsSystemAdmin: systemAdmin}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createCourse(t *testing.T, db *gorm.DB, ownerType string, ownerID *uint, public bool) *courseModels.Course {
	t.Helper()
	c := &courseModels.Course{Title: "Course", OwnerType: ownerType, OwnerID: ownerID, IsPublic: public}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestCanAccessPublicCourse(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	course := createCourse(t, db, courseModels.OwnerTypeSystem, nil, true)

	// anonymous
	ok, err := eval.CanAccess(0, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// any signed-in user, no enrollment, no roles
	user := createUser(t, db, "a@example.com", false)
	ok, err = eval.CanAccess(user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessPrivateCourseDenied(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	course := createCourse(t, db, courseModels.OwnerTypeSystem, nil, false)
	user := createUser(t, db, "a@example.com", false)

	ok, err := eval.CanAccess(user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eval.CanAccess(0, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessViaEnrollment(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	course := createCourse(t, db, courseModels.OwnerTypeSystem, nil, false)
	user := createUser(t, db, "a@example.com", false)

	enrollment := &courseModels.Enrollment{UserID: user.ID, CourseID: course.ID, Status: courseModels.StatusEnrolled}
	require.NoError(t, db.Create(enrollment).Error)

	ok, err := eval.CanAccess(user.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// a dropped enrollment no longer grants access
	require.NoError(t, db.Model(enrollment).Update("status", courseModels.StatusDropped).Error)
	ok, err = eval.CanAccess(user.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessViaRoleHierarchy(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)

	client := &models.Client{Name: "Acme", Type: models.ClientTypeOrganization}
	require.NoError(t, db.Create(client).Error)
	dept := &models.Department{ClientID: client.ID, Name: "Engineering"}
	require.NoError(t, db.Create(dept).Error)

	deptID := dept.ID
	course := createCourse(t, db, courseModels.OwnerTypeDepartment, &deptID, false)

	// admin at the parent client inherits down to the department's course
	admin := createUser(t, db, "admin@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: admin.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleAdmin, Status: models.RoleStatusActive,
	}).Error)

	ok, err := eval.CanAccess(admin.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// a student grant at the same entity does not
	student := createUser(t, db, "student@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: student.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleStudent, Status: models.RoleStatusActive,
	}).Error)

	ok, err = eval.CanAccess(student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// an inactive admin grant does not
	inactive := createUser(t, db, "former@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: inactive.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleAdmin, Status: models.RoleStatusInactive,
	}).Error)

	ok, err = eval.CanAccess(inactive.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessUserOwnedCourse(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	owner := createUser(t, db, "owner@example.com", false)
	other := createUser(t, db, "other@example.com", false)

	ownerID := owner.ID
	course := createCourse(t, db, courseModels.OwnerTypeUser, &ownerID, false)

	ok, err := eval.CanAccess(owner.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eval.CanAccess(other.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAccessSystemAdmin(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	admin := createUser(t, db, "root@example.com", true)
	course := createCourse(t, db, courseModels.OwnerTypeSystem, nil, false)

	ok, err := eval.CanAccess(admin.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanAccessMissingCourse(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	user := createUser(t, db, "a@example.com", false)

	_, err := eval.CanAccess(user.ID, 9999)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCanEditRequiresAdmin(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)

	client := &models.Client{Name: "Acme", Type: models.ClientTypeOrganization}
	require.NoError(t, db.Create(client).Error)
	clientID := client.ID
	course := createCourse(t, db, courseModels.OwnerTypeClient, &clientID, false)

	admin := createUser(t, db, "admin@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: admin.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleAdmin, Status: models.RoleStatusActive,
	}).Error)

	instructor := createUser(t, db, "teach@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: instructor.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleInstructor, Status: models.RoleStatusActive,
	}).Error)

	ok, err := eval.CanEdit(admin.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// instructors can read but not edit under the default policy
	ok, err = eval.CanEdit(instructor.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eval.CanAccess(instructor.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// the widened policy lets instructors edit too
	widened := NewEvaluator(db, nil, true)
	ok, err = widened.CanEdit(instructor.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanEditUserOwner(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	owner := createUser(t, db, "owner@example.com", false)

	ownerID := owner.ID
	course := createCourse(t, db, courseModels.OwnerTypeUser, &ownerID, true)

	ok, err := eval.CanEdit(owner.ID, course.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// public read access never implies edit access
	other := createUser(t, db, "other@example.com", false)
	ok, err = eval.CanEdit(other.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequireHelpers(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)
	user := createUser(t, db, "a@example.com", false)
	course := createCourse(t, db, courseModels.OwnerTypeSystem, nil, false)

	err := eval.RequireAccess(user.ID, course.ID)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	err = eval.RequireEdit(user.ID, course.ID)
	assert.Equal(t, apperr.KindPermissionDenied, apperr.KindOf(err))
}

func TestCanAccessOwnerContent(t *testing.T) {
	db := newTestDB(t)
	eval := NewEvaluator(db, nil, false)

	client := &models.Client{Name: "Acme", Type: models.ClientTypeOrganization}
	require.NoError(t, db.Create(client).Error)
	dept := &models.Department{ClientID: client.ID, Name: "Engineering"}
	require.NoError(t, db.Create(dept).Error)
	group := &models.Group{ClientID: client.ID, DepartmentID: dept.ID, Name: "Backend"}
	require.NoError(t, db.Create(group).Error)

	clientAdmin := createUser(t, db, "admin@example.com", false)
	require.NoError(t, db.Create(&models.UserRole{
		UserID: clientAdmin.ID, EntityType: models.EntityTypeClient, EntityID: client.ID,
		Role: models.RoleAdmin, Status: models.RoleStatusActive,
	}).Error)

	// client-level grant reaches group-owned content two levels down
	ok, err := eval.CanAccessOwnerContent(models.EntityTypeGroup, group.ID, clientAdmin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	member := createUser(t, db, "member@example.com", false)
	ok, err = eval.CanAccessOwnerContent(models.EntityTypeGroup, group.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	sysAdmin := createUser(t, db, "root@example.com", true)
	ok, err = eval.CanAccessOwnerContent(models.EntityTypeDepartment, dept.ID, sysAdmin.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
