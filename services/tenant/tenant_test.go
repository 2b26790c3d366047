package tenant

import (
	"path/filepath"
	"testing"

	"lms/apperr"
	"lms/database"
	"lms/models"

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
	return New(db, nil), db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "x"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestCreateClientValidatesType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: "charity"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	client, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: models.ClientTypeOrganization})
	require.NoError(t, err)
	assert.True(t, client.IsActive)
}

func TestClientHierarchy(t *testing.T) {
	svc, db := newTestService(t)

	client, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: models.ClientTypeSchool})
	require.NoError(t, err)

	dept, err := svc.CreateDepartment(client.ID, CreateDepartmentInput{Name: "Science"})
	require.NoError(t, err)
	assert.Equal(t, client.ID, dept.ClientID)

	// group inherits the client from its department
	group, err := svc.CreateGroup(dept.ID, CreateGroupInput{Name: "Physics"})
	require.NoError(t, err)
	assert.Equal(t, client.ID, group.ClientID)
	assert.Equal(t, dept.ID, group.DepartmentID)

	// departments under a missing client are rejected
	_, err = svc.CreateDepartment(9999, CreateDepartmentInput{Name: "Ghost"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	admin := seedUser(t, db, "admin@example.com")
	_, err = svc.AssignRole(admin.ID, models.EntityTypeClient, client.ID, models.RoleAdmin)
	require.NoError(t, err)

	detail, err := svc.GetClient(client.ID)
	require.NoError(t, err)
	require.Len(t, detail.Departments, 1)
	require.Len(t, detail.Admins, 1)
	assert.Equal(t, admin.ID, detail.Admins[0].ID)

	deptDetail, err := svc.GetDepartment(dept.ID)
	require.NoError(t, err)
	require.Len(t, deptDetail.Groups, 1)
	assert.Equal(t, group.ID, deptDetail.Groups[0].ID)
}

func TestSetClientActiveIsSoft(t *testing.T) {
	svc, _ := newTestService(t)
	client, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: models.ClientTypeOrganization})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(client.ID, CreateDepartmentInput{Name: "Ops"})
	require.NoError(t, err)

	updated, err := svc.SetClientActive(client.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	// children untouched
	detail, err := svc.GetDepartment(dept.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ops", detail.Name)

	active, err := svc.ListClients(true)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestAssignRoleLifecycle(t *testing.T) {
	svc, db := newTestService(t)
	client, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: models.ClientTypeOrganization})
	require.NoError(t, err)
	user := seedUser(t, db, "a@example.com")

	_, err = svc.AssignRole(user.ID, models.EntityTypeClient, client.ID, "boss")
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, err = svc.AssignRole(user.ID, models.EntityTypeClient, 9999, models.RoleAdmin)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	grant, err := svc.AssignRole(user.ID, models.EntityTypeClient, client.ID, models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStatusActive, grant.Status)

	// re-assigning does not duplicate the row
	again, err := svc.AssignRole(user.ID, models.EntityTypeClient, client.ID, models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, grant.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.UserRole{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// removal deactivates instead of deleting
	require.NoError(t, svc.RemoveRole(user.ID, models.EntityTypeClient, client.ID, models.RoleInstructor))
	roles, err := svc.UserRoles(user.ID)
	require.NoError(t, err)
	assert.Empty(t, roles)
	require.NoError(t, db.Model(&models.UserRole{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// removing twice reports not found
	err = svc.RemoveRole(user.ID, models.EntityTypeClient, client.ID, models.RoleInstructor)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// re-assigning reactivates the same row
	revived, err := svc.AssignRole(user.ID, models.EntityTypeClient, client.ID, models.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, grant.ID, revived.ID)
	assert.Equal(t, models.RoleStatusActive, revived.Status)
}

func TestUserRolesAndUsersByEntity(t *testing.T) {
	svc, db := newTestService(t)
	client, err := svc.CreateClient(CreateClientInput{Name: "Acme", Type: models.ClientTypeOrganization})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(client.ID, CreateDepartmentInput{Name: "Ops"})
	require.NoError(t, err)

	alice := seedUser(t, db, "alice@example.com")
	bob := seedUser(t, db, "bob@example.com")

	_, err = svc.AssignRole(alice.ID, models.EntityTypeClient, client.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = svc.AssignRole(alice.ID, models.EntityTypeDepartment, dept.ID, models.RoleInstructor)
	require.NoError(t, err)
	_, err = svc.AssignRole(bob.ID, models.EntityTypeClient, client.ID, models.RoleStudent)
	require.NoError(t, err)

	roles, err := svc.UserRoles(alice.ID)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	names := map[string]string{}
	for _, r := range roles {
		names[r.Role] = r.EntityName
	}
	assert.Equal(t, "Acme", names[models.RoleAdmin])
	assert.Equal(t, "Ops", names[models.RoleInstructor])

	everyone, err := svc.UsersByEntity(models.EntityTypeClient, client.ID, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 2)

	admins, err := svc.UsersByEntity(models.EntityTypeClient, client.ID, models.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, alice.ID, admins[0].ID)
}
