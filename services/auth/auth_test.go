package auth

import (
	"path/filepath"
	"testing"
	"time"

	"lms/apperr"
	"lms/config"
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
	cfg := &config.Config{JWTKey: "test-secret", SaltRound: 4, Env: "test"}
	config.AppConfig = cfg

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return New(db, cfg), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register(RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", FirstName: "Ada",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2hunter2", user.Password)

	// duplicate email rejected
	_, err = svc.Register(RegisterInput{
		Email: "a@example.com", Password: "hunter2hunter2", FirstName: "Ada",
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	logged, token, err := svc.Login(LoginInput{Email: "a@example.com", Password: "hunter2hunter2"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))

	_, _, err = svc.Login(LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.Register(RegisterInput{
		Email: "a@example.com", Password: "originalpass", FirstName: "Ada",
	})
	require.NoError(t, err)

	_, _, err = svc.IssueResetToken("ghost@example.com")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, first, err := svc.IssueResetToken("a@example.com")
	require.NoError(t, err)

	// issuing again invalidates the first token
	_, second, err := svc.IssueResetToken("a@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	err = svc.ResetPassword(ResetPasswordInput{Token: first, NewPassword: "newpassword1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	require.NoError(t, svc.ResetPassword(ResetPasswordInput{Token: second, NewPassword: "newpassword1"}))

	// token is single-use
	err = svc.ResetPassword(ResetPasswordInput{Token: second, NewPassword: "anotherpass1"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	_, _, err = svc.Login(LoginInput{Email: "a@example.com", Password: "originalpass"})
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
	_, _, err = svc.Login(LoginInput{Email: "a@example.com", Password: "newpassword1"})
	require.NoError(t, err)

	// expired tokens are rejected
	var user models.User
	require.NoError(t, db.Where("email = ?", "a@example.com").First(&user).Error)
	expired := models.PasswordResetToken{
		UserID: user.ID, Token: "expired-token", ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&expired).Error)
	err = svc.ResetPassword(ResetPasswordInput{Token: "expired-token", NewPassword: "lastpassword"})
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}
