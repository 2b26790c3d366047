package auth

import (
	"errors"
	"time"

	"lms/apperr"
	"lms/config"
	"lms/middleware"
	"lms/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// resetTokenTTL bounds how long a password-reset link stays valid.
const resetTokenTTL = time.Hour

// Service handles registration, login, and the password-reset flow.
type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func New(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

type RegisterInput struct {
	Email               string `json:"email" validate:"required,email"`
	Password            string `json:"password" validate:"required,min=8"`
	FirstName           string `json:"first_name" validate:"required,min=1,max=100"`
	LastName            string `json:"last_name" validate:"omitempty,max=100"`
	IsIndividualLearner bool   `json:"is_individual_learner"`
}

// Register creates a user with a hashed password. Email addresses are
// unique.
func (s *Service) Register(input RegisterInput) (*models.User, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, apperr.Internal(err, "failed to check email")
	}
	if count > 0 {
		return nil, apperr.Conflict("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.SaltRound)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	user := models.User{
		Email:               input.Email,
		Password:            string(hash),
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		IsIndividualLearner: input.IsIndividualLearner,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create user")
	}
	return &user, nil
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(input LoginInput) (*models.User, string, error) {
	var user models.User
	err := s.db.Where("email = ?", input.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.AccessDenied("invalid email or password")
		}
		return nil, "", apperr.Internal(err, "failed to fetch user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		return nil, "", apperr.AccessDenied("invalid email or password")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Email, user.IsSystemAdmin)
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to sign token")
	}
	return &user, token, nil
}

// IssueResetToken invalidates any outstanding reset tokens for the
// user's email and inserts a fresh one, atomically. The caller is
// responsible for delivering the token. A missing email is reported so
// the HTTP layer can decide what to reveal.
func (s *Service) IssueResetToken(email string) (*models.User, string, error) {
	var user models.User
	err := s.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", apperr.NotFound("no account with that email")
		}
		return nil, "", apperr.Internal(err, "failed to fetch user")
	}

	token := uuid.NewString()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&models.PasswordResetToken{}).
			Where("user_id = ? AND used_at IS NULL", user.ID).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Create(&models.PasswordResetToken{
			UserID:    user.ID,
			Token:     token,
			ExpiresAt: now.Add(resetTokenTTL),
		}).Error
	})
	if err != nil {
		return nil, "", apperr.Internal(err, "failed to issue reset token")
	}
	return &user, token, nil
}

type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword consumes a valid, unexpired, unused token and sets the
// new password.
func (s *Service) ResetPassword(input ResetPasswordInput) error {
	var reset models.PasswordResetToken
	err := s.db.Where("token = ?", input.Token).First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.InvalidArgument("invalid or expired reset token")
		}
		return apperr.Internal(err, "failed to fetch reset token")
	}
	if reset.UsedAt != nil || time.Now().After(reset.ExpiresAt) {
		return apperr.InvalidArgument("invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.cfg.SaltRound)
	if err != nil {
		return apperr.Internal(err, "failed to hash password")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password", string(hash)).Error; err != nil {
			return err
		}
		now := time.Now()
		return tx.Model(&reset).Update("used_at", now).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to reset password")
	}
	return nil
}
