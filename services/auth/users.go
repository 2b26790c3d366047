package auth

import (
	"errors"

	"lms/apperr"
	"lms/models"

	"gorm.io/gorm"
)

// GetUser fetches one user by ID.
func (s *Service) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Internal(err, "failed to fetch user")
	}
	return &user, nil
}

type UpdateProfileInput struct {
	FirstName    *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName     *string `json:"last_name" validate:"omitempty,max=100"`
	ProfileImage *string `json:"profile_image"`
}

// UpdateProfile applies a partial update to the caller's own profile.
func (s *Service) UpdateProfile(userID uint, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.ProfileImage != nil {
		updates["profile_image"] = *input.ProfileImage
	}

	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update profile")
		}
	}
	return user, nil
}

// SearchUsers finds users by email or name match.
func (s *Service) SearchUsers(term string, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	pattern := "%" + term + "%"

	var users []models.User
	err := s.db.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?",
		pattern, pattern, pattern).
		Order("email asc").Limit(limit).Find(&users).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to search users")
	}
	return users, nil
}
