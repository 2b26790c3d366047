package tenant

import (
	"errors"

	"lms/apperr"
	"lms/models"

	"gorm.io/gorm"
)

// AssignRole grants a role to a user at an entity. One row per (user,
// entity, role) ever exists: re-assigning an active grant is a no-op
// and an inactive one is reactivated.
func (s *Service) AssignRole(userID uint, entityType string, entityID uint, role string) (*models.UserRole, error) {
	if !models.ValidRole(role) {
		return nil, apperr.InvalidArgument("invalid role %q", role)
	}
	if !models.ValidEntityType(entityType) {
		return nil, apperr.InvalidArgument("invalid entity type %q", entityType)
	}
	if err := s.requireEntity(entityType, entityID); err != nil {
		return nil, err
	}

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&userCount).Error; err != nil {
		return nil, apperr.Internal(err, "failed to check user")
	}
	if userCount == 0 {
		return nil, apperr.NotFound("user not found")
	}

	var grant models.UserRole
	err := s.db.Where("user_id = ? AND entity_type = ? AND entity_id = ? AND role = ?",
		userID, entityType, entityID, role).First(&grant).Error
	switch {
	case err == nil:
		if grant.Status == models.RoleStatusActive {
			return &grant, nil
		}
		if err := s.db.Model(&grant).Update("status", models.RoleStatusActive).Error; err != nil {
			return nil, apperr.Internal(err, "failed to reactivate role")
		}
		grant.Status = models.RoleStatusActive

	case errors.Is(err, gorm.ErrRecordNotFound):
		grant = models.UserRole{
			UserID:     userID,
			EntityType: entityType,
			EntityID:   entityID,
			Role:       role,
			Status:     models.RoleStatusActive,
		}
		if err := s.db.Create(&grant).Error; err != nil {
			return nil, apperr.Internal(err, "failed to assign role")
		}

	default:
		return nil, apperr.Internal(err, "failed to fetch role")
	}

	s.cache.InvalidateUserRoles(userID)
	return &grant, nil
}

// RemoveRole deactivates a grant. The row stays so a later re-assign
// resumes it.
func (s *Service) RemoveRole(userID uint, entityType string, entityID uint, role string) error {
	var grant models.UserRole
	err := s.db.Where("user_id = ? AND entity_type = ? AND entity_id = ? AND role = ? AND status = ?",
		userID, entityType, entityID, role, models.RoleStatusActive).First(&grant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("role grant not found")
		}
		return apperr.Internal(err, "failed to fetch role")
	}

	if err := s.db.Model(&grant).Update("status", models.RoleStatusInactive).Error; err != nil {
		return apperr.Internal(err, "failed to remove role")
	}

	s.cache.InvalidateUserRoles(userID)
	return nil
}

// RoleWithEntity is a grant annotated with the entity's display name.
type RoleWithEntity struct {
	models.UserRole
	EntityName string `json:"entity_name" gorm:"-"`
}

// UserRoles lists a user's active grants with entity names resolved.
func (s *Service) UserRoles(userID uint) ([]RoleWithEntity, error) {
	var grants []models.UserRole
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.RoleStatusActive).
		Find(&grants).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch roles")
	}

	result := make([]RoleWithEntity, len(grants))
	for i, g := range grants {
		result[i] = RoleWithEntity{UserRole: g, EntityName: s.entityName(g.EntityType, g.EntityID)}
	}
	return result, nil
}

// UsersByEntity lists users with an active grant at the entity,
// optionally filtered to one role.
func (s *Service) UsersByEntity(entityType string, entityID uint, role string) ([]models.User, error) {
	if !models.ValidEntityType(entityType) {
		return nil, apperr.InvalidArgument("invalid entity type %q", entityType)
	}
	if role != "" && !models.ValidRole(role) {
		return nil, apperr.InvalidArgument("invalid role %q", role)
	}

	query := s.db.Model(&models.User{}).
		Joins("JOIN user_roles ON user_roles.user_id = users.id AND user_roles.deleted_at IS NULL").
		Where("user_roles.entity_type = ? AND user_roles.entity_id = ? AND user_roles.status = ?",
			entityType, entityID, models.RoleStatusActive)
	if role != "" {
		query = query.Where("user_roles.role = ?", role)
	}

	var users []models.User
	if err := query.Distinct("users.*").Find(&users).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch users")
	}
	return users, nil
}

func (s *Service) entityUsersWithRole(entityType string, entityID uint, role string) ([]models.User, error) {
	return s.UsersByEntity(entityType, entityID, role)
}

func (s *Service) entityName(entityType string, entityID uint) string {
	switch entityType {
	case models.EntityTypeClient:
		var client models.Client
		if err := s.db.Select("name").First(&client, entityID).Error; err == nil {
			return client.Name
		}
	case models.EntityTypeDepartment:
		var dept models.Department
		if err := s.db.Select("name").First(&dept, entityID).Error; err == nil {
			return dept.Name
		}
	case models.EntityTypeGroup:
		var group models.Group
		if err := s.db.Select("name").First(&group, entityID).Error; err == nil {
			return group.Name
		}
	}
	return ""
}
