package models

import "gorm.io/gorm"

// Entity types a role can be scoped to
const (
	EntityTypeClient     = "client"
	EntityTypeDepartment = "department"
	EntityTypeGroup      = "group"
)

// Roles
const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
	RoleMember     = "member"
)

// Role grant statuses
const (
	RoleStatusActive   = "active"
	RoleStatusInactive = "inactive"
)

// UserRole grants a user a role at one entity. At most one row exists
// per (user, entity type, entity id, role); status transitions are the
// only mutation, rows are never deleted.
type UserRole struct {
	gorm.Model
	UserID     uint   `json:"user_id" gorm:"uniqueIndex:idx_user_entity_role;not null"`
	EntityType string `json:"entity_type" gorm:"uniqueIndex:idx_user_entity_role;not null"`
	EntityID   uint   `json:"entity_id" gorm:"uniqueIndex:idx_user_entity_role;not null"`
	Role       string `json:"role" gorm:"uniqueIndex:idx_user_entity_role;not null"`
	Status     string `json:"status" gorm:"default:'active'"`
}

// ValidRole reports whether role is one of the assignable roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleInstructor, RoleStudent, RoleMember:
		return true
	}
	return false
}

// ValidEntityType reports whether entityType names a tenancy entity.
func ValidEntityType(entityType string) bool {
	switch entityType {
	case EntityTypeClient, EntityTypeDepartment, EntityTypeGroup:
		return true
	}
	return false
}
