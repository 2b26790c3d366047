package course

import "gorm.io/gorm"

// Course owner types
const (
	OwnerTypeSystem     = "system"
	OwnerTypeClient     = "client"
	OwnerTypeDepartment = "department"
	OwnerTypeUser       = "user"
)

// Course is owned exclusively by its owner entity. Access is derived
// from ownership, enrollment and role grants; IsPublic is the only
// stored shortcut.
type Course struct {
	gorm.Model
	Title        string `json:"title" gorm:"not null"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	OwnerType    string `json:"owner_type" gorm:"index:idx_course_owner;default:'system'"`
	OwnerID      *uint  `json:"owner_id" gorm:"index:idx_course_owner"` // nil when system-owned
	IsPublic     bool   `json:"is_public" gorm:"default:false"`
}

// ValidOwnerType reports whether ownerType names a course owner kind.
func ValidOwnerType(ownerType string) bool {
	switch ownerType {
	case OwnerTypeSystem, OwnerTypeClient, OwnerTypeDepartment, OwnerTypeUser:
		return true
	}
	return false
}

// OwnedBy reports whether the course's owner is exactly (ownerType, ownerID).
func (c *Course) OwnedBy(ownerType string, ownerID uint) bool {
	return c.OwnerType == ownerType && c.OwnerID != nil && *c.OwnerID == ownerID
}
