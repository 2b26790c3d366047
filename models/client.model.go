package models

import "gorm.io/gorm"

// Client types
const (
	ClientTypeSchool       = "school"
	ClientTypeOrganization = "organization"
)

// Client is the top of the tenancy tree: a school or an organization.
// Deactivation is a soft gate on future access checks; nothing under the
// client is deleted.
type Client struct {
	gorm.Model
	Name           string `json:"name" gorm:"not null"`
	Type           string `json:"type" gorm:"not null"` // school, organization
	Domain         string `json:"domain"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	IsActive       bool   `json:"is_active" gorm:"default:true"`
}

// Department belongs to a client.
type Department struct {
	gorm.Model
	ClientID uint   `json:"client_id" gorm:"index;not null"`
	Name     string `json:"name" gorm:"not null"`
}

// Group belongs to a department and, denormalized, to its client.
type Group struct {
	gorm.Model
	ClientID     uint   `json:"client_id" gorm:"index;not null"`
	DepartmentID uint   `json:"department_id" gorm:"index;not null"`
	Name         string `json:"name" gorm:"not null"`
}
