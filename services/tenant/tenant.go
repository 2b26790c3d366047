package tenant

import (
	"errors"

	"lms/apperr"
	"lms/cache"
	"lms/models"

	"gorm.io/gorm"
)

// Service manages the tenancy tree (clients, departments, groups) and
// the role grants scoped to it.
type Service struct {
	db    *gorm.DB
	cache *cache.Cache
}

func New(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

type CreateClientInput struct {
	Name           string `json:"name" validate:"required,min=2,max=200"`
	Type           string `json:"type" validate:"required"`
	Domain         string `json:"domain"`
	LogoURL        string `json:"logo_url"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}

type UpdateClientInput struct {
	Name           *string `json:"name" validate:"omitempty,min=2,max=200"`
	Domain         *string `json:"domain"`
	LogoURL        *string `json:"logo_url"`
	PrimaryColor   *string `json:"primary_color"`
	SecondaryColor *string `json:"secondary_color"`
}

// CreateClient registers a new tenant.
func (s *Service) CreateClient(input CreateClientInput) (*models.Client, error) {
	if input.Type != models.ClientTypeSchool && input.Type != models.ClientTypeOrganization {
		return nil, apperr.InvalidArgument("client type must be school or organization")
	}

	client := models.Client{
		Name:           input.Name,
		Type:           input.Type,
		Domain:         input.Domain,
		LogoURL:        input.LogoURL,
		PrimaryColor:   input.PrimaryColor,
		SecondaryColor: input.SecondaryColor,
		IsActive:       true,
	}
	if err := s.db.Create(&client).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create client")
	}
	return &client, nil
}

// ClientDetail is a client with its departments and admins.
type ClientDetail struct {
	models.Client
	Departments []models.Department `json:"departments"`
	Admins      []models.User       `json:"admins"`
}

// GetClient returns the client with its departments and active admins.
func (s *Service) GetClient(clientID uint) (*ClientDetail, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, apperr.Internal(err, "failed to fetch client")
	}

	var departments []models.Department
	if err := s.db.Where("client_id = ?", clientID).Find(&departments).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch departments")
	}

	admins, err := s.entityUsersWithRole(models.EntityTypeClient, clientID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return &ClientDetail{Client: client, Departments: departments, Admins: admins}, nil
}

// ListClients returns all clients, optionally only active ones.
func (s *Service) ListClients(activeOnly bool) ([]models.Client, error) {
	query := s.db.Order("name asc")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list clients")
	}
	return clients, nil
}

// UpdateClient applies a partial update.
func (s *Service) UpdateClient(clientID uint, input UpdateClientInput) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, apperr.Internal(err, "failed to fetch client")
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Domain != nil {
		updates["domain"] = *input.Domain
	}
	if input.LogoURL != nil {
		updates["logo_url"] = *input.LogoURL
	}
	if input.PrimaryColor != nil {
		updates["primary_color"] = *input.PrimaryColor
	}
	if input.SecondaryColor != nil {
		updates["secondary_color"] = *input.SecondaryColor
	}

	if len(updates) > 0 {
		if err := s.db.Model(&client).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update client")
		}
	}
	return &client, nil
}

// SetClientActive flips the soft activity flag. Nothing beneath the
// client is touched.
func (s *Service) SetClientActive(clientID uint, active bool) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, clientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("client not found")
		}
		return nil, apperr.Internal(err, "failed to fetch client")
	}

	if err := s.db.Model(&client).Update("is_active", active).Error; err != nil {
		return nil, apperr.Internal(err, "failed to update client")
	}
	client.IsActive = active
	return &client, nil
}

type CreateDepartmentInput struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
}

// CreateDepartment adds a department under a client.
func (s *Service) CreateDepartment(clientID uint, input CreateDepartmentInput) (*models.Department, error) {
	if err := s.requireEntity(models.EntityTypeClient, clientID); err != nil {
		return nil, err
	}

	dept := models.Department{ClientID: clientID, Name: input.Name}
	if err := s.db.Create(&dept).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create department")
	}
	return &dept, nil
}

// DepartmentDetail is a department with its groups and admins.
type DepartmentDetail struct {
	models.Department
	Groups []models.Group `json:"groups"`
	Admins []models.User  `json:"admins"`
}

// GetDepartment returns the department with its groups and active
// admins.
func (s *Service) GetDepartment(departmentID uint) (*DepartmentDetail, error) {
	var dept models.Department
	if err := s.db.First(&dept, departmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, apperr.Internal(err, "failed to fetch department")
	}

	var groups []models.Group
	if err := s.db.Where("department_id = ?", departmentID).Find(&groups).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch groups")
	}

	admins, err := s.entityUsersWithRole(models.EntityTypeDepartment, departmentID, models.RoleAdmin)
	if err != nil {
		return nil, err
	}

	return &DepartmentDetail{Department: dept, Groups: groups, Admins: admins}, nil
}

type CreateGroupInput struct {
	Name string `json:"name" validate:"required,min=2,max=200"`
}

// CreateGroup adds a group under a department. The parent client is
// stamped from the department so hierarchy walks stay one hop.
func (s *Service) CreateGroup(departmentID uint, input CreateGroupInput) (*models.Group, error) {
	var dept models.Department
	if err := s.db.First(&dept, departmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("department not found")
		}
		return nil, apperr.Internal(err, "failed to fetch department")
	}

	group := models.Group{ClientID: dept.ClientID, DepartmentID: departmentID, Name: input.Name}
	if err := s.db.Create(&group).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create group")
	}
	return &group, nil
}

// GroupDetail is a group with its active members.
type GroupDetail struct {
	models.Group
	Members []models.User `json:"members"`
}

// GetGroup returns the group with every user holding an active grant on
// it.
func (s *Service) GetGroup(groupID uint) (*GroupDetail, error) {
	var group models.Group
	if err := s.db.First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, apperr.Internal(err, "failed to fetch group")
	}

	members, err := s.UsersByEntity(models.EntityTypeGroup, groupID, "")
	if err != nil {
		return nil, err
	}
	return &GroupDetail{Group: group, Members: members}, nil
}

// requireEntity confirms the entity row exists.
func (s *Service) requireEntity(entityType string, entityID uint) error {
	var model interface{}
	switch entityType {
	case models.EntityTypeClient:
		model = &models.Client{}
	case models.EntityTypeDepartment:
		model = &models.Department{}
	case models.EntityTypeGroup:
		model = &models.Group{}
	default:
		return apperr.InvalidArgument("invalid entity type %q", entityType)
	}

	var count int64
	if err := s.db.Model(model).Where("id = ?", entityID).Count(&count).Error; err != nil {
		return apperr.Internal(err, "failed to check %s", entityType)
	}
	if count == 0 {
		return apperr.NotFound("%s not found", entityType)
	}
	return nil
}
