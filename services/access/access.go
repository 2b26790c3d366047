package access

import (
	"errors"

	"lms/apperr"
	"lms/cache"
	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Evaluator is the single decision procedure for course access. All
// read/write gates in the catalog and enrollment services go through it.
type Evaluator struct {
	db    *gorm.DB
	cache *cache.Cache

	// instructorCanEdit widens edit rights from entity admins to admins
	// and instructors.
	instructorCanEdit bool
}

func NewEvaluator(db *gorm.DB, c *cache.Cache, instructorCanEdit bool) *Evaluator {
	return &Evaluator{db: db, cache: c, instructorCanEdit: instructorCanEdit}
}

// CanAccess reports whether userID may read courseID. userID 0 means an
// anonymous caller, for whom only public courses pass. A missing course
// is NotFound, never a permission answer.
func (e *Evaluator) CanAccess(userID, courseID uint) (bool, error) {
	var cached bool
	if userID != 0 && e.cache.Get(cache.AccessKey(userID, courseID), &cached) {
		return cached, nil
	}

	course, err := e.fetchCourse(courseID)
	if err != nil {
		return false, err
	}

	allowed, err := e.hasAccess(userID, course)
	if err != nil {
		return false, err
	}

	if userID != 0 {
		e.cache.Set(cache.AccessKey(userID, courseID), allowed, cache.AccessTTL)
	}
	return allowed, nil
}

func (e *Evaluator) hasAccess(userID uint, course *courseModels.Course) (bool, error) {
	if course.IsPublic {
		return true, nil
	}
	if userID == 0 {
		return false, nil
	}

	// Active enrollment
	var enrollmentCount int64
	if err := e.db.Model(&courseModels.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status != ?", userID, course.ID, courseModels.StatusDropped).
		Count(&enrollmentCount).Error; err != nil {
		return false, apperr.Internal(err, "failed to check enrollment")
	}
	if enrollmentCount > 0 {
		return true, nil
	}

	// Literal ownership
	if course.OwnedBy(courseModels.OwnerTypeUser, userID) {
		return true, nil
	}

	// Admin/instructor grant at the owning entity or one of its parents
	granted, err := e.hasRoleAtOwner(userID, course, []string{models.RoleAdmin, models.RoleInstructor})
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	return e.IsSystemAdmin(userID)
}

// CanEdit reports whether userID may mutate courseID. Editing requires
// an admin grant at the owning entity (instructor too when the policy
// variant is enabled), literal user ownership, or system admin.
func (e *Evaluator) CanEdit(userID, courseID uint) (bool, error) {
	course, err := e.fetchCourse(courseID)
	if err != nil {
		return false, err
	}
	if userID == 0 {
		return false, nil
	}

	if course.OwnedBy(courseModels.OwnerTypeUser, userID) {
		return true, nil
	}

	granted, err := e.hasRoleAtOwner(userID, course, e.editRoles())
	if err != nil {
		return false, err
	}
	if granted {
		return true, nil
	}

	return e.IsSystemAdmin(userID)
}

// CanAccessOwnerContent gates owner-scoped listings of private courses:
// system admin, or an active admin/instructor grant at the entity or
// one of its parents.
func (e *Evaluator) CanAccessOwnerContent(ownerType string, ownerID, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	isAdmin, err := e.IsSystemAdmin(userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	entities, err := e.entityChain(ownerType, ownerID)
	if err != nil {
		return false, err
	}
	return e.hasAnyRole(userID, entities, []string{models.RoleAdmin, models.RoleInstructor})
}

// CanManageEntity gates tenancy administration: system admin, or an
// active admin grant at the entity or one of its parents. Instructors
// do not qualify.
func (e *Evaluator) CanManageEntity(entityType string, entityID, userID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}

	isAdmin, err := e.IsSystemAdmin(userID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	entities, err := e.entityChain(entityType, entityID)
	if err != nil {
		return false, err
	}
	return e.hasAnyRole(userID, entities, []string{models.RoleAdmin})
}

// RequireAccess is CanAccess with the boolean turned into a typed error.
func (e *Evaluator) RequireAccess(userID, courseID uint) error {
	ok, err := e.CanAccess(userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.AccessDenied("you do not have access to this course")
	}
	return nil
}

// RequireEdit is CanEdit with the boolean turned into a typed error.
func (e *Evaluator) RequireEdit(userID, courseID uint) error {
	ok, err := e.CanEdit(userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("you do not have permission to modify this course")
	}
	return nil
}

func (e *Evaluator) editRoles() []string {
	if e.instructorCanEdit {
		return []string{models.RoleAdmin, models.RoleInstructor}
	}
	return []string{models.RoleAdmin}
}

func (e *Evaluator) fetchCourse(courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if e.cache.Get(cache.CourseKey(courseID), &course) {
		return &course, nil
	}
	if err := e.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, apperr.Internal(err, "failed to fetch course")
	}
	e.cache.Set(cache.CourseKey(courseID), &course, 0)
	return &course, nil
}

// IsSystemAdmin reports whether the user holds the global admin flag.
func (e *Evaluator) IsSystemAdmin(userID uint) (bool, error) {
	var count int64
	if err := e.db.Model(&models.User{}).
		Where("id = ? AND is_system_admin = ?", userID, true).
		Count(&count).Error; err != nil {
		return false, apperr.Internal(err, "failed to check system admin")
	}
	return count > 0, nil
}

// entityRef identifies one node in the tenancy tree.
type entityRef struct {
	entityType string
	entityID   uint
}

// entityChain returns the owning entity plus its ancestors, walking
// group -> department -> client. Grants are inherited downward: an
// admin of a client administers every department and group beneath it.
func (e *Evaluator) entityChain(ownerType string, ownerID uint) ([]entityRef, error) {
	switch ownerType {
	case models.EntityTypeClient:
		return []entityRef{{models.EntityTypeClient, ownerID}}, nil

	case models.EntityTypeDepartment:
		var dept models.Department
		if err := e.db.First(&dept, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("department not found")
			}
			return nil, apperr.Internal(err, "failed to fetch department")
		}
		return []entityRef{
			{models.EntityTypeDepartment, ownerID},
			{models.EntityTypeClient, dept.ClientID},
		}, nil

	case models.EntityTypeGroup:
		var group models.Group
		if err := e.db.First(&group, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("group not found")
			}
			return nil, apperr.Internal(err, "failed to fetch group")
		}
		return []entityRef{
			{models.EntityTypeGroup, ownerID},
			{models.EntityTypeDepartment, group.DepartmentID},
			{models.EntityTypeClient, group.ClientID},
		}, nil
	}

	// system and user owners have no entity chain
	return nil, nil
}

func (e *Evaluator) hasRoleAtOwner(userID uint, course *courseModels.Course, roles []string) (bool, error) {
	if course.OwnerID == nil {
		return false, nil
	}
	entities, err := e.entityChain(course.OwnerType, *course.OwnerID)
	if err != nil {
		// A dangling owner reference is an access question here, not a
		// lookup: treat it as no grant.
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return e.hasAnyRole(userID, entities, roles)
}

func (e *Evaluator) hasAnyRole(userID uint, entities []entityRef, roles []string) (bool, error) {
	for _, ref := range entities {
		var count int64
		if err := e.db.Model(&models.UserRole{}).
			Where("user_id = ? AND entity_type = ? AND entity_id = ? AND role IN ? AND status = ?",
				userID, ref.entityType, ref.entityID, roles, models.RoleStatusActive).
			Count(&count).Error; err != nil {
			return false, apperr.Internal(err, "failed to check role grant")
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
