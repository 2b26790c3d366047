package catalog

import (
	"errors"

	"lms/apperr"
	"lms/cache"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/access"

	"gorm.io/gorm"
)

// Service owns the course catalog: courses, their modules, and content
// items. Every read goes through the access evaluator and every write
// invalidates through the central cache helpers.
type Service struct {
	db     *gorm.DB
	cache  *cache.Cache
	access *access.Evaluator
}

func New(db *gorm.DB, c *cache.Cache, eval *access.Evaluator) *Service {
	return &Service{db: db, cache: c, access: eval}
}

type CreateCourseInput struct {
	Title        string `json:"title" validate:"required,min=2,max=200"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnail_url"`
	OwnerType    string `json:"owner_type" validate:"required"`
	OwnerID      *uint  `json:"owner_id"`
	IsPublic     bool   `json:"is_public"`
}

type UpdateCourseInput struct {
	Title        *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description  *string `json:"description"`
	ThumbnailURL *string `json:"thumbnail_url"`
	IsPublic     *bool   `json:"is_public"`
}

// CreateCourse creates a course under the given owner. Who may create
// depends on the owner: system courses need a system admin, user courses
// belong to the caller, entity courses need an admin or instructor grant
// at the entity or one of its parents.
func (s *Service) CreateCourse(userID uint, input CreateCourseInput) (*courseModels.Course, error) {
	if !courseModels.ValidOwnerType(input.OwnerType) {
		return nil, apperr.InvalidArgument("invalid owner type %q", input.OwnerType)
	}

	switch input.OwnerType {
	case courseModels.OwnerTypeSystem:
		isAdmin, err := s.access.IsSystemAdmin(userID)
		if err != nil {
			return nil, err
		}
		if !isAdmin {
			return nil, apperr.PermissionDenied("only system administrators can create system courses")
		}
		input.OwnerID = nil

	case courseModels.OwnerTypeUser:
		if input.OwnerID == nil {
			input.OwnerID = &userID
		}
		if *input.OwnerID != userID {
			isAdmin, err := s.access.IsSystemAdmin(userID)
			if err != nil {
				return nil, err
			}
			if !isAdmin {
				return nil, apperr.PermissionDenied("cannot create a course owned by another user")
			}
		}

	default: // client, department
		if input.OwnerID == nil {
			return nil, apperr.InvalidArgument("owner_id is required for %s-owned courses", input.OwnerType)
		}
		ok, err := s.access.CanAccessOwnerContent(input.OwnerType, *input.OwnerID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.PermissionDenied("you do not have permission to create courses for this %s", input.OwnerType)
		}
	}

	course := courseModels.Course{
		Title:        input.Title,
		Description:  input.Description,
		ThumbnailURL: input.ThumbnailURL,
		OwnerType:    input.OwnerType,
		OwnerID:      input.OwnerID,
		IsPublic:     input.IsPublic,
	}
	if err := s.db.Create(&course).Error; err != nil {
		return nil, apperr.Internal(err, "failed to create course")
	}

	s.cache.Delete(cache.RecentCoursesKey())
	return &course, nil
}

// GetCourse returns the course when the caller may read it.
func (s *Service) GetCourse(userID, courseID uint) (*courseModels.Course, error) {
	if err := s.access.RequireAccess(userID, courseID); err != nil {
		return nil, err
	}
	return s.fetchCourse(courseID)
}

// CourseDetail is a course with its ordered module and content tree.
type CourseDetail struct {
	courseModels.Course
	Modules []ModuleDetail `json:"modules"`
}

type ModuleDetail struct {
	courseModels.Module
	ContentItems []courseModels.ContentItem `json:"content_items"`
}

// GetCourseDetail returns the course plus its full module tree, ordered
// by position.
func (s *Service) GetCourseDetail(userID, courseID uint) (*CourseDetail, error) {
	course, err := s.GetCourse(userID, courseID)
	if err != nil {
		return nil, err
	}

	modules, err := s.courseTree(courseID)
	if err != nil {
		return nil, err
	}
	return &CourseDetail{Course: *course, Modules: modules}, nil
}

func (s *Service) courseTree(courseID uint) ([]ModuleDetail, error) {
	var cached []ModuleDetail
	if s.cache.Get(cache.CourseModulesKey(courseID), &cached) {
		return cached, nil
	}

	var modules []courseModels.Module
	if err := s.db.Where("course_id = ?", courseID).Order("position asc").Find(&modules).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch modules")
	}

	moduleIDs := make([]uint, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}

	var items []courseModels.ContentItem
	if len(moduleIDs) > 0 {
		if err := s.db.Where("module_id IN ?", moduleIDs).Order("position asc").Find(&items).Error; err != nil {
			return nil, apperr.Internal(err, "failed to fetch content items")
		}
	}

	byModule := make(map[uint][]courseModels.ContentItem)
	for _, item := range items {
		byModule[item.ModuleID] = append(byModule[item.ModuleID], item)
	}

	tree := make([]ModuleDetail, len(modules))
	for i, m := range modules {
		tree[i] = ModuleDetail{Module: m, ContentItems: byModule[m.ID]}
	}

	s.cache.Set(cache.CourseModulesKey(courseID), tree, 0)
	return tree, nil
}

// UpdateCourse applies a partial update; nil fields keep their value.
func (s *Service) UpdateCourse(userID, courseID uint, input UpdateCourseInput) (*courseModels.Course, error) {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return nil, err
	}

	course, err := s.fetchCourse(courseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ThumbnailURL != nil {
		updates["thumbnail_url"] = *input.ThumbnailURL
	}
	if input.IsPublic != nil {
		updates["is_public"] = *input.IsPublic
	}

	if len(updates) > 0 {
		if err := s.db.Model(course).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update course")
		}
		s.cache.InvalidateCourse(courseID)
	}
	return course, nil
}

// DeleteCourse removes the course and everything beneath it: progress
// records, enrollments, content items, modules, then the course row, in
// one transaction.
func (s *Service) DeleteCourse(userID, courseID uint) error {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var moduleIDs []uint
		if err := tx.Model(&courseModels.Module{}).Where("course_id = ?", courseID).
			Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}

		var enrollmentIDs []uint
		if err := tx.Model(&courseModels.Enrollment{}).Where("course_id = ?", courseID).
			Pluck("id", &enrollmentIDs).Error; err != nil {
			return err
		}

		if len(enrollmentIDs) > 0 {
			if err := tx.Unscoped().Where("enrollment_id IN ?", enrollmentIDs).
				Delete(&courseModels.ProgressRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", enrollmentIDs).
				Delete(&courseModels.Enrollment{}).Error; err != nil {
				return err
			}
		}

		if len(moduleIDs) > 0 {
			if err := tx.Unscoped().Where("module_id IN ?", moduleIDs).
				Delete(&courseModels.ContentItem{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", moduleIDs).
				Delete(&courseModels.Module{}).Error; err != nil {
				return err
			}
		}

		return tx.Unscoped().Delete(&courseModels.Course{}, courseID).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete course")
	}

	s.cache.InvalidateCourse(courseID)
	return nil
}

// ListCourses returns the courses the caller may read, newest first.
func (s *Service) ListCourses(userID uint, page, limit int) ([]courseModels.Course, int64, error) {
	query, err := s.visibleCourses(userID)
	if err != nil {
		return nil, 0, err
	}
	return s.paginate(query.Order("created_at desc"), page, limit)
}

// SearchCourses filters the caller's visible courses by a title or
// description match.
func (s *Service) SearchCourses(userID uint, term string, page, limit int) ([]courseModels.Course, int64, error) {
	query, err := s.visibleCourses(userID)
	if err != nil {
		return nil, 0, err
	}
	pattern := "%" + term + "%"
	query = query.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	return s.paginate(query.Order("created_at desc"), page, limit)
}

// CoursesByOwner lists an owner's courses. Everyone sees the owner's
// public courses; private ones require content rights at the entity.
func (s *Service) CoursesByOwner(ownerType string, ownerID, userID uint) ([]courseModels.Course, error) {
	if !courseModels.ValidOwnerType(ownerType) {
		return nil, apperr.InvalidArgument("invalid owner type %q", ownerType)
	}

	query := s.db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID)

	showPrivate := false
	switch ownerType {
	case courseModels.OwnerTypeSystem:
		// system courses carry no owner id
		query = s.db.Where("owner_type = ?", courseModels.OwnerTypeSystem)
		isAdmin, err := s.access.IsSystemAdmin(userID)
		if err != nil {
			return nil, err
		}
		showPrivate = isAdmin
	case courseModels.OwnerTypeUser:
		showPrivate = ownerID == userID
		if !showPrivate {
			isAdmin, err := s.access.IsSystemAdmin(userID)
			if err != nil {
				return nil, err
			}
			showPrivate = isAdmin
		}
	case courseModels.OwnerTypeClient, courseModels.OwnerTypeDepartment:
		ok, err := s.access.CanAccessOwnerContent(ownerType, ownerID, userID)
		if err != nil && !apperr.IsKind(err, apperr.KindNotFound) {
			return nil, err
		}
		showPrivate = err == nil && ok
	}
	if !showPrivate {
		query = query.Where("is_public = ?", true)
	}

	var courses []courseModels.Course
	if err := query.Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list courses")
	}
	return courses, nil
}

// CourseWithCount pairs a course with its active enrollment count.
type CourseWithCount struct {
	courseModels.Course
	EnrollmentCount int64 `json:"enrollment_count"`
}

// MostEnrolled returns public courses ranked by non-dropped enrollment
// count. The ranking is cached and tolerates brief staleness.
func (s *Service) MostEnrolled(limit int) ([]CourseWithCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var cached []CourseWithCount
	if s.cache.Get(cache.PopularCoursesKey(), &cached) && len(cached) >= limit {
		return cached[:limit], nil
	}

	var results []CourseWithCount
	err := s.db.Model(&courseModels.Course{}).
		Select("courses.*, COUNT(enrollments.id) AS enrollment_count").
		Joins("LEFT JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.status != ? AND enrollments.deleted_at IS NULL", courseModels.StatusDropped).
		Where("courses.is_public = ?", true).
		Group("courses.id").
		Order("enrollment_count desc").
		Limit(limit).
		Find(&results).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to rank courses")
	}

	s.cache.Set(cache.PopularCoursesKey(), results, cache.PopularityTTL)
	return results, nil
}

// Recent returns the newest public courses, cached with the same TTL as
// the popularity ranking.
func (s *Service) Recent(limit int) ([]courseModels.Course, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var cached []courseModels.Course
	if s.cache.Get(cache.RecentCoursesKey(), &cached) && len(cached) >= limit {
		return cached[:limit], nil
	}

	var courses []courseModels.Course
	if err := s.db.Where("is_public = ?", true).
		Order("created_at desc").Limit(limit).Find(&courses).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list recent courses")
	}

	s.cache.Set(cache.RecentCoursesKey(), courses, cache.PopularityTTL)
	return courses, nil
}

// visibleCourses builds the query for every course the user may read:
// public, enrolled, owned, granted through the entity hierarchy, or all
// of them for a system admin.
func (s *Service) visibleCourses(userID uint) (*gorm.DB, error) {
	if userID == 0 {
		return s.db.Model(&courseModels.Course{}).Where("is_public = ?", true), nil
	}

	isAdmin, err := s.access.IsSystemAdmin(userID)
	if err != nil {
		return nil, err
	}
	if isAdmin {
		return s.db.Model(&courseModels.Course{}), nil
	}

	clientIDs, deptIDs, err := s.grantedEntities(userID)
	if err != nil {
		return nil, err
	}

	visible := s.db.Where("is_public = ?", true).
		Or("owner_type = ? AND owner_id = ?", courseModels.OwnerTypeUser, userID).
		Or("id IN (?)", s.db.Model(&courseModels.Enrollment{}).
			Select("course_id").
			Where("user_id = ? AND status != ?", userID, courseModels.StatusDropped))
	if len(clientIDs) > 0 {
		visible = visible.Or("owner_type = ? AND owner_id IN ?", courseModels.OwnerTypeClient, clientIDs)
	}
	if len(deptIDs) > 0 {
		visible = visible.Or("owner_type = ? AND owner_id IN ?", courseModels.OwnerTypeDepartment, deptIDs)
	}

	return s.db.Model(&courseModels.Course{}).Where(visible), nil
}

// grantedEntities resolves the user's active admin/instructor grants
// into the client and department IDs whose courses they cover, applying
// downward inheritance from clients to their departments.
func (s *Service) grantedEntities(userID uint) ([]uint, []uint, error) {
	var grants []models.UserRole
	if err := s.db.Where("user_id = ? AND role IN ? AND status = ?",
		userID, []string{models.RoleAdmin, models.RoleInstructor}, models.RoleStatusActive).
		Find(&grants).Error; err != nil {
		return nil, nil, apperr.Internal(err, "failed to fetch role grants")
	}

	var clientIDs, deptIDs []uint
	for _, g := range grants {
		switch g.EntityType {
		case models.EntityTypeClient:
			clientIDs = append(clientIDs, g.EntityID)
		case models.EntityTypeDepartment:
			deptIDs = append(deptIDs, g.EntityID)
		}
	}

	if len(clientIDs) > 0 {
		var inherited []uint
		if err := s.db.Model(&models.Department{}).Where("client_id IN ?", clientIDs).
			Pluck("id", &inherited).Error; err != nil {
			return nil, nil, apperr.Internal(err, "failed to expand client grants")
		}
		deptIDs = append(deptIDs, inherited...)
	}
	return clientIDs, deptIDs, nil
}

func (s *Service) paginate(query *gorm.DB, page, limit int) ([]courseModels.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count courses")
	}

	var courses []courseModels.Course
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to list courses")
	}
	return courses, total, nil
}

func (s *Service) fetchCourse(courseID uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if s.cache.Get(cache.CourseKey(courseID), &course) {
		return &course, nil
	}
	if err := s.db.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("course not found")
		}
		return nil, apperr.Internal(err, "failed to fetch course")
	}
	s.cache.Set(cache.CourseKey(courseID), &course, 0)
	return &course, nil
}
