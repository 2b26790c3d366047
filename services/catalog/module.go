package catalog

import (
	"errors"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

type AddModuleInput struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description"`
}

type UpdateModuleInput struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description"`
}

// AddModule appends a module to the course. The position is allocated
// inside the insert transaction so concurrent adds cannot collide.
func (s *Service) AddModule(userID, courseID uint, input AddModuleInput) (*courseModels.Module, error) {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return nil, err
	}

	module := courseModels.Module{
		CourseID:    courseID,
		Title:       input.Title,
		Description: input.Description,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&courseModels.Module{}).Where("course_id = ?", courseID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
			return err
		}
		module.Position = maxPos + 1
		return tx.Create(&module).Error
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to add module")
	}

	s.cache.InvalidateCourse(courseID)
	return &module, nil
}

// GetModule returns a module when the caller may read its course.
func (s *Service) GetModule(userID, moduleID uint) (*courseModels.Module, error) {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(userID, module.CourseID); err != nil {
		return nil, err
	}
	return module, nil
}

// UpdateModule applies a partial update to the module.
func (s *Service) UpdateModule(userID, moduleID uint, input UpdateModuleInput) (*courseModels.Module, error) {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireEdit(userID, module.CourseID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}

	if len(updates) > 0 {
		if err := s.db.Model(module).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update module")
		}
		s.cache.InvalidateCourse(module.CourseID)
	}
	return module, nil
}

// DeleteModule removes the module, its content items, and their
// progress records in one transaction.
func (s *Service) DeleteModule(userID, moduleID uint) error {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return err
	}
	if err := s.access.RequireEdit(userID, module.CourseID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint
		if err := tx.Model(&courseModels.ContentItem{}).Where("module_id = ?", moduleID).
			Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Unscoped().Where("content_item_id IN ?", itemIDs).
				Delete(&courseModels.ProgressRecord{}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("id IN ?", itemIDs).
				Delete(&courseModels.ContentItem{}).Error; err != nil {
				return err
			}
		}
		return tx.Unscoped().Delete(&courseModels.Module{}, moduleID).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete module")
	}

	s.cache.InvalidateCourse(module.CourseID)
	return nil
}

// ListModules returns the course's module tree, ordered by position.
func (s *Service) ListModules(userID, courseID uint) ([]ModuleDetail, error) {
	if err := s.access.RequireAccess(userID, courseID); err != nil {
		return nil, err
	}
	return s.courseTree(courseID)
}

// ReorderModules rewrites module positions to match orderedIDs. The ID
// list must be exactly the course's modules; the update is atomic.
func (s *Service) ReorderModules(userID, courseID uint, orderedIDs []uint) error {
	if err := s.access.RequireEdit(userID, courseID); err != nil {
		return err
	}

	var existingIDs []uint
	if err := s.db.Model(&courseModels.Module{}).Where("course_id = ?", courseID).
		Pluck("id", &existingIDs).Error; err != nil {
		return apperr.Internal(err, "failed to fetch modules")
	}
	if err := validateReorder(orderedIDs, existingIDs, "module"); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&courseModels.Module{}).Where("id = ?", id).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(err, "failed to reorder modules")
	}

	s.cache.InvalidateCourse(courseID)
	return nil
}

// validateReorder checks that ordered is a permutation of existing.
func validateReorder(ordered, existing []uint, kind string) error {
	if len(ordered) != len(existing) {
		return apperr.InvalidArgument("reorder must list every %s exactly once", kind)
	}
	existingSet := make(map[uint]bool, len(existing))
	for _, id := range existing {
		existingSet[id] = true
	}
	seen := make(map[uint]bool, len(ordered))
	for _, id := range ordered {
		if !existingSet[id] {
			return apperr.InvalidArgument("%s %d does not belong here", kind, id)
		}
		if seen[id] {
			return apperr.InvalidArgument("%s %d listed twice", kind, id)
		}
		seen[id] = true
	}
	return nil
}

func (s *Service) fetchModule(moduleID uint) (*courseModels.Module, error) {
	var module courseModels.Module
	if err := s.db.First(&module, moduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("module not found")
		}
		return nil, apperr.Internal(err, "failed to fetch module")
	}
	return &module, nil
}
