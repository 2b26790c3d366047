package catalog

import (
	"encoding/json"
	"errors"

	"lms/apperr"
	courseModels "lms/models/course"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AddContentInput struct {
	Title       string          `json:"title" validate:"required,min=2,max=200"`
	ContentType string          `json:"content_type" validate:"required"`
	Content     json.RawMessage `json:"content" validate:"required"`
}

type UpdateContentInput struct {
	Title   *string         `json:"title" validate:"omitempty,min=2,max=200"`
	Content json.RawMessage `json:"content"`
}

// AddContent appends a content item to a module. The payload must match
// the declared content type; the position is allocated inside the
// insert transaction.
func (s *Service) AddContent(userID, moduleID uint, input AddContentInput) (*courseModels.ContentItem, error) {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireEdit(userID, module.CourseID); err != nil {
		return nil, err
	}

	if !courseModels.ValidContentType(input.ContentType) {
		return nil, apperr.InvalidArgument("invalid content type %q", input.ContentType)
	}
	if err := courseModels.ValidatePayload(input.ContentType, input.Content); err != nil {
		return nil, apperr.InvalidArgument("%v", err)
	}

	item := courseModels.ContentItem{
		ModuleID:    moduleID,
		Title:       input.Title,
		ContentType: input.ContentType,
		Content:     datatypes.JSON(input.Content),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&courseModels.ContentItem{}).Where("module_id = ?", moduleID).
			Select("COALESCE(MAX(position), 0)").Scan(&maxPos).Error; err != nil {
			return err
		}
		item.Position = maxPos + 1
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, apperr.Internal(err, "failed to add content item")
	}

	s.cache.InvalidateCourse(module.CourseID)
	return &item, nil
}

// GetContent returns a content item when the caller may read its course.
func (s *Service) GetContent(userID, contentID uint) (*courseModels.ContentItem, error) {
	item, module, err := s.fetchContent(contentID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(userID, module.CourseID); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateContent applies a partial update. A new payload is re-validated
// against the item's content type; the type itself never changes.
func (s *Service) UpdateContent(userID, contentID uint, input UpdateContentInput) (*courseModels.ContentItem, error) {
	item, module, err := s.fetchContent(contentID)
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
	if input.Content != nil {
		if err := courseModels.ValidatePayload(item.ContentType, input.Content); err != nil {
			return nil, apperr.InvalidArgument("%v", err)
		}
		updates["content"] = datatypes.JSON(input.Content)
	}

	if len(updates) > 0 {
		if err := s.db.Model(item).Updates(updates).Error; err != nil {
			return nil, apperr.Internal(err, "failed to update content item")
		}
		s.cache.InvalidateCourse(module.CourseID)
	}
	return item, nil
}

// DeleteContent removes the item and any progress recorded against it.
func (s *Service) DeleteContent(userID, contentID uint) error {
	item, module, err := s.fetchContent(contentID)
	if err != nil {
		return err
	}
	if err := s.access.RequireEdit(userID, module.CourseID); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("content_item_id = ?", item.ID).
			Delete(&courseModels.ProgressRecord{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&courseModels.ContentItem{}, item.ID).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete content item")
	}

	s.cache.InvalidateCourse(module.CourseID)
	return nil
}

// ListContent returns a module's content items ordered by position.
func (s *Service) ListContent(userID, moduleID uint) ([]courseModels.ContentItem, error) {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireAccess(userID, module.CourseID); err != nil {
		return nil, err
	}

	var items []courseModels.ContentItem
	if err := s.db.Where("module_id = ?", moduleID).Order("position asc").Find(&items).Error; err != nil {
		return nil, apperr.Internal(err, "failed to fetch content items")
	}
	return items, nil
}

// ReorderContent rewrites content positions within a module to match
// orderedIDs. The list must be exactly the module's items.
func (s *Service) ReorderContent(userID, moduleID uint, orderedIDs []uint) error {
	module, err := s.fetchModule(moduleID)
	if err != nil {
		return err
	}
	if err := s.access.RequireEdit(userID, module.CourseID); err != nil {
		return err
	}

	var existingIDs []uint
	if err := s.db.Model(&courseModels.ContentItem{}).Where("module_id = ?", moduleID).
		Pluck("id", &existingIDs).Error; err != nil {
		return apperr.Internal(err, "failed to fetch content items")
	}
	if err := validateReorder(orderedIDs, existingIDs, "content item"); err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&courseModels.ContentItem{}).Where("id = ?", id).
				Update("position", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperr.Internal(err, "failed to reorder content items")
	}

	s.cache.InvalidateCourse(module.CourseID)
	return nil
}

// fetchContent loads an item together with its parent module, which
// carries the course ID needed for access checks.
func (s *Service) fetchContent(contentID uint) (*courseModels.ContentItem, *courseModels.Module, error) {
	var item courseModels.ContentItem
	if err := s.db.First(&item, contentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("content item not found")
		}
		return nil, nil, apperr.Internal(err, "failed to fetch content item")
	}

	module, err := s.fetchModule(item.ModuleID)
	if err != nil {
		return nil, nil, err
	}
	return &item, module, nil
}
