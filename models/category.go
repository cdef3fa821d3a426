package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"bitbucket.org/mmdatafocus/portal_backend/utils"
)

type Category struct {
	ID        int          `gorm:"primary_key" json:"id"`
	OwnerId   string       `gorm:"index;not null" json:"owner_id"`
	Name      string       `gorm:"size:100;not null" json:"name" binding:"required"`
	Type      CategoryType `gorm:"type:enum('expense', 'income');not null" json:"type" binding:"required"`
	IsSystem  *bool        `gorm:"not null;default:false" json:"is_system"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name string       `json:"name" binding:"required"`
	Type CategoryType `json:"type" binding:"required"`
}

type UpdateCategoryInput struct {
	Name string `json:"name" binding:"required"`
}

// SystemCategoryCache memoizes get-or-create lookups of system categories
// within one job invocation. It is passed in explicitly so tests never leak
// state through a package-level singleton.
type SystemCategoryCache struct {
	byKey map[string]*Category
}

func NewSystemCategoryCache() *SystemCategoryCache {
	return &SystemCategoryCache{byKey: make(map[string]*Category)}
}

// GetOrCreate returns the owner's system category with the given name,
// creating it on first use.
func (c *SystemCategoryCache) GetOrCreate(ctx context.Context, ownerId string, name string, categoryType CategoryType) (*Category, error) {
	key := fmt.Sprintf("%s:%s", ownerId, name)
	if cached, ok := c.byKey[key]; ok {
		return cached, nil
	}

	db := config.GetDB()
	var category Category
	err := db.WithContext(ctx).
		Where("owner_id = ? AND name = ? AND is_system = ?", ownerId, name, true).
		First(&category).Error
	if err == nil {
		c.byKey[key] = &category
		return &category, nil
	}

	category = Category{
		OwnerId:  ownerId,
		Name:     name,
		Type:     categoryType,
		IsSystem: utils.NewTrue(),
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	c.byKey[key] = &category
	return &category, nil
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	if !input.Type.IsValid() {
		return nil, utils.NewValidationError("type", "must be one of expense, income")
	}
	if err := utils.ValidateUnique[Category](ctx, ownerId, "name", input.Name, 0); err != nil {
		return nil, utils.NewValidationError("name", err.Error())
	}

	category := Category{
		OwnerId:  ownerId,
		Name:     input.Name,
		Type:     input.Type,
		IsSystem: utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, id int, input *UpdateCategoryInput) (*Category, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	category, err := utils.FetchModel[Category](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem != nil && *category.IsSystem {
		return nil, utils.NewValidationError("category", "system categories cannot be edited")
	}
	if err := utils.ValidateUnique[Category](ctx, ownerId, "name", input.Name, id); err != nil {
		return nil, utils.NewValidationError("name", err.Error())
	}

	category.Name = input.Name
	if err := db.WithContext(ctx).Save(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func DeleteCategory(ctx context.Context, id int) (*Category, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	category, err := utils.FetchModel[Category](ctx, ownerId, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem != nil && *category.IsSystem {
		return nil, utils.NewValidationError("category", "system categories cannot be deleted")
	}

	if err := db.WithContext(ctx).Delete(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

func GetCategories(ctx context.Context, categoryType *CategoryType) ([]*Category, error) {
	db := config.GetDB()

	ownerId, ok := utils.GetOwnerIdFromContext(ctx)
	if !ok || ownerId == "" {
		return nil, errors.New("owner id is required")
	}

	dbCtx := db.WithContext(ctx).Where("owner_id = ?", ownerId)
	if categoryType != nil {
		dbCtx = dbCtx.Where("type = ?", *categoryType)
	}

	var results []*Category
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
