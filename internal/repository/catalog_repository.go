package repository

import (
	"context"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
)

// CatalogRepository serves the small name-keyed lookup tables: reference
// sources, property categories and property statuses.
type CatalogRepository[T any] struct {
	db    *gorm.DB
	usage func(db *gorm.DB, id uint) *gorm.DB
}

func NewReferenceSourceRepository(db *gorm.DB) *CatalogRepository[model.ReferenceSource] {
	return &CatalogRepository[model.ReferenceSource]{db: db, usage: func(db *gorm.DB, id uint) *gorm.DB {
		return db.Unscoped().Model(&model.Lead{}).Where("reference_source_id = ?", id)
	}}
}

func NewPropertyCategoryRepository(db *gorm.DB) *CatalogRepository[model.PropertyCategory] {
	return &CatalogRepository[model.PropertyCategory]{db: db, usage: func(db *gorm.DB, id uint) *gorm.DB {
		return db.Unscoped().Model(&model.Property{}).Where("category_id = ?", id)
	}}
}

func NewPropertyStatusRepository(db *gorm.DB) *CatalogRepository[model.PropertyStatus] {
	return &CatalogRepository[model.PropertyStatus]{db: db, usage: func(db *gorm.DB, id uint) *gorm.DB {
		return db.Unscoped().Model(&model.Property{}).Where("status_id = ?", id)
	}}
}

func (r *CatalogRepository[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.db.WithContext(ctx).Order("name").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CatalogRepository[T]) Get(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepository[T]) FindByName(ctx context.Context, name string) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *CatalogRepository[T]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *CatalogRepository[T]) Save(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *CatalogRepository[T]) Delete(ctx context.Context, id uint) error {
	var item T
	res := r.db.WithContext(ctx).Delete(&item, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CatalogRepository[T]) InUse(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.usage(r.db.WithContext(ctx), id).Count(&n).Error
	return n > 0, err
}
