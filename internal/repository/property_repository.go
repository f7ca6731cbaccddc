package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

type PropertyFilter struct {
	StatusID   uint
	CategoryID uint
	AgentID    uint
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	Page
}

func (r *PropertyRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Status").Preload("Category").Preload("Agent").Preload("OwnerLead").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order(`"order", id`) })
}

func (r *PropertyRepository) List(ctx context.Context, f PropertyFilter, vis Visibility) (*List[model.Property], error) {
	q := vis.ownedBy(r.db.WithContext(ctx).Model(&model.Property{}), "properties")
	if f.StatusID != 0 {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.AgentID != 0 {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(reference_number) LIKE ? OR LOWER(location) LIKE ? OR LOWER(building) LIKE ? OR LOWER(owner_name) LIKE ?", p, p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var properties []model.Property
	err := r.withRelations(f.Page.apply(q)).Order("properties.created_at DESC, properties.id DESC").Find(&properties).Error
	if err != nil {
		return nil, err
	}
	return newList(properties, total, f.Page), nil
}

func (r *PropertyRepository) Get(ctx context.Context, id uint) (*model.Property, error) {
	var p model.Property
	if err := r.withRelations(r.db.WithContext(ctx)).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

var propertyAssociations = []string{"Status", "Category", "OwnerLead", "Agent", "Images"}

func (r *PropertyRepository) Create(ctx context.Context, p *model.Property) error {
	return r.db.WithContext(ctx).Omit(propertyAssociations...).Create(p).Error
}

func (r *PropertyRepository) CreateProperty(ctx context.Context, p *model.Property) error {
	return r.Create(ctx, p)
}

func (r *PropertyRepository) Save(ctx context.Context, p *model.Property) error {
	return r.db.WithContext(ctx).Omit(propertyAssociations...).Save(p).Error
}

func (r *PropertyRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Property{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *PropertyRepository) PropertyReferenceExists(ctx context.Context, reference string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Property{}).
		Where("LOWER(reference_number) = LOWER(?)", reference).
		Count(&n).Error
	return n > 0, err
}

func (r *PropertyRepository) PropertyOwnerExists(ctx context.Context, ownerName, phoneDigits, location string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Property{}).
		Where("LOWER(owner_name) = LOWER(?)", ownerName).
		Where("regexp_replace(owner_phone, '[^0-9]', '', 'g') = ?", phoneDigits).
		Where("LOWER(location) = LOWER(?)", location).
		Count(&n).Error
	return n > 0, err
}

func (r *PropertyRepository) Images(ctx context.Context, propertyID uint) ([]model.PropertyImage, error) {
	var images []model.PropertyImage
	err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).Order(`"order", id`).Find(&images).Error
	return images, err
}

func (r *PropertyRepository) CountImages(ctx context.Context, propertyID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PropertyImage{}).Where("property_id = ?", propertyID).Count(&n).Error
	return n, err
}

func (r *PropertyRepository) CreateImage(ctx context.Context, img *model.PropertyImage) error {
	return r.db.WithContext(ctx).Create(img).Error
}

func (r *PropertyRepository) FindImage(ctx context.Context, propertyID, imageID uint) (*model.PropertyImage, error) {
	var img model.PropertyImage
	if err := r.db.WithContext(ctx).Where("property_id = ?", propertyID).First(&img, imageID).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

// DeleteImage removes the image and promotes the next one to cover if needed.
func (r *PropertyRepository) DeleteImage(ctx context.Context, img *model.PropertyImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Delete(img).Error; err != nil {
			return err
		}
		if !img.IsCover {
			return nil
		}
		var next model.PropertyImage
		err := tx.Where("property_id = ?", img.PropertyID).Order(`"order", id`).First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_cover", true).Error
	})
}
