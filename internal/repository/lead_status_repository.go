package repository

import (
	"context"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
)

type LeadStatusRepository struct {
	db *gorm.DB
}

func NewLeadStatusRepository(db *gorm.DB) *LeadStatusRepository {
	return &LeadStatusRepository{db: db}
}

func (r *LeadStatusRepository) List(ctx context.Context, activeOnly bool) ([]model.LeadStatus, error) {
	q := r.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var statuses []model.LeadStatus
	if err := q.Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *LeadStatusRepository) Get(ctx context.Context, id uint) (*model.LeadStatus, error) {
	var st model.LeadStatus
	if err := r.db.WithContext(ctx).First(&st, id).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *LeadStatusRepository) FindByCode(ctx context.Context, code string) (*model.LeadStatus, error) {
	var st model.LeadStatus
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&st).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *LeadStatusRepository) Create(ctx context.Context, st *model.LeadStatus) error {
	return r.db.WithContext(ctx).Create(st).Error
}

func (r *LeadStatusRepository) Save(ctx context.Context, st *model.LeadStatus) error {
	return r.db.WithContext(ctx).Save(st).Error
}

func (r *LeadStatusRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.LeadStatus{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InUse counts leads, including soft deleted ones, that point at the status.
func (r *LeadStatusRepository) InUse(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&model.Lead{}).Where("status_id = ?", id).Count(&n).Error
	return n > 0, err
}
