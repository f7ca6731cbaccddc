package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
)

type ViewingRepository struct {
	db *gorm.DB
}

func NewViewingRepository(db *gorm.DB) *ViewingRepository {
	return &ViewingRepository{db: db}
}

type ViewingFilter struct {
	AgentID    uint
	PropertyID uint
	LeadID     uint
	Serious    *bool
	From       *time.Time
	To         *time.Time
	Page
}

func (r *ViewingRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Property").Preload("Lead").Preload("Agent")
}

func (r *ViewingRepository) scoped(db *gorm.DB, vis Visibility) *gorm.DB {
	if vis.Scope == rbac.ScopeAll || vis.Scope == "" {
		return db
	}
	return db.Where("viewings.agent_id IN ? OR viewings.created_by_id IN ?", vis.UserIDs, vis.UserIDs)
}

func (r *ViewingRepository) List(ctx context.Context, f ViewingFilter, vis Visibility) (*List[model.Viewing], error) {
	q := r.scoped(r.db.WithContext(ctx).Model(&model.Viewing{}), vis)
	if f.AgentID != 0 {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.PropertyID != 0 {
		q = q.Where("property_id = ?", f.PropertyID)
	}
	if f.LeadID != 0 {
		q = q.Where("lead_id = ?", f.LeadID)
	}
	if f.Serious != nil {
		q = q.Where("is_serious = ?", *f.Serious)
	}
	if f.From != nil {
		q = q.Where("scheduled_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("scheduled_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var viewings []model.Viewing
	err := r.withRelations(f.Page.apply(q)).Order("viewings.scheduled_at DESC, viewings.id DESC").Find(&viewings).Error
	if err != nil {
		return nil, err
	}
	return newList(viewings, total, f.Page), nil
}

// Get loads a viewing with its timeline, unsorted.
func (r *ViewingRepository) Get(ctx context.Context, id uint) (*model.Viewing, error) {
	var v model.Viewing
	err := r.withRelations(r.db.WithContext(ctx)).Preload("Updates").Preload("Updates.Author").First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ViewingRepository) Create(ctx context.Context, v *model.Viewing) error {
	return r.db.WithContext(ctx).Omit("Property", "Lead", "Agent", "Updates").Create(v).Error
}

func (r *ViewingRepository) Save(ctx context.Context, v *model.Viewing) error {
	return r.db.WithContext(ctx).Omit("Property", "Lead", "Agent", "Updates").Save(v).Error
}

func (r *ViewingRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Viewing{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ScheduledBetween returns viewings in [from, to) with property, lead and
// agent loaded, ordered by agent then time.
func (r *ViewingRepository) ScheduledBetween(ctx context.Context, from, to time.Time) ([]model.Viewing, error) {
	var viewings []model.Viewing
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Order("agent_id, scheduled_at").
		Find(&viewings).Error
	return viewings, err
}

func (r *ViewingRepository) ListUpdates(ctx context.Context, viewingID uint) ([]model.ViewingUpdate, error) {
	var updates []model.ViewingUpdate
	err := r.db.WithContext(ctx).Preload("Author").
		Where("viewing_id = ?", viewingID).
		Order("created_at DESC, id DESC").
		Find(&updates).Error
	return updates, err
}

func (r *ViewingRepository) GetUpdate(ctx context.Context, viewingID, updateID uint) (*model.ViewingUpdate, error) {
	var u model.ViewingUpdate
	err := r.db.WithContext(ctx).Where("viewing_id = ?", viewingID).First(&u, updateID).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *ViewingRepository) CreateUpdate(ctx context.Context, u *model.ViewingUpdate) error {
	return r.db.WithContext(ctx).Omit("Author").Create(u).Error
}

// SaveUpdate writes status and text only.
func (r *ViewingRepository) SaveUpdate(ctx context.Context, u *model.ViewingUpdate) error {
	return r.db.WithContext(ctx).Model(u).Select("status", "text", "updated_at").Updates(map[string]interface{}{
		"status":     u.Status,
		"text":       u.Text,
		"updated_at": time.Now(),
	}).Error
}
