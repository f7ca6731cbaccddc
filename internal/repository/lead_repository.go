package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

type LeadFilter struct {
	StatusID       uint
	AgentID        uint
	ReferralStatus model.ReferralStatus
	Search         string
	Page
}

func (r *LeadRepository) withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Status").Preload("Agent").Preload("AddedBy").Preload("ReferenceSource")
}

func (r *LeadRepository) List(ctx context.Context, f LeadFilter, vis Visibility) (*List[model.Lead], error) {
	q := vis.ownedBy(r.db.WithContext(ctx).Model(&model.Lead{}), "leads")
	if f.StatusID != 0 {
		q = q.Where("status_id = ?", f.StatusID)
	}
	if f.AgentID != 0 {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.ReferralStatus != "" {
		q = q.Where("referral_status = ?", f.ReferralStatus)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(customer_name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?", p, p, p)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	var leads []model.Lead
	err := r.withRelations(f.Page.apply(q)).Order("leads.created_at DESC, leads.id DESC").Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return newList(leads, total, f.Page), nil
}

func (r *LeadRepository) Get(ctx context.Context, id uint) (*model.Lead, error) {
	var lead model.Lead
	if err := r.withRelations(r.db.WithContext(ctx)).First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	return r.db.WithContext(ctx).Omit("Status", "Agent", "AddedBy", "ReferenceSource").Create(lead).Error
}

// CreateLead satisfies the importer store.
func (r *LeadRepository) CreateLead(ctx context.Context, lead *model.Lead) error {
	return r.Create(ctx, lead)
}

func (r *LeadRepository) Save(ctx context.Context, lead *model.Lead) error {
	return r.db.WithContext(ctx).Omit("Status", "Agent", "AddedBy", "ReferenceSource").Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Lead{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LeadExists matches on name (case-insensitive), phone digits and lead date.
func (r *LeadRepository) LeadExists(ctx context.Context, name, phoneDigits string, date time.Time) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Lead{}).
		Where("LOWER(customer_name) = LOWER(?)", name).
		Where("regexp_replace(phone, '[^0-9]', '', 'g') = ?", phoneDigits).
		Where("DATE(lead_date) = ?", date.Format("2006-01-02")).
		Count(&n).Error
	return n > 0, err
}
