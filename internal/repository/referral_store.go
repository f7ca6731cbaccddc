package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/service/referral"
)

// LeadReferralStore adapts leads and lead_referrals to referral.Store.
type LeadReferralStore struct {
	db *gorm.DB
}

func NewLeadReferralStore(db *gorm.DB) *LeadReferralStore {
	return &LeadReferralStore{db: db}
}

func (s *LeadReferralStore) LoadItem(ctx context.Context, id uint) (*referral.Item, error) {
	var lead model.Lead
	if err := s.db.WithContext(ctx).Preload("Status").First(&lead, id).Error; err != nil {
		return nil, err
	}
	item := &referral.Item{
		ID:             lead.ID,
		Label:          lead.CustomerName,
		AssigneeID:     lead.OwnerID(),
		ReferralStatus: lead.ReferralStatus,
	}
	if lead.Status != nil {
		item.StatusName = lead.Status.StatusName
		item.Referable = lead.Status.CanBeReferred
	}
	return item, nil
}

func (s *LeadReferralStore) HasPending(ctx context.Context, itemID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.LeadReferral{}).
		Where("lead_id = ? AND status = ?", itemID, model.ReferralPending).
		Count(&n).Error
	return n > 0, err
}

func (s *LeadReferralStore) Create(ctx context.Context, rec *referral.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.LeadReferral{
			LeadID:          rec.ItemID,
			FromUserID:      rec.FromUserID,
			ToUserID:        rec.ToUserID,
			PreviousAgentID: rec.PreviousAgentID,
			Note:            rec.Note,
			Status:          rec.Status,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		rec.ID = row.ID
		rec.CreatedAt = row.CreatedAt
		return tx.Model(&model.Lead{}).Where("id = ?", rec.ItemID).
			Update("referral_status", model.ReferralPending).Error
	})
}

func (s *LeadReferralStore) Get(ctx context.Context, id uint) (*referral.Record, error) {
	var row model.LeadReferral
	err := s.db.WithContext(ctx).Preload("Lead").Preload("FromUser").Preload("ToUser").First(&row, id).Error
	if err != nil {
		return nil, err
	}
	rec := leadRecord(row)
	return &rec, nil
}

func (s *LeadReferralStore) Resolve(ctx context.Context, rec *referral.Record, assignTo *uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.LeadReferral{}).
			Where("id = ? AND status = ?", rec.ID, model.ReferralPending).
			Updates(map[string]interface{}{"status": rec.Status, "resolved_at": rec.ResolvedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return referral.ErrAlreadyResolved
		}

		updates := map[string]interface{}{"referral_status": rec.Status}
		if assignTo != nil {
			updates["agent_id"] = *assignTo
		}
		return tx.Model(&model.Lead{}).Where("id = ?", rec.ItemID).Updates(updates).Error
	})
}

func (s *LeadReferralStore) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]referral.Record, error) {
	var rows []model.LeadReferral
	q := s.db.WithContext(ctx).Preload("Lead").Preload("FromUser").Preload("ToUser")
	if err := scope(q).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]referral.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, leadRecord(row))
	}
	return out, nil
}

func (s *LeadReferralStore) PendingFor(ctx context.Context, userID uint) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("to_user_id = ? AND status = ?", userID, model.ReferralPending)
	})
}

func (s *LeadReferralStore) ForItem(ctx context.Context, itemID uint) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("lead_id = ?", itemID) })
}

func (s *LeadReferralStore) PendingSince(ctx context.Context, before time.Time) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND created_at < ?", model.ReferralPending, before)
	})
}

func leadRecord(row model.LeadReferral) referral.Record {
	rec := referral.Record{
		ID:              row.ID,
		Entity:          referral.EntityLead,
		ItemID:          row.LeadID,
		FromUserID:      row.FromUserID,
		ToUserID:        row.ToUserID,
		PreviousAgentID: row.PreviousAgentID,
		Note:            row.Note,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		ResolvedAt:      row.ResolvedAt,
	}
	if row.Lead != nil {
		rec.ItemLabel = row.Lead.CustomerName
	}
	if row.FromUser != nil {
		rec.FromUserName = row.FromUser.GetFullName()
	}
	if row.ToUser != nil {
		rec.ToUserName = row.ToUser.GetFullName()
	}
	return rec
}

// PropertyReferralStore adapts properties and property_referrals to referral.Store.
type PropertyReferralStore struct {
	db *gorm.DB
}

func NewPropertyReferralStore(db *gorm.DB) *PropertyReferralStore {
	return &PropertyReferralStore{db: db}
}

func (s *PropertyReferralStore) LoadItem(ctx context.Context, id uint) (*referral.Item, error) {
	var p model.Property
	if err := s.db.WithContext(ctx).Preload("Status").First(&p, id).Error; err != nil {
		return nil, err
	}
	item := &referral.Item{
		ID:             p.ID,
		Label:          p.ReferenceNumber,
		AssigneeID:     p.OwnerID(),
		ReferralStatus: p.ReferralStatus,
	}
	if p.Status != nil {
		item.StatusName = p.Status.Name
		item.Referable = p.Status.CanBeReferred
		item.Terminal = p.Status.IsTerminal
	}
	return item, nil
}

func (s *PropertyReferralStore) HasPending(ctx context.Context, itemID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.PropertyReferral{}).
		Where("property_id = ? AND status = ?", itemID, model.ReferralPending).
		Count(&n).Error
	return n > 0, err
}

func (s *PropertyReferralStore) Create(ctx context.Context, rec *referral.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.PropertyReferral{
			PropertyID:      rec.ItemID,
			FromUserID:      rec.FromUserID,
			ToUserID:        rec.ToUserID,
			PreviousAgentID: rec.PreviousAgentID,
			Note:            rec.Note,
			Status:          rec.Status,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		rec.ID = row.ID
		rec.CreatedAt = row.CreatedAt
		return tx.Model(&model.Property{}).Where("id = ?", rec.ItemID).
			Update("referral_status", model.ReferralPending).Error
	})
}

func (s *PropertyReferralStore) Get(ctx context.Context, id uint) (*referral.Record, error) {
	var row model.PropertyReferral
	err := s.db.WithContext(ctx).Preload("Property").Preload("FromUser").Preload("ToUser").First(&row, id).Error
	if err != nil {
		return nil, err
	}
	rec := propertyRecord(row)
	return &rec, nil
}

func (s *PropertyReferralStore) Resolve(ctx context.Context, rec *referral.Record, assignTo *uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.PropertyReferral{}).
			Where("id = ? AND status = ?", rec.ID, model.ReferralPending).
			Updates(map[string]interface{}{"status": rec.Status, "resolved_at": rec.ResolvedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return referral.ErrAlreadyResolved
		}

		updates := map[string]interface{}{"referral_status": rec.Status}
		if assignTo != nil {
			updates["agent_id"] = *assignTo
		}
		return tx.Model(&model.Property{}).Where("id = ?", rec.ItemID).Updates(updates).Error
	})
}

func (s *PropertyReferralStore) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]referral.Record, error) {
	var rows []model.PropertyReferral
	q := s.db.WithContext(ctx).Preload("Property").Preload("FromUser").Preload("ToUser")
	if err := scope(q).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]referral.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, propertyRecord(row))
	}
	return out, nil
}

func (s *PropertyReferralStore) PendingFor(ctx context.Context, userID uint) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("to_user_id = ? AND status = ?", userID, model.ReferralPending)
	})
}

func (s *PropertyReferralStore) ForItem(ctx context.Context, itemID uint) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("property_id = ?", itemID) })
}

func (s *PropertyReferralStore) PendingSince(ctx context.Context, before time.Time) ([]referral.Record, error) {
	return s.list(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ? AND created_at < ?", model.ReferralPending, before)
	})
}

func propertyRecord(row model.PropertyReferral) referral.Record {
	rec := referral.Record{
		ID:              row.ID,
		Entity:          referral.EntityProperty,
		ItemID:          row.PropertyID,
		FromUserID:      row.FromUserID,
		ToUserID:        row.ToUserID,
		PreviousAgentID: row.PreviousAgentID,
		Note:            row.Note,
		Status:          row.Status,
		CreatedAt:       row.CreatedAt,
		ResolvedAt:      row.ResolvedAt,
	}
	if row.Property != nil {
		rec.ItemLabel = row.Property.ReferenceNumber
	}
	if row.FromUser != nil {
		rec.FromUserName = row.FromUser.GetFullName()
	}
	if row.ToUser != nil {
		rec.ToUserName = row.ToUser.GetFullName()
	}
	return rec
}
