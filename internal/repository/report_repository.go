package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

type CommissionRow struct {
	AgentID    uint    `json:"agent_id"`
	AgentName  string  `json:"agent_name"`
	Deals      int64   `json:"deals"`
	TotalValue float64 `json:"total_value"`
	Commission float64 `json:"commission"`
}

type SourceRow struct {
	SourceID        uint   `json:"source_id"`
	SourceName      string `json:"source_name"`
	Leads           int64  `json:"leads"`
	Viewings        int64  `json:"viewings"`
	SeriousViewings int64  `json:"serious_viewings"`
}

type StatusCount struct {
	StatusID   uint   `json:"status_id"`
	StatusName string `json:"status_name"`
	Color      string `json:"color"`
	Count      int64  `json:"count"`
}

type DashboardStats struct {
	Leads               int64         `json:"leads"`
	Properties          int64         `json:"properties"`
	Viewings            int64         `json:"viewings"`
	SeriousViewings     int64         `json:"serious_viewings"`
	PendingReferrals    int64         `json:"pending_referrals"`
	UnreadNotifications int64         `json:"unread_notifications"`
	LeadsByStatus       []StatusCount `json:"leads_by_status"`
}

// Commission groups properties closed in [from, to) by agent. Unassigned
// properties count against whoever added them.
func (r *ReportRepository) Commission(ctx context.Context, from, to time.Time) ([]CommissionRow, error) {
	var rows []CommissionRow
	err := r.db.WithContext(ctx).Table("properties").
		Select(`COALESCE(properties.agent_id, properties.added_by_id) AS agent_id,
			TRIM(users.first_name || ' ' || users.last_name) AS agent_name,
			COUNT(properties.id) AS deals,
			COALESCE(SUM(properties.price), 0) AS total_value,
			COALESCE(SUM(properties.price * properties.commission_rate / 100), 0) AS commission`).
		Joins("JOIN users ON users.id = COALESCE(properties.agent_id, properties.added_by_id)").
		Where("properties.deleted_at IS NULL").
		Where("properties.closed_at >= ? AND properties.closed_at < ?", from, to).
		Group("COALESCE(properties.agent_id, properties.added_by_id), users.first_name, users.last_name").
		Order("commission DESC, agent_name").
		Scan(&rows).Error
	return rows, err
}

// Sources counts leads created in [from, to) per reference source, with the
// viewings booked for those leads.
func (r *ReportRepository) Sources(ctx context.Context, from, to time.Time) ([]SourceRow, error) {
	var rows []SourceRow
	err := r.db.WithContext(ctx).Table("reference_sources").
		Select(`reference_sources.id AS source_id,
			reference_sources.name AS source_name,
			COUNT(DISTINCT leads.id) AS leads,
			COUNT(DISTINCT viewings.id) AS viewings,
			COUNT(DISTINCT CASE WHEN viewings.is_serious THEN viewings.id END) AS serious_viewings`).
		Joins(`LEFT JOIN leads ON leads.reference_source_id = reference_sources.id
			AND leads.deleted_at IS NULL AND leads.created_at >= ? AND leads.created_at < ?`, from, to).
		Joins("LEFT JOIN viewings ON viewings.lead_id = leads.id AND viewings.deleted_at IS NULL").
		Group("reference_sources.id, reference_sources.name").
		Order("leads DESC, source_name").
		Scan(&rows).Error
	return rows, err
}

func (r *ReportRepository) Dashboard(ctx context.Context, userID uint, vis Visibility) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var stats DashboardStats

	if err := vis.ownedBy(db.Model(&model.Lead{}), "leads").Count(&stats.Leads).Error; err != nil {
		return nil, err
	}
	if err := vis.ownedBy(db.Model(&model.Property{}), "properties").Count(&stats.Properties).Error; err != nil {
		return nil, err
	}

	viewings := func() *gorm.DB {
		q := db.Model(&model.Viewing{})
		if vis.Scope != rbac.ScopeAll && vis.Scope != "" {
			q = q.Where("viewings.agent_id IN ? OR viewings.created_by_id IN ?", vis.UserIDs, vis.UserIDs)
		}
		return q
	}
	if err := viewings().Count(&stats.Viewings).Error; err != nil {
		return nil, err
	}
	if err := viewings().Where("is_serious = ?", true).Count(&stats.SeriousViewings).Error; err != nil {
		return nil, err
	}

	var leadRefs, propRefs int64
	if err := db.Model(&model.LeadReferral{}).
		Where("to_user_id = ? AND status = ?", userID, model.ReferralPending).
		Count(&leadRefs).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.PropertyReferral{}).
		Where("to_user_id = ? AND status = ?", userID, model.ReferralPending).
		Count(&propRefs).Error; err != nil {
		return nil, err
	}
	stats.PendingReferrals = leadRefs + propRefs

	if err := db.Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&stats.UnreadNotifications).Error; err != nil {
		return nil, err
	}

	q := vis.ownedBy(db.Table("leads").
		Select("lead_statuses.id AS status_id, lead_statuses.status_name, lead_statuses.color, COUNT(leads.id) AS count").
		Joins("JOIN lead_statuses ON lead_statuses.id = leads.status_id").
		Where("leads.deleted_at IS NULL"), "leads")
	err := q.Group("lead_statuses.id, lead_statuses.status_name, lead_statuses.color").
		Order("count DESC").
		Scan(&stats.LeadsByStatus).Error
	if err != nil {
		return nil, err
	}
	if stats.LeadsByStatus == nil {
		stats.LeadsByStatus = []StatusCount{}
	}
	return &stats, nil
}
