package seed

import (
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/pkg/config"
)

var leadStatuses = []model.LeadStatus{
	{StatusName: "New", Code: model.LeadStatusCodeNew, Color: "#3B82F6", Description: "Fresh lead, not contacted yet", CanBeReferred: true},
	{StatusName: "Contacted", Code: "CONTACTED", Color: "#8B5CF6", CanBeReferred: true},
	{StatusName: "Qualified", Code: "QUALIFIED", Color: "#10B981", CanBeReferred: true},
	{StatusName: "Viewing Scheduled", Code: "VIEWING", Color: "#F59E0B", CanBeReferred: true},
	{StatusName: "Negotiation", Code: "NEGOTIATION", Color: "#EC4899", CanBeReferred: true},
	{StatusName: "Won", Code: "WON", Color: "#059669", CanBeReferred: false},
	{StatusName: "Lost", Code: "LOST", Color: model.DefaultStatusColor, CanBeReferred: false},
}

var propertyStatuses = []model.PropertyStatus{
	{Name: "Available", Code: model.PropertyStatusAvailable, Color: "#10B981", CanBeReferred: true},
	{Name: "Reserved", Code: model.PropertyStatusReserved, Color: "#F59E0B", CanBeReferred: true},
	{Name: "Sold", Code: model.PropertyStatusSold, Color: "#EF4444", IsTerminal: true},
	{Name: "Rented", Code: model.PropertyStatusRented, Color: "#6366F1", IsTerminal: true},
	{Name: "Closed", Code: model.PropertyStatusClosed, Color: model.DefaultStatusColor, IsTerminal: true},
}

var categories = []string{"Apartment", "Villa", "Townhouse", "Penthouse", "Office", "Retail", "Land"}

var sources = []string{"Website", "Property Portal", "Social Media", "Referral", "Walk-in", "Cold Call"}

// Run inserts the default catalog rows and the bootstrap admin. Existing rows
// are left as they are.
func Run(db *gorm.DB, admin config.AdminConfig) error {
	for _, st := range leadStatuses {
		st.IsActive = true
		if err := db.Where(model.LeadStatus{Code: st.Code}).FirstOrCreate(&st).Error; err != nil {
			return err
		}
	}
	for _, st := range propertyStatuses {
		if err := db.Where(model.PropertyStatus{Code: st.Code}).FirstOrCreate(&st).Error; err != nil {
			return err
		}
	}
	for _, name := range categories {
		c := model.PropertyCategory{Name: name, IsActive: true}
		if err := db.Where(model.PropertyCategory{Name: name}).FirstOrCreate(&c).Error; err != nil {
			return err
		}
	}
	for _, name := range sources {
		s := model.ReferenceSource{Name: name, IsActive: true}
		if err := db.Where(model.ReferenceSource{Name: name}).FirstOrCreate(&s).Error; err != nil {
			return err
		}
	}
	zap.L().Info("catalog seeded")

	return seedAdmin(db, admin)
}

func seedAdmin(db *gorm.DB, admin config.AdminConfig) error {
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	var count int64
	if err := db.Model(&model.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	user := model.User{
		Email:     email,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      rbac.RoleAdmin,
		IsActive:  true,
	}
	if err := user.SetPassword(admin.Password); err != nil {
		return err
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	zap.L().Info("admin user created", zap.String("email", email))
	return nil
}
