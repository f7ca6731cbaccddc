package repository

import (
	"context"

	"gorm.io/gorm"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

type UserFilter struct {
	Role   rbac.Role
	Active *bool
	Search string
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}
	if f.Search != "" {
		p := likePattern(f.Search)
		q = q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", p, p, p)
	}

	var users []model.User
	if err := q.Order("first_name, last_name").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) ActiveUsers(ctx context.Context) ([]model.User, error) {
	active := true
	return r.List(ctx, UserFilter{Active: &active})
}

// ReferralTargets lists active users that may receive leads and properties.
func (r *UserRepository) ReferralTargets(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND role IN ?", true, []rbac.Role{rbac.RoleAgent, rbac.RoleTeamLeader, rbac.RoleAgentManager}).
		Order("first_name, last_name").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Save writes every column, including zero values such as is_active=false.
func (r *UserRepository) Save(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("TeamLeader", "Documents").Save(user).Error
}

func (r *UserRepository) AgentsOf(ctx context.Context, leaderID uint) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("team_leader_id = ?", leaderID).
		Order("first_name, last_name").
		Find(&users).Error
	return users, err
}

// TeamIDs returns the leader's id followed by the ids of their agents.
func (r *UserRepository) TeamIDs(ctx context.Context, leaderID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("team_leader_id = ?", leaderID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return append([]uint{leaderID}, ids...), nil
}

func (r *UserRepository) Documents(ctx context.Context, userID uint) ([]model.UserDocument, error) {
	var docs []model.UserDocument
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&docs).Error
	return docs, err
}

func (r *UserRepository) FindDocument(ctx context.Context, userID, docID uint) (*model.UserDocument, error) {
	var doc model.UserDocument
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&doc, docID).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *UserRepository) CreateDocument(ctx context.Context, doc *model.UserDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *UserRepository) DeleteDocument(ctx context.Context, doc *model.UserDocument) error {
	return r.db.WithContext(ctx).Delete(doc).Error
}
