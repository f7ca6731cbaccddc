// Package repository holds the GORM backed stores used by services and
// controllers.
package repository

import (
	"strings"

	"gorm.io/gorm"

	"estacrm_backend/internal/rbac"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	p = p.normalize()
	return db.Offset((p.Page - 1) * p.Limit).Limit(p.Limit)
}

type List[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newList[T any](items []T, total int64, p Page) *List[T] {
	p = p.normalize()
	if items == nil {
		items = []T{}
	}
	return &List[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}

// Visibility restricts list queries to what a role may see. UserIDs holds the
// caller, plus their agents for team scope.
type Visibility struct {
	Scope   rbac.Scope
	UserIDs []uint
}

// ownedBy filters rows whose agent or creator is one of the visible users.
func (v Visibility) ownedBy(db *gorm.DB, table string) *gorm.DB {
	if v.Scope == rbac.ScopeAll || v.Scope == "" {
		return db
	}
	return db.Where(table+".agent_id IN ? OR "+table+".added_by_id IN ?", v.UserIDs, v.UserIDs)
}

func (v Visibility) Allows(ids ...uint) bool {
	if v.Scope == rbac.ScopeAll || v.Scope == "" {
		return true
	}
	for _, id := range ids {
		for _, u := range v.UserIDs {
			if id != 0 && id == u {
				return true
			}
		}
	}
	return false
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
	return "%" + strings.ToLower(s) + "%"
}
