package repository

import (
	"context"
	"time"

	"estacrm_backend/internal/model"
)

// ImportStore gathers the lookups and writes the spreadsheet importer needs.
type ImportStore struct {
	users      *UserRepository
	statuses   *LeadStatusRepository
	leads      *LeadRepository
	properties *PropertyRepository
	propStatus *CatalogRepository[model.PropertyStatus]
	categories *CatalogRepository[model.PropertyCategory]
	sources    *CatalogRepository[model.ReferenceSource]
}

func NewImportStore(
	users *UserRepository,
	statuses *LeadStatusRepository,
	leads *LeadRepository,
	properties *PropertyRepository,
	propStatus *CatalogRepository[model.PropertyStatus],
	categories *CatalogRepository[model.PropertyCategory],
	sources *CatalogRepository[model.ReferenceSource],
) *ImportStore {
	return &ImportStore{
		users:      users,
		statuses:   statuses,
		leads:      leads,
		properties: properties,
		propStatus: propStatus,
		categories: categories,
		sources:    sources,
	}
}

func (s *ImportStore) LeadStatuses(ctx context.Context) ([]model.LeadStatus, error) {
	return s.statuses.List(ctx, true)
}

func (s *ImportStore) PropertyStatuses(ctx context.Context) ([]model.PropertyStatus, error) {
	return s.propStatus.List(ctx)
}

func (s *ImportStore) PropertyCategories(ctx context.Context) ([]model.PropertyCategory, error) {
	return s.categories.List(ctx)
}

func (s *ImportStore) ReferenceSources(ctx context.Context) ([]model.ReferenceSource, error) {
	return s.sources.List(ctx)
}

func (s *ImportStore) ActiveUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ActiveUsers(ctx)
}

func (s *ImportStore) LeadExists(ctx context.Context, name, phoneDigits string, date time.Time) (bool, error) {
	return s.leads.LeadExists(ctx, name, phoneDigits, date)
}

func (s *ImportStore) PropertyReferenceExists(ctx context.Context, reference string) (bool, error) {
	return s.properties.PropertyReferenceExists(ctx, reference)
}

func (s *ImportStore) PropertyOwnerExists(ctx context.Context, ownerName, phoneDigits, location string) (bool, error) {
	return s.properties.PropertyOwnerExists(ctx, ownerName, phoneDigits, location)
}

func (s *ImportStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	return s.leads.CreateLead(ctx, lead)
}

func (s *ImportStore) CreateProperty(ctx context.Context, property *model.Property) error {
	return s.properties.CreateProperty(ctx, property)
}
