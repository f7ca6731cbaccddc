package importer

import (
	"context"
	"strings"

	"estacrm_backend/internal/model"
)

// lookups holds the reference tables for one run, keyed by lower-cased name.
type lookups struct {
	leadStatuses map[string]model.LeadStatus
	newStatus    *model.LeadStatus
	propStatuses map[string]model.PropertyStatus
	categories   map[string]uint
	sources      map[string]uint
	users        map[string]uint
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (im *Importer) loadLookups(ctx context.Context, entity Entity) (*lookups, error) {
	lk := &lookups{
		leadStatuses: map[string]model.LeadStatus{},
		propStatuses: map[string]model.PropertyStatus{},
		categories:   map[string]uint{},
		sources:      map[string]uint{},
		users:        map[string]uint{},
	}

	users, err := im.store.ActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		lk.users[key(u.Email)] = u.ID
		if name := key(u.GetFullName()); name != "" {
			if _, taken := lk.users[name]; !taken {
				lk.users[name] = u.ID
			}
		}
	}

	if entity == EntityLeads {
		statuses, err := im.store.LeadStatuses(ctx)
		if err != nil {
			return nil, err
		}
		for i := range statuses {
			st := statuses[i]
			lk.leadStatuses[key(st.StatusName)] = st
			lk.leadStatuses[key(st.Code)] = st
			if strings.EqualFold(st.Code, model.LeadStatusCodeNew) {
				lk.newStatus = &st
			}
		}

		sources, err := im.store.ReferenceSources(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range sources {
			lk.sources[key(s.Name)] = s.ID
		}
		return lk, nil
	}

	statuses, err := im.store.PropertyStatuses(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range statuses {
		lk.propStatuses[key(st.Name)] = st
		lk.propStatuses[key(st.Code)] = st
	}

	categories, err := im.store.PropertyCategories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		lk.categories[key(c.Name)] = c.ID
	}
	return lk, nil
}
