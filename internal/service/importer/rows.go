package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/utils/validation"
)

const maxNameLength = 150

// buildLead fills pr and returns the row's natural key, or "" when the key
// fields are missing.
func (im *Importer) buildLead(ctx context.Context, lk *lookups, pr *PreviewRow, get func(string) string) (string, error) {
	lead := &model.Lead{
		CustomerName: get(colName),
		Phone:        get(colPhone),
		Email:        strings.ToLower(get(colEmail)),
		Notes:        get(colNotes),
	}

	if lead.CustomerName == "" {
		pr.Errors = append(pr.Errors, "Name is required")
	} else if len([]rune(lead.CustomerName)) > maxNameLength {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Name must be at most %d characters", maxNameLength))
	}

	if lead.Phone == "" {
		pr.Errors = append(pr.Errors, "Phone is required")
	} else if !validation.IsPhone(lead.Phone) {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid phone number %q", lead.Phone))
	}

	if lead.Email != "" && !validation.IsEmail(lead.Email) {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid email %q", lead.Email))
	}

	if raw := get(colPrice); raw != "" {
		price, err := parseNumber(raw)
		switch {
		case err != nil:
			pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid price %q", raw))
		case price < 0:
			pr.Errors = append(pr.Errors, "Price cannot be negative")
		default:
			lead.Price = price
			pr.Normalized["price"] = price
		}
	}

	lead.LeadDate = im.resolveDate(pr, get(colDate))

	statusName := get(colStatus)
	switch st, ok := lk.leadStatuses[key(statusName)]; {
	case statusName == "" && lk.newStatus != nil:
		lead.StatusID = lk.newStatus.ID
		pr.Normalized["status"] = lk.newStatus.StatusName
	case statusName == "":
		pr.Errors = append(pr.Errors, "Status is required")
	case ok:
		lead.StatusID = st.ID
		pr.Normalized["status"] = st.StatusName
	default:
		pr.Errors = append(pr.Errors, fmt.Sprintf("Unknown status %q", statusName))
	}
	if lead.StatusID != 0 {
		pr.Resolved["status_id"] = lead.StatusID
	}

	if name := get(colAgent); name != "" {
		if id, ok := lk.users[key(name)]; ok {
			lead.AgentID = &id
			pr.Resolved["agent_id"] = id
		} else {
			pr.Warnings = append(pr.Warnings, fmt.Sprintf("Agent %q not found; lead left unassigned", name))
		}
	}

	if name := get(colSource); name != "" {
		if id, ok := lk.sources[key(name)]; ok {
			lead.ReferenceSourceID = &id
			pr.Resolved["reference_source_id"] = id
		} else {
			pr.Warnings = append(pr.Warnings, fmt.Sprintf("Reference source %q not found", name))
		}
	}

	pr.Normalized["name"] = lead.CustomerName
	pr.Normalized["phone"] = lead.Phone
	pr.Normalized["email"] = lead.Email
	pr.Normalized["date"] = dateKey(lead.LeadDate)
	pr.Normalized["notes"] = lead.Notes
	pr.lead = lead

	digits := phoneDigits(lead.Phone)
	if lead.CustomerName == "" || digits == "" {
		return "", nil
	}
	exists, err := im.store.LeadExists(ctx, lead.CustomerName, digits, lead.LeadDate)
	if err != nil {
		return "", err
	}
	if exists {
		pr.Status = RowDuplicate
		pr.Warnings = append(pr.Warnings, "A lead with the same name, phone and date already exists")
	}
	return key(lead.CustomerName) + "|" + digits + "|" + dateKey(lead.LeadDate), nil
}

func (im *Importer) buildProperty(ctx context.Context, lk *lookups, pr *PreviewRow, get func(string) string) (string, error) {
	p := &model.Property{
		ReferenceNumber: get(colReference),
		Location:        get(colLocation),
		Building:        get(colBuilding),
		OwnerName:       get(colOwnerName),
		OwnerPhone:      get(colOwnerPhone),
		Details:         get(colDetails),
	}

	statusName := get(colStatus)
	st, ok := lk.propStatuses[key(statusName)]
	switch {
	case statusName == "":
		pr.Errors = append(pr.Errors, "Status is required")
	case !ok:
		pr.Errors = append(pr.Errors, fmt.Sprintf("Unknown status %q", statusName))
	default:
		p.StatusID = st.ID
		pr.Resolved["status_id"] = st.ID
		pr.Normalized["status"] = st.Name
	}

	categoryName := get(colCategory)
	if categoryName == "" {
		pr.Errors = append(pr.Errors, "Category is required")
	} else if id, ok := lk.categories[key(categoryName)]; ok {
		p.CategoryID = id
		pr.Resolved["category_id"] = id
	} else {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Unknown category %q", categoryName))
	}

	if p.Location == "" {
		pr.Errors = append(pr.Errors, "Location is required")
	}

	if raw := get(colPrice); raw == "" {
		pr.Errors = append(pr.Errors, "Price is required")
	} else if price, err := parseNumber(raw); err != nil {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid price %q", raw))
	} else if price < 0 {
		pr.Errors = append(pr.Errors, "Price cannot be negative")
	} else {
		p.Price = price
		pr.Normalized["price"] = price
	}

	if raw := get(colSurface); raw != "" {
		if surface, err := parseNumber(raw); err != nil || surface < 0 {
			pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid surface %q", raw))
		} else {
			p.Surface = surface
			pr.Normalized["surface"] = surface
		}
	}

	if p.OwnerPhone != "" && !validation.IsPhone(p.OwnerPhone) {
		pr.Errors = append(pr.Errors, fmt.Sprintf("Invalid owner phone %q", p.OwnerPhone))
	}

	if name := get(colAgent); name != "" {
		if id, ok := lk.users[key(name)]; ok {
			p.AgentID = &id
			pr.Resolved["agent_id"] = id
		} else {
			pr.Warnings = append(pr.Warnings, fmt.Sprintf("Agent %q not found; property left unassigned", name))
		}
	}

	p.ListingDate = im.resolveDate(pr, get(colListingDate))
	if st.IsTerminal {
		closed := p.ListingDate
		p.ClosedAt = &closed
	}

	pr.Normalized["reference"] = p.ReferenceNumber
	pr.Normalized["location"] = p.Location
	pr.Normalized["building"] = p.Building
	pr.Normalized["owner_name"] = p.OwnerName
	pr.Normalized["owner_phone"] = p.OwnerPhone
	pr.Normalized["listing_date"] = dateKey(p.ListingDate)
	pr.property = p

	var (
		rowKey string
		exists bool
		err    error
	)
	ownerDigits := phoneDigits(p.OwnerPhone)
	switch {
	case p.ReferenceNumber != "":
		rowKey = "ref:" + key(p.ReferenceNumber)
		exists, err = im.store.PropertyReferenceExists(ctx, p.ReferenceNumber)
	case p.OwnerName != "" && ownerDigits != "" && p.Location != "":
		rowKey = "owner:" + key(p.OwnerName) + "|" + ownerDigits + "|" + key(p.Location)
		exists, err = im.store.PropertyOwnerExists(ctx, p.OwnerName, ownerDigits, p.Location)
	}
	if err != nil {
		return "", err
	}
	if exists {
		pr.Status = RowDuplicate
		pr.Warnings = append(pr.Warnings, "A property with the same reference or owner already exists")
	}

	if p.ReferenceNumber == "" {
		p.ReferenceNumber = model.GenerateReferenceNumber()
	}
	return rowKey, nil
}

// resolveDate parses raw or falls back to the import date with a warning.
func (im *Importer) resolveDate(pr *PreviewRow, raw string) time.Time {
	today := im.now()
	if raw == "" {
		return today
	}
	d, warning, ok := parseDate(raw)
	if warning != "" {
		pr.Warnings = append(pr.Warnings, warning)
	}
	if !ok {
		pr.Warnings = append(pr.Warnings, fmt.Sprintf("Could not parse date %q; using the import date", raw))
		return today
	}
	return d
}
