package importer

import "strings"

// Canonical column names. Headers in a file are mapped onto these through the
// alias tables below.
const (
	colName        = "name"
	colPhone       = "phone"
	colEmail       = "email"
	colPrice       = "price"
	colStatus      = "status"
	colAgent       = "agent"
	colSource      = "source"
	colDate        = "date"
	colNotes       = "notes"
	colReference   = "reference"
	colCategory    = "category"
	colLocation    = "location"
	colBuilding    = "building"
	colOwnerName   = "owner_name"
	colOwnerPhone  = "owner_phone"
	colSurface     = "surface"
	colListingDate = "listing_date"
	colDetails     = "details"
)

// Lead files sometimes carry "Code" or "Reference" columns from older exports.
// They are not in the table and are ignored like any unknown header.
var leadColumns = map[string]string{
	"name":             colName,
	"customer name":    colName,
	"customer":         colName,
	"client":           colName,
	"client name":      colName,
	"full name":        colName,
	"phone":            colPhone,
	"phone number":     colPhone,
	"mobile":           colPhone,
	"telephone":        colPhone,
	"email":            colEmail,
	"e-mail":           colEmail,
	"email address":    colEmail,
	"price":            colPrice,
	"budget":           colPrice,
	"status":           colStatus,
	"lead status":      colStatus,
	"agent":            colAgent,
	"assigned agent":   colAgent,
	"assigned to":      colAgent,
	"source":           colSource,
	"reference source": colSource,
	"lead source":      colSource,
	"date":             colDate,
	"lead date":        colDate,
	"created":          colDate,
	"notes":            colNotes,
	"note":             colNotes,
	"comments":         colNotes,
}

var propertyColumns = map[string]string{
	"reference":        colReference,
	"reference number": colReference,
	"reference no":     colReference,
	"ref":              colReference,
	"ref no":           colReference,
	"status":           colStatus,
	"property status":  colStatus,
	"category":         colCategory,
	"type":             colCategory,
	"property type":    colCategory,
	"location":         colLocation,
	"area":             colLocation,
	"building":         colBuilding,
	"project":          colBuilding,
	"owner":            colOwnerName,
	"owner name":       colOwnerName,
	"owner phone":      colOwnerPhone,
	"owner mobile":     colOwnerPhone,
	"surface":          colSurface,
	"size":             colSurface,
	"area sqm":         colSurface,
	"price":            colPrice,
	"agent":            colAgent,
	"assigned agent":   colAgent,
	"listing date":     colListingDate,
	"date":             colListingDate,
	"details":          colDetails,
	"notes":            colDetails,
	"description":      colDetails,
}

// normalizeHeader lower-cases a header and collapses whitespace, underscores
// and trailing punctuation so "Customer_Name " and "customer  name:" match.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.TrimRight(strings.TrimSpace(h), ":*.")
	h = strings.ReplaceAll(h, ".", "")
	return strings.Join(strings.Fields(h), " ")
}

// mapHeaders returns, for each header index, the canonical column or "" when
// the header is unknown. The first occurrence of a canonical column wins.
func mapHeaders(headers []string, aliases map[string]string) []string {
	out := make([]string, len(headers))
	seen := map[string]bool{}
	for i, h := range headers {
		col, ok := aliases[normalizeHeader(h)]
		if !ok || seen[col] {
			continue
		}
		seen[col] = true
		out[i] = col
	}
	return out
}
