// Package importer turns uploaded spreadsheets into leads and properties.
//
// Every run goes through the same stages: parse the first sheet, normalize
// cell values, resolve names to ids, validate, detect duplicates and classify
// each row. Preview stops there; Commit then inserts the valid rows one by one.
package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/metrics"
	"estacrm_backend/pkg/utils/validation"
)

type Entity string

const (
	EntityLeads      Entity = "leads"
	EntityProperties Entity = "properties"
)

const ModeSkip = "skip"

type RowStatus string

const (
	RowValid     RowStatus = "valid"
	RowInvalid   RowStatus = "invalid"
	RowDuplicate RowStatus = "duplicate"
)

type Store interface {
	LeadStatuses(ctx context.Context) ([]model.LeadStatus, error)
	PropertyStatuses(ctx context.Context) ([]model.PropertyStatus, error)
	PropertyCategories(ctx context.Context) ([]model.PropertyCategory, error)
	ReferenceSources(ctx context.Context) ([]model.ReferenceSource, error)
	ActiveUsers(ctx context.Context) ([]model.User, error)

	LeadExists(ctx context.Context, name, phoneDigits string, date time.Time) (bool, error)
	PropertyReferenceExists(ctx context.Context, reference string) (bool, error)
	PropertyOwnerExists(ctx context.Context, ownerName, phoneDigits, location string) (bool, error)

	CreateLead(ctx context.Context, lead *model.Lead) error
	CreateProperty(ctx context.Context, property *model.Property) error
}

type Options struct {
	MaxBytes int64
	MaxRows  int
}

type Request struct {
	Entity   Entity
	FileName string
	Size     int64
	Reader   io.Reader
	Mode     string
	UserID   uint
	Role     rbac.Role
}

type Summary struct {
	Total           int `json:"total"`
	Valid           int `json:"valid"`
	Invalid         int `json:"invalid"`
	Duplicate       int `json:"duplicate"`
	WillImportCount int `json:"willImportCount"`
}

type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type PreviewRow struct {
	Row        int                    `json:"row"`
	Status     RowStatus              `json:"status"`
	Original   map[string]string      `json:"original"`
	Normalized map[string]interface{} `json:"normalized"`
	Resolved   map[string]interface{} `json:"resolved"`
	Warnings   []string               `json:"warnings"`
	Errors     []string               `json:"errors"`

	lead     *model.Lead
	property *model.Property
}

type Preview struct {
	Summary      Summary      `json:"summary"`
	RowsPreview  []PreviewRow `json:"rowsPreview"`
	Errors       []RowError   `json:"errors"`
	SheetWarning string       `json:"sheetWarning,omitempty"`
}

type Result struct {
	ImportedCount          int        `json:"importedCount"`
	SkippedDuplicatesCount int        `json:"skippedDuplicatesCount"`
	ErrorCount             int        `json:"errorCount"`
	Errors                 []RowError `json:"errors"`
	SheetWarning           string     `json:"sheetWarning,omitempty"`
}

type Importer struct {
	store    Store
	notifier *notify.Service
	opts     Options
	now      func() time.Time
	log      *zap.Logger
}

func New(store Store, notifier *notify.Service, opts Options, log *zap.Logger) *Importer {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10 * 1024 * 1024
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = 5000
	}
	return &Importer{store: store, notifier: notifier, opts: opts, now: time.Now, log: log}
}

// Preview runs the pipeline without writing anything.
func (im *Importer) Preview(ctx context.Context, req Request) (*Preview, error) {
	return im.evaluate(ctx, req)
}

// Commit inserts every valid row on its own. Rows that fail do not roll back
// rows already written; they are counted and reported instead.
func (im *Importer) Commit(ctx context.Context, req Request) (*Result, error) {
	preview, err := im.evaluate(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: []RowError{}, SheetWarning: preview.SheetWarning}
	for i := range preview.RowsPreview {
		row := &preview.RowsPreview[i]
		switch row.Status {
		case RowDuplicate:
			res.SkippedDuplicatesCount++
			continue
		case RowInvalid:
			res.ErrorCount++
			for _, msg := range row.Errors {
				res.Errors = append(res.Errors, RowError{Row: row.Row, Message: msg})
			}
			continue
		}

		var insertErr error
		if row.lead != nil {
			row.lead.AddedByID = req.UserID
			insertErr = im.store.CreateLead(ctx, row.lead)
		} else if row.property != nil {
			row.property.AddedByID = req.UserID
			insertErr = im.store.CreateProperty(ctx, row.property)
		}

		switch {
		case insertErr == nil:
			res.ImportedCount++
		case apierror.IsUniqueViolation(insertErr):
			// Another import or user created the same record after the checks ran.
			res.SkippedDuplicatesCount++
		default:
			res.ErrorCount++
			msg := "Could not save row"
			if apierror.IsForeignKeyViolation(insertErr) {
				msg = "Could not save row: a referenced record no longer exists"
			}
			res.Errors = append(res.Errors, RowError{Row: row.Row, Message: msg})
			im.log.Warn("import row insert failed",
				zap.String("entity", string(req.Entity)),
				zap.Int("row", row.Row),
				zap.Error(insertErr),
			)
		}
	}

	metrics.RecordImportRows(string(req.Entity), "imported", res.ImportedCount)
	metrics.RecordImportRows(string(req.Entity), "duplicate", res.SkippedDuplicatesCount)
	metrics.RecordImportRows(string(req.Entity), "error", res.ErrorCount)

	im.log.Info("import committed",
		zap.String("entity", string(req.Entity)),
		zap.Uint("user_id", req.UserID),
		zap.Int("imported", res.ImportedCount),
		zap.Int("skipped", res.SkippedDuplicatesCount),
		zap.Int("errors", res.ErrorCount),
	)

	if im.notifier != nil {
		label := "Lead"
		if req.Entity == EntityProperties {
			label = "Property"
		}
		_ = im.notifier.Notify(ctx, notify.Message{
			UserID:     req.UserID,
			Type:       model.NotificationImportCompleted,
			Title:      label + " import completed",
			Body:       fmt.Sprintf("Imported %d, skipped %d duplicates, %d errors", res.ImportedCount, res.SkippedDuplicatesCount, res.ErrorCount),
			EntityType: string(req.Entity),
			Metadata: map[string]interface{}{
				"file":          req.FileName,
				"imported":      res.ImportedCount,
				"skipped":       res.SkippedDuplicatesCount,
				"errors":        res.ErrorCount,
				"sheet_warning": res.SheetWarning,
			},
		})
	}

	return res, nil
}

func (im *Importer) check(req Request) (string, error) {
	if req.Reader == nil || strings.TrimSpace(req.FileName) == "" {
		return "", apierror.BadRequest("No file uploaded")
	}
	if req.Mode != "" && req.Mode != ModeSkip {
		return "", apierror.BadRequest(fmt.Sprintf("Unsupported import mode %q. Only \"skip\" is supported", req.Mode))
	}
	if req.Size > im.opts.MaxBytes {
		return "", apierror.BadRequest(fmt.Sprintf("File too large. Maximum size is %dMB", im.opts.MaxBytes/(1024*1024)))
	}
	ext := validation.Ext(req.FileName)
	if ext != ".xlsx" && ext != ".csv" {
		return "", apierror.BadRequest("Invalid file type. Only .xlsx and .csv files are allowed")
	}
	return ext, nil
}

func (im *Importer) evaluate(ctx context.Context, req Request) (*Preview, error) {
	ext, err := im.check(req)
	if err != nil {
		return nil, err
	}

	tbl, err := readTable(ext, req.Reader)
	if err != nil {
		return nil, apierror.BadRequest(err.Error())
	}
	if len(tbl.rows) > im.opts.MaxRows {
		return nil, apierror.BadRequest(fmt.Sprintf("File has %d data rows. Maximum is %d", len(tbl.rows), im.opts.MaxRows))
	}

	lk, err := im.loadLookups(ctx, req.Entity)
	if err != nil {
		return nil, err
	}

	var (
		aliases map[string]string
		build   func(ctx context.Context, pr *PreviewRow, get func(string) string) (string, error)
	)
	switch req.Entity {
	case EntityLeads:
		aliases = leadColumns
		build = func(ctx context.Context, pr *PreviewRow, get func(string) string) (string, error) {
			return im.buildLead(ctx, lk, pr, get)
		}
	case EntityProperties:
		aliases = propertyColumns
		build = func(ctx context.Context, pr *PreviewRow, get func(string) string) (string, error) {
			return im.buildProperty(ctx, lk, pr, get)
		}
	default:
		return nil, apierror.BadRequest(fmt.Sprintf("Unknown import entity %q", req.Entity))
	}

	columns := mapHeaders(tbl.headers, aliases)
	preview := &Preview{
		RowsPreview:  make([]PreviewRow, 0, len(tbl.rows)),
		Errors:       []RowError{},
		SheetWarning: tbl.sheetWarning,
	}
	validKeys := map[string]int{}

	for _, raw := range tbl.rows {
		pr := PreviewRow{
			Row:        raw.number,
			Original:   map[string]string{},
			Normalized: map[string]interface{}{},
			Resolved:   map[string]interface{}{},
			Warnings:   []string{},
			Errors:     []string{},
		}
		values := map[string]string{}
		for i, h := range tbl.headers {
			if strings.TrimSpace(h) != "" {
				pr.Original[strings.TrimSpace(h)] = raw.cell(i)
			}
			if columns[i] != "" {
				values[columns[i]] = cleanText(raw.cell(i))
			}
		}
		get := func(col string) string { return values[col] }

		key, err := build(ctx, &pr, get)
		if err != nil {
			return nil, err
		}

		switch {
		case pr.Status == RowDuplicate:
		case key != "" && validKeys[key] > 0:
			pr.Status = RowDuplicate
			pr.Warnings = append(pr.Warnings, fmt.Sprintf("Duplicate of row %d in this file", validKeys[key]))
		case len(pr.Errors) > 0:
			pr.Status = RowInvalid
		default:
			pr.Status = RowValid
			if key != "" {
				validKeys[key] = pr.Row
			}
		}

		switch pr.Status {
		case RowValid:
			preview.Summary.Valid++
		case RowInvalid:
			preview.Summary.Invalid++
			for _, msg := range pr.Errors {
				preview.Errors = append(preview.Errors, RowError{Row: pr.Row, Message: msg})
			}
		case RowDuplicate:
			preview.Summary.Duplicate++
		}
		preview.RowsPreview = append(preview.RowsPreview, pr)
	}

	preview.Summary.Total = len(preview.RowsPreview)
	preview.Summary.WillImportCount = preview.Summary.Valid
	return preview, nil
}
