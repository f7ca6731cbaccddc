package controller

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/repository"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/report"
	"estacrm_backend/pkg/response"
)

type ReportStore interface {
	Commission(ctx context.Context, from, to time.Time) ([]repository.CommissionRow, error)
	Sources(ctx context.Context, from, to time.Time) ([]repository.SourceRow, error)
	Dashboard(ctx context.Context, userID uint, vis repository.Visibility) (*repository.DashboardStats, error)
}

type StatsController struct {
	reports ReportStore
	teams   TeamResolver
	now     func() time.Time
}

func NewStatsController(reports ReportStore, teams TeamResolver) *StatsController {
	return &StatsController{reports: reports, teams: teams, now: time.Now}
}

// Dashboard returns counts scoped to what the caller can see.
func (sc *StatsController) Dashboard(c *fiber.Ctx) error {
	vis, err := visibility(c, sc.teams)
	if err != nil {
		return err
	}
	stats, err := sc.reports.Dashboard(c.UserContext(), middleware.Claims(c).UserID, vis)
	if err != nil {
		return err
	}
	return response.OK(c, stats)
}

// period reads from/to as inclusive calendar days, defaulting to the current
// month. The returned end is exclusive.
func (sc *StatsController) period(c *fiber.Ctx) (from, to, end time.Time, err error) {
	now := sc.now()
	from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	to = from.AddDate(0, 1, -1)

	f, err := queryTime(c, "from")
	if err != nil {
		return
	}
	t, err := queryTime(c, "to")
	if err != nil {
		return
	}
	if f != nil {
		from = day(*f)
	}
	if t != nil {
		to = day(*t)
	}
	if from.After(to) {
		err = apierror.BadRequest("from must not be after to")
		return
	}
	return from, to, to.AddDate(0, 0, 1), nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// send renders the table in the requested format, or returns data as JSON.
func send(c *fiber.Ctx, format report.Format, base string, from, to time.Time, t report.Table, data interface{}) error {
	switch format {
	case report.FormatXLSX:
		buf, err := report.Excel(t)
		if err != nil {
			return apierror.Internal("Could not generate report").Wrap(err)
		}
		return attach(c, format, base, from, to, buf.Bytes())
	case report.FormatPDF:
		var buf bytes.Buffer
		if err := report.PDF(&buf, t); err != nil {
			return apierror.Internal("Could not generate report").Wrap(err)
		}
		return attach(c, format, base, from, to, buf.Bytes())
	}
	return response.OK(c, data)
}

func attach(c *fiber.Ctx, format report.Format, base string, from, to time.Time, body []byte) error {
	name := format.FileName(base, from, to)
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	logger.FromCtx(c).Info("report exported", zap.String("file", name), zap.Int("bytes", len(body)))
	return c.Send(body)
}

func (sc *StatsController) Commission(c *fiber.Ctx) error {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		return apierror.BadRequest(err.Error())
	}
	from, to, end, err := sc.period(c)
	if err != nil {
		return err
	}

	rows, err := sc.reports.Commission(c.UserContext(), from, end)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []repository.CommissionRow{}
	}

	var totals repository.CommissionRow
	table := report.Table{
		Title:  "Commission report",
		Period: report.PeriodLabel(from, to),
		Columns: []report.Column{
			{Title: "Agent", Width: 3},
			{Title: "Deals", Width: 1, Numeric: true},
			{Title: "Total value", Width: 2, Numeric: true},
			{Title: "Commission", Width: 2, Numeric: true},
		},
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []interface{}{r.AgentName, r.Deals, r.TotalValue, r.Commission})
		totals.Deals += r.Deals
		totals.TotalValue += r.TotalValue
		totals.Commission += r.Commission
	}
	table.Totals = []interface{}{"Total", totals.Deals, totals.TotalValue, totals.Commission}

	return send(c, format, "commission", from, to, table, fiber.Map{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"rows":   rows,
		"totals": fiber.Map{"deals": totals.Deals, "total_value": totals.TotalValue, "commission": totals.Commission},
	})
}

func (sc *StatsController) Sources(c *fiber.Ctx) error {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		return apierror.BadRequest(err.Error())
	}
	from, to, end, err := sc.period(c)
	if err != nil {
		return err
	}

	rows, err := sc.reports.Sources(c.UserContext(), from, end)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []repository.SourceRow{}
	}

	var totals repository.SourceRow
	table := report.Table{
		Title:  "Lead sources report",
		Period: report.PeriodLabel(from, to),
		Columns: []report.Column{
			{Title: "Source", Width: 3},
			{Title: "Leads", Width: 1, Numeric: true},
			{Title: "Viewings", Width: 1, Numeric: true},
			{Title: "Serious viewings", Width: 1.5, Numeric: true},
		},
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []interface{}{r.SourceName, r.Leads, r.Viewings, r.SeriousViewings})
		totals.Leads += r.Leads
		totals.Viewings += r.Viewings
		totals.SeriousViewings += r.SeriousViewings
	}
	table.Totals = []interface{}{"Total", totals.Leads, totals.Viewings, totals.SeriousViewings}

	return send(c, format, "sources", from, to, table, fiber.Map{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"rows":   rows,
		"totals": fiber.Map{"leads": totals.Leads, "viewings": totals.Viewings, "serious_viewings": totals.SeriousViewings},
	})
}
