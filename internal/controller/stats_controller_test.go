package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/repository"
)

type fakeReports struct {
	from, to time.Time
	vis      repository.Visibility
}

func (f *fakeReports) Commission(_ context.Context, from, to time.Time) ([]repository.CommissionRow, error) {
	f.from, f.to = from, to
	return []repository.CommissionRow{
		{AgentID: 3, AgentName: "Ayse Kaya", Deals: 2, TotalValue: 300000, Commission: 6000},
		{AgentID: 4, AgentName: "Mehmet Demir", Deals: 1, TotalValue: 100000, Commission: 3000},
	}, nil
}

func (f *fakeReports) Sources(_ context.Context, from, to time.Time) ([]repository.SourceRow, error) {
	f.from, f.to = from, to
	return nil, nil
}

func (f *fakeReports) Dashboard(_ context.Context, _ uint, vis repository.Visibility) (*repository.DashboardStats, error) {
	f.vis = vis
	return &repository.DashboardStats{Leads: 4}, nil
}

func mountStats(staff fakeStaff, reports *fakeReports) func(t *testing.T, as uint, path string) result {
	sc := NewStatsController(reports, staff)
	sc.now = func() time.Time { return time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC) }

	app := newTestApp(staff)
	app.Get("/dashboard/stats", sc.Dashboard)
	app.Get("/reports/commission", sc.Commission)
	app.Get("/reports/sources", sc.Sources)
	return func(t *testing.T, as uint, path string) result {
		return call(t, app, staff, as, "GET", path, nil)
	}
}

func TestCommissionReportDefaultsToCurrentMonth(t *testing.T) {
	staff := defaultStaff()
	reports := &fakeReports{}
	do := mountStats(staff, reports)

	res := do(t, 1, "/reports/commission")
	require.Equal(t, 200, res.Status, string(res.Body))
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), reports.from)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), reports.to, "end is exclusive")

	var body struct {
		From   string                     `json:"from"`
		To     string                     `json:"to"`
		Rows   []repository.CommissionRow `json:"rows"`
		Totals struct {
			Deals      int64   `json:"deals"`
			TotalValue float64 `json:"total_value"`
			Commission float64 `json:"commission"`
		} `json:"totals"`
	}
	res.into(t, &body)
	assert.Equal(t, "2026-02-01", body.From)
	assert.Equal(t, "2026-02-28", body.To)
	assert.Len(t, body.Rows, 2)
	assert.Equal(t, int64(3), body.Totals.Deals)
	assert.Equal(t, 9000.0, body.Totals.Commission)
}

func TestReportPeriodAndFormatValidation(t *testing.T) {
	staff := defaultStaff()
	do := mountStats(staff, &fakeReports{})

	res := do(t, 1, "/reports/commission?format=csv")
	assert.Equal(t, 400, res.Status)
	assert.Equal(t, "format must be one of json, xlsx, pdf", res.Message)

	res = do(t, 1, "/reports/sources?from=2026-03-10&to=2026-03-01")
	assert.Equal(t, 400, res.Status)
	assert.Equal(t, "from must not be after to", res.Message)

	assert.Equal(t, 400, do(t, 1, "/reports/sources?from=yesterday").Status)
}

func TestReportExports(t *testing.T) {
	staff := defaultStaff()
	reports := &fakeReports{}
	do := mountStats(staff, reports)

	res := do(t, 1, "/reports/commission?format=xlsx&from=2026-01-01&to=2026-01-31")
	require.Equal(t, 200, res.Status)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", res.Header.Get("Content-Type"))
	assert.Contains(t, res.Header.Get("Content-Disposition"), `filename="commission-2026-01-01-2026-01-31.xlsx"`)
	assert.Equal(t, "PK", string(res.Body[:2]))

	res = do(t, 1, "/reports/sources?format=pdf&from=2026-01-01&to=2026-01-31")
	require.Equal(t, 200, res.Status)
	assert.Equal(t, "application/pdf", res.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-", string(res.Body[:5]))

	res = do(t, 1, "/reports/sources")
	require.Equal(t, 200, res.Status)
	var body struct {
		Rows []repository.SourceRow `json:"rows"`
	}
	res.into(t, &body)
	assert.NotNil(t, body.Rows)
	assert.Empty(t, body.Rows)
}

func TestDashboardIsScoped(t *testing.T) {
	staff := defaultStaff()
	reports := &fakeReports{}
	do := mountStats(staff, reports)

	require.Equal(t, 200, do(t, 5, "/dashboard/stats").Status)
	assert.Equal(t, rbac.ScopeOwn, reports.vis.Scope)
	assert.Equal(t, []uint{5}, reports.vis.UserIDs)

	require.Equal(t, 200, do(t, 1, "/dashboard/stats").Status)
	assert.Equal(t, rbac.ScopeAll, reports.vis.Scope)
}
