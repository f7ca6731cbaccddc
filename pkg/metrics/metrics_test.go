package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/api/leads/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	before := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/leads/:id", "200"))
	for _, id := range []string{"1", "2"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/leads/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	after := testutil.ToFloat64(HttpRequestsTotal.WithLabelValues("GET", "/api/leads/:id", "200"))
	assert.Equal(t, 2.0, after-before)
}

func TestHandlerExposesCounters(t *testing.T) {
	RecordImportRows("lead", "valid", 3)
	RecordReferral("property", "confirm")
	RecordCronRun("viewing_reminders", errors.New("boom"))

	app := fiber.New()
	app.Get("/metrics", Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(body), `crm_import_rows_total{bucket="valid",entity="lead"}`)
	assert.Contains(t, string(body), `crm_referrals_total{action="confirm",entity="property"}`)
	assert.Contains(t, string(body), `crm_cron_runs_total{job="viewing_reminders",result="error"}`)
}
