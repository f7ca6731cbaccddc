package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estacrm_backend/pkg/apierror"
)

const prefix = "crm"

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_import_rows_total",
			Help: "Spreadsheet rows processed by the importer, by outcome",
		},
		[]string{"entity", "bucket"},
	)

	ReferralsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_referrals_total",
			Help: "Referral state changes",
		},
		[]string{"entity", "action"},
	)

	CronRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cron_runs_total",
			Help: "Background job executions by result",
		},
		[]string{"job", "result"},
	)
)

// Middleware records request count and latency per route template, so
// "/api/leads/:id" is one series regardless of the id.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var ae *apierror.Error
			var fe *fiber.Error
			switch {
			case errors.As(err, &ae):
				status = ae.Status
			case errors.As(err, &fe):
				status = fe.Code
			default:
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		HttpRequestsTotal.WithLabelValues(labels...).Inc()
		HttpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

func RecordImportRows(entity, bucket string, n int) {
	if n > 0 {
		ImportRowsTotal.WithLabelValues(entity, bucket).Add(float64(n))
	}
}

func RecordReferral(entity, action string) {
	ReferralsTotal.WithLabelValues(entity, action).Inc()
}

func RecordCronRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	CronRunsTotal.WithLabelValues(job, result).Inc()
}
