package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "attendance",
		Name:      "http_request_duration_seconds",
		Help:      "Latency of HTTP requests by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// AttendanceMarked counts records written by mark requests and bulk imports.
	AttendanceMarked = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "records_written_total",
		Help:      "Attendance records upserted, by source.",
	}, []string{"source"})

	// ImportRows counts import rows by pipeline and outcome (imported, skipped).
	ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "import_rows_total",
		Help:      "Rows processed by the import pipelines.",
	}, []string{"pipeline", "outcome"})

	// Logins counts authentication attempts by role and result.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "attendance",
		Name:      "logins_total",
		Help:      "Login attempts by role and result.",
	}, []string{"role", "result"})
)

// RecordImport adds an import outcome to ImportRows.
func RecordImport(pipeline string, imported, skipped int) {
	ImportRows.WithLabelValues(pipeline, "imported").Add(float64(imported))
	ImportRows.WithLabelValues(pipeline, "skipped").Add(float64(skipped))
}

// Middleware observes request latency. The route label is the gin route
// template so path parameters do not explode cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
