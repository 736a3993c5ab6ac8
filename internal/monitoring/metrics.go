package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Mail delivery metrics
	MailDispatchDuration *prometheus.HistogramVec
	MailDispatchTotal    *prometheus.CounterVec

	// Review request metrics
	RequestsSent  prometheus.Counter
	ClicksTracked prometheus.Counter

	// Reminder sweep metrics
	RemindersSent     prometheus.Counter
	RemindersFailed   prometheus.Counter
	SweepDuration     prometheus.Histogram
	SweepCandidates   prometheus.Gauge

	// Import metrics
	ReviewsImported *prometheus.CounterVec
	ImportErrors    *prometheus.CounterVec
	ImportDuration  *prometheus.HistogramVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBQueryDuration     *prometheus.HistogramVec
}

var metrics *Metrics

// Init initializes all Prometheus metrics
func Init() *Metrics {
	if metrics != nil {
		return metrics
	}

	metrics = &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		// Mail delivery metrics
		MailDispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mail_dispatch_duration_seconds",
				Help:    "SMTP dispatch duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"kind"},
		),
		MailDispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mail_dispatch_total",
				Help: "Total number of mail dispatch attempts",
			},
			[]string{"kind", "status"},
		),

		// Review request metrics
		RequestsSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_requests_sent_total",
				Help: "Total number of review request emails sent",
			},
		),
		ClicksTracked: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_clicks_tracked_total",
				Help: "Total number of tracked review link clicks",
			},
		),

		// Reminder sweep metrics
		RemindersSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reminders_sent_total",
				Help: "Total number of reminder emails sent",
			},
		),
		RemindersFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reminders_failed_total",
				Help: "Total number of reminder send failures",
			},
		),
		SweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reminder_sweep_duration_seconds",
				Help:    "Reminder sweep run duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120},
			},
		),
		SweepCandidates: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reminder_sweep_candidates",
				Help: "Number of candidates found in the last reminder sweep",
			},
		),

		// Import metrics
		ReviewsImported: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_imported_total",
				Help: "Total number of external reviews imported",
			},
			[]string{"platform"},
		),
		ImportErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_import_errors_total",
				Help: "Total number of external review import errors",
			},
			[]string{"platform", "error_type"},
		),
		ImportDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_import_duration_seconds",
				Help:    "External review import duration in seconds",
				Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"platform"},
		),

		// Database metrics
		DBConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_type"},
		),
	}

	return metrics
}

// Get returns the global metrics instance
func Get() *Metrics {
	if metrics == nil {
		return Init()
	}
	return metrics
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinHandler returns a Gin-compatible handler for Prometheus metrics
func GinHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// MetricsMiddleware is a Gin middleware for collecting HTTP metrics
func MetricsMiddleware() gin.HandlerFunc {
	m := Get()
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		// Track in-flight requests
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// Process request
		c.Next()

		// Record metrics
		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// RecordMailDispatch records a mail dispatch attempt
func RecordMailDispatch(kind, status string, duration time.Duration) {
	Get().MailDispatchTotal.WithLabelValues(kind, status).Inc()
	Get().MailDispatchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordRequestSent records a review request email send
func RecordRequestSent() {
	Get().RequestsSent.Inc()
}

// RecordClickTracked records a tracked click
func RecordClickTracked() {
	Get().ClicksTracked.Inc()
}

// RecordReminderSent records a reminder send
func RecordReminderSent() {
	Get().RemindersSent.Inc()
}

// RecordReminderFailed records a reminder send failure
func RecordReminderFailed() {
	Get().RemindersFailed.Inc()
}

// RecordSweep records the outcome of a reminder sweep run
func RecordSweep(candidates int, duration time.Duration) {
	Get().SweepCandidates.Set(float64(candidates))
	Get().SweepDuration.Observe(duration.Seconds())
}

// RecordReviewsImported records imported reviews for a platform
func RecordReviewsImported(platform string, count int) {
	Get().ReviewsImported.WithLabelValues(platform).Add(float64(count))
}

// RecordImportError records an import error
func RecordImportError(platform, errorType string) {
	Get().ImportErrors.WithLabelValues(platform, errorType).Inc()
}

// RecordImportDuration records an import duration
func RecordImportDuration(platform string, duration time.Duration) {
	Get().ImportDuration.WithLabelValues(platform).Observe(duration.Seconds())
}

// RecordDBQuery records a database query duration
func RecordDBQuery(queryType string, duration time.Duration) {
	Get().DBQueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

// SetDBConnections sets database connection metrics
func SetDBConnections(active, idle int) {
	Get().DBConnectionsActive.Set(float64(active))
	Get().DBConnectionsIdle.Set(float64(idle))
}
