package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "streamline"

// MetricsManager manages Prometheus metrics
type MetricsManager struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	uptime         prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	serverUp       prometheus.Gauge
	portChecks     *prometheus.CounterVec
	migrations     prometheus.Counter
	events         *prometheus.CounterVec
	updateChecks   *prometheus.CounterVec
	updateApplies  *prometheus.CounterVec
	rejectedEvents *prometheus.CounterVec
}

// NewMetricsManager creates a new metrics manager with its own registry
func NewMetricsManager(logger *zap.SugaredLogger) *MetricsManager {
	mm := &MetricsManager{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}

	mm.initMetrics()
	mm.registerMetrics()

	return mm
}

func (mm *MetricsManager) initMetrics() {
	mm.uptime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "uptime_seconds",
		Help:      "Time since the server started",
	})

	mm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	mm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	mm.serverUp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_up",
		Help:      "1 while the HTTP listener is accepting connections",
	})

	mm.portChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "port_checks_total",
			Help:      "Candidate port checks by result",
		},
		[]string{"result"}, // result: free, busy
	)

	mm.migrations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "migrations_applied_total",
		Help:      "Database migrations applied by this process",
	})

	mm.events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events delivered to the controller",
		},
		[]string{"event"},
	)

	mm.rejectedEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Events ignored because the transition was not allowed",
		},
		[]string{"event"},
	)

	mm.updateChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_checks_total",
			Help:      "Update checks by outcome",
		},
		[]string{"outcome"}, // outcome: up_to_date, available, failed
	)

	mm.updateApplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_applies_total",
			Help:      "Update installs by outcome",
		},
		[]string{"outcome"}, // outcome: finished, failed
	)
}

func (mm *MetricsManager) registerMetrics() {
	mm.registry.MustRegister(
		mm.uptime,
		mm.httpRequests,
		mm.httpDuration,
		mm.serverUp,
		mm.portChecks,
		mm.migrations,
		mm.events,
		mm.rejectedEvents,
		mm.updateChecks,
		mm.updateApplies,
	)

	mm.registry.MustRegister(collectors.NewGoCollector())
	mm.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler returns an HTTP handler for the /metrics endpoint
func (mm *MetricsManager) Handler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the Prometheus registry for custom metrics
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// SetUptime sets the uptime metric
func (mm *MetricsManager) SetUptime(startTime time.Time) {
	mm.uptime.Set(time.Since(startTime).Seconds())
}

// SetServerUp flips the listener gauge
func (mm *MetricsManager) SetServerUp(up bool) {
	if up {
		mm.serverUp.Set(1)
		return
	}
	mm.serverUp.Set(0)
}

// RecordPortCheck records one candidate check
func (mm *MetricsManager) RecordPortCheck(free bool) {
	if free {
		mm.portChecks.WithLabelValues("free").Inc()
		return
	}
	mm.portChecks.WithLabelValues("busy").Inc()
}

// AddMigrations counts applied migrations
func (mm *MetricsManager) AddMigrations(n int) {
	mm.migrations.Add(float64(n))
}

// RecordEvent counts an event consumed by the controller
func (mm *MetricsManager) RecordEvent(name string) {
	mm.events.WithLabelValues(name).Inc()
}

// RecordRejectedEvent counts an event the controller refused to apply
func (mm *MetricsManager) RecordRejectedEvent(name string) {
	mm.rejectedEvents.WithLabelValues(name).Inc()
}

// RecordUpdateCheck records the outcome of an update check
func (mm *MetricsManager) RecordUpdateCheck(outcome string) {
	mm.updateChecks.WithLabelValues(outcome).Inc()
}

// RecordUpdateApply records the outcome of an update install
func (mm *MetricsManager) RecordUpdateApply(outcome string) {
	mm.updateApplies.WithLabelValues(outcome).Inc()
}

// RecordHTTPRequest records an HTTP request
func (mm *MetricsManager) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	mm.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	mm.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// HTTPMiddleware returns chi middleware that records HTTP metrics. The route
// label is the matched chi pattern so asset paths don't explode cardinality.
func (mm *MetricsManager) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			mm.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}
