// Package metrics exposes Prometheus counters for the persistence engine on
// a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"offnote/internal/domain"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// Backend metrics
	Operations  *prometheus.CounterVec
	Fallbacks   *prometheus.CounterVec
	FileActive  prometheus.Gauge
	BreakerOpen prometheus.Gauge

	// Sync metrics
	SyncItems *prometheus.CounterVec
	Pruned    prometheus.Counter

	// Search and autosave metrics
	SearchAborts     *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	AutosaveFailures prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_operations_total",
				Help:      "Storage operations by backend, operation and outcome",
			},
			[]string{"backend", "op", "status"},
		),
		Fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_fallbacks_total",
				Help:      "Operations served by the database after the file backend failed",
			},
			[]string{"op"},
		),
		FileActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "file_backend_active",
				Help:      "1 when the file backend is the active backend",
			},
		),
		BreakerOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "file_backend_breaker_open",
				Help:      "1 while the file backend circuit breaker is open",
			},
		),
		SyncItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_items_total",
				Help:      "Items processed by backend switch and sync passes",
			},
			[]string{"phase", "status"},
		),
		Pruned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_pruned_total",
				Help:      "Metadata index entries pruned",
			},
		),
		SearchAborts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "search_aborts_total",
				Help:      "Pattern searches aborted by reason",
			},
			[]string{"reason"},
		),
		SearchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "Pattern search duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		AutosaveFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "autosave_failures_total",
				Help:      "Failed auto-save attempts, retries included",
			},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(
		c.Operations,
		c.Fallbacks,
		c.FileActive,
		c.BreakerOpen,
		c.SyncItems,
		c.Pruned,
		c.SearchAborts,
		c.SearchDuration,
		c.AutosaveFailures,
		c.HTTPRequests,
	)
	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation counts one backend call.
func (c *Collector) RecordOperation(backend, op string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Operations.WithLabelValues(backend, op, status).Inc()
}

// RecordFallback counts an operation served by the database after the file
// backend failed.
func (c *Collector) RecordFallback(op string) {
	if c == nil {
		return
	}
	c.Fallbacks.WithLabelValues(op).Inc()
}

// SetFileActive records whether the file backend is active.
func (c *Collector) SetFileActive(active bool) {
	if c == nil {
		return
	}
	c.FileActive.Set(boolFloat(active))
}

// SetBreakerOpen records the circuit breaker state.
func (c *Collector) SetBreakerOpen(open bool) {
	if c == nil {
		return
	}
	c.BreakerOpen.Set(boolFloat(open))
}

// RecordSync adds the counts of a sync report.
func (c *Collector) RecordSync(r domain.SyncReport) {
	if c == nil {
		return
	}
	phases := map[string]domain.Counts{
		"import": r.Imported,
		"export": r.Exported,
		"backup": r.BackedUp,
	}
	for phase, counts := range phases {
		c.SyncItems.WithLabelValues(phase, "ok").Add(float64(counts.Success))
		c.SyncItems.WithLabelValues(phase, "error").Add(float64(counts.Failed))
	}
	c.SyncItems.WithLabelValues("migrate", "ok").Add(float64(r.Migrated))
	c.Pruned.Add(float64(r.Pruned))
}

// RecordSearch records a search duration and, for aborted searches, the
// abort reason.
func (c *Collector) RecordSearch(d time.Duration, abortReason string) {
	if c == nil {
		return
	}
	c.SearchDuration.Observe(d.Seconds())
	if abortReason != "" {
		c.SearchAborts.WithLabelValues(abortReason).Inc()
	}
}

// RecordAutosaveFailure counts one failed save attempt.
func (c *Collector) RecordAutosaveFailure() {
	if c == nil {
		return
	}
	c.AutosaveFailures.Inc()
}

// RecordHTTPRequest counts one served request.
func (c *Collector) RecordHTTPRequest(method, route, status string) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
