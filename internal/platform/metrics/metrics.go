// Package metrics exposes Prometheus collectors for content operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds every metric the service exports. Each Collector owns its
// registry, so tests can create as many as they like. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	mutations      *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	storeDuration  *prometheus.HistogramVec
	recomputes     prometheus.Counter
	colorCacheSize prometheus.Gauge
	workingItems   *prometheus.GaugeVec
}

// NewCollector creates and registers all metrics under namespace.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_mutations_total",
			Help:      "Create, update and delete operations on the working set.",
		}, []string{"operation", "variant", "outcome"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Override store operations.",
		}, []string{"operation", "outcome"}),
		storeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Override store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_recomputes_total",
			Help:      "Filter recomputations handed to the renderer.",
		}),
		colorCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "color_cache_entries",
			Help:      "Categories with a memoized color.",
		}),
		workingItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "working_items",
			Help:      "Items in the working set.",
		}, []string{"variant"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.mutations,
		c.storeOps,
		c.storeDuration,
		c.recomputes,
		c.colorCacheSize,
		c.workingItems,
	)

	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}

	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}

	return c.registry
}

// Mutation counts one repository mutation.
func (c *Collector) Mutation(operation, variant string, err error) {
	if c == nil {
		return
	}

	c.mutations.WithLabelValues(operation, variant, outcome(err)).Inc()
}

// StoreOperation records one override store call.
func (c *Collector) StoreOperation(operation string, elapsed time.Duration, err error) {
	if c == nil {
		return
	}

	c.storeOps.WithLabelValues(operation, outcome(err)).Inc()
	c.storeDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Recompute counts one view recomputation.
func (c *Collector) Recompute() {
	if c == nil {
		return
	}

	c.recomputes.Inc()
}

// ColorCacheSize sets the number of memoized category colors.
func (c *Collector) ColorCacheSize(n int) {
	if c == nil {
		return
	}

	c.colorCacheSize.Set(float64(n))
}

// WorkingItems sets the size of one working collection.
func (c *Collector) WorkingItems(variant string, n int) {
	if c == nil {
		return
	}

	c.workingItems.WithLabelValues(variant).Set(float64(n))
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}

	return OutcomeOK
}
