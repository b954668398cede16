// Package metrics provides Prometheus observability metrics for the planning engine.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vsinha/capplan/pkg/application/services/shared"
)

// Collector owns a registry and the planning metrics registered on it
type Collector struct {
	Registry *prometheus.Registry

	CacheLookups     *prometheus.CounterVec
	CalcDuration     prometheus.Histogram
	Shortages        *prometheus.CounterVec
	Alerts           prometheus.Counter
	DispatchFailures *prometheus.CounterVec
}

// Verify interface compliance
var _ shared.Recorder = (*Collector)(nil)

// NewCollector creates a collector on a fresh registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		Registry: registry,

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capplan",
			Subsystem: "calculator",
			Name:      "cache_lookups_total",
			Help:      "Calculator cache lookups by result",
		}, []string{"result"}),

		CalcDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capplan",
			Subsystem: "calculator",
			Name:      "duration_seconds",
			Help:      "Time taken to compute a scenario report",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),

		Shortages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capplan",
			Subsystem: "allocator",
			Name:      "shortages_total",
			Help:      "Unmet skill demand reported by auto-allocation, by kind",
		}, []string{"kind"}),

		Alerts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "capplan",
			Subsystem: "drift",
			Name:      "alerts_raised_total",
			Help:      "Drift alerts opened",
		}),

		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capplan",
			Subsystem: "jobs",
			Name:      "dispatch_failures_total",
			Help:      "Background jobs that could not be enqueued, by job",
		}, []string{"job"}),
	}
}

func (c *Collector) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

func (c *Collector) CalculationDuration(d time.Duration) {
	c.CalcDuration.Observe(d.Seconds())
}

func (c *Collector) ShortagesReported(kind string, count int) {
	c.Shortages.WithLabelValues(kind).Add(float64(count))
}

func (c *Collector) AlertsRaised(count int) {
	c.Alerts.Add(float64(count))
}

func (c *Collector) DispatchFailed(job string) {
	c.DispatchFailures.WithLabelValues(job).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// Push sends the registry to a Pushgateway; used by one-shot CLI runs
func (c *Collector) Push(gatewayURL, job string) error {
	if err := push.New(gatewayURL, job).Gatherer(c.Registry).Push(); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
