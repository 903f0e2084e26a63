package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ticket_tracker"

// Cycle results.
const (
	ResultSuccess      = "success"
	ResultFetchError   = "fetch_error"
	ResultStorageError = "storage_error"
)

// Metrics holds all Prometheus metrics for the tracker.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal     *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	ListingsMatched prometheus.Gauge
	ListingsSkipped prometheus.Counter
	PriceChanges    *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	LastSuccess     prometheus.Gauge
	FeedSubscribers prometheus.GaugeFunc
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Poll cycles by result.",
		}, []string{"result"}),

		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Wall time of a poll cycle.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		ListingsMatched: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "listings_matched",
			Help:      "Listings that passed the criteria in the last cycle.",
		}),

		ListingsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_skipped_total",
			Help:      "Raw listings rejected while parsing.",
		}),

		PriceChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_changes_total",
			Help:      "Price changes detected, by direction.",
		}, []string{"direction"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Price change notifications by result.",
		}, []string{"result"}),

		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll cycle.",
		}),
	}

	// Pre-create label values so they export as zero.
	for _, r := range []string{ResultSuccess, ResultFetchError, ResultStorageError} {
		m.CyclesTotal.WithLabelValues(r)
	}
	m.Notifications.WithLabelValues("sent")
	m.Notifications.WithLabelValues("failed")

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterFeedSubscribers exports the live subscriber count from fn.
func (m *Metrics) RegisterFeedSubscribers(fn func() int) {
	if m == nil {
		return
	}
	m.FeedSubscribers = promauto.With(m.registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_subscribers",
		Help:      "Connected WebSocket feed subscribers.",
	}, func() float64 { return float64(fn()) })
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(result string, d time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
	if result == ResultSuccess {
		m.LastSuccess.Set(float64(finishedAt.Unix()))
	}
}

// ObserveListings records the parse and filter outcome of a cycle.
func (m *Metrics) ObserveListings(matched, skipped int) {
	if m == nil {
		return
	}
	m.ListingsMatched.Set(float64(matched))
	m.ListingsSkipped.Add(float64(skipped))
}

// ObservePriceChange counts one detected change ("increased" or "decreased").
func (m *Metrics) ObservePriceChange(direction string) {
	if m == nil {
		return
	}
	m.PriceChanges.WithLabelValues(direction).Inc()
}

// ObserveNotification counts one delivery attempt.
func (m *Metrics) ObserveNotification(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.Notifications.WithLabelValues("failed").Inc()
		return
	}
	m.Notifications.WithLabelValues("sent").Inc()
}
