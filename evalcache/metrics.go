/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package evalcache

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-evalcache/internal/libinfo"
	"github.com/acronis/go-evalcache/lrucache"
)

// MetricsCollector represents a collector of metrics to analyze how the Store is used.
// Amount, hits, misses and evictions are counted per user snapshot.
type MetricsCollector interface {
	lrucache.MetricsCollector

	// AddLoadSkips increments the number of persisted entries skipped on load because of their shape.
	AddLoadSkips(int)

	// IncPersistFailures increments the number of failed attempts to persist the cache.
	IncPersistFailures()
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	// The module version label is always added.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// See PrometheusMetrics.MustCurryWith method for more details.
	CurriedLabelNames []string
}

// PrometheusMetrics represents Prometheus metrics for the Store.
type PrometheusMetrics struct {
	UsersAmount          *prometheus.GaugeVec
	HitsTotal            *prometheus.CounterVec
	MissesTotal          *prometheus.CounterVec
	EvictionsTotal       *prometheus.CounterVec
	LoadSkipsTotal       *prometheus.CounterVec
	PersistFailuresTotal *prometheus.CounterVec

	// NameHashMemo reports usage of the name hash memo of a store with its own memo (see Options.NameHashMemoSize).
	NameHashMemo *lrucache.PrometheusMetrics
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	newCounter := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        name,
			Help:        help,
			ConstLabels: constLabels,
		}, opts.CurriedLabelNames)
	}

	return &PrometheusMetrics{
		UsersAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "evalcache_users_amount",
			Help:        "Number of users whose evaluation snapshots are cached.",
			ConstLabels: constLabels,
		}, opts.CurriedLabelNames),
		HitsTotal:            newCounter("evalcache_hits_total", "Number of lookups that found a cached snapshot for the user."),
		MissesTotal:          newCounter("evalcache_misses_total", "Number of lookups that found no cached snapshot for the user."),
		EvictionsTotal:       newCounter("evalcache_evictions_total", "Number of evicted user snapshots."),
		LoadSkipsTotal:       newCounter("evalcache_load_skips_total", "Number of persisted entries skipped on load."),
		PersistFailuresTotal: newCounter("evalcache_persist_failures_total", "Number of failed attempts to persist the cache."),
		NameHashMemo: lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{
			Namespace:   opts.Namespace,
			Subsystem:   "evalcache_name_hash_memo",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
// NameHashMemo metrics are not labeled and are shared with the result.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		UsersAmount:          pm.UsersAmount.MustCurryWith(labels),
		HitsTotal:            pm.HitsTotal.MustCurryWith(labels),
		MissesTotal:          pm.MissesTotal.MustCurryWith(labels),
		EvictionsTotal:       pm.EvictionsTotal.MustCurryWith(labels),
		LoadSkipsTotal:       pm.LoadSkipsTotal.MustCurryWith(labels),
		PersistFailuresTotal: pm.PersistFailuresTotal.MustCurryWith(labels),
		NameHashMemo:         pm.NameHashMemo,
	}
}

func (pm *PrometheusMetrics) collectors() []prometheus.Collector {
	return append([]prometheus.Collector{
		pm.UsersAmount,
		pm.HitsTotal,
		pm.MissesTotal,
		pm.EvictionsTotal,
		pm.LoadSkipsTotal,
		pm.PersistFailuresTotal,
	}, pm.NameHashMemo.Collectors()...)
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.collectors()...)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	for _, c := range pm.collectors() {
		prometheus.Unregister(c)
	}
}

// SetAmount implements MetricsCollector.
func (pm *PrometheusMetrics) SetAmount(amount int) {
	pm.UsersAmount.With(nil).Set(float64(amount))
}

// IncHits implements MetricsCollector.
func (pm *PrometheusMetrics) IncHits() {
	pm.HitsTotal.With(nil).Inc()
}

// IncMisses implements MetricsCollector.
func (pm *PrometheusMetrics) IncMisses() {
	pm.MissesTotal.With(nil).Inc()
}

// AddEvictions implements MetricsCollector.
func (pm *PrometheusMetrics) AddEvictions(n int) {
	pm.EvictionsTotal.With(nil).Add(float64(n))
}

// AddLoadSkips implements MetricsCollector.
func (pm *PrometheusMetrics) AddLoadSkips(n int) {
	pm.LoadSkipsTotal.With(nil).Add(float64(n))
}

// IncPersistFailures implements MetricsCollector.
func (pm *PrometheusMetrics) IncPersistFailures() {
	pm.PersistFailuresTotal.With(nil).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) SetAmount(int)       {}
func (disabledMetrics) IncHits()            {}
func (disabledMetrics) IncMisses()          {}
func (disabledMetrics) AddEvictions(int)    {}
func (disabledMetrics) AddLoadSkips(int)    {}
func (disabledMetrics) IncPersistFailures() {}
