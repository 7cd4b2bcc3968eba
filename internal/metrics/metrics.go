// Package metrics exposes prometheus collectors for the ingest path and the
// recomputation hub. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrimap"

type Metrics struct {
	registry *prometheus.Registry

	reportsIngested   *prometheus.CounterVec
	reportsRejected   *prometheus.CounterVec
	recomputations    prometheus.Counter
	recomputeDuration prometheus.Histogram
	snapshotLookups   *prometheus.CounterVec
	clusters          prometheus.Gauge
	pairs             prometheus.Gauge
	queueDepth        prometheus.Gauge
	reportsPruned     prometheus.Counter
}

// New builds the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reportsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_ingested_total",
			Help:      "Price reports accepted for storage, by user type.",
		}, []string{"role"}),
		reportsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rejected_total",
			Help:      "Price reports rejected at submission, by reason.",
		}, []string{"reason"}),
		recomputations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputations_total",
			Help:      "Snapshot recomputations triggered by data changes.",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent aggregating, classifying and rebalancing a snapshot.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		snapshotLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_lookups_total",
			Help:      "Snapshot cache lookups, by result.",
		}, []string{"result"}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clusters",
			Help:      "Clusters in the most recent default snapshot.",
		}),
		pairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rebalance_pairs",
			Help:      "Supply to demand pairs in the most recent default snapshot.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Report batches waiting to be stored.",
		}),
		reportsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_pruned_total",
			Help:      "Reports removed by the retention job.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		m.reportsIngested,
		m.reportsRejected,
		m.recomputations,
		m.recomputeDuration,
		m.snapshotLookups,
		m.clusters,
		m.pairs,
		m.queueDepth,
		m.reportsPruned,
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ReportIngested(role string) {
	if m == nil {
		return
	}
	m.reportsIngested.WithLabelValues(role).Inc()
}

func (m *Metrics) ReportRejected(reason string) {
	if m == nil {
		return
	}
	m.reportsRejected.WithLabelValues(reason).Inc()
}

// Recomputed records one hub recomputation of the default snapshot
func (m *Metrics) Recomputed(d time.Duration, clusters, pairs int) {
	if m == nil {
		return
	}
	m.recomputations.Inc()
	m.recomputeDuration.Observe(d.Seconds())
	m.clusters.Set(float64(clusters))
	m.pairs.Set(float64(pairs))
}

func (m *Metrics) SnapshotLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.snapshotLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) ReportsPruned(n int64) {
	if m == nil {
		return
	}
	m.reportsPruned.Add(float64(n))
}
