package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records scan metrics in Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	searches     *prometheus.CounterVec
	scans        *prometheus.CounterVec
	scanDuration prometheus.Histogram
	searchTime   prometheus.Histogram
	bestPrice    *prometheus.GaugeVec
	options      *prometheus.GaugeVec
	deals        *prometheus.CounterVec
	lastScan     prometheus.Gauge
}

// Search outcomes
const (
	OutcomeOK       = "ok"
	OutcomeCacheHit = "cache_hit"
	OutcomeFailed   = "failed"
	OutcomeEmpty    = "empty"
)

// New creates a recorder on its own registry so several recorders can coexist in tests.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		searches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flight_monitor_searches_total",
				Help: "Flight searches by destination and outcome",
			},
			[]string{"destination", "outcome"},
		),
		scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flight_monitor_scans_total",
				Help: "Completed scans by status",
			},
			[]string{"status"},
		),
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flight_monitor_scan_duration_seconds",
			Help:    "Wall time of a full scan",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		searchTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flight_monitor_search_duration_seconds",
			Help:    "Latency of a single search call",
			Buckets: prometheus.DefBuckets,
		}),
		bestPrice: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flight_monitor_best_price",
				Help: "Cheapest price found by the last scan",
			},
			[]string{"destination", "currency"},
		),
		options: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "flight_monitor_options",
				Help: "Options found by the last scan",
			},
			[]string{"destination"},
		),
		deals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flight_monitor_deals_total",
				Help: "Deals detected by classification",
			},
			[]string{"classification"},
		),
		lastScan: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flight_monitor_last_scan_timestamp_seconds",
			Help: "Unix time the last scan finished",
		}),
	}
}

// RecordSearch records one search attempt.
func (r *Recorder) RecordSearch(destination, outcome string, seconds float64) {
	r.searches.WithLabelValues(destination, outcome).Inc()
	if outcome != OutcomeCacheHit {
		r.searchTime.Observe(seconds)
	}
}

// RecordScan records a finished scan.
func (r *Recorder) RecordScan(status string, seconds float64, finishedUnix float64) {
	r.scans.WithLabelValues(status).Inc()
	r.scanDuration.Observe(seconds)
	r.lastScan.Set(finishedUnix)
}

// RecordBestPrice sets the cheapest price and option count seen for a destination.
func (r *Recorder) RecordBestPrice(destination, currency string, price float64, options int) {
	r.bestPrice.WithLabelValues(destination, currency).Set(price)
	r.options.WithLabelValues(destination).Set(float64(options))
}

// RecordDeal counts a detected deal.
func (r *Recorder) RecordDeal(classification string) {
	r.deals.WithLabelValues(classification).Inc()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the recorder's metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
