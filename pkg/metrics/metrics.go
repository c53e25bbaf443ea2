// Package metrics holds the Prometheus collectors of the scanning pipeline.
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// ScanBuckets covers whole scans, which include rate limit waits and polling.
var ScanBuckets = []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200} //nolint: gochecknoglobals

const namespace = "filescanner"

// Metrics groups every collector exported by the scanner.
type Metrics struct {
	scans          *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	remoteRequests *prometheus.CounterVec
	rateLimitWait  prometheus.Histogram
	retries        prometheus.Counter
	inFlight       prometheus.Gauge
	historySize    prometheus.Gauge
	cycles         *prometheus.CounterVec
	candidates     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Finished scans by verdict or failure kind.",
		}, []string{"status"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Duration of successful scans including retries.",
			Buckets:   ScanBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Result cache lookups by outcome.",
		}, []string{"result"}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests sent to the remote scanning service.",
		}, []string{"operation", "code"}),
		rateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting for the outbound rate limiter.",
			Buckets:   append(append([]float64{}, DefaultBuckets...), 15, 30, 60),
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_retries_total",
			Help:      "Scan attempts that were retried.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scans_in_flight",
			Help:      "Scan attempts currently holding a permit.",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_entries",
			Help:      "Entries currently kept in the scan history.",
		}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_cycles_total",
			Help:      "Background scheduler cycles by outcome.",
		}, []string{"outcome"}),
		candidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_candidates",
			Help:      "Files selected for rescanning in the last cycle.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.scans, m.scanDuration, m.cacheLookups, m.remoteRequests, m.rateLimitWait,
		m.retries, m.inFlight, m.historySize, m.cycles, m.candidates,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err //nolint: wrapcheck
		}
	}

	return m, nil
}

func (m *Metrics) ScanFinished(status string, took time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(status).Inc()
	if took > 0 {
		m.scanDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RemoteRequest(operation, code string) {
	if m == nil {
		return
	}
	m.remoteRequests.WithLabelValues(operation, code).Inc()
}

func (m *Metrics) RateLimitWait(d time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitWait.Observe(d.Seconds())
}

func (m *Metrics) Retry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) InFlight(delta float64) {
	if m == nil {
		return
	}
	m.inFlight.Add(delta)
}

func (m *Metrics) HistorySize(n int) {
	if m == nil {
		return
	}
	m.historySize.Set(float64(n))
}

func (m *Metrics) Cycle(outcome string, candidates int) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.candidates.Set(float64(candidates))
}
