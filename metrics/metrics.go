// Package metrics exposes Prometheus metrics for ledger loading and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Ledger metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	Loads        *prometheus.CounterVec
	LoadDuration prometheus.Histogram
	Transactions prometheus.Gauge
	Warnings     prometheus.Gauge

	// Forecast metrics
	Forecasts *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "ourfinance_ledger_cache_hits_total",
			Help: "Ledger snapshots served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "ourfinance_ledger_cache_misses_total",
			Help: "Ledger lookups that required a load",
		}),
		Loads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ourfinance_ledger_loads_total",
				Help: "Ledger loads by result",
			},
			[]string{"result"},
		),
		LoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ourfinance_ledger_load_duration_seconds",
			Help:    "Duration of ledger loads",
			Buckets: prometheus.DefBuckets,
		}),
		Transactions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ourfinance_ledger_transactions",
			Help: "Transactions in the most recent snapshot",
		}),
		Warnings: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ourfinance_ledger_warnings",
			Help: "Warnings in the most recent snapshot",
		}),
		Forecasts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ourfinance_forecasts_total",
				Help: "Forecast runs by result",
			},
			[]string{"result"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ourfinance_http_requests_total",
				Help: "HTTP requests by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ourfinance_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// CacheHit implements ledger.CacheObserver.
func (m *Metrics) CacheHit(string) { m.CacheHits.Inc() }

// CacheMiss implements ledger.CacheObserver.
func (m *Metrics) CacheMiss(string) { m.CacheMisses.Inc() }

// Loaded implements ledger.CacheObserver.
func (m *Metrics) Loaded(_ string, d time.Duration, err error) {
	m.LoadDuration.Observe(d.Seconds())
	m.Loads.WithLabelValues(result(err)).Inc()
}

// ObserveSnapshot records the size of the snapshot currently served.
func (m *Metrics) ObserveSnapshot(transactions, warnings int) {
	m.Transactions.Set(float64(transactions))
	m.Warnings.Set(float64(warnings))
}

// ObserveForecast counts a forecast run.
func (m *Metrics) ObserveForecast(err error) {
	m.Forecasts.WithLabelValues(result(err)).Inc()
}

// Instrument wraps an HTTP handler registered under route.
func (m *Metrics) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Flush lets streaming handlers work through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
