package obs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shipping"

// Metrics groups the Prometheus collectors of the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	evaluations     *prometheus.CounterVec
	geocodeDuration *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "The total number of shipping evaluations by outcome",
		}, []string{"outcome"}),
		geocodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_duration_seconds",
			Help:      "The duration of upstream geocoding calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_lookups_total",
			Help:      "Geocode cache lookups by result",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "The duration of HTTP requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "The total number of HTTP requests",
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(m.evaluations, m.geocodeDuration, m.cacheLookups, m.httpDuration, m.httpRequests)
	return m
}

func (m *Metrics) ObserveEvaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGeocode(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.geocodeDuration.WithLabelValues(provider, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveCacheLookup(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheLookups.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
