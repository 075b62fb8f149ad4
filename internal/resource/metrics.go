package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors for cache activity.
type Metrics struct {
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheHits     *prometheus.CounterVec
	shared        *prometheus.CounterVec
	superseded    *prometheus.CounterVec
}

// NewMetrics registers the cache collectors with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "fetches_total",
			Help:      "Remote fetches by cache and result.",
		}, []string{"cache", "status"}),
		fetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "fetch_duration_seconds",
			Help:      "Remote fetch duration including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"cache"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "cache_hits_total",
			Help:      "Loads served from a fresh cached result.",
		}, []string{"cache"}),
		shared: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "shared_fetches_total",
			Help:      "Loads that joined a fetch already in flight.",
		}, []string{"cache"}),
		superseded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resource",
			Name:      "superseded_total",
			Help:      "Results dropped because a newer load started.",
		}, []string{"cache"}),
	}
}

func (m *Metrics) observeFetch(cache string, seconds float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.fetches.WithLabelValues(cache, status).Inc()
	m.fetchDuration.WithLabelValues(cache).Observe(seconds)
}

func (m *Metrics) hit(cache string) {
	if m != nil {
		m.cacheHits.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) share(cache string) {
	if m != nil {
		m.shared.WithLabelValues(cache).Inc()
	}
}

func (m *Metrics) supersede(cache string) {
	if m != nil {
		m.superseded.WithLabelValues(cache).Inc()
	}
}
