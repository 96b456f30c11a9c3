package viewcache

import "github.com/prometheus/client_golang/prometheus"

// Metrics exports cache activity. A nil *Metrics records nothing.
type Metrics struct {
	hits          *prometheus.CounterVec
	misses        *prometheus.CounterVec
	expirations   *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	droppedFills  *prometheus.CounterVec
	evictions     prometheus.Counter
	entries       prometheus.Gauge
}

// NewMetrics creates cache metrics and registers them with reg when reg is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "hits_total",
			Help:      "Cache hits by view kind.",
		}, []string{"kind"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "misses_total",
			Help:      "Cache misses by view kind, including expired entries.",
		}, []string{"kind"}),
		expirations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "expirations_total",
			Help:      "Entries found past their TTL on read.",
		}, []string{"kind"}),
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "invalidations_total",
			Help:      "Entries removed by explicit invalidation.",
		}, []string{"kind"}),
		droppedFills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "dropped_fills_total",
			Help:      "Fetched views not stored because an invalidation happened during the fetch.",
		}, []string{"kind"}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "evictions_total",
			Help:      "Entries removed to stay within the size bound.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voicenotes",
			Subsystem: "view_cache",
			Name:      "entries",
			Help:      "Entries currently stored.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.hits, m.misses, m.expirations, m.invalidations, m.droppedFills, m.evictions, m.entries)
	}
	return m
}

func (m *Metrics) hit(kind Kind) {
	if m != nil {
		m.hits.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) miss(kind Kind) {
	if m != nil {
		m.misses.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) expired(kind Kind) {
	if m != nil {
		m.expirations.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) invalidated(kind Kind) {
	if m != nil {
		m.invalidations.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) droppedFill(kind Kind) {
	if m != nil {
		m.droppedFills.WithLabelValues(string(kind)).Inc()
	}
}

func (m *Metrics) evicted() {
	if m != nil {
		m.evictions.Inc()
	}
}

func (m *Metrics) setEntries(n int) {
	if m != nil {
		m.entries.Set(float64(n))
	}
}
