package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts dashboard activity. A nil *Metrics records nothing.
type Metrics struct {
	Recomputes   prometheus.Counter
	CacheHits    prometheus.Counter
	FilteredRows prometheus.Gauge
	Renders      *prometheus.CounterVec
	RenderErrors *prometheus.CounterVec
}

// NewMetrics registers the dashboard metrics on reg. A nil reg builds
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recomputes: f.NewCounter(prometheus.CounterOpts{
			Namespace: "penguins",
			Name:      "filter_recomputes_total",
			Help:      "Times the filtered view was recomputed after a selection change.",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: "penguins",
			Name:      "filter_cache_hits_total",
			Help:      "Reads of the filtered view served without recomputing.",
		}),
		FilteredRows: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "penguins",
			Name:      "filtered_rows",
			Help:      "Rows in the most recently computed filtered view.",
		}),
		Renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "penguins",
			Name:      "binding_renders_total",
			Help:      "Panel renders by binding.",
		}, []string{"binding"}),
		RenderErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "penguins",
			Name:      "binding_render_errors_total",
			Help:      "Failed panel renders by binding.",
		}, []string{"binding"}),
	}
}

func (m *Metrics) recomputed(rows int) {
	if m == nil {
		return
	}
	m.Recomputes.Inc()
	m.FilteredRows.Set(float64(rows))
}

func (m *Metrics) cacheHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) rendered(binding string, err error) {
	if m == nil {
		return
	}
	m.Renders.WithLabelValues(binding).Inc()
	if err != nil {
		m.RenderErrors.WithLabelValues(binding).Inc()
	}
}
