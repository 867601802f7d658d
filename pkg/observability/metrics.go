package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/arche/pkg/progress"
)

// Metrics holds the collectors fed by progress hooks. Labels use the channel
// name, which is the id of the aggregating node.
type Metrics struct {
	Events      *prometheus.CounterVec
	Skipped     *prometheus.CounterVec
	Dropped     *prometheus.CounterVec
	Summary     *prometheus.GaugeVec
	Subscribers *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arche_events_total",
				Help: "Processing events folded into a node summary",
			},
			[]string{"node", "type"},
		),
		Skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arche_events_skipped_total",
				Help: "Valid processing events filtered out by a node's fold",
			},
			[]string{"node", "type"},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arche_events_dropped_total",
				Help: "Malformed processing events rejected by a node",
			},
			[]string{"node"},
		),
		Summary: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arche_summary_count",
				Help: "Current count of a node summary",
			},
			[]string{"node"},
		),
		Subscribers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "arche_subscribers",
				Help: "Active summary subscribers of a node",
			},
			[]string{"node"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Events, m.Skipped, m.Dropped, m.Summary, m.Subscribers} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns progress hooks updating m.
func (m *Metrics) Hooks() progress.Hooks {
	return progress.Hooks{
		OnFold: func(name string, e progress.Event, s progress.Summary) {
			m.Events.WithLabelValues(name, e.Type.String()).Inc()
			m.Summary.WithLabelValues(name).Set(float64(s.Count))
		},
		OnSkip: func(name string, e progress.Event) {
			m.Skipped.WithLabelValues(name, e.Type.String()).Inc()
		},
		OnDrop: func(name string, _ progress.Event, _ error) {
			m.Dropped.WithLabelValues(name).Inc()
		},
		OnSubscribe: func(name string, active int) {
			m.Subscribers.WithLabelValues(name).Set(float64(active))
		},
	}
}
