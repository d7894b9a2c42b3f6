// Package metrics records per-run Prometheus metrics and exports them to a
// node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dexops"

// RunMetrics holds the metrics of one dexops run. Each run uses its own registry.
type RunMetrics struct {
	registry *prometheus.Registry
	action   string

	Queries           *prometheus.CounterVec
	Entities          *prometheus.GaugeVec
	Messages          *prometheus.GaugeVec
	FeeAmount         *prometheus.GaugeVec
	RunState          *prometheus.GaugeVec
	BroadcastDuration *prometheus.HistogramVec
	LastRun           *prometheus.GaugeVec
}

// NewRunMetrics creates the run metrics for action on a fresh registry.
func NewRunMetrics(action string) *RunMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &RunMetrics{
		registry: reg,
		action:   action,

		Queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Contract pagination queries issued",
			},
			[]string{"action"},
		),
		Entities: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "entities_enumerated",
				Help:      "Entity identifiers collected by the enumeration",
			},
			[]string{"action", "partial"},
		),
		Messages: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "messages_built",
				Help:      "Execute messages built for the transaction",
			},
			[]string{"action"},
		),
		FeeAmount: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fee_amount",
				Help:      "Fee attached to the transaction, in base denom units",
			},
			[]string{"action", "denom"},
		),
		RunState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "run_state",
				Help:      "1 for the state the run is in, 0 for the others",
			},
			[]string{"action", "state"},
		),
		BroadcastDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "broadcast_duration_seconds",
				Help:      "Time from signing request to broadcast result",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"action", "result"},
		),
		LastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the run finished",
			},
			[]string{"action"},
		),
	}
}

// Registry returns the registry holding the run metrics.
func (m *RunMetrics) Registry() *prometheus.Registry { return m.registry }

// AddQueries counts n pagination queries.
func (m *RunMetrics) AddQueries(n int) {
	m.Queries.WithLabelValues(m.action).Add(float64(n))
}

// SetEntities records the enumeration size.
func (m *RunMetrics) SetEntities(n int, partial bool) {
	label := "false"
	if partial {
		label = "true"
	}
	m.Entities.WithLabelValues(m.action, label).Set(float64(n))
}

// SetMessages records the number of messages built.
func (m *RunMetrics) SetMessages(n int) {
	m.Messages.WithLabelValues(m.action).Set(float64(n))
}

// SetFee records the fee amount.
func (m *RunMetrics) SetFee(denom string, amount float64) {
	m.FeeAmount.WithLabelValues(m.action, denom).Set(amount)
}

// SetState marks state as current, clearing the previous one.
func (m *RunMetrics) SetState(state string, all []string) {
	for _, s := range all {
		m.RunState.WithLabelValues(m.action, s).Set(0)
	}
	m.RunState.WithLabelValues(m.action, state).Set(1)
}

// ObserveBroadcast records how long a broadcast took and whether it succeeded.
func (m *RunMetrics) ObserveBroadcast(d time.Duration, ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.BroadcastDuration.WithLabelValues(m.action, result).Observe(d.Seconds())
}

// Finish stamps the run completion time.
func (m *RunMetrics) Finish(now time.Time) {
	m.LastRun.WithLabelValues(m.action).Set(float64(now.Unix()))
}

// WriteTextfile writes the registry in text exposition format to path. The file is
// written atomically so a collector never reads a partial file.
func (m *RunMetrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
