// Package metrics records decision loop activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for action metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder holds the loop's collectors.
type Recorder struct {
	steps             *prometheus.CounterVec
	actions           *prometheus.CounterVec
	actionDuration    *prometheus.HistogramVec
	reasoningDuration prometheus.Histogram
}

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_agent_loop_steps_total",
				Help: "Total number of decision loop steps by phase",
			},
			[]string{"phase"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notes_agent_actions_total",
				Help: "Total number of executed actions by name and outcome",
			},
			[]string{"action", "outcome"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notes_agent_action_duration_seconds",
				Help:    "Duration of action executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		reasoningDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "notes_agent_reasoning_duration_seconds",
				Help:    "Duration of reasoning calls including streaming",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}

	for _, c := range []prometheus.Collector{r.steps, r.actions, r.actionDuration, r.reasoningDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register collector: %w", err)
		}
	}
	return r, nil
}

// ObserveStep counts one loop step in phase.
func (r *Recorder) ObserveStep(phase string) {
	r.steps.WithLabelValues(phase).Inc()
}

// ObserveReasoning records one reasoning call.
func (r *Recorder) ObserveReasoning(d time.Duration) {
	r.reasoningDuration.Observe(d.Seconds())
}

// ObserveAction records one action execution.
func (r *Recorder) ObserveAction(action string, err error, d time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.actions.WithLabelValues(action, outcome).Inc()
	r.actionDuration.WithLabelValues(action).Observe(d.Seconds())
}
