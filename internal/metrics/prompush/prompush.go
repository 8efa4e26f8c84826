// Package prompush pushes run metrics to a Prometheus Pushgateway.
//
// A run is a batch job with no listener to scrape, so Flush pushes the whole
// registry once, grouped under the run's job name. The job is the grouping
// key, so it is not repeated as a series label.
package prompush

import (
	"fmt"

	"jsonrows/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// DefaultJob is the grouping key used when no job name is given.
const DefaultJob = "jsonrows"

// counters lists every counter series and its label names, in label order.
var counters = []struct {
	name   string
	help   string
	labels []string
}{
	{metrics.StepTotal, "Run steps executed, by step and status.", []string{"step", "status"}},
	{metrics.RecordsTotal, "Array elements seen, by kind: processed, skipped, emitted or inserted.", []string{"kind"}},
	{metrics.ChunksTotal, "Input chunks materialized, by status.", []string{"status"}},
	{metrics.BatchesTotal, "Batches written to the storage backend.", nil},
}

// Backend is a metrics.Backend collecting into a private registry.
type Backend struct {
	pusher    *push.Pusher
	counters  map[string]*prometheus.CounterVec
	labels    map[string][]string
	durations *prometheus.SummaryVec
}

// NewBackend returns a Backend pushing to gatewayURL under job. An empty job
// uses DefaultJob.
func NewBackend(job, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if job == "" {
		job = DefaultJob
	}

	reg := prometheus.NewRegistry()
	b := &Backend{
		counters: make(map[string]*prometheus.CounterVec, len(counters)),
		labels:   make(map[string][]string, len(counters)),
	}
	for _, c := range counters {
		vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: c.name, Help: c.help}, c.labels)
		if err := reg.Register(vec); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", c.name, err)
		}
		b.counters[c.name] = vec
		b.labels[c.name] = c.labels
	}

	b.durations = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       metrics.StepDurationSeconds,
		Help:       "Run step duration in seconds, by step and status.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"step", "status"})
	if err := reg.Register(b.durations); err != nil {
		return nil, fmt.Errorf("prompush: register %s: %w", metrics.StepDurationSeconds, err)
	}

	b.pusher = push.New(gatewayURL, job).Gatherer(reg)
	return b, nil
}

// IncCounter adds delta to a known counter. Unknown names are ignored and
// missing labels are recorded as empty.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	vec, ok := b.counters[name]
	if !ok {
		return
	}
	vec.WithLabelValues(values(b.labels[name], labels)...).Add(delta)
}

// ObserveHistogram records a step duration; other names are ignored.
func (b *Backend) ObserveHistogram(name string, v float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.durations == nil {
		return
	}
	b.durations.WithLabelValues(labels["step"], labels["status"]).Observe(v)
}

// Flush replaces the job's group on the Pushgateway with the current values.
func (b *Backend) Flush() error {
	if b.pusher == nil {
		return nil
	}
	if err := b.pusher.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}

func values(names []string, labels metrics.Labels) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = labels[n]
	}
	return out
}
