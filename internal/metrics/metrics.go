// Package metrics records run metrics through a pluggable backend.
//
// The global backend is a no-op until SetBackend installs a real one
// (prompush or datadog), so instrumented code can always call in.
package metrics

import (
	"sync"
	"time"
)

// Metric names.
const (
	StepTotal           = "jsonrows_step_total"
	StepDurationSeconds = "jsonrows_step_duration_seconds"
	RecordsTotal        = "jsonrows_records_total"
	ChunksTotal         = "jsonrows_chunks_total"
	BatchesTotal        = "jsonrows_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes buffered metrics.
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// SetBackend installs b. nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one execution of a run step (extract, decode, cast,
// load, run) and observes its duration.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow adds delta to the record counter of kind: processed, skipped,
// emitted or inserted.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordChunk counts one input chunk as a success or a failure.
func RecordChunk(job string, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	current().IncCounter(ChunksTotal, 1, Labels{
		"job":    job,
		"status": status,
	})
}

// RecordBatches counts storage batches flushed for job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}
