// Package driver runs the extract, decode, validate, cast and emit cycle
// over every input chunk.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"jsonrows/internal/caster"
	"jsonrows/internal/datasource"
	"jsonrows/internal/emitter"
	"jsonrows/internal/jsonpath"
	"jsonrows/internal/metrics"
	"jsonrows/internal/record"
	"jsonrows/internal/schema"
	"jsonrows/internal/timestamp"
	"jsonrows/internal/value"
)

// Task is the immutable description of a run.
type Task struct {
	Root                   string
	Schema                 schema.Schema
	DefaultTypecast        bool
	StopOnInvalidRecord    bool
	DefaultTimestampFormat string
	DefaultTimezone        string
	// MultiDocument treats each chunk as a sequence of top-level documents.
	MultiDocument bool
}

// NewTask returns a Task with the documented defaults.
func NewTask(root string, s schema.Schema) Task {
	return Task{
		Root:                   root,
		Schema:                 s,
		DefaultTypecast:        true,
		DefaultTimestampFormat: timestamp.DefaultFormat,
		DefaultTimezone:        timestamp.DefaultTimezone,
	}
}

// Options tune a run without changing its result.
type Options struct {
	// Job labels metrics.
	Job string
	// OnState observes every state transition.
	OnState func(State)
	// OnSkip receives skipped records; record.LogSkipped when nil.
	OnSkip  func(record.Skipped)
	Verbose bool
}

// Summary describes a finished, or partially finished, run.
type Summary struct {
	RunID    uuid.UUID
	Chunks   int
	Records  int64
	Rows     int64
	Skipped  int64
	Digest   uint64
	Duration time.Duration
}

type runner struct {
	task  Task
	opts  Options
	query *jsonpath.Query
	plan  *caster.Plan
	emit  *emitter.Emitter
	sum   *Summary
	state State
	chunk string
	// elems counts array elements of the current chunk, records or not.
	elems int
}

// Run materializes every chunk of in into sink. The sink is finished and the
// input closed on every path. The returned Summary is valid even when err is
// non-nil; err is then a *RunError.
func Run(ctx context.Context, task Task, in datasource.Input, sink emitter.Sink, opts Options) (sum Summary, err error) {
	start := time.Now()
	sum.RunID = uuid.New()
	r := &runner{task: task, opts: opts, emit: emitter.New(sink), sum: &sum, state: -1}

	defer func() {
		closeErr := in.Close()
		finishErr := r.emit.Finish(ctx)
		sum.Rows = r.emit.Rows()
		sum.Digest = r.emit.Digest()
		sum.Duration = time.Since(start)
		if err == nil {
			switch {
			case finishErr != nil:
				err = r.fail(ClassIO, finishErr)
			case closeErr != nil:
				err = r.fail(ClassIO, fmt.Errorf("close input: %w", closeErr))
			}
		} else if finishErr != nil {
			log.Printf("driver: finish after failure: %v", finishErr)
		}
		if err == nil {
			r.setState(StateDone)
		}
		metrics.RecordStep(opts.Job, "run", err, sum.Duration)
		metrics.RecordRow(opts.Job, "emitted", sum.Rows)
	}()

	r.setState(StateAwaitingChunk)
	if err := r.compile(); err != nil {
		return sum, err
	}

	for {
		r.setState(StateAwaitingChunk)
		r.chunk = ""
		if err := ctx.Err(); err != nil {
			return sum, r.fail(ClassIO, err)
		}
		chunk, err := in.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sum, nil
		}
		if err != nil {
			return sum, r.fail(ClassIO, err)
		}
		r.chunk = chunk.Name
		r.emit.StartChunk(chunk.Name)
		sum.Chunks++
		err = r.processChunk(ctx, chunk)
		metrics.RecordChunk(opts.Job, err)
		if err != nil {
			return sum, err
		}
	}
}

func (r *runner) compile() error {
	q, err := jsonpath.Compile(r.task.Root)
	if err != nil {
		return r.fail(ClassConfiguration, err)
	}
	plan, err := caster.Compile(r.task.Schema, caster.Options{
		DefaultTypecast:        r.task.DefaultTypecast,
		DefaultTimestampFormat: r.task.DefaultTimestampFormat,
		DefaultTimezone:        r.task.DefaultTimezone,
	})
	if err != nil {
		return r.fail(ClassConfiguration, err)
	}
	r.query, r.plan = q, plan
	if r.opts.Verbose {
		log.Printf("driver: root %s definite=%v columns=%d", q.Normalized(), q.Definite(), plan.Width())
	}
	return nil
}

func (r *runner) processChunk(ctx context.Context, chunk datasource.Chunk) error {
	r.setState(StateExtractingPath)
	t0 := time.Now()
	var (
		docs [][]byte
		err  error
	)
	if r.task.MultiDocument {
		docs, err = r.query.ExtractAll(chunk.Data)
	} else {
		var doc []byte
		doc, err = r.query.Extract(chunk.Data)
		docs = [][]byte{doc}
	}
	metrics.RecordStep(r.opts.Job, "extract", err, time.Since(t0))
	if err != nil {
		return r.fail(ClassStructural, err)
	}

	before := *r.sum
	r.elems = 0
	for _, doc := range docs {
		if err := r.processDocument(ctx, doc); err != nil {
			return err
		}
	}
	if r.opts.Verbose {
		log.Printf("chunk %s: documents=%d elements=%d records=%d skipped=%d",
			chunk.Name, len(docs), r.elems, r.sum.Records-before.Records, r.sum.Skipped-before.Skipped)
	}
	return nil
}

func (r *runner) processDocument(ctx context.Context, doc []byte) error {
	r.setState(StateDecodingDocument)
	t0 := time.Now()
	arr, err := value.Decode(doc)
	if err == nil && arr.Kind() != value.KindArray {
		err = fmt.Errorf("%w: got JSON %s", ErrRootNotArray, arr.Kind())
	}
	metrics.RecordStep(r.opts.Job, "decode", err, time.Since(t0))
	if err != nil {
		return r.fail(ClassStructural, err)
	}

	// In strict mode nothing from an array with a bad element is emitted.
	if r.task.StopOnInvalidRecord {
		r.setState(StateValidatingRecords)
		if err := record.Check(arr); err != nil {
			return r.fail(ClassRecord, err)
		}
	}

	onSkip := r.opts.OnSkip
	if onSkip == nil {
		onSkip = record.LogSkipped
	}
	var skipped int64
	it := record.Validate(arr, r.task.StopOnInvalidRecord, func(s record.Skipped) {
		skipped++
		onSkip(s)
	})
	r.elems += it.Len()

	t0 = time.Now()
	records, err := r.castAll(ctx, it)
	r.sum.Records += records
	r.sum.Skipped += skipped
	metrics.RecordStep(r.opts.Job, "cast", err, time.Since(t0))
	metrics.RecordRow(r.opts.Job, "processed", records)
	metrics.RecordRow(r.opts.Job, "skipped", skipped)
	return err
}

// castAll drains it into the emitter and returns the number of records read.
func (r *runner) castAll(ctx context.Context, it *record.Iterator) (int64, error) {
	var n int64
	for {
		r.setState(StateValidatingRecords)
		if err := ctx.Err(); err != nil {
			return n, r.fail(ClassIO, err)
		}
		rec, ok, err := it.Next()
		if err != nil {
			return n, r.fail(ClassRecord, err)
		}
		if !ok {
			return n, nil
		}
		n++

		r.setState(StateCastingRecord)
		row := emitter.GetRow(r.plan.Width())
		if err := r.plan.Cast(rec, row.V); err != nil {
			row.Free()
			return n, r.fail(ClassCell, fmt.Errorf("record %d: %w", n, err))
		}
		err = r.emit.Append(ctx, row.V)
		row.Free()
		if err != nil {
			return n, r.fail(ClassIO, err)
		}
	}
}

func (r *runner) setState(s State) {
	if s == r.state {
		return
	}
	r.state = s
	if r.opts.OnState != nil {
		r.opts.OnState(s)
	}
}

// fail wraps err with the current state and chunk and moves to StateFailed.
func (r *runner) fail(class Class, err error) error {
	re := &RunError{Class: class, Chunk: r.chunk, State: r.state, Err: err}
	r.setState(StateFailed)
	return re
}
