package driver

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"jsonrows/internal/caster"
	"jsonrows/internal/datasource"
	"jsonrows/internal/emitter"
	"jsonrows/internal/jsonpath"
	"jsonrows/internal/record"
	"jsonrows/internal/schema"
	"jsonrows/internal/value"
)

var longA = schema.MustNew(schema.Column{Name: "a", Type: schema.TypeLong})

func chunks(docs ...string) *datasource.Static {
	cs := make([]datasource.Chunk, len(docs))
	for i, d := range docs {
		cs[i] = datasource.Chunk{Name: "chunk" + string(rune('0'+i)), Data: []byte(d)}
	}
	return datasource.NewStatic(cs...)
}

type result struct {
	sum     Summary
	err     error
	rows    [][]any
	skipped []record.Skipped
	states  []State
	input   *datasource.Static
	sink    *emitter.MemorySink
}

func run(t *testing.T, task Task, in *datasource.Static) result {
	t.Helper()
	res := result{input: in, sink: emitter.NewMemorySink()}
	res.sum, res.err = Run(context.Background(), task, in, res.sink, Options{
		Job:     "test",
		OnState: func(s State) { res.states = append(res.states, s) },
		OnSkip:  func(s record.Skipped) { res.skipped = append(res.skipped, s) },
	})
	res.rows = res.sink.Rows()
	if !res.sink.Finished() {
		t.Errorf("sink not finished")
	}
	if !in.Closed() {
		t.Errorf("input not closed")
	}
	return res
}

func rowsOf(cells ...any) [][]any {
	out := make([][]any, len(cells))
	for i, c := range cells {
		out[i] = []any{c}
	}
	return out
}

func lastState(states []State) State {
	if len(states) == 0 {
		return -1
	}
	return states[len(states)-1]
}

/*
TestRun_EmitsInOrder verifies rows keep chunk and element order and the
summary counters match.
*/
func TestRun_EmitsInOrder(t *testing.T) {
	t.Parallel()

	res := run(t, NewTask("$.items", longA), chunks(
		`{"items":[{"a":1},{"a":2}]}`,
		`{"items":[{"a":3}]}`,
	))
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if want := rowsOf(int64(1), int64(2), int64(3)); !reflect.DeepEqual(res.rows, want) {
		t.Fatalf("rows got %v; want %v", res.rows, want)
	}
	s := res.sum
	if s.Chunks != 2 || s.Records != 3 || s.Rows != 3 || s.Skipped != 0 {
		t.Fatalf("summary got chunks=%d records=%d rows=%d skipped=%d; want 2/3/3/0", s.Chunks, s.Records, s.Rows, s.Skipped)
	}
	if s.RunID == uuid.Nil {
		t.Fatalf("run id is nil")
	}
	if got := lastState(res.states); got != StateDone {
		t.Fatalf("final state got %s; want %s", got, StateDone)
	}
}

/*
TestRun_StateSequence verifies the transitions of a one-record run.
*/
func TestRun_StateSequence(t *testing.T) {
	t.Parallel()

	res := run(t, NewTask("$", longA), chunks(`[{"a":1}]`))
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	want := []State{
		StateAwaitingChunk,
		StateExtractingPath,
		StateDecodingDocument,
		StateValidatingRecords,
		StateCastingRecord,
		StateValidatingRecords,
		StateAwaitingChunk,
		StateDone,
	}
	if !reflect.DeepEqual(res.states, want) {
		t.Fatalf("states got %v; want %v", res.states, want)
	}
}

/*
TestRun_Idempotent verifies two runs over the same input produce the same
rows and digest under different run ids, and that the digest is the one an
Emitter computes over those rows.
*/
func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	s := schema.MustNew(
		schema.Column{Name: "a", Type: schema.TypeLong},
		schema.Column{Name: "b", Type: schema.TypeString},
		schema.Column{Name: "c", Type: schema.TypeJSON},
		schema.Column{Name: "d", Type: schema.TypeTimestamp, Format: "%Y-%m-%d"},
	)
	doc := `[{"a":1,"b":"x","c":{"k":[1,2]},"d":"2024-01-02"},{"a":2.5,"b":3,"c":null}]`
	first := run(t, NewTask("$", s), chunks(doc))
	second := run(t, NewTask("$", s), chunks(doc))
	if first.err != nil || second.err != nil {
		t.Fatalf("Run: %v / %v", first.err, second.err)
	}
	if first.sum.Digest != second.sum.Digest {
		t.Fatalf("digests got %x and %x; want equal", first.sum.Digest, second.sum.Digest)
	}
	if !reflect.DeepEqual(first.rows, second.rows) {
		t.Fatalf("rows differ: %v vs %v", first.rows, second.rows)
	}
	if first.sum.RunID == second.sum.RunID {
		t.Fatalf("run ids got equal %s; want distinct", first.sum.RunID)
	}

	e := emitter.New(emitter.NewMemorySink())
	for _, r := range first.rows {
		if err := e.Append(context.Background(), r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if e.Digest() != first.sum.Digest {
		t.Fatalf("replayed digest got %x; want %x", e.Digest(), first.sum.Digest)
	}
}

/*
TestRun_SkipsInvalidRecords verifies non-object elements are reported and
skipped when stop_on_invalid_record is off.
*/
func TestRun_SkipsInvalidRecords(t *testing.T) {
	t.Parallel()

	res := run(t, NewTask("$", longA), chunks(`[{"a":1},"oops",{"a":2}]`))
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if want := rowsOf(int64(1), int64(2)); !reflect.DeepEqual(res.rows, want) {
		t.Fatalf("rows got %v; want %v", res.rows, want)
	}
	if len(res.skipped) != 1 || res.skipped[0].Value.String() != `"oops"` {
		t.Fatalf("skipped got %v; want [\"oops\"]", res.skipped)
	}
	if res.sum.Skipped != 1 || res.sum.Records != 2 {
		t.Fatalf("skipped/records got %d/%d; want 1/2", res.sum.Skipped, res.sum.Records)
	}
}

/*
TestRun_StopOnInvalidRecord verifies a bad element fails the run before any
row of its array is emitted.
*/
func TestRun_StopOnInvalidRecord(t *testing.T) {
	t.Parallel()

	task := NewTask("$", longA)
	task.StopOnInvalidRecord = true
	res := run(t, task, chunks(`[{"a":1},"oops",{"a":2}]`))

	if !errors.Is(res.err, record.ErrInvalidRecord) || ClassOf(res.err) != ClassRecord {
		t.Fatalf("err got %v (%s); want record-class ErrInvalidRecord", res.err, ClassOf(res.err))
	}
	if len(res.rows) != 0 || res.sum.Rows != 0 || len(res.skipped) != 0 {
		t.Fatalf("rows/skipped got %d/%d; want 0/0", len(res.rows), len(res.skipped))
	}
	if got := lastState(res.states); got != StateFailed {
		t.Fatalf("final state got %s; want %s", got, StateFailed)
	}
}

/*
TestRun_CellErrors verifies a failed cast stops the run after the rows
before it and names the column, chunk and state.
*/
func TestRun_CellErrors(t *testing.T) {
	t.Parallel()

	res := run(t, NewTask("$", longA), chunks(`[{"a":"42"},{"a":"abc"},{"a":3}]`))
	if !errors.Is(res.err, caster.ErrTypeMismatch) || ClassOf(res.err) != ClassCell {
		t.Fatalf("err got %v (%s); want cell-class ErrTypeMismatch", res.err, ClassOf(res.err))
	}
	if !strings.Contains(res.err.Error(), `"a"`) {
		t.Fatalf("message %q does not name the column", res.err)
	}
	if want := rowsOf(int64(42)); !reflect.DeepEqual(res.rows, want) {
		t.Fatalf("rows got %v; want %v", res.rows, want)
	}

	var re *RunError
	if !errors.As(res.err, &re) {
		t.Fatalf("err got %T; want *RunError", res.err)
	}
	if re.Chunk != "chunk0" || re.State != StateCastingRecord {
		t.Fatalf("run error got %s/%s; want chunk0/%s", re.Chunk, re.State, StateCastingRecord)
	}

	strict := NewTask("$", longA)
	strict.DefaultTypecast = false
	res = run(t, strict, chunks(`[{"a":"42"}]`))
	if !errors.Is(res.err, caster.ErrTypeMismatch) || len(res.rows) != 0 {
		t.Fatalf("strict got %v with %d rows; want ErrTypeMismatch and none", res.err, len(res.rows))
	}
}

/*
TestRun_MissingKeysAreNull verifies every column type yields nil for a
missing key.
*/
func TestRun_MissingKeysAreNull(t *testing.T) {
	t.Parallel()

	var cols []schema.Column
	for _, typ := range schema.Types() {
		cols = append(cols, schema.Column{Name: string(typ), Type: typ})
	}
	res := run(t, NewTask("$", schema.MustNew(cols...)), chunks(`[{}]`))
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if len(res.rows) != 1 {
		t.Fatalf("rows got %d; want 1", len(res.rows))
	}
	for i, cell := range res.rows[0] {
		if cell != nil {
			t.Errorf("cell %d got %v; want nil", i, cell)
		}
	}
}

/*
TestRun_StructuralErrors verifies each structural failure stops at the first
chunk without emitting rows.
*/
func TestRun_StructuralErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		root string
		doc  string
		want error
	}{
		{"object root", "$.items", `{"items":{"a":1}}`, ErrRootNotArray},
		{"scalar root", "$", `42`, ErrRootNotArray},
		{"missing path", "$.nope", `{"items":[]}`, jsonpath.ErrPathNotFound},
		{"ambiguous path", "$..items", `{"x":{"items":[1]},"y":{"items":[2]}}`, jsonpath.ErrPathAmbiguous},
		{"malformed", "$.items", `{"items":[`, value.ErrMalformedJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := run(t, NewTask(tt.root, longA), chunks(tt.doc, `[{"a":1}]`))
			if !errors.Is(res.err, tt.want) {
				t.Fatalf("err got %v; want %v", res.err, tt.want)
			}
			if ClassOf(res.err) != ClassStructural {
				t.Fatalf("class got %s; want %s", ClassOf(res.err), ClassStructural)
			}
			if len(res.rows) != 0 || res.sum.Chunks != 1 {
				t.Fatalf("rows/chunks got %d/%d; want 0/1", len(res.rows), res.sum.Chunks)
			}
		})
	}
}

/*
TestRun_ConfigurationErrors verifies a bad root or timezone fails before the
first chunk is read.
*/
func TestRun_ConfigurationErrors(t *testing.T) {
	t.Parallel()

	res := run(t, NewTask("items", longA), chunks(`[]`))
	if !errors.Is(res.err, jsonpath.ErrInvalidPath) || ClassOf(res.err) != ClassConfiguration {
		t.Fatalf("err got %v (%s); want configuration-class ErrInvalidPath", res.err, ClassOf(res.err))
	}
	if res.sum.Chunks != 0 {
		t.Fatalf("chunks got %d; want 0", res.sum.Chunks)
	}

	task := NewTask("$", schema.MustNew(schema.Column{Name: "t", Type: schema.TypeTimestamp}))
	task.DefaultTimezone = "Nowhere/Special"
	res = run(t, task, chunks(`[]`))
	if ClassOf(res.err) != ClassConfiguration {
		t.Fatalf("class got %s; want %s", ClassOf(res.err), ClassConfiguration)
	}
}

/*
TestRun_MultiDocument verifies every document of a chunk is materialized.
*/
func TestRun_MultiDocument(t *testing.T) {
	t.Parallel()

	task := NewTask("$.rows", longA)
	task.MultiDocument = true
	res := run(t, task, chunks("{\"rows\":[{\"a\":1}]}\n{\"rows\":[{\"a\":2},{\"a\":3}]}\n"))
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if want := rowsOf(int64(1), int64(2), int64(3)); !reflect.DeepEqual(res.rows, want) {
		t.Fatalf("rows got %v; want %v", res.rows, want)
	}
}

/*
TestRun_VerboseLogs verifies the root and per-chunk counters are logged. Not
parallel: it redirects the standard logger.
*/
func TestRun_VerboseLogs(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	_, err := Run(context.Background(), NewTask("$.items", longA),
		chunks(`{"items":[{"a":1},"x",{"a":2}]}`), emitter.NewMemorySink(),
		Options{Verbose: true, OnSkip: func(record.Skipped) {}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{
		"root $['items'] definite=true columns=1",
		"chunk chunk0: documents=1 elements=3 records=2 skipped=1",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}

// chunkTagSink records the chunk each row was appended under.
type chunkTagSink struct {
	emitter.MemorySink
	chunk string
	tags  []string
}

func (s *chunkTagSink) StartChunk(name string) { s.chunk = name }

func (s *chunkTagSink) Append(ctx context.Context, row []any) error {
	s.tags = append(s.tags, s.chunk)
	return s.MemorySink.Append(ctx, row)
}

/*
TestRun_TagsRowsWithChunk verifies a ChunkSink learns each chunk before its
rows, including chunks that yield no rows.
*/
func TestRun_TagsRowsWithChunk(t *testing.T) {
	t.Parallel()

	sink := &chunkTagSink{}
	_, err := Run(context.Background(), NewTask("$.items", longA),
		chunks(`{"items":[{"a":1},{"a":2}]}`, `{"items":[]}`, `{"items":[{"a":3}]}`), sink, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"chunk0", "chunk0", "chunk2"}; !reflect.DeepEqual(sink.tags, want) {
		t.Fatalf("tags got %v; want %v", sink.tags, want)
	}
}

type failingInput struct{ closed bool }

func (f *failingInput) Next(context.Context) (datasource.Chunk, error) {
	return datasource.Chunk{}, errors.New("connection reset")
}

func (f *failingInput) Close() error {
	f.closed = true
	return nil
}

type failingSink struct{ emitter.MemorySink }

func (f *failingSink) Finish(ctx context.Context) error {
	_ = f.MemorySink.Finish(ctx)
	return errors.New("flush failed")
}

/*
TestRun_IOErrors verifies input, sink and cancellation failures are IO-class
and still close the input and finish the sink.
*/
func TestRun_IOErrors(t *testing.T) {
	t.Parallel()

	in := &failingInput{}
	sink := emitter.NewMemorySink()
	_, err := Run(context.Background(), NewTask("$", longA), in, sink, Options{})
	if ClassOf(err) != ClassIO || !strings.Contains(err.Error(), "connection reset") {
		t.Fatalf("input err got %v; want IO-class connection reset", err)
	}
	if !in.closed || !sink.Finished() {
		t.Fatalf("closed/finished got %v/%v; want true/true", in.closed, sink.Finished())
	}

	fs := &failingSink{}
	sum, err := Run(context.Background(), NewTask("$", longA), chunks(`[{"a":1}]`), fs, Options{})
	if ClassOf(err) != ClassIO || !strings.Contains(err.Error(), "flush failed") {
		t.Fatalf("sink err got %v; want IO-class flush failed", err)
	}
	if sum.Rows != 1 {
		t.Fatalf("rows got %d; want 1", sum.Rows)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink = emitter.NewMemorySink()
	_, err = Run(ctx, NewTask("$", longA), chunks(`[{"a":1}]`), sink, Options{})
	if !errors.Is(err, context.Canceled) || ClassOf(err) != ClassIO {
		t.Fatalf("canceled err got %v; want IO-class context.Canceled", err)
	}
	if len(sink.Rows()) != 0 {
		t.Fatalf("rows got %d; want 0", len(sink.Rows()))
	}
}
