package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

// validPipeline returns a pipeline that produces no issues.
func validPipeline() Pipeline {
	return Pipeline{
		Job:    "test-job",
		Source: Source{Kind: "file", File: SourceFile{Path: "input.json"}},
		Parser: Parser{
			Kind: "jsonpath",
			Root: "$.items",
			Columns: []Column{
				{Name: "id", Type: "long"},
				{Name: "at", Type: "timestamp", Format: "%Y-%m-%d", Timezone: "Asia/Tokyo"},
				{Name: "ok", Type: "boolean", Typecast: false},
			},
		},
		Storage: Storage{
			Kind: "postgres",
			DB:   DBConfig{DSN: "postgres://user@localhost/db", Table: "public.t", AutoCreateTable: true},
		},
		Runtime: RuntimeConfig{BatchSize: 100, ChannelBuffer: 10},
	}
}

/*
TestValidatePipeline_ValidMinimal verifies that a well-formed pipeline produces
no issues (errors or warnings).
*/
func TestValidatePipeline_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("got issues %+v; want none", issues)
	}
}

/*
TestValidatePipeline_EmptyJob verifies an empty job is only a warning.
*/
func TestValidatePipeline_EmptyJob(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Job = " "
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "job", "job is empty") {
		t.Fatalf("got %+v; want job warning", issues)
	}
	if HasErrors(issues) {
		t.Fatalf("HasErrors got true; want false")
	}
}

/*
TestValidatePipeline_Root verifies empty and unparsable root expressions are
errors.
*/
func TestValidatePipeline_Root(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Parser.Root = ""
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "parser.root", "must not be empty") {
		t.Fatalf("empty root: got %+v", issues)
	}

	p.Parser.Root = "$.a["
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "parser.root", "cannot parse") {
		t.Fatalf("bad root: got %+v", issues)
	}
}

/*
TestValidatePipeline_Columns covers each per-column error the linter reports.
*/
func TestValidatePipeline_Columns(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cols []Column
		path string
		msg  string
	}{
		{"none", nil, "parser.columns", "at least one column"},
		{"empty name", []Column{{Name: "", Type: "long"}}, "parser.columns[0].name", "must not be empty"},
		{"duplicate", []Column{{Name: "a", Type: "long"}, {Name: "a", Type: "string"}}, "parser.columns[1].name", "duplicate column name"},
		{"unknown type", []Column{{Name: "a", Type: "decimal"}}, "parser.columns[0].type", "unknown column type"},
		{"typecast string", []Column{{Name: "a", Type: "long", Typecast: "yes"}}, "parser.columns[0].typecast", "true or false"},
		{"format on long", []Column{{Name: "a", Type: "long", Format: "%Y"}}, "parser.columns[0].format", "only applies to timestamp"},
		{"timezone on json", []Column{{Name: "a", Type: "json", Timezone: "UTC"}}, "parser.columns[0].timezone", "only applies to timestamp"},
		{"unknown timezone", []Column{{Name: "a", Type: "timestamp", Timezone: "Mars/Olympus"}}, "parser.columns[0].timezone", "unknown timezone"},
	}
	for _, tc := range cases {
		p := validPipeline()
		p.Parser.Columns = tc.cols
		issues := ValidatePipeline(p)
		if !hasIssue(t, issues, SeverityError, tc.path, tc.msg) {
			t.Errorf("%s: got %+v; want error at %s containing %q", tc.name, issues, tc.path, tc.msg)
		}
	}
}

/*
TestValidatePipeline_DefaultTimezone verifies the task-wide timezone is checked.
*/
func TestValidatePipeline_DefaultTimezone(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Parser.DefaultTimezone = "Nowhere/Special"
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "parser.default_timezone", "unknown timezone") {
		t.Fatalf("got %+v; want default_timezone error", issues)
	}
}

/*
TestValidatePipeline_Source covers missing locations, unknown codecs and
charsets, bad durations and unknown kinds.
*/
func TestValidatePipeline_Source(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		src  Source
		sev  IssueSeverity
		path string
		msg  string
	}{
		{"empty kind", Source{}, SeverityError, "source.kind", "must not be empty"},
		{"file path", Source{Kind: "file"}, SeverityError, "source.file.path", "non-empty path"},
		{"glob pattern", Source{Kind: "glob"}, SeverityError, "source.glob.pattern", "non-empty pattern"},
		{"list path", Source{Kind: "list"}, SeverityError, "source.list.path", "non-empty path"},
		{"http url", Source{Kind: "http"}, SeverityError, "source.http.url", "non-empty url"},
		{"timeout", Source{Kind: "stdin", HTTP: SourceHTTP{Timeout: "later"}}, SeverityError, "source.http.timeout", "invalid duration"},
		{"retries", Source{Kind: "stdin", HTTP: SourceHTTP{MaxRetries: -1}}, SeverityError, "source.http.max_retries", "negative"},
		{"compression", Source{Kind: "stdin", Compression: "brotli"}, SeverityError, "source.compression", "unknown compression"},
		{"encoding", Source{Kind: "stdin", Encoding: "klingon-8"}, SeverityError, "source.encoding", "unknown encoding"},
		{"max chunk", Source{Kind: "stdin", MaxChunkBytes: -5}, SeverityError, "source.max_chunk_bytes", "negative"},
		{"unknown kind", Source{Kind: "s3"}, SeverityWarning, "source.kind", "unknown source kind"},
	}
	for _, tc := range cases {
		p := validPipeline()
		p.Source = tc.src
		issues := ValidatePipeline(p)
		if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
			t.Errorf("%s: got %+v; want %s at %s containing %q", tc.name, issues, tc.sev, tc.path, tc.msg)
		}
	}
}

/*
TestValidatePipeline_Storage verifies DSN/table requirements per backend and
that auto_create_table is rejected for backends without tables.
*/
func TestValidatePipeline_Storage(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Storage = Storage{Kind: "mysql"}
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "storage.db.dsn", "must not be empty") {
		t.Errorf("mysql dsn: got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "storage.db.table", "must not be empty") {
		t.Errorf("mysql table: got %+v", issues)
	}

	p.Storage = Storage{Kind: "console"}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Errorf("console: got %+v; want none", issues)
	}

	p.Storage = Storage{Kind: "console", DB: DBConfig{AutoCreateTable: true}}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "storage.db.auto_create_table", "not supported by console") {
		t.Errorf("console auto-create: got %+v", issues)
	}

	p.Storage = Storage{Kind: "mongo", DB: DBConfig{DSN: "mongodb://x", Table: "c", AutoCreateTable: true}}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "storage.db.auto_create_table", "not supported by mongo") {
		t.Errorf("mongo auto-create: got %+v", issues)
	}

	p.Storage = Storage{Kind: "oracle"}
	issues = ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Errorf("unknown kind: got %+v", issues)
	}
	if HasErrors(issues) {
		t.Errorf("unknown kind: HasErrors got true; want false")
	}

	p.Storage = Storage{}
	if issues := ValidatePipeline(p); !hasIssue(t, issues, SeverityError, "storage.kind", "must not be empty") {
		t.Errorf("empty kind: got %+v", issues)
	}
}

/*
TestValidatePipeline_Runtime verifies negative sizes are errors and zero values
are accepted as defaults.
*/
func TestValidatePipeline_Runtime(t *testing.T) {
	t.Parallel()

	p := validPipeline()
	p.Runtime = RuntimeConfig{}
	if issues := ValidatePipeline(p); len(issues) != 0 {
		t.Fatalf("zero runtime: got %+v; want none", issues)
	}

	p.Runtime = RuntimeConfig{BatchSize: -1, ChannelBuffer: -1}
	issues := ValidatePipeline(p)
	if !hasIssue(t, issues, SeverityError, "runtime.batch_size", "negative") {
		t.Errorf("batch_size: got %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "runtime.channel_buffer", "negative") {
		t.Errorf("channel_buffer: got %+v", issues)
	}
}

/*
TestIssue_Error verifies the error string layout.
*/
func TestIssue_Error(t *testing.T) {
	t.Parallel()

	got := Issue{Severity: SeverityError, Path: "parser.root", Message: "bad"}.Error()
	if want := "error at parser.root: bad"; got != want {
		t.Fatalf("got %q; want %q", got, want)
	}
}
