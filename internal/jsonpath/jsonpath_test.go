package jsonpath

import (
	"errors"
	"testing"

	"jsonrows/internal/value"
)

const store = `{
  "store": {
    "book": [
      {"author": "Rees", "price": 8.95},
      {"author": "Waugh", "price": 12.99},
      {"author": "Melville", "price": 8.99},
      {"author": "Tolkien", "price": 22.99}
    ],
    "bicycle": {"color": "red", "price": 399}
  },
  "data": {"items": [{"a": 1}, {"a": 2}]},
  "empty": [],
  "obj": {"k": "v"}
}`

func mustCompile(t *testing.T, expr string) *Query {
	t.Helper()
	q, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile(%q): %v", expr, err)
	}
	return q
}

/*
TestExtract_Definite verifies single-node paths return that node's text.
*/
func TestExtract_Definite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want string
	}{
		{"$.data.items", `[{"a":1},{"a":2}]`},
		{"$['data']['items']", `[{"a":1},{"a":2}]`},
		{`$["data"].items[0]`, `{"a":1}`},
		{"$.data.items[-1].a", `2`},
		{"$.store.book[3].author", `"Tolkien"`},
		{"$.empty", `[]`},
		{"$.obj", `{"k":"v"}`},
		{"$.store.bicycle['color']", `"red"`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			got, err := Extract([]byte(store), tt.expr)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s; want %s", got, tt.want)
			}
		})
	}

	if _, err := Extract([]byte(store), "$"); err != nil {
		t.Fatalf("Extract($): %v", err)
	}
}

/*
TestExtract_NotFound verifies paths matching nothing report ErrPathNotFound.
*/
func TestExtract_NotFound(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{
		"$.missing",
		"$.data.items[5]",
		"$.obj[0]",
		"$.data.nope[*]",
		"$..nothing",
		"$.empty[*]",
	} {
		if _, err := Extract([]byte(store), expr); !errors.Is(err, ErrPathNotFound) {
			t.Errorf("%s: err got %v; want ErrPathNotFound", expr, err)
		}
	}
}

/*
TestExtract_IndefiniteCollectsMatches verifies a single array match is used
as is and scalar matches are collected into a new array.
*/
func TestExtract_IndefiniteCollectsMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want string
	}{
		{"$.data.items[*]", `[{"a":1},{"a":2}]`},
		{"$.store.book[*].author", `["Rees","Waugh","Melville","Tolkien"]`},
		{"$.store.book[1:3].price", `[12.99,8.99]`},
		{"$.store.book[::-2].author", `["Tolkien","Waugh"]`},
		{"$.store.book[0,2].author", `["Rees","Melville"]`},
		{"$..items", `[{"a":1},{"a":2}]`},
		{"$..color", `["red"]`},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			got, err := Extract([]byte(store), tt.expr)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("got %s; want %s", got, tt.want)
			}
		})
	}
}

/*
TestExtract_Ambiguous verifies several array matches are rejected while
several non-array matches are not.
*/
func TestExtract_Ambiguous(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"a":{"items":[1]},"b":{"items":[2]}}`)
	if _, err := Extract(doc, "$..items"); !errors.Is(err, ErrPathAmbiguous) {
		t.Fatalf("$..items err got %v; want ErrPathAmbiguous", err)
	}
	if _, err := Extract(doc, "$.*"); err != nil {
		t.Fatalf("$.* err got %v; want nil", err)
	}
}

/*
TestCompile_Invalid verifies unsupported or malformed expressions report
ErrInvalidPath.
*/
func TestCompile_Invalid(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "items", "$.a[?(@.b)]", "$.a[", "$$", "$[99999999999999999999]"} {
		if _, err := Compile(expr); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Compile(%q) err got %v; want ErrInvalidPath", expr, err)
		}
	}
}

/*
TestCompile_Definite verifies definiteness and the normalized form.
*/
func TestCompile_Definite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want bool
	}{
		{"$.a.b[0]", true},
		{"$", true},
		{"$.a[*]", false},
		{"$..a", false},
		{"$.a[0,1]", false},
		{"$.a[0:1]", false},
	}
	for _, tt := range tests {
		if got := mustCompile(t, tt.expr).Definite(); got != tt.want {
			t.Errorf("%s: definite got %v; want %v", tt.expr, got, tt.want)
		}
	}

	if got, want := mustCompile(t, "$.a..b[0:2].*").Normalized(), "$['a']..['b'][0:2][*]"; got != want {
		t.Fatalf("normalized got %s; want %s", got, want)
	}
}

/*
TestExtract_MalformedInput verifies decode errors pass through.
*/
func TestExtract_MalformedInput(t *testing.T) {
	t.Parallel()

	if _, err := Extract([]byte(`{"a":`), "$.a"); !errors.Is(err, value.ErrMalformedJSON) {
		t.Fatalf("err got %v; want ErrMalformedJSON", err)
	}
}

/*
TestExtractAll_MultiDocument verifies the path applies to every document and
fails when one document lacks it.
*/
func TestExtractAll_MultiDocument(t *testing.T) {
	t.Parallel()

	q := mustCompile(t, "$.rows")
	got, err := q.ExtractAll([]byte("{\"rows\":[1]}\n{\"rows\":[2,3]}\n"))
	if err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	if len(got) != 2 || string(got[0]) != "[1]" || string(got[1]) != "[2,3]" {
		t.Fatalf("got %q; want [[1] [2,3]]", got)
	}

	if _, err := q.ExtractAll([]byte("{\"rows\":[1]}\n{\"other\":1}\n")); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("err got %v; want ErrPathNotFound", err)
	}
}

/*
TestSelect_SliceBounds verifies slice defaults, negative bounds and steps,
empty results, and steps large enough to overflow the index.
*/
func TestSelect_SliceBounds(t *testing.T) {
	t.Parallel()

	doc, err := value.Decode([]byte(`[0,1,2,3,4,5]`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{"$[1:3]", "[1,2]"},
		{"$[-2:]", "[4,5]"},
		{"$[:2]", "[0,1]"},
		{"$[::2]", "[0,2,4]"},
		{"$[::-1]", "[5,4,3,2,1,0]"},
		{"$[4:1:-2]", "[4,2]"},
		{"$[10:]", "[]"},
		{"$[0:0]", "[]"},
		{"$[::0]", "[]"},
		{"$[1::9223372036854775807]", "[1]"},
		{"$[::9223372036854775807]", "[0]"},
		{"$[::-9223372036854775808]", "[5]"},
		{"$[4:0:-9223372036854775808]", "[4]"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			got := value.Array(mustCompile(t, tt.expr).Select(doc)...).String()
			if got != tt.want {
				t.Fatalf("got %s; want %s", got, tt.want)
			}
		})
	}
}
