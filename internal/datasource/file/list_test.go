package file

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

/*
TestReadList_Basic checks comments and blank lines are skipped, URLs are kept
as written and relative paths resolve next to the list file.
*/
func TestReadList_Basic(t *testing.T) {
	t.Parallel()

	content := `
# comment line
https://example.com/a.json
   # indented comment
data/b.json

   /abs/c.json.gz
`
	path := writeTempFile(t, content)

	got, err := ReadList(path)
	if err != nil {
		t.Fatalf("ReadList error: %v", err)
	}

	want := []string{
		"https://example.com/a.json",
		filepath.Join(filepath.Dir(path), "data", "b.json"),
		"/abs/c.json.gz",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadList(%q) = %#v; want %#v", path, got, want)
	}
}

/*
TestParseList_Empty verifies an empty list gives no entries and no error.
*/
func TestParseList_Empty(t *testing.T) {
	t.Parallel()

	got, err := ParseList(strings.NewReader("\n# only comments\n"))
	if err != nil {
		t.Fatalf("ParseList error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %#v; want empty", got)
	}
}

func TestReadList_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := ReadList("does-not-exist-12345.txt")
	if err == nil {
		t.Fatalf("expected error for missing file, got nil")
	}
}
