package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseList reads one entry per line. Blank lines and lines starting with
// '#' (after trimming) are skipped; order is kept.
func ParseList(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadList parses the list file at path. Relative local entries are resolved
// against the list file's directory; URLs are returned unchanged.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	entries, err := ParseList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dir := filepath.Dir(path)
	for i, e := range entries {
		if strings.Contains(e, "://") || filepath.IsAbs(e) {
			continue
		}
		entries[i] = filepath.Join(dir, e)
	}
	return entries, nil
}
