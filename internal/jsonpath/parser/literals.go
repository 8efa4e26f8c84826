package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

func parseInt(s string) (int64, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer %s: %w", s, err)
	}
	return i, nil
}

func parseDoubleQuotedString(s string) (string, error) {
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", fmt.Errorf("string literal %s: %w", s, err)
	}
	return out, nil
}

// parseSingleQuotedString rewrites 'x' into the equivalent "x" literal and
// decodes that.
func parseSingleQuotedString(s string) (string, error) {
	body := strings.ReplaceAll(s[1:len(s)-1], `\'`, `'`)
	body = strings.ReplaceAll(body, `"`, `\"`)
	return parseDoubleQuotedString(`"` + body + `"`)
}
