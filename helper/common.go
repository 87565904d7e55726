package helper

import (
	"regexp"
	"strconv"
	"strings"
)

// IdentifierRegex matches unquoted SQL identifiers accepted for
// schema and table names.
var IdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func IsValidIdentifier(s string) bool {
	return IdentifierRegex.MatchString(s)
}

// ParseLimit parses a positive page size, falling back to def when s is
// empty or malformed and capping at ceiling.
func ParseLimit(s string, def, ceiling int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	if n > ceiling {
		return ceiling
	}
	return n
}

// SplitList splits a comma separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
