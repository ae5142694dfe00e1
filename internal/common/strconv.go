package common

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryInt reads key from q as a decimal integer. Missing or unparseable
// values yield def, and results below min are raised to min.
func QueryInt(q url.Values, key string, def, min int) int {
	n := def
	if raw := strings.TrimSpace(q.Get(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	if n < min {
		return min
	}
	return n
}
