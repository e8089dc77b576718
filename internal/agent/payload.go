package agent

import (
	"strconv"
	"strings"
)

// Payload is the event-specific key/value mapping carried by a lifecycle
// event. Values arrive from JSON, so numbers surface as float64 and ids are
// sometimes sent as strings; accessors tolerate both.
type Payload map[string]any

// Int64 returns the value under key as an int64, 0 when absent or not
// numeric.
func (p Payload) Int64(key string) int64 {
	switch v := p[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// String returns the trimmed string under key, "" when absent.
func (p Payload) String(key string) string {
	if v, ok := p[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Value returns the raw value under key.
func (p Payload) Value(key string) any {
	return p[key]
}
