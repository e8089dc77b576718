package agent

import "strings"

// NormalizeProcedureType canonicalizes a free-text procedure type: trimmed,
// upper-cased, spaces and hyphens folded to underscores, capped at 50 chars.
// Empty input normalizes to CONSULTATION.
func NormalizeProcedureType(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "-", "_")
	t = strings.ReplaceAll(t, " ", "_")
	if t == "" {
		return "CONSULTATION"
	}
	if len(t) > 50 {
		t = t[:50]
	}
	return t
}
