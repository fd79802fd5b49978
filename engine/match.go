package engine

import (
	"github.com/treegrep/treegrep/syntax"
)

// Match is one successful binding of a whole pattern at one location.
// Positions in Span are one-based display coordinates; byte offsets are
// authoritative for slicing. The capture map marshals with sorted keys,
// so serialized output is stable across runs.
type Match struct {
	RuleID   string                  `json:"rule_id"`
	Span     syntax.Span             `json:"span"`
	Text     string                  `json:"text,omitempty"`
	Captures map[string]CaptureValue `json:"captures"`
}

// Capture returns the binding for a metavariable name, if present.
func (m *Match) Capture(name string) (CaptureValue, bool) {
	v, ok := m.Captures[name]
	return v, ok
}
