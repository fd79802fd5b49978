package engine

import "fmt"

// CompileError reports a pattern that could not be compiled: either its
// metavariable syntax is malformed or the grammar rejected the fragment
// even after the wrapper fallback.
type CompileError struct {
	Language string
	Offset   int // byte offset into the pattern source, -1 when unknown
	Reason   string
}

func (e *CompileError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("cannot compile %s pattern at offset %d: %s", e.Language, e.Offset, e.Reason)
	}
	return fmt.Sprintf("cannot compile %s pattern: %s", e.Language, e.Reason)
}

// RewriteRuleError reports an invalid rewrite template, caught at rule
// construction so a bad template never silently no-ops across many files.
type RewriteRuleError struct {
	Rule   string
	Reason string
}

func (e *RewriteRuleError) Error() string {
	return fmt.Sprintf("invalid rewrite rule %q: %s", e.Rule, e.Reason)
}

// RewriteError wraps a parsing or matching failure hit while applying a
// rule to a specific source.
type RewriteError struct {
	Rule string
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite with rule %q failed: %v", e.Rule, e.Err)
}

func (e *RewriteError) Unwrap() error { return e.Err }
