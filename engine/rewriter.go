package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/treegrep/treegrep/syntax"
)

// templateSegment is one piece of a compiled replacement template: either
// literal text or a metavariable reference.
type templateSegment struct {
	literal string
	varName string // empty for literal segments
	raw     string // original reference text, kept for unbound fallback
}

// RewriteRule pairs a compiled pattern with a validated replacement
// template. Templates may reference the pattern's metavariables with
// $NAME or $...NAME; an unknown or malformed reference fails here, at
// construction, never per match.
type RewriteRule struct {
	pattern  *Pattern
	template string
	segments []templateSegment
}

// NewRewriteRule validates and compiles a replacement template against a
// pattern.
func NewRewriteRule(pattern *Pattern, template string) (*RewriteRule, error) {
	var segments []templateSegment
	err := scanMetavariables(template, pattern.Language(),
		func(chunk string) {
			segments = append(segments, templateSegment{literal: chunk})
		},
		func(m MetaVariable) {
			raw := "$"
			if m.Kind == MetaVarEllipsis {
				raw = "$..."
			}
			segments = append(segments, templateSegment{varName: m.Name, raw: raw + m.Name})
		},
	)
	if err != nil {
		return nil, &RewriteRuleError{Rule: pattern.ID, Reason: "malformed template reference: " + err.Error()}
	}

	for _, seg := range segments {
		if seg.varName == "" || seg.varName == "_" {
			continue
		}
		if pattern.metavarByName(seg.varName) == nil {
			return nil, &RewriteRuleError{
				Rule:   pattern.ID,
				Reason: "template references undefined metavariable: $" + seg.varName,
			}
		}
	}

	return &RewriteRule{pattern: pattern, template: template, segments: segments}, nil
}

// Pattern returns the rule's compiled pattern.
func (r *RewriteRule) Pattern() *Pattern { return r.pattern }

// Template returns the replacement template text.
func (r *RewriteRule) Template() string { return r.template }

// RewriteResult is the outcome of applying a rule to one source.
type RewriteResult struct {
	// Output is the fully rewritten text (identical to the input when
	// nothing matched).
	Output string
	// NumReplacements counts the matches that were replaced.
	NumReplacements int
	// HasChanges reports whether Output differs byte-for-byte from the
	// input, so callers detect no-ops without comparing strings.
	HasChanges bool
}

// Rewriter applies rewrite rules to source text under the engine's
// configured bounds.
type Rewriter struct {
	cfg Config
}

// NewRewriter creates a rewriter with the given bounds.
func NewRewriter(cfg Config) *Rewriter {
	return &Rewriter{cfg: cfg}
}

// Apply finds every match of the rule's pattern in source and splices the
// rendered template over each match, left to right. Zero matches is not an
// error: the result is the unchanged input.
func (rw *Rewriter) Apply(ctx context.Context, rule *RewriteRule, source string) (*RewriteResult, error) {
	parser, err := syntax.NewParser(rule.pattern.Language())
	if err != nil {
		return nil, &RewriteError{Rule: rule.pattern.ID, Err: err}
	}
	parsed, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, &RewriteError{Rule: rule.pattern.ID, Err: err}
	}

	matches, _ := FindAll(rw.cfg, rule.pattern, parsed)
	if len(matches) == 0 {
		return &RewriteResult{Output: source}, nil
	}

	output, replaced, changed := rule.splice(source, matches)
	return &RewriteResult{
		Output:          output,
		NumReplacements: replaced,
		HasChanges:      changed,
	}, nil
}

// splice renders each match and writes it over the match's span, left to
// right. A match overlapping an earlier splice, or with a span outside the
// source, is skipped and does not count as a replacement. Matches arrive in
// pre-order, which is ascending span order; the sort is an invariant guard.
func (r *RewriteRule) splice(source string, matches []Match) (string, int, bool) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Span.StartByte < matches[j].Span.StartByte
	})

	var out strings.Builder
	out.Grow(len(source))
	cursor := 0
	replaced := 0
	changed := false
	for i := range matches {
		start, end := int(matches[i].Span.StartByte), int(matches[i].Span.EndByte)
		if start < cursor || end > len(source) {
			continue
		}
		rendered := r.render(&matches[i], source)
		out.WriteString(source[cursor:start])
		out.WriteString(rendered)
		if rendered != source[start:end] {
			changed = true
		}
		cursor = end
		replaced++
	}
	out.WriteString(source[cursor:])
	return out.String(), replaced, changed
}

// ApplyAll applies rules in sequence, each against the previous rule's
// output, summing replacement counts.
func (rw *Rewriter) ApplyAll(ctx context.Context, rules []*RewriteRule, source string) (*RewriteResult, error) {
	current := source
	total := 0
	changed := false
	for _, rule := range rules {
		res, err := rw.Apply(ctx, rule, current)
		if err != nil {
			return nil, err
		}
		total += res.NumReplacements
		changed = changed || res.HasChanges
		current = res.Output
	}
	return &RewriteResult{Output: current, NumReplacements: total, HasChanges: changed}, nil
}

// render substitutes captured text into the template for one match.
// Ellipsis captures splice the original source slice covering the run, so
// separators and spacing survive the rewrite untouched.
func (r *RewriteRule) render(m *Match, source string) string {
	var b strings.Builder
	b.Grow(len(r.template))
	for _, seg := range r.segments {
		if seg.varName == "" {
			b.WriteString(seg.literal)
			continue
		}
		if seg.varName == "_" {
			continue
		}
		captured, ok := m.Captures[seg.varName]
		if !ok {
			b.WriteString(seg.raw)
			continue
		}
		start, end := int(captured.Span.StartByte), int(captured.Span.EndByte)
		if start <= end && end <= len(source) {
			b.WriteString(source[start:end])
		}
	}
	return b.String()
}
