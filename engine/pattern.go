package engine

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/treegrep/treegrep/syntax"
)

// MetaVarKind distinguishes single-node metavariables from ellipsis ones.
type MetaVarKind int

const (
	// MetaVarSingle matches exactly one node ($VAR).
	MetaVarSingle MetaVarKind = iota
	// MetaVarEllipsis matches zero or more sibling nodes ($...VAR).
	MetaVarEllipsis
)

// MetaVariable is one placeholder declared by a pattern.
type MetaVariable struct {
	Name   string
	Kind   MetaVarKind
	Offset int // byte offset of the `$` in the pattern source
}

// Pattern is a compiled structural pattern. Compile once, then reuse
// read-only across any number of matching calls; a Pattern is immutable
// after compilation apart from the optional ID.
type Pattern struct {
	// ID names the rule this pattern belongs to; it is echoed on every
	// match. Set it right after Compile, before the first matching call.
	ID string

	source   string
	language syntax.Language
	metavars []MetaVariable
	parsed   *syntax.ParseResult
	wrapped  bool
	root     *sitter.Node
}

// Compile turns pattern source into a reusable Pattern for the language.
//
// The source is scanned for metavariables, each is substituted with a
// reserved placeholder identifier, and the result is parsed as a complete
// unit. If that parse has errors, the fragment is retried inside the
// language's wrapper template before compilation fails.
func Compile(source string, language syntax.Language) (*Pattern, error) {
	metavars, err := extractMetavariables(source, language)
	if err != nil {
		return nil, err
	}

	normalized, err := normalizeMetavariables(source, language)
	if err != nil {
		return nil, err
	}

	parser, err := syntax.NewParser(language)
	if err != nil {
		return nil, &CompileError{Language: language.String(), Offset: -1, Reason: err.Error()}
	}

	ctx := context.Background()
	wrapped := false
	parsed, err := parser.Parse(ctx, normalized)
	if err != nil {
		return nil, &CompileError{Language: language.String(), Offset: -1, Reason: err.Error()}
	}
	if parsed.HasErrors() {
		wrappedSource := language.WrapPattern(normalized)
		parsed, err = parser.Parse(ctx, wrappedSource)
		if err != nil {
			return nil, &CompileError{Language: language.String(), Offset: -1, Reason: err.Error()}
		}
		wrapped = true
	}

	if parsed.HasErrors() {
		reason := "pattern contains syntax errors"
		if errs := parsed.Errors(); len(errs) > 0 {
			first := errs[0]
			reason = fmt.Sprintf("%s at line %d, column %d near %q",
				first.Message, first.Span.Start.Line, first.Span.Start.Column, first.Context)
		}
		return nil, &CompileError{Language: language.String(), Offset: -1, Reason: reason}
	}

	p := &Pattern{
		ID:       "pattern",
		source:   source,
		language: language,
		metavars: metavars,
		parsed:   parsed,
		wrapped:  wrapped,
	}
	p.root = p.resolveRoot()
	return p, nil
}

// Source returns the original pattern text.
func (p *Pattern) Source() string { return p.source }

// Language returns the language the pattern targets.
func (p *Pattern) Language() syntax.Language { return p.language }

// Metavariables returns the metavariables declared by the pattern.
func (p *Pattern) Metavariables() []MetaVariable { return p.metavars }

// WrappedInFunction reports whether the fragment needed a synthetic wrapper
// to parse.
func (p *Pattern) WrappedInFunction() bool { return p.wrapped }

// Root returns the node representing the user's intended fragment, after
// stripping synthetic wrapper scaffolding.
func (p *Pattern) Root() *sitter.Node { return p.root }

// HasMetavariables reports whether the pattern declares any metavariables.
func (p *Pattern) HasMetavariables() bool { return len(p.metavars) > 0 }

// metavarByName finds a declared metavariable, or nil.
func (p *Pattern) metavarByName(name string) *MetaVariable {
	for i := range p.metavars {
		if p.metavars[i].Name == name {
			return &p.metavars[i]
		}
	}
	return nil
}

// patternText slices the normalised pattern source for a pattern node.
func (p *Pattern) patternText(node *sitter.Node) string {
	src := p.parsed.Source()
	start, end := int(node.StartByte()), int(node.EndByte())
	if start > len(src) || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}

// resolveRoot walks from the parse root to the node that carries the user's
// intent. For wrapped patterns this descends into the wrapper's body; in
// both cases a single-statement container is stripped so block-level
// scaffolding does not leak into every reported span.
func (p *Pattern) resolveRoot() *sitter.Node {
	root := p.parsed.RootNode()

	node := root
	if p.wrapped {
		if body := p.language.UnwrapPatternRoot(root); body != nil {
			node = body
		}
	}

	if only := singleNamedChild(node); only != nil {
		node = only
	}
	for p.language.IsTransparentKind(node.Type()) {
		only := singleNamedChild(node)
		if only == nil {
			break
		}
		node = only
	}
	return node
}

func singleNamedChild(node *sitter.Node) *sitter.Node {
	if node.NamedChildCount() != 1 {
		return nil
	}
	return node.NamedChild(0)
}

// scanMetavariables walks the pattern source, invoking found for every
// metavariable and text for every literal chunk in between. Both pattern
// normalisation and extraction share this scan so they can never disagree.
func scanMetavariables(
	source string,
	language syntax.Language,
	text func(chunk string),
	found func(m MetaVariable),
) error {
	i := 0
	start := 0
	for i < len(source) {
		if source[i] != '$' {
			i++
			continue
		}

		offset := i
		pos := i + 1
		kind := MetaVarSingle
		if strings.HasPrefix(source[pos:], "...") {
			kind = MetaVarEllipsis
			pos += 3
		}

		name, end := extractMetavarName(source, pos)
		if name == "" {
			return &CompileError{
				Language: language.String(),
				Offset:   offset,
				Reason:   "metavariable has no valid name ('$' must be followed by an uppercase letter or '_')",
			}
		}

		if text != nil && start < offset {
			text(source[start:offset])
		}
		found(MetaVariable{Name: name, Kind: kind, Offset: offset})
		i = end
		start = end
	}

	if text != nil && start < len(source) {
		text(source[start:])
	}
	return nil
}

// extractMetavariables collects the metavariables declared by a pattern.
// A name may not be used as both $NAME and $...NAME: the placeholder
// identifier encodes the name alone, so a mixed-kind reuse would be
// ambiguous at every call site.
func extractMetavariables(source string, language syntax.Language) ([]MetaVariable, error) {
	var metavars []MetaVariable
	err := scanMetavariables(source, language, nil, func(m MetaVariable) {
		metavars = append(metavars, m)
	})
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]MetaVarKind, len(metavars))
	for _, m := range metavars {
		prev, seen := kinds[m.Name]
		if seen && prev != m.Kind {
			return nil, &CompileError{
				Language: language.String(),
				Offset:   m.Offset,
				Reason:   fmt.Sprintf("metavariable $%s is used as both single and ellipsis", m.Name),
			}
		}
		kinds[m.Name] = m.Kind
	}
	return metavars, nil
}

// normalizeMetavariables rewrites every metavariable into its placeholder
// identifier so an unmodified grammar parser accepts the pattern.
func normalizeMetavariables(source string, language syntax.Language) (string, error) {
	var b strings.Builder
	b.Grow(len(source))
	err := scanMetavariables(source, language,
		func(chunk string) { b.WriteString(chunk) },
		func(m MetaVariable) { b.WriteString(placeholderForMetavar(m.Name)) },
	)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
