package syntax

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// ParseError reports that a source could not be turned into a syntax tree.
// Arbitrary sources are expected to sometimes be unparseable (mid-edit
// files), so this is surfaced per file and never aborts a batch.
type ParseError struct {
	Language Language
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse failed for %s: %s: %v", e.Language, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse failed for %s: %s", e.Language, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parser wraps a tree-sitter parser configured for one language.
// Create one parser per language; a Parser is not safe for concurrent use.
type Parser struct {
	inner    *sitter.Parser
	language Language
}

// NewParser creates a parser for the given language.
// An unknown language is an error, not a panic.
func NewParser(language Language) (*Parser, error) {
	grammar := language.sitterLanguage()
	if grammar == nil {
		return nil, &ParseError{Language: language, Reason: "no grammar registered"}
	}

	inner := sitter.NewParser()
	inner.SetLanguage(grammar)
	return &Parser{inner: inner, language: language}, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language { return p.language }

// Parse parses source text. Tree-sitter is error tolerant, so a result is
// returned even when the source contains syntax errors; check HasErrors.
func (p *Parser) Parse(ctx context.Context, source string) (*ParseResult, error) {
	tree, err := p.inner.ParseCtx(ctx, nil, []byte(source))
	if err != nil {
		return nil, &ParseError{Language: p.language, Reason: "parser produced no tree", Err: err}
	}
	return &ParseResult{tree: tree, source: source, language: p.language}, nil
}

// ParseResult owns the source text and the tree derived from it. The two
// must never be separated: node handles are offsets into this source.
type ParseResult struct {
	tree     *sitter.Tree
	source   string
	language Language
}

// Source returns the parsed source text.
func (r *ParseResult) Source() string { return r.source }

// Language returns the language the source was parsed as.
func (r *ParseResult) Language() Language { return r.language }

// RootNode returns the root of the syntax tree.
func (r *ParseResult) RootNode() *sitter.Node { return r.tree.RootNode() }

// HasErrors reports whether the tree contains ERROR or missing nodes.
func (r *ParseResult) HasErrors() bool {
	return r.tree.RootNode().HasError()
}

// ErrorInfo describes one syntax error found in a parse result.
type ErrorInfo struct {
	Span    Span   `json:"span"`
	Context string `json:"context"`
	Message string `json:"message"`
}

const errorContextLimit = 50

// Errors collects every syntax error in the tree, with one-based positions
// and a short context snippet.
func (r *ParseResult) Errors() []ErrorInfo {
	var errs []ErrorInfo
	collectErrorNodes(r.tree.RootNode(), r.source, &errs)
	return errs
}

func collectErrorNodes(node *sitter.Node, source string, out *[]ErrorInfo) {
	if node.Type() == "ERROR" || node.IsMissing() {
		*out = append(*out, errorInfoFromNode(node, source))
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			collectErrorNodes(child, source, out)
		}
	}
}

func errorInfoFromNode(node *sitter.Node, source string) ErrorInfo {
	start, end := int(node.StartByte()), int(node.EndByte())
	ctx := ""
	if start <= len(source) && end <= len(source) && start <= end {
		ctx = source[start:end]
	}
	ctx = truncateContext(ctx)

	msg := "syntax error"
	if node.IsMissing() {
		msg = "missing " + node.Type()
	}

	return ErrorInfo{Span: DisplaySpan(node), Context: ctx, Message: msg}
}

// truncateContext shortens a context snippet to the limit, backing up to a
// rune boundary so diagnostics never carry invalid UTF-8.
func truncateContext(s string) string {
	if len(s) <= errorContextLimit {
		return s
	}
	cut := errorContextLimit - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
