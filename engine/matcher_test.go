package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treegrep/treegrep/syntax"
)

const callSource = "package main\n\nfunc main() {\n\tfoo(1, 2)\n\tbar(1, 2, 3)\n}\n"

func parseGo(t *testing.T, source string) *syntax.ParseResult {
	t.Helper()
	parser, err := syntax.NewParser(syntax.LangGo)
	require.NoError(t, err)
	parsed, err := parser.Parse(context.Background(), source)
	require.NoError(t, err)
	return parsed
}

func compileGo(t *testing.T, pattern string) *Pattern {
	t.Helper()
	pat, err := Compile(pattern, syntax.LangGo)
	require.NoError(t, err)
	return pat
}

func TestFindAllExactArguments(t *testing.T) {
	pat := compileGo(t, "$F(1, 2)")
	parsed := parseGo(t, callSource)

	matches, truncated := FindAll(DefaultConfig(), pat, parsed)
	assert.False(t, truncated)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Equal(t, "foo(1, 2)", m.Text)
	assert.Equal(t, uint32(4), m.Span.Start.Line)

	f, ok := m.Capture("F")
	require.True(t, ok)
	assert.Equal(t, CaptureNode, f.Kind)
	require.NotNil(t, f.Node)
	assert.Equal(t, "identifier", f.Node.Kind)
	assert.Equal(t, "foo", f.Node.Text)
}

func TestFindAllEllipsisMatchesBothCalls(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource)

	matches, truncated := FindAll(DefaultConfig(), pat, parsed)
	assert.False(t, truncated)
	require.Len(t, matches, 2)

	first, ok := matches[0].Capture("ARGS")
	require.True(t, ok)
	assert.Equal(t, CaptureNodes, first.Kind)
	require.Len(t, first.Nodes, 2)
	assert.Equal(t, "1", first.Nodes[0].Text)
	assert.Equal(t, "2", first.Nodes[1].Text)
	// The run span covers the separators, not just the bound nodes.
	assert.Equal(t, "1, 2", callSource[first.Span.StartByte:first.Span.EndByte])

	second, ok := matches[1].Capture("ARGS")
	require.True(t, ok)
	require.Len(t, second.Nodes, 3)
	assert.Equal(t, "1, 2, 3", callSource[second.Span.StartByte:second.Span.EndByte])
}

func TestFindAllEmptyEllipsisRun(t *testing.T) {
	source := "package main\n\nfunc main() {\n\tbaz()\n}\n"
	pat := compileGo(t, "baz($...ARGS)")
	parsed := parseGo(t, source)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)

	args, ok := matches[0].Capture("ARGS")
	require.True(t, ok)
	assert.Equal(t, CaptureNodes, args.Kind)
	assert.Empty(t, args.Nodes)
	assert.Equal(t, args.Span.StartByte, args.Span.EndByte)
}

func TestFindAllBackReferenceConsistency(t *testing.T) {
	source := "package main\n\nfunc f(a, b int) bool {\n\treturn a == a && a == b\n}\n"
	pat := compileGo(t, "$X == $X")
	parsed := parseGo(t, source)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)

	x, ok := matches[0].Capture("X")
	require.True(t, ok)
	assert.Equal(t, "a", x.Node.Text)
}

func TestFindAllSkipsDescendantsOfMatches(t *testing.T) {
	source := "package main\n\nfunc main() {\n\tfoo(bar(1))\n}\n"
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, source)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
	assert.Equal(t, "foo(bar(1))", matches[0].Text)
}

func TestFindAllWildcardDoesNotCapture(t *testing.T) {
	pat := compileGo(t, "$_(1, 2)")
	parsed := parseGo(t, callSource)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
	assert.NotContains(t, matches[0].Captures, "_")
}

func TestFindAllIsDeterministic(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource)

	a, _ := FindAll(DefaultConfig(), pat, parsed)
	b, _ := FindAll(DefaultConfig(), pat, parsed)
	assert.Equal(t, a, b)
}

func TestFindAllHonorsMatchCeiling(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource)

	cfg := DefaultConfig()
	cfg.MaxMatchesPerRule = 1
	matches, truncated := FindAll(cfg, pat, parsed)

	require.Len(t, matches, 1)
	assert.True(t, truncated)
	assert.Equal(t, "foo(1, 2)", matches[0].Text)
}

func TestFindAllStreamingModeOmitsText(t *testing.T) {
	pat := compileGo(t, "$F(1, 2)")
	parsed := parseGo(t, callSource)

	cfg := DefaultConfig()
	cfg.IncludeText = false
	matches, _ := FindAll(cfg, pat, parsed)
	require.Len(t, matches, 1)

	m := matches[0]
	assert.Empty(t, m.Text)
	assert.NotZero(t, m.Span.EndByte)

	f, ok := m.Capture("F")
	require.True(t, ok)
	require.NotNil(t, f.Node)
	assert.Empty(t, f.Node.Text)
	assert.Equal(t, "identifier", f.Node.Kind)
}

func TestFindAllTruncatesCaptureText(t *testing.T) {
	pat := compileGo(t, "$F(1, 2)")
	parsed := parseGo(t, callSource)

	cfg := DefaultConfig()
	cfg.MaxCaptureTextBytes = 3
	matches, _ := FindAll(cfg, pat, parsed)
	require.Len(t, matches, 1)
	assert.Equal(t, "foo", matches[0].Text)
}

func TestFindFirstReturnsEarliestMatch(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource)

	m, ok := FindFirst(pat, parsed)
	require.True(t, ok)
	assert.Equal(t, "foo(1, 2)", m.Text)
}

func TestFindFirstNoMatch(t *testing.T) {
	pat := compileGo(t, "qux(9)")
	parsed := parseGo(t, callSource)

	_, ok := FindFirst(pat, parsed)
	assert.False(t, ok)
}

func TestMatchIterIsRestartable(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource)

	it := FindMatches(DefaultConfig(), pat, parsed)
	count := 0
	for {
		if _, ok := it.Next(); !ok {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)

	// A fresh iterator over the same inputs starts from scratch.
	it = FindMatches(DefaultConfig(), pat, parsed)
	m, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "foo(1, 2)", m.Text)
}

func TestMatchCarriesRuleID(t *testing.T) {
	pat := compileGo(t, "$F(1, 2)")
	pat.ID = "no-magic-args"
	parsed := parseGo(t, callSource)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
	assert.Equal(t, "no-magic-args", matches[0].RuleID)
}

func TestFindAllMatchesFormattedMultilineCall(t *testing.T) {
	source := "package main\n\nfunc main() {\n\tfoo(\n\t\t1,\n\t\t2,\n\t)\n}\n"
	pat := compileGo(t, "foo(1, 2)")
	parsed := parseGo(t, source)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
	assert.Equal(t, uint32(4), matches[0].Span.Start.Line)
}

func TestFindAllPythonTrailingComma(t *testing.T) {
	pat, err := Compile("foo(1, 2)", syntax.LangPython)
	require.NoError(t, err)

	parser, err := syntax.NewParser(syntax.LangPython)
	require.NoError(t, err)
	parsed, err := parser.Parse(context.Background(), "foo(1, 2,)\n")
	require.NoError(t, err)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
}

func TestFindAllOperatorTokensStaySignificant(t *testing.T) {
	source := "package main\n\nfunc f(a, b int) bool {\n\treturn a == b || a != b\n}\n"
	pat := compileGo(t, "$X == $Y")
	parsed := parseGo(t, source)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)

	x, ok := matches[0].Capture("X")
	require.True(t, ok)
	assert.Equal(t, "a", x.Node.Text)
	y, ok := matches[0].Capture("Y")
	require.True(t, ok)
	assert.Equal(t, "b", y.Node.Text)
}

func TestTruncatedStaysFalseAtExactCeiling(t *testing.T) {
	pat := compileGo(t, "$F($...ARGS)")
	parsed := parseGo(t, callSource) // exactly two calls

	cfg := DefaultConfig()
	cfg.MaxMatchesPerRule = 2
	matches, truncated := FindAll(cfg, pat, parsed)

	require.Len(t, matches, 2)
	assert.False(t, truncated)
}

func TestFindAllLiteralLeafTextMustMatch(t *testing.T) {
	pat := compileGo(t, "foo(1, 2)")
	parsed := parseGo(t, callSource)

	matches, _ := FindAll(DefaultConfig(), pat, parsed)
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].Captures)
}
