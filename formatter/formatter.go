// Package formatter renders matches for terminal output.
package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/treegrep/treegrep/engine"
)

var (
	pathStyle    = color.New(color.FgCyan, color.Bold)
	posStyle     = color.New(color.FgYellow)
	ruleStyle    = color.New(color.FgMagenta)
	captureStyle = color.New(color.FgGreen)
)

// FormatMatch renders one match as a location header, the matched text, and
// its captures sorted by name.
func FormatMatch(path string, m *engine.Match) string {
	var b strings.Builder

	b.WriteString(pathStyle.Sprint(path))
	b.WriteByte(':')
	b.WriteString(posStyle.Sprintf("%d:%d", m.Span.Start.Line, m.Span.Start.Column))
	b.WriteString(" [")
	b.WriteString(ruleStyle.Sprint(m.RuleID))
	b.WriteString("]\n")

	if m.Text != "" {
		for _, line := range strings.Split(m.Text, "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	names := make([]string, 0, len(m.Captures))
	for name := range m.Captures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := m.Captures[name]
		b.WriteString("  ")
		b.WriteString(captureStyle.Sprintf("$%s", name))
		b.WriteString(" = ")
		b.WriteString(captureText(v))
		b.WriteByte('\n')
	}

	return b.String()
}

// FormatMatches renders a batch of matches with a trailing summary line.
func FormatMatches(path string, matches []engine.Match, truncated bool) string {
	var b strings.Builder
	for i := range matches {
		b.WriteString(FormatMatch(path, &matches[i]))
	}
	if truncated {
		b.WriteString(posStyle.Sprint("warning: match limit reached, results are truncated\n"))
	}
	if len(matches) > 0 {
		b.WriteString(fmt.Sprintf("%d match(es) in %s\n", len(matches), path))
	}
	return b.String()
}

func captureText(v engine.CaptureValue) string {
	if v.Kind == engine.CaptureNode && v.Node != nil {
		if v.Node.Text != "" {
			return fmt.Sprintf("%q (%s)", v.Node.Text, v.Node.Kind)
		}
		return fmt.Sprintf("<%s @ %d..%d>", v.Node.Kind, v.Span.StartByte, v.Span.EndByte)
	}

	kinds := make([]string, 0, len(v.Nodes))
	texts := make([]string, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		kinds = append(kinds, n.Kind)
		if n.Text != "" {
			texts = append(texts, n.Text)
		}
	}
	if len(texts) > 0 {
		return fmt.Sprintf("%q (%s)", strings.Join(texts, ", "), strings.Join(kinds, ", "))
	}
	return fmt.Sprintf("<%d node(s) @ %d..%d>", len(v.Nodes), v.Span.StartByte, v.Span.EndByte)
}
