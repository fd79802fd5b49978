package engine

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/treegrep/treegrep/syntax"
)

// CapturedNode is a single bound subtree: its span, syntax kind, and
// (unless streaming mode omits it) source text.
type CapturedNode struct {
	Span syntax.Span `json:"span"`
	Kind string      `json:"kind"`
	Text string      `json:"text,omitempty"`
}

// CaptureKind discriminates the two capture shapes.
type CaptureKind string

const (
	// CaptureNode is a singular metavariable binding ($NAME).
	CaptureNode CaptureKind = "node"
	// CaptureNodes is an ellipsis binding ($...NAME), possibly empty.
	CaptureNodes CaptureKind = "nodes"
)

// CaptureValue is one metavariable binding inside a match. Span covers the
// whole bound region; for ellipsis captures that includes the original
// separators between the bound nodes.
type CaptureValue struct {
	Kind  CaptureKind    `json:"capture_kind"`
	Span  syntax.Span    `json:"span"`
	Node  *CapturedNode  `json:"node,omitempty"`
	Nodes []CapturedNode `json:"nodes,omitempty"`
}

// binding is the matcher-internal form of a capture. It keeps node handles
// instead of materialized text so consistency checks and streaming mode
// never copy source.
type binding struct {
	kind MetaVarKind
	node *sitter.Node   // single binding
	run  []*sitter.Node // ellipsis binding, full sibling run incl. tokens

	// Anchor for empty ellipsis runs: where the zero-width capture sits.
	anchorByte  uint32
	anchorPoint sitter.Point
}

// captures accumulates bindings for one candidate attempt. The zero value
// is not usable; construct with newCaptures.
type captures struct {
	source string
	m      map[string]binding
}

func newCaptures(source string) *captures {
	return &captures{source: source, m: make(map[string]binding)}
}

func (c *captures) clone() *captures {
	next := newCaptures(c.source)
	for name, b := range c.m {
		next.m[name] = b
	}
	return next
}

func nodeText(source string, n *sitter.Node) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if start > len(source) || end > len(source) || start > end {
		return ""
	}
	return source[start:end]
}

func runText(source string, run []*sitter.Node) string {
	if len(run) == 0 {
		return ""
	}
	start, end := int(run[0].StartByte()), int(run[len(run)-1].EndByte())
	if start > len(source) || end > len(source) || start > end {
		return ""
	}
	return source[start:end]
}

// bindSingle binds name to one node. A repeated name is a back-reference:
// the new node must be structurally and textually identical to the earlier
// binding or the whole candidate fails. `_` always binds without capturing.
func (c *captures) bindSingle(name string, n *sitter.Node) bool {
	if name == "_" {
		return true
	}
	prev, exists := c.m[name]
	if exists {
		if prev.kind != MetaVarSingle {
			return false
		}
		return prev.node.Type() == n.Type() &&
			nodeText(c.source, prev.node) == nodeText(c.source, n)
	}
	c.m[name] = binding{kind: MetaVarSingle, node: n}
	return true
}

// bindRun binds name to a contiguous run of siblings (possibly empty).
// The anchor locates an empty run for span reporting.
func (c *captures) bindRun(name string, run []*sitter.Node, anchorByte uint32, anchorPoint sitter.Point) bool {
	if name == "_" {
		return true
	}
	prev, exists := c.m[name]
	if exists {
		if prev.kind != MetaVarEllipsis {
			return false
		}
		return runText(c.source, prev.run) == runText(c.source, run)
	}
	c.m[name] = binding{
		kind:        MetaVarEllipsis,
		run:         run,
		anchorByte:  anchorByte,
		anchorPoint: anchorPoint,
	}
	return true
}
