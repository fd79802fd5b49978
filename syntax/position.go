package syntax

import (
	"math"

	sitter "github.com/smacker/go-tree-sitter"
)

// LineCol is a line/column position. Tree coordinates are zero-based;
// display coordinates (one-based) are produced only through OneBased or
// DisplaySpan, never mixed with tree coordinates.
type LineCol struct {
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// OneBased converts a zero-based position to one-based display coordinates,
// saturating instead of overflowing.
func (p LineCol) OneBased() LineCol {
	return LineCol{Line: saturatingInc(p.Line), Column: saturatingInc(p.Column)}
}

func saturatingInc(v uint32) uint32 {
	if v == math.MaxUint32 {
		return v
	}
	return v + 1
}

// PointToOneBased converts a zero-based tree-sitter point to one-based
// display coordinates.
func PointToOneBased(p sitter.Point) LineCol {
	return LineCol{Line: p.Row, Column: p.Column}.OneBased()
}

// Span identifies a contiguous source range. Byte offsets are authoritative
// for slicing; the positions are derived for display.
type Span struct {
	StartByte uint32  `json:"start_byte"`
	EndByte   uint32  `json:"end_byte"`
	Start     LineCol `json:"start"`
	End       LineCol `json:"end"`
}

// SpanFromNode builds a span with zero-based tree coordinates.
func SpanFromNode(n *sitter.Node) Span {
	return Span{
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		Start:     LineCol{Line: n.StartPoint().Row, Column: n.StartPoint().Column},
		End:       LineCol{Line: n.EndPoint().Row, Column: n.EndPoint().Column},
	}
}

// DisplaySpan builds a span whose positions are one-based display
// coordinates, for match reporting.
func DisplaySpan(n *sitter.Node) Span {
	s := SpanFromNode(n)
	s.Start = s.Start.OneBased()
	s.End = s.End.OneBased()
	return s
}
