package syntax

import (
	"math"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
)

func TestLineColOneBased(t *testing.T) {
	p := LineCol{Line: 0, Column: 0}.OneBased()
	assert.Equal(t, uint32(1), p.Line)
	assert.Equal(t, uint32(1), p.Column)

	p = LineCol{Line: 9, Column: 4}.OneBased()
	assert.Equal(t, uint32(10), p.Line)
	assert.Equal(t, uint32(5), p.Column)
}

func TestLineColOneBasedSaturates(t *testing.T) {
	p := LineCol{Line: math.MaxUint32, Column: math.MaxUint32}.OneBased()
	assert.Equal(t, uint32(math.MaxUint32), p.Line)
	assert.Equal(t, uint32(math.MaxUint32), p.Column)
}

func TestPointToOneBased(t *testing.T) {
	got := PointToOneBased(sitter.Point{Row: 2, Column: 7})
	assert.Equal(t, LineCol{Line: 3, Column: 8}, got)
}
