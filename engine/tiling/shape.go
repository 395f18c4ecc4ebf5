// Package tiling holds the procedural scene model of the demo: the two tile outlines, the grid
// layout that interlocks them, the per-tile height oscillators, and the flat instance list both
// render passes consume.
package tiling

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HalfWidth is the horizontal half-width shared by both tile shapes, cos(30°).
// The grid spacing is derived from it so that hexagons and diamonds meet edge to edge.
var HalfWidth = math32.Cos(math32.Pi / 6)

// Shape identifies one of the two tile outlines.
type Shape int

const (
	// Hexagon is a flat-sided hexagon with vertices spaced at 60°.
	Hexagon Shape = iota

	// Diamond is a rhombus with vertices spaced at 90°, filling the gap between four hexagons.
	Diamond
)

// Shapes lists every tile shape in draw order.
var Shapes = [...]Shape{Hexagon, Diamond}

// shared outline data, computed once and never mutated.
var (
	hexagonOutline = [6]mgl32.Vec2{
		{HalfWidth, 0.5},
		{0, 1},
		{-HalfWidth, 0.5},
		{-HalfWidth, -0.5},
		{0, -1},
		{HalfWidth, -0.5},
	}
	diamondOutline = [4]mgl32.Vec2{
		{HalfWidth, 0},
		{0, 0.5},
		{-HalfWidth, 0},
		{0, -0.5},
	}
)

// Outline returns the ordered, closed polygon of the shape in its local unit frame, centred on
// the origin and wound counter-clockwise. The returned slice is a copy of the shared definition.
//
// Returns:
//   - []mgl32.Vec2: the outline vertices, or nil for an unknown shape
func (s Shape) Outline() []mgl32.Vec2 {
	switch s {
	case Hexagon:
		out := hexagonOutline
		return out[:]
	case Diamond:
		out := diamondOutline
		return out[:]
	default:
		return nil
	}
}

// VertexCount returns the number of outline vertices drawn for one tile of this shape.
//
// Returns:
//   - int: 6 for Hexagon, 4 for Diamond, 0 otherwise
func (s Shape) VertexCount() int {
	switch s {
	case Hexagon:
		return len(hexagonOutline)
	case Diamond:
		return len(diamondOutline)
	default:
		return 0
	}
}

func (s Shape) String() string {
	switch s {
	case Hexagon:
		return "hexagon"
	case Diamond:
		return "diamond"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}
