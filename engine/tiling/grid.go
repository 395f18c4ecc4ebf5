package tiling

import (
	"errors"
	"fmt"
	"iter"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrInvalidGrid is returned when a grid is too small to hold the interlocking diamond grid.
var ErrInvalidGrid = errors.New("tiling: invalid grid size")

// Slot addresses one tile position by row and column.
type Slot struct {
	Row    int
	Column int
}

// Grid describes the hexagon grid dimensions. The diamond grid is derived from it and is one
// row and one column smaller, placing a diamond at the centre of every 2×2 block of hexagons.
type Grid struct {
	Rows    int
	Columns int
}

// DefaultGrid is the 12×12 layout the demo ships with.
var DefaultGrid = Grid{Rows: 12, Columns: 12}

// Validate reports whether the grid can hold at least one diamond.
//
// Returns:
//   - error: ErrInvalidGrid wrapped with the offending size, or nil
func (g Grid) Validate() error {
	if g.Rows < 2 || g.Columns < 2 {
		return fmt.Errorf("%w: %dx%d (need at least 2x2)", ErrInvalidGrid, g.Rows, g.Columns)
	}
	return nil
}

// Size returns the row and column count of the grid holding the given shape.
//
// Parameters:
//   - shape: the tile shape whose grid is queried
//
// Returns:
//   - rows, cols: the grid dimensions, or 0, 0 for an unknown shape
func (g Grid) Size(shape Shape) (rows, cols int) {
	switch shape {
	case Hexagon:
		return g.Rows, g.Columns
	case Diamond:
		return g.Rows - 1, g.Columns - 1
	default:
		return 0, 0
	}
}

// Count returns the number of tiles of the given shape.
func (g Grid) Count(shape Shape) int {
	rows, cols := g.Size(shape)
	if rows <= 0 || cols <= 0 {
		return 0
	}
	return rows * cols
}

// Offset computes the world-space translation of a tile. Both grids are centred on the origin:
// hexagons step 2·cos(30°) horizontally and 2 vertically, and the diamond grid is shifted by half
// a step in each axis.
//
// Parameters:
//   - shape: the tile shape
//   - slot: the tile's row and column within its own grid
//
// Returns:
//   - mgl32.Vec2: the x, y translation applied before the scene model rotation
func (g Grid) Offset(shape Shape, slot Slot) mgl32.Vec2 {
	rows, cols := g.Size(shape)
	x := 2 * HalfWidth * (float32(slot.Column) - 0.5*float32(cols-1))
	y := 2 * (float32(slot.Row) - 0.5*float32(rows-1))
	return mgl32.Vec2{x, y}
}

// Slots yields every slot of the given shape's grid in row-major order.
func (g Grid) Slots(shape Shape) iter.Seq[Slot] {
	rows, cols := g.Size(shape)
	return func(yield func(Slot) bool) {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if !yield(Slot{Row: i, Column: j}) {
					return
				}
			}
		}
	}
}
