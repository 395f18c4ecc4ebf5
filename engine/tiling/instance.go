package tiling

import "github.com/go-gl/mathgl/mgl32"

// Instance is one tile ready to draw: which outline to use, where it sits and how tall it is
// this frame. Both render passes walk the same []Instance so the shadow and color passes
// rasterize identical geometry.
type Instance struct {
	Shape  Shape
	Slot   Slot
	Offset mgl32.Vec2
	Model  mgl32.Mat4
	Height float32
}

// AppendInstances appends every tile of both grids to dst: hexagons first, then diamonds, each
// in row-major order. Each instance's model matrix is model × translate(offset.x, offset.y, 0)
// and its height is evaluated at scene time t.
//
// Parameters:
//   - dst: the slice to append to, typically the previous frame's list truncated to zero length
//   - field: the height field holding the grid and per-slot phases
//   - model: the scene model matrix shared by every tile
//   - t: the scene clock value
//
// Returns:
//   - []Instance: dst extended with one entry per tile
func AppendInstances(dst []Instance, field *HeightField, model mgl32.Mat4, t float32) []Instance {
	grid := field.Grid()
	for _, shape := range Shapes {
		for slot := range grid.Slots(shape) {
			offset := grid.Offset(shape, slot)
			dst = append(dst, Instance{
				Shape:  shape,
				Slot:   slot,
				Offset: offset,
				Model:  TileModel(model, offset),
				Height: field.HeightAt(shape, slot, t),
			})
		}
	}
	return dst
}

// TileModel places a tile: the shared scene model applied after translating the unit outline to
// its grid offset in the z=0 plane.
func TileModel(model mgl32.Mat4, offset mgl32.Vec2) mgl32.Mat4 {
	return model.Mul4(mgl32.Translate3D(offset.X(), offset.Y(), 0))
}
