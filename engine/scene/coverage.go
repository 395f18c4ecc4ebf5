package scene

import (
	"github.com/Carmen-Shannon/oxy-tiling/common"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowCoverage counts tiles by how their tallest possible wall sits in the light's view
// volume. Walls outside it cast no shadow; walls crossing its edge cast clipped shadows.
type ShadowCoverage struct {
	Inside       int
	Intersecting int
	Outside      int
}

// Complete reports whether every tile can cast its whole shadow.
func (c ShadowCoverage) Complete() bool {
	return c.Intersecting == 0 && c.Outside == 0
}

// MeasureShadowCoverage bounds each tile of the grid with a sphere covering the wall at its
// maximum height and classifies it against the light view-projection.
//
// Parameters:
//   - grid: the tile grid
//   - model: the scene model matrix
//   - lightViewProjection: the shadow pass view-projection
//
// Returns:
//   - ShadowCoverage: the counts, summing to the number of tiles
func MeasureShadowCoverage(grid tiling.Grid, model, lightViewProjection mgl32.Mat4) ShadowCoverage {
	frustum := common.ExtractFrustum(lightViewProjection)
	top := 2 * tiling.Amplitude

	var c ShadowCoverage
	for _, shape := range tiling.Shapes {
		reach := float32(0)
		for _, v := range shape.Outline() {
			reach = max(reach, v.Len())
		}
		radius := math32.Hypot(reach, top/2)

		for slot := range grid.Slots(shape) {
			offset := grid.Offset(shape, slot)
			center := model.Mul4x1(mgl32.Vec4{offset.X(), offset.Y(), top / 2, 1}).Vec3()
			switch frustum.ClassifySphere(center, radius) {
			case common.Inside:
				c.Inside++
			case common.Intersecting:
				c.Intersecting++
			default:
				c.Outside++
			}
		}
	}
	return c
}
