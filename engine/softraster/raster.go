package softraster

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// depthResolution is the smallest resolvable depth difference the polygon offset units scale.
const depthResolution float32 = 1.0 / (1 << 24)

// minClipW rejects triangles with a vertex on or behind the eye plane.
const minClipW float32 = 1e-5

// vertex is a wall corner after the vertex stage.
type vertex struct {
	clip  mgl32.Vec4 // GL clip space, z in [-w, w]
	light mgl32.Vec4 // light clip space, read by the color program only
}

// rasterState is the fixed-function state a triangle is drawn with.
type rasterState struct {
	viewportWidth, viewportHeight int

	depthTest    bool
	depthOffset  bool
	offsetFactor float32
	offsetUnits  float32

	// shade returns the fragment color from its light-space position; nil writes depth only
	shade func(light mgl32.Vec4) color.RGBA
}

// windowVertex is a vertex after the perspective divide and viewport transform.
type windowVertex struct {
	x, y, z float32
	invW    float32
}

func toWindow(v vertex, vw, vh int) windowVertex {
	invW := 1 / v.clip.W()
	ndcX, ndcY, ndcZ := v.clip.X()*invW, v.clip.Y()*invW, v.clip.Z()*invW
	return windowVertex{
		x:    (0.5*ndcX + 0.5) * float32(vw),
		y:    (0.5 - 0.5*ndcY) * float32(vh),
		z:    0.5*ndcZ + 0.5,
		invW: invW,
	}
}

func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// fillTriangle rasterizes one triangle into t, sampling at pixel centres. Both windings are
// drawn. Depth is interpolated linearly in window space and the light-space position
// perspective-correctly.
//
// Parameters:
//   - t: the target to draw into
//   - tri: the triangle's vertices
//   - st: the fixed-function state
//
// Returns:
//   - int: the number of covered pixels inside the viewport, whether or not they passed the depth test
func fillTriangle(t *target, tri [3]vertex, st rasterState) int {
	for _, v := range tri {
		if v.clip.W() <= minClipW {
			return 0
		}
	}

	vw, vh := min(st.viewportWidth, t.width), min(st.viewportHeight, t.height)
	p0 := toWindow(tri[0], st.viewportWidth, st.viewportHeight)
	p1 := toWindow(tri[1], st.viewportWidth, st.viewportHeight)
	p2 := toWindow(tri[2], st.viewportWidth, st.viewportHeight)

	area := edge(p0.x, p0.y, p1.x, p1.y, p2.x, p2.y)
	if math32.Abs(area) < 1e-9 {
		return 0
	}

	minX := max(0, int(math32.Floor(min(p0.x, p1.x, p2.x))))
	maxX := min(vw-1, int(math32.Ceil(max(p0.x, p1.x, p2.x))))
	minY := max(0, int(math32.Floor(min(p0.y, p1.y, p2.y))))
	maxY := min(vh-1, int(math32.Ceil(max(p0.y, p1.y, p2.y))))
	if minX > maxX || minY > maxY {
		return 0
	}

	var bias float32
	if st.depthOffset {
		dzdx := ((p1.z-p0.z)*(p2.y-p0.y) - (p2.z-p0.z)*(p1.y-p0.y)) / area
		dzdy := ((p2.z-p0.z)*(p1.x-p0.x) - (p1.z-p0.z)*(p2.x-p0.x)) / area
		bias = st.offsetFactor*max(math32.Abs(dzdx), math32.Abs(dzdy)) + st.offsetUnits*depthResolution
	}

	covered := 0
	for y := minY; y <= maxY; y++ {
		py := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float32(x) + 0.5
			b0 := edge(p1.x, p1.y, p2.x, p2.y, px, py) / area
			b1 := edge(p2.x, p2.y, p0.x, p0.y, px, py) / area
			b2 := edge(p0.x, p0.y, p1.x, p1.y, px, py) / area
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*p0.z + b1*p1.z + b2*p2.z
			if z < 0 || z > 1 {
				continue
			}
			covered++
			z = min(max(z+bias, 0), 1)

			i := y*t.width + x
			if st.depthTest {
				if !(z < t.depth[i]) {
					continue
				}
				t.depth[i] = z
			}

			if st.shade == nil || t.color == nil {
				continue
			}
			w0, w1, w2 := b0*p0.invW, b1*p1.invW, b2*p2.invW
			norm := 1 / (w0 + w1 + w2)
			light := tri[0].light.Mul(w0 * norm).Add(tri[1].light.Mul(w1 * norm)).Add(tri[2].light.Mul(w2 * norm))
			t.color.SetRGBA(x, y, st.shade(light))
		}
	}
	return covered
}

// visibility returns the fraction of the 2×2 texel footprint around a light-space position
// whose stored depth is at or beyond the position's depth: 1 is fully lit, 0 fully occluded.
// Lookups outside the map clamp to its edge.
//
// Parameters:
//   - shadowMap: the depth target written by the shadow pass
//   - light: the position in the light's clip space
//
// Returns:
//   - float32: the lit fraction in [0, 1]
func visibility(shadowMap *target, light mgl32.Vec4) float32 {
	invW := 1 / light.W()
	u := 0.5*light.X()*invW + 0.5
	v := 0.5 - 0.5*light.Y()*invW
	ref := 0.5*light.Z()*invW + 0.5

	tx := u*float32(shadowMap.width) - 0.5
	ty := v*float32(shadowMap.height) - 0.5
	x0, y0 := math32.Floor(tx), math32.Floor(ty)
	fx, fy := tx-x0, ty-y0
	ix, iy := int(x0), int(y0)

	lit := func(x, y int) float32 {
		if ref <= shadowMap.depthAt(x, y) {
			return 1
		}
		return 0
	}
	top := lit(ix, iy)*(1-fx) + lit(ix+1, iy)*fx
	bottom := lit(ix, iy+1)*(1-fx) + lit(ix+1, iy+1)*fx
	return top*(1-fy) + bottom*fy
}

// toRGBA8 converts a linear color with components in [0, 1] to 8-bit channels.
func toRGBA8(c mgl32.Vec4) color.RGBA {
	channel := func(f float32) uint8 {
		return uint8(min(max(f, 0), 1)*255 + 0.5)
	}
	return color.RGBA{R: channel(c.X()), G: channel(c.Y()), B: channel(c.Z()), A: channel(c.W())}
}
