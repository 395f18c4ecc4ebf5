package softraster

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// geometry keeps the closed outline; walls are extruded at draw time.
type geometry struct {
	r       *rasterizer
	label   string
	outline []mgl32.Vec2
}

var _ scene.GeometryBuffer = &geometry{}

func (g *geometry) SetData(vertices []mgl32.Vec2) error {
	if len(vertices) < 2 {
		return fmt.Errorf("geometry %s: outline needs at least two vertices, got %d", g.label, len(vertices))
	}
	g.r.mu.Lock()
	defer g.r.mu.Unlock()
	g.outline = slices.Clone(vertices)
	return nil
}

func (g *geometry) Bind() error {
	g.r.mu.Lock()
	defer g.r.mu.Unlock()
	if g.outline == nil {
		return fmt.Errorf("geometry %s holds no data", g.label)
	}
	g.r.state.geometry = g
	return nil
}

// shadowTarget is a depth-only target sampled with 2×2 percentage-closer filtering.
type shadowTarget struct {
	r      *rasterizer
	target *target
}

var _ scene.ShadowTarget = &shadowTarget{}

func (t *shadowTarget) Bind() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.state.target = t
	return nil
}

func (t *shadowTarget) Unbind() error {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if t.r.state.target == t {
		t.r.state.target = nil
	}
	return nil
}

func (t *shadowTarget) BindTexture(unit int) error {
	if unit < 0 || unit >= maxTextureUnits {
		return fmt.Errorf("texture unit %d out of range [0, %d)", unit, maxTextureUnits)
	}
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	t.r.state.textureUnits[unit] = t
	return nil
}

func (t *shadowTarget) Width() int {
	return t.target.width
}

func (t *shadowTarget) Height() int {
	return t.target.height
}

// Depth returns the stored depth of a texel, 1 where nothing was drawn.
//
// Parameters:
//   - x, y: the texel, row 0 at the top; clamped to the edge
//
// Returns:
//   - float32: the depth in [0, 1]
func (t *shadowTarget) Depth(x, y int) float32 {
	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	return t.target.depthAt(x, y)
}
