package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrVertexCount is returned by DrawLineLoop when the count does not match the bound outline.
var ErrVertexCount = errors.New("renderer: vertex count does not match bound geometry")

// geometry is the WebGPU GeometryBuffer: an outline stored as its extruded walls.
type geometry struct {
	r        *renderer
	provider bind_group_provider.BindGroupProvider

	// outlineCount is the number of outline vertices the walls were extruded from
	outlineCount int
}

var _ scene.GeometryBuffer = &geometry{}

func (g *geometry) SetData(vertices []mgl32.Vec2) error {
	walls := ExtrudeOutline(vertices)
	if walls == nil {
		return fmt.Errorf("geometry %s: outline needs at least two vertices, got %d", g.provider.Label(), len(vertices))
	}
	if err := g.r.backend.InitVertexBuffer(g.provider, marshalWalls(walls), len(walls)); err != nil {
		return fmt.Errorf("geometry %s: %w", g.provider.Label(), err)
	}
	g.outlineCount = len(vertices)
	return nil
}

func (g *geometry) Bind() error {
	if g.provider.VertexBuffer() == nil {
		return fmt.Errorf("geometry %s holds no data", g.provider.Label())
	}
	g.r.mu.Lock()
	defer g.r.mu.Unlock()
	g.r.state.geometry = g
	return nil
}

func (g *geometry) release() {
	g.provider.Release()
}
