package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// maxTextureUnits bounds the texture units BindTexture accepts.
const maxTextureUnits = 8

// shadowTarget is the WebGPU ShadowTarget: a Depth32Float texture rendered by depth-only
// passes and sampled with a comparison sampler.
type shadowTarget struct {
	r             *renderer
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height int
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
	return t.width
}

func (t *shadowTarget) Height() int {
	return t.height
}

func (t *shadowTarget) release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
