package softraster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiling/engine/light"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/assets"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNothingBound is returned by DrawLineLoop when no program or geometry is bound.
	ErrNothingBound = errors.New("softraster: no program or geometry bound")

	// ErrVertexCount is returned by DrawLineLoop when the count does not match the bound outline.
	ErrVertexCount = errors.New("softraster: vertex count does not match bound geometry")
)

// maxTextureUnits bounds the texture units BindTexture accepts.
const maxTextureUnits = 8

type deviceState struct {
	target       *shadowTarget
	program      *program
	geometry     *geometry
	textureUnits [maxTextureUnits]*shadowTarget

	viewport   [2]int
	clearColor color.RGBA

	depthTest    bool
	depthOffset  bool
	offsetFactor float32
	offsetUnits  float32
}

type rasterizer struct {
	mu *sync.Mutex

	logger   *slog.Logger
	shaderFS fs.FS

	surface *target
	state   deviceState
}

// Rasterizer is a CPU implementation of scene.Device. It draws the same walls as the WebGPU
// renderer into an in-memory RGBA surface, needs no GPU or window, and produces the same
// image for the same sequence of calls.
type Rasterizer interface {
	scene.Device

	// Image returns a copy of the surface.
	//
	// Returns:
	//   - *image.RGBA: the surface, top row first
	Image() *image.RGBA

	// Resize reallocates the surface. Its contents are cleared.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels; non-positive sizes are ignored
	Resize(width, height int)

	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// BeginFrame, EndFrame and Present bracket a frame. Draws execute immediately, so they
	// only exist to match the frame lifecycle of the GPU renderer.
	BeginFrame() error
	EndFrame() error
	Present()

	// Capture returns a copy of the surface, as Image does.
	//
	// Returns:
	//   - *image.RGBA: the surface, top row first
	//   - error: always nil
	Capture() (*image.RGBA, error)
}

var _ Rasterizer = &rasterizer{}

// NewRasterizer creates a Rasterizer with a width×height surface. Shader stage paths resolve
// against the embedded tile shaders unless WithShaderFS says otherwise.
//
// Parameters:
//   - width, height: the surface size in pixels
//   - options: functional options to configure the rasterizer
//
// Returns:
//   - Rasterizer: the new rasterizer
//   - error: error if the size is not positive
func NewRasterizer(width, height int, options ...RasterizerBuilderOption) (Rasterizer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("softraster: invalid surface size %dx%d", width, height)
	}
	r := &rasterizer{
		mu:       &sync.Mutex{},
		logger:   slog.Default(),
		shaderFS: assets.FS,
		surface:  newTarget(width, height, true),
	}
	for _, option := range options {
		option(r)
	}
	r.logger = r.logger.With("component", "softraster")
	r.state.viewport = [2]int{width, height}
	r.logger.Debug("rasterizer ready", "width", width, "height", height)
	return r, nil
}

func (r *rasterizer) NewShaderProgram(label string) (scene.ShaderProgram, error) {
	return &program{r: r, label: label}, nil
}

func (r *rasterizer) NewGeometryBuffer(label string) (scene.GeometryBuffer, error) {
	return &geometry{r: r, label: label}, nil
}

func (r *rasterizer) NewShadowTarget(width, height int) (scene.ShadowTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid shadow target size %dx%d", width, height)
	}
	return &shadowTarget{r: r, target: newTarget(width, height, false)}, nil
}

func (r *rasterizer) Viewport(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.viewport = [2]int{width, height}
}

func (r *rasterizer) ClearColor(red, green, blue, alpha float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.clearColor = toRGBA8(mgl32.Vec4{red, green, blue, alpha})
}

func (r *rasterizer) Clear(mask scene.ClearMask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c *color.RGBA
	if mask&scene.ClearColorBuffer != 0 {
		c = &r.state.clearColor
	}
	r.boundTarget().clear(c, mask&scene.ClearDepthBuffer != 0)
	return nil
}

func (r *rasterizer) SetDepthTest(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.depthTest = enabled
}

func (r *rasterizer) SetDepthOffset(enabled bool, factor, units float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.depthOffset = enabled
	r.state.offsetFactor = factor
	r.state.offsetUnits = units
}

func (r *rasterizer) DrawLineLoop(vertexCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.drawLineLoop(vertexCount)
	return err
}

// drawLineLoop extrudes every segment of the bound outline into a wall quad and rasterizes it.
// Caller must hold the mutex.
//
// Returns:
//   - int: the number of pixels the walls covered
//   - error: error if the bound state cannot draw
func (r *rasterizer) drawLineLoop(vertexCount int) (int, error) {
	s := &r.state
	if s.program == nil || s.geometry == nil {
		return 0, ErrNothingBound
	}
	outline := s.geometry.outline
	if vertexCount != len(outline) {
		return 0, fmt.Errorf("%w: drew %d, bound %d", ErrVertexCount, vertexCount, len(outline))
	}

	p := s.program
	st := rasterState{
		viewportWidth:  s.viewport[0],
		viewportHeight: s.viewport[1],
		depthTest:      s.depthTest,
		depthOffset:    s.depthOffset,
		offsetFactor:   s.offsetFactor,
		offsetUnits:    s.offsetUnits,
	}
	if st.viewportWidth <= 0 || st.viewportHeight <= 0 {
		return 0, nil
	}

	if p.samplesShadow() && s.target == nil {
		shadowMap := s.textureUnits[p.textureUnit]
		if shadowMap == nil {
			return 0, fmt.Errorf("program %s samples texture unit %d but nothing is bound to it", p.label, p.textureUnit)
		}
		tint := p.vec3(scene.UniformColor)
		st.shade = func(lightPos mgl32.Vec4) color.RGBA {
			lit := visibility(shadowMap.target, lightPos)
			shade := light.ShadowAttenuation + (1-light.ShadowAttenuation)*lit
			return toRGBA8(tint.Mul(shade).Vec4(1))
		}
	}

	viewProjection := p.mat4(scene.UniformViewProjection)
	model := p.mat4(scene.UniformModel)
	lightViewProjection := p.mat4(scene.UniformLightViewProjection)
	height := p.float(scene.UniformHeight)

	corner := func(v mgl32.Vec2, z float32) vertex {
		world := model.Mul4x1(mgl32.Vec4{v.X(), v.Y(), z, 1})
		return vertex{
			clip:  viewProjection.Mul4x1(world),
			light: lightViewProjection.Mul4x1(world),
		}
	}

	dst := r.boundTarget()
	covered := 0
	n := len(outline)
	for i, a := range outline {
		b := outline[(i+1)%n]
		a0, b0 := corner(a, 0), corner(b, 0)
		a1, b1 := corner(a, height), corner(b, height)
		covered += fillTriangle(dst, [3]vertex{a0, b0, b1}, st)
		covered += fillTriangle(dst, [3]vertex{a0, b1, a1}, st)
	}
	return covered, nil
}

// boundTarget returns the bound shadow target, or the surface. Caller must hold the mutex.
func (r *rasterizer) boundTarget() *target {
	if r.state.target != nil {
		return r.state.target.target
	}
	return r.surface
}

func (r *rasterizer) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.surface.color
	out := image.NewRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

func (r *rasterizer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surface = newTarget(width, height, true)
	r.logger.Debug("surface resized", "width", width, "height", height)
}

func (r *rasterizer) Width() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.width
}

func (r *rasterizer) Height() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.height
}

func (r *rasterizer) BeginFrame() error {
	return nil
}

func (r *rasterizer) EndFrame() error {
	return nil
}

func (r *rasterizer) Present() {}

func (r *rasterizer) Capture() (*image.RGBA, error) {
	return r.Image(), nil
}
