package renderer

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/assets"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiling/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoFrame is returned by Clear and DrawLineLoop outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrNothingBound is returned by DrawLineLoop when no program or geometry is bound.
	ErrNothingBound = errors.New("renderer: no program or geometry bound")
)

// deviceState is the bound state that device calls read and write, mirroring a GL context.
type deviceState struct {
	target       *shadowTarget
	program      *program
	geometry     *geometry
	textureUnits [maxTextureUnits]*shadowTarget

	viewport   [2]int
	clearColor wgpu.Color

	depthTest    bool
	depthOffset  bool
	offsetFactor float32
	offsetUnits  float32
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend
	logger      *slog.Logger
	shaderFS    fs.FS

	state   deviceState
	frame   frameRecord
	inFrame bool
	sampler *wgpu.Sampler

	programs   []*program
	geometries []*geometry
	targets    []*shadowTarget

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	captureEnabled       bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer is the WebGPU implementation of scene.Device.
//
// Device calls made between BeginFrame and EndFrame are recorded into render passes: a Clear or
// a change of bound target starts a new pass, and every draw snapshots the bound program's
// uniforms. EndFrame uploads the snapshots and encodes the passes in order.
type Renderer interface {
	scene.Device

	// BeginFrame acquires the swapchain texture and starts recording a frame.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if a frame is already in progress or the swapchain texture could not be acquired
	BeginFrame() error

	// EndFrame encodes the recorded passes and submits them to the GPU.
	// Does not present the surface; call Present after EndFrame to display the frame.
	//
	// Returns:
	//   - error: an error if no frame is in progress or encoding fails
	EndFrame() error

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// Capture returns a copy of the last submitted frame.
	//
	// Returns:
	//   - *image.RGBA: the frame, top row first
	//   - error: an error if the renderer was built without WithCapture or no frame was submitted
	Capture() (*image.RGBA, error)

	// Release frees every program, geometry buffer and shadow target created by the renderer,
	// then the GPU device itself.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type, drawing into the
// window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		logger:      slog.Default(),
		shaderFS:    assets.FS,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}
	r.logger = r.logger.With("component", "renderer")

	msaa := MSAA4x // default
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, r.captureEnabled)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(win.Width(), win.Height())
	r.state.viewport = [2]int{win.Width(), win.Height()}
	r.logger.Info("renderer ready",
		"surface_format", r.backend.SurfaceFormat(),
		"msaa", uint32(msaa),
		"capture", r.captureEnabled,
	)
	return r
}

func (r *renderer) NewShaderProgram(label string) (scene.ShaderProgram, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &program{
		r:             r,
		label:         label,
		textureGroups: make(map[*shadowTarget]bind_group_provider.BindGroupProvider),
		pipelines:     make(map[pipeline.Variant]pipeline.Pipeline),
	}
	r.programs = append(r.programs, p)
	return p, nil
}

func (r *renderer) NewGeometryBuffer(label string) (scene.GeometryBuffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &geometry{
		r:        r,
		provider: bind_group_provider.NewBindGroupProvider(label),
	}
	r.geometries = append(r.geometries, g)
	return g, nil
}

func (r *renderer) NewShadowTarget(width, height int) (scene.ShadowTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid shadow target size %dx%d", width, height)
	}
	view, texture, err := r.backend.CreateShadowDepthTexture(width, height)
	if err != nil {
		return nil, fmt.Errorf("shadow target: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	t := &shadowTarget{
		r:       r,
		texture: texture,
		view:    view,
		width:   width,
		height:  height,
	}
	r.targets = append(r.targets, t)
	return t, nil
}

func (r *renderer) Viewport(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.viewport = [2]int{width, height}
}

func (r *renderer) ClearColor(red, green, blue, alpha float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.clearColor = wgpu.Color{R: float64(red), G: float64(green), B: float64(blue), A: float64(alpha)}
}

func (r *renderer) Clear(mask scene.ClearMask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	var color *wgpu.Color
	if mask&scene.ClearColorBuffer != 0 {
		color = &r.state.clearColor
	}
	r.frame.clear(r.state.target, color, mask&scene.ClearDepthBuffer != 0)
	return nil
}

func (r *renderer) SetDepthTest(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.depthTest = enabled
}

func (r *renderer) SetDepthOffset(enabled bool, factor, units float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.depthOffset = enabled
	r.state.offsetFactor = factor
	r.state.offsetUnits = units
}

func (r *renderer) DrawLineLoop(vertexCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	s := &r.state
	if s.program == nil || s.geometry == nil {
		return ErrNothingBound
	}
	if vertexCount != s.geometry.outlineCount {
		return fmt.Errorf("%w: drew %d, bound %d", ErrVertexCount, vertexCount, s.geometry.outlineCount)
	}

	v := pipeline.Variant{
		Program:   s.program.label,
		DepthOnly: s.target != nil,
		DepthTest: s.depthTest,
	}
	if s.depthOffset {
		v.DepthOffset = true
		v.OffsetFactor = s.offsetFactor
		v.OffsetUnits = s.offsetUnits
	}
	pl, err := s.program.pipelineFor(v)
	if err != nil {
		return err
	}

	var shadowMap *shadowTarget
	if s.program.samplesTexture() {
		shadowMap = s.textureUnits[s.program.textureUnit]
		if shadowMap == nil {
			return fmt.Errorf("program %s samples texture unit %d but nothing is bound to it", s.program.label, s.program.textureUnit)
		}
		if shadowMap == s.target {
			return fmt.Errorf("program %s samples the shadow target it renders into", s.program.label)
		}
		// created now so EndFrame only encodes
		if _, err := s.program.textureBindGroup(shadowMap); err != nil {
			return err
		}
	}

	r.frame.draw(s.target, drawRecord{
		pipeline:      pl,
		program:       s.program,
		geometry:      s.geometry,
		uniformOffset: s.program.arena.push(s.program.staging),
		shadowMap:     shadowMap,
		viewport:      r.clampViewport(),
	})
	return nil
}

// clampViewport bounds the viewport by the bound target. Caller must hold the mutex.
func (r *renderer) clampViewport() [2]int {
	w, h := r.state.viewport[0], r.state.viewport[1]
	var tw, th int
	if t := r.state.target; t != nil {
		tw, th = t.width, t.height
	} else {
		tw, th = r.backend.SurfaceSize()
	}
	return [2]int{max(1, min(w, tw)), max(1, min(h, th))}
}

// comparisonSampler returns the sampler shared by every shadow map bind group.
// Caller must hold the mutex.
func (r *renderer) comparisonSampler() (*wgpu.Sampler, error) {
	if r.sampler != nil {
		return r.sampler, nil
	}
	s, err := r.backend.CreateComparisonSampler()
	if err != nil {
		return nil, fmt.Errorf("comparison sampler: %w", err)
	}
	r.sampler = s
	return s, nil
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inFrame {
		return errors.New("frame already in progress")
	}
	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	r.inFrame = true
	return nil
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inFrame {
		return ErrNoFrame
	}
	defer r.resetFrame()

	var writes []bind_group_provider.BufferWrite
	for _, p := range r.programs {
		w, err := p.flush()
		if err != nil {
			r.backend.DiscardFrame()
			return err
		}
		writes = append(writes, w...)
	}
	if len(writes) > 0 {
		r.backend.WriteBuffers(writes)
	}

	for _, pass := range r.frame.passes {
		if pass.target != nil {
			r.backend.BeginShadowPass(pass.target.view, pass.clearDepth)
		} else {
			r.backend.BeginColorPass(pass.clearColor, pass.clearDepth)
		}
		for _, d := range pass.draws {
			groups, err := d.program.bindGroups(d.shadowMap)
			if err != nil {
				r.backend.EndPass()
				r.backend.DiscardFrame()
				return err
			}
			r.backend.DrawCall(d.pipeline, d.geometry.provider, d.uniformOffset, groups, d.viewport[0], d.viewport[1])
		}
		r.backend.EndPass()
	}

	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

// resetFrame drops the recorded passes and uniform snapshots. Caller must hold the mutex.
func (r *renderer) resetFrame() {
	r.frame.reset()
	for _, p := range r.programs {
		p.arena.reset()
	}
	r.inFrame = false
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Capture() (*image.RGBA, error) {
	return r.backend.Capture()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.programs {
		p.release()
	}
	for _, g := range r.geometries {
		g.release()
	}
	for _, t := range r.targets {
		t.release()
	}
	if r.sampler != nil {
		r.sampler.Release()
		r.sampler = nil
	}
	r.programs, r.geometries, r.targets = nil, nil, nil
	r.state = deviceState{}
	r.backend.Release()
}
