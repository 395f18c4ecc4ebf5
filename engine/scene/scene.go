package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiling/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiling/engine/light"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNilDevice is returned by NewScene when no device is supplied.
var ErrNilDevice = errors.New("scene: nil device")

// ShaderPaths names the shader sources the two programs are built from.
type ShaderPaths struct {
	ShadowVertex string
	Vertex       string
	Fragment     string
}

// DefaultShaderPaths are the sources bundled with the renderer assets.
var DefaultShaderPaths = ShaderPaths{
	ShadowVertex: "shadow.vert.wgsl",
	Vertex:       "tile.vert.wgsl",
	Fragment:     "tile.frag.wgsl",
}

// DefaultTileColor is the flat color of lit tile walls.
var DefaultTileColor = mgl32.Vec3{1, 1, 1}

// shadowTextureUnit is the texture unit the shadow map is bound to during the color pass.
const shadowTextureUnit = 0

// Scene owns the tiling, its clock and the device resources needed to draw it. Every frame is
// a shadow pass from the light followed by a color pass from the camera, both walking the same
// instance list.
type Scene interface {
	// RenderAndStep draws one frame at the current scene time and then advances the clock by dt.
	// A negative, NaN or +Inf dt is rejected before anything is drawn.
	//
	// Parameters:
	//   - dt: elapsed time in seconds, must be finite and >= 0
	//
	// Returns:
	//   - error: ErrNegativeDelta, or the wrapped device error that aborted the frame
	RenderAndStep(dt float32) error

	// Time returns the scene clock value the next frame will render at.
	Time() float32

	// Instances returns a copy of the tile instances of the last rendered frame.
	Instances() []tiling.Instance

	// Transforms returns the matrices of the last rendered frame.
	Transforms() Transforms

	// HeightField returns the per-slot phases the scene animates.
	HeightField() *tiling.HeightField

	// Camera returns the color pass camera.
	Camera() camera.Camera

	// Light returns the shadow-casting light.
	Light() light.Light

	// Viewport returns the window size the color pass renders at.
	Viewport() (width, height int)

	// Resize updates the color pass viewport and the camera aspect ratio.
	// Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width, height: the new framebuffer size in pixels
	Resize(width, height int)
}

type scene struct {
	mu *sync.Mutex

	device Device
	logger *slog.Logger

	grid             tiling.Grid
	src              tiling.Source
	width            int
	height           int
	shadowResolution int
	color            mgl32.Vec3
	shaderPaths      ShaderPaths

	cam      camera.Camera
	light    light.Light
	composer *Composer
	field    *tiling.HeightField
	clock    Clock

	shadowProgram ShaderProgram
	mainProgram   ShaderProgram
	geometry      [len(tiling.Shapes)]GeometryBuffer
	shadowTarget  ShadowTarget

	instances  []tiling.Instance
	transforms Transforms
}

var _ Scene = &scene{}

// NewScene creates the programs, the two outline buffers, the shadow target and the height
// field on the given device. Any failure is returned wrapped and leaves no usable scene.
//
// Parameters:
//   - device: the device all resources are created on
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the initialized scene
//   - error: error if the options are invalid or a device resource could not be created
func NewScene(device Device, options ...SceneBuilderOption) (Scene, error) {
	if device == nil {
		return nil, ErrNilDevice
	}

	s := &scene{
		mu:               &sync.Mutex{},
		device:           device,
		logger:           slog.Default(),
		grid:             tiling.DefaultGrid,
		width:            800,
		height:           800,
		shadowResolution: light.ShadowMapResolution,
		color:            DefaultTileColor,
		shaderPaths:      DefaultShaderPaths,
	}
	for _, option := range options {
		option(s)
	}
	s.logger = s.logger.With("component", "scene")

	if err := s.grid.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	if s.width <= 0 || s.height <= 0 {
		return nil, fmt.Errorf("scene: invalid viewport %dx%d", s.width, s.height)
	}
	if s.shadowResolution <= 0 {
		return nil, fmt.Errorf("scene: invalid shadow resolution %d", s.shadowResolution)
	}

	if s.cam == nil {
		s.cam = camera.NewCamera(camera.WithViewport(s.width, s.height))
	}
	if s.light == nil {
		s.light = light.NewLight()
	}
	s.composer = NewComposer(s.cam, s.light)
	tf := s.composer.Compose()
	if coverage := MeasureShadowCoverage(s.grid, tf.Model, tf.LightViewProjection); !coverage.Complete() {
		s.logger.Debug("tiles reach past the shadow map",
			"inside", coverage.Inside,
			"clipped", coverage.Intersecting,
			"outside", coverage.Outside,
		)
	}

	var err error
	s.shadowProgram, err = s.newProgram("shadow",
		stageSource{ShaderStageVertex, s.shaderPaths.ShadowVertex},
	)
	if err != nil {
		return nil, err
	}
	s.mainProgram, err = s.newProgram("main",
		stageSource{ShaderStageVertex, s.shaderPaths.Vertex},
		stageSource{ShaderStageFragment, s.shaderPaths.Fragment},
	)
	if err != nil {
		return nil, err
	}

	for _, shape := range tiling.Shapes {
		buf, err := device.NewGeometryBuffer(shape.String())
		if err != nil {
			return nil, fmt.Errorf("scene: create %s geometry: %w", shape, err)
		}
		if err := buf.SetData(shape.Outline()); err != nil {
			return nil, fmt.Errorf("scene: upload %s geometry: %w", shape, err)
		}
		s.geometry[shape] = buf
	}

	s.shadowTarget, err = device.NewShadowTarget(s.shadowResolution, s.shadowResolution)
	if err != nil {
		return nil, fmt.Errorf("scene: create shadow target: %w", err)
	}

	s.field = tiling.NewHeightField(s.grid, s.src)
	s.instances = make([]tiling.Instance, 0, s.grid.Count(tiling.Hexagon)+s.grid.Count(tiling.Diamond))

	s.logger.Debug("scene initialized",
		"rows", s.grid.Rows,
		"columns", s.grid.Columns,
		"tiles", cap(s.instances),
		"shadow_resolution", s.shadowResolution,
	)
	return s, nil
}

type stageSource struct {
	stage ShaderStage
	path  string
}

func (s *scene) newProgram(label string, stages ...stageSource) (ShaderProgram, error) {
	p, err := s.device.NewShaderProgram(label)
	if err != nil {
		return nil, fmt.Errorf("scene: create %s program: %w", label, err)
	}
	for _, st := range stages {
		if err := p.AddShaderStage(st.stage, st.path); err != nil {
			return nil, fmt.Errorf("scene: %s program %s stage %q: %w", label, st.stage, st.path, err)
		}
	}
	if err := p.Link(); err != nil {
		return nil, fmt.Errorf("scene: link %s program: %w", label, err)
	}
	return p, nil
}

func (s *scene) RenderAndStep(dt float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validDelta(dt) {
		return ErrNegativeDelta
	}

	s.transforms = s.composer.Compose()
	s.instances = tiling.AppendInstances(s.instances[:0], s.field, s.transforms.Model, s.clock.Now())

	if err := s.shadowPass(); err != nil {
		return fmt.Errorf("scene: shadow pass: %w", err)
	}
	if err := s.colorPass(); err != nil {
		return fmt.Errorf("scene: color pass: %w", err)
	}
	return s.clock.Advance(dt)
}

// shadowPass renders the depth of every tile as seen from the light into the shadow target.
func (s *scene) shadowPass() error {
	s.device.Viewport(s.shadowTarget.Width(), s.shadowTarget.Height())
	if err := s.shadowTarget.Bind(); err != nil {
		return err
	}
	if err := s.device.Clear(ClearDepthBuffer); err != nil {
		return err
	}
	// the nearest surface must win in the depth map
	s.device.SetDepthTest(true)
	if err := s.shadowProgram.Bind(); err != nil {
		return err
	}
	if err := s.shadowProgram.SetUniform(UniformViewProjection, s.transforms.LightViewProjection); err != nil {
		return err
	}

	s.device.SetDepthOffset(true, light.DepthOffsetFactor, light.DepthOffsetUnits)
	if err := s.drawInstances(s.shadowProgram); err != nil {
		return err
	}
	s.device.SetDepthOffset(false, 0, 0)

	return s.shadowTarget.Unbind()
}

// colorPass renders every tile from the camera, sampling the shadow target for occlusion.
func (s *scene) colorPass() error {
	s.device.Viewport(s.width, s.height)
	s.device.ClearColor(0, 0, 0, 0)
	if err := s.device.Clear(ClearColorBuffer | ClearDepthBuffer); err != nil {
		return err
	}
	s.device.SetDepthTest(true)
	if err := s.shadowTarget.BindTexture(shadowTextureUnit); err != nil {
		return err
	}
	if err := s.mainProgram.Bind(); err != nil {
		return err
	}

	uniforms := []struct {
		name  string
		value any
	}{
		{UniformViewProjection, s.transforms.CameraViewProjection},
		{UniformLightPosition, s.light.Position()},
		{UniformColor, s.color},
		{UniformLightViewProjection, s.transforms.LightViewProjection},
		{UniformShadowMap, shadowTextureUnit},
	}
	for _, u := range uniforms {
		if err := s.mainProgram.SetUniform(u.name, u.value); err != nil {
			return fmt.Errorf("set %s: %w", u.name, err)
		}
	}

	return s.drawInstances(s.mainProgram)
}

// drawInstances issues one line-loop draw per tile, rebinding geometry only when the shape changes.
func (s *scene) drawInstances(p ShaderProgram) error {
	bound := tiling.Shape(-1)
	for i := range s.instances {
		inst := &s.instances[i]
		if inst.Shape != bound {
			if err := s.geometry[inst.Shape].Bind(); err != nil {
				return fmt.Errorf("bind %s geometry: %w", inst.Shape, err)
			}
			bound = inst.Shape
		}
		if err := p.SetUniform(UniformModel, inst.Model); err != nil {
			return fmt.Errorf("set %s: %w", UniformModel, err)
		}
		if err := p.SetUniform(UniformHeight, inst.Height); err != nil {
			return fmt.Errorf("set %s: %w", UniformHeight, err)
		}
		if err := s.device.DrawLineLoop(inst.Shape.VertexCount()); err != nil {
			return fmt.Errorf("draw %s %v: %w", inst.Shape, inst.Slot, err)
		}
	}
	return nil
}

func (s *scene) Time() float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Now()
}

func (s *scene) Instances() []tiling.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.instances)
}

func (s *scene) Transforms() Transforms {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transforms
}

func (s *scene) HeightField() *tiling.HeightField {
	return s.field
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Light() light.Light {
	return s.light
}

func (s *scene) Viewport() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.cam.SetViewport(width, height)
	s.logger.Debug("viewport resized", "width", width, "height", height)
}
