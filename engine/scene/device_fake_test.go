package scene

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

var errFake = errors.New("fake device failure")

// recordedDraw captures the uniform state of a program at the time of a draw.
type recordedDraw struct {
	program     string
	vertexCount int
	model       mgl32.Mat4
	height      float32
}

// fakeDevice records every call as a short string so tests can assert ordering.
type fakeDevice struct {
	calls []string
	draws []recordedDraw

	programs map[string]*fakeProgram
	bound    *fakeProgram

	knownSources map[string]bool
	failDraw     bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		programs: map[string]*fakeProgram{},
		knownSources: map[string]bool{
			DefaultShaderPaths.ShadowVertex: true,
			DefaultShaderPaths.Vertex:       true,
			DefaultShaderPaths.Fragment:     true,
		},
	}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) reset() {
	d.calls = nil
	d.draws = nil
}

func (d *fakeDevice) NewShaderProgram(label string) (ShaderProgram, error) {
	d.record("program %s", label)
	p := &fakeProgram{device: d, label: label, values: map[string]any{}}
	d.programs[label] = p
	return p, nil
}

func (d *fakeDevice) NewGeometryBuffer(label string) (GeometryBuffer, error) {
	d.record("geometry %s", label)
	return &fakeGeometry{device: d, label: label}, nil
}

func (d *fakeDevice) NewShadowTarget(width, height int) (ShadowTarget, error) {
	d.record("shadow target %dx%d", width, height)
	return &fakeShadowTarget{device: d, width: width, height: height}, nil
}

func (d *fakeDevice) Viewport(width, height int) {
	d.record("viewport %dx%d", width, height)
}

func (d *fakeDevice) ClearColor(r, g, b, a float32) {
	d.record("clear color %v %v %v %v", r, g, b, a)
}

func (d *fakeDevice) Clear(mask ClearMask) error {
	var parts []string
	if mask&ClearColorBuffer != 0 {
		parts = append(parts, "color")
	}
	if mask&ClearDepthBuffer != 0 {
		parts = append(parts, "depth")
	}
	d.record("clear %s", strings.Join(parts, "|"))
	return nil
}

func (d *fakeDevice) SetDepthTest(enabled bool) {
	d.record("depth test %v", enabled)
}

func (d *fakeDevice) SetDepthOffset(enabled bool, factor, units float32) {
	d.record("depth offset %v %v %v", enabled, factor, units)
}

func (d *fakeDevice) DrawLineLoop(vertexCount int) error {
	d.record("draw %d", vertexCount)
	if d.failDraw {
		return errFake
	}
	draw := recordedDraw{vertexCount: vertexCount}
	if d.bound != nil {
		draw.program = d.bound.label
		draw.model, _ = d.bound.values[UniformModel].(mgl32.Mat4)
		draw.height, _ = d.bound.values[UniformHeight].(float32)
	}
	d.draws = append(d.draws, draw)
	return nil
}

type fakeProgram struct {
	device *fakeDevice
	label  string
	values map[string]any
}

func (p *fakeProgram) AddShaderStage(stage ShaderStage, sourcePath string) error {
	p.device.record("%s add %s %s", p.label, stage, sourcePath)
	if !p.device.knownSources[sourcePath] {
		return fmt.Errorf("open %s: %w", sourcePath, errFake)
	}
	return nil
}

func (p *fakeProgram) Link() error {
	p.device.record("%s link", p.label)
	return nil
}

func (p *fakeProgram) Bind() error {
	p.device.record("%s bind", p.label)
	p.device.bound = p
	return nil
}

func (p *fakeProgram) SetUniform(name string, value any) error {
	p.device.record("%s uniform %s", p.label, name)
	p.values[name] = value
	return nil
}

type fakeGeometry struct {
	device *fakeDevice
	label  string
}

func (g *fakeGeometry) SetData(vertices []mgl32.Vec2) error {
	g.device.record("%s data %d", g.label, len(vertices))
	return nil
}

func (g *fakeGeometry) Bind() error {
	g.device.record("%s bind", g.label)
	return nil
}

type fakeShadowTarget struct {
	device        *fakeDevice
	width, height int
}

func (t *fakeShadowTarget) Bind() error {
	t.device.record("target bind")
	return nil
}

func (t *fakeShadowTarget) Unbind() error {
	t.device.record("target unbind")
	return nil
}

func (t *fakeShadowTarget) BindTexture(unit int) error {
	t.device.record("target texture %d", unit)
	return nil
}

func (t *fakeShadowTarget) Width() int  { return t.width }
func (t *fakeShadowTarget) Height() int { return t.height }
