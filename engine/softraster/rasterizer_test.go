package softraster

import (
	"image/color"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRasterizer(t *testing.T, width, height int) *rasterizer {
	t.Helper()
	r, err := NewRasterizer(width, height)
	require.NoError(t, err)
	return r.(*rasterizer)
}

func newProgram(t *testing.T, r *rasterizer, stages map[scene.ShaderStage]string) scene.ShaderProgram {
	t.Helper()
	p, err := r.NewShaderProgram("test")
	require.NoError(t, err)
	for stage, path := range stages {
		require.NoError(t, p.AddShaderStage(stage, path))
	}
	require.NoError(t, p.Link())
	return p
}

func shadowProgram(t *testing.T, r *rasterizer) scene.ShaderProgram {
	return newProgram(t, r, map[scene.ShaderStage]string{
		scene.ShaderStageVertex: scene.DefaultShaderPaths.ShadowVertex,
	})
}

func mainProgram(t *testing.T, r *rasterizer) scene.ShaderProgram {
	return newProgram(t, r, map[scene.ShaderStage]string{
		scene.ShaderStageVertex:   scene.DefaultShaderPaths.Vertex,
		scene.ShaderStageFragment: scene.DefaultShaderPaths.Fragment,
	})
}

// sideLight looks along +y from y = -10 with +z up, so walls in the xz plane face it.
func sideLight() mgl32.Mat4 {
	view := mgl32.LookAtV(mgl32.Vec3{0, -10, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	return mgl32.Ortho(-5, 5, -5, 5, 1, 20).Mul4(view)
}

func TestNewRasterizerRejectsEmptySurface(t *testing.T) {
	_, err := NewRasterizer(0, 10)
	assert.Error(t, err)
}

func TestProgramLinkAndUniforms(t *testing.T) {
	r := newRasterizer(t, 8, 8)
	p := mainProgram(t, r)

	assert.NoError(t, p.SetUniform(scene.UniformHeight, float32(2)))
	assert.NoError(t, p.SetUniform(scene.UniformColor, mgl32.Vec3{1, 0, 0}))
	assert.NoError(t, p.SetUniform(scene.UniformModel, mgl32.Ident4()))
	assert.NoError(t, p.SetUniform(scene.UniformShadowMap, 3))
	assert.Equal(t, 3, p.(*program).textureUnit)

	assert.ErrorIs(t, p.SetUniform("nope", float32(1)), ErrUnknownUniform)
	assert.ErrorIs(t, p.SetUniform(scene.UniformHeight, 2.0), ErrUniformType)
	assert.ErrorIs(t, p.SetUniform(scene.UniformColor, mgl32.Vec4{}), ErrUniformType)
	assert.ErrorIs(t, p.SetUniform(scene.UniformShadowMap, float32(0)), ErrUniformType)
	assert.Error(t, p.SetUniform(scene.UniformShadowMap, maxTextureUnits))

	shadow := shadowProgram(t, r)
	assert.ErrorIs(t, shadow.SetUniform(scene.UniformColor, mgl32.Vec3{}), ErrUnknownUniform)
}

func TestProgramErrors(t *testing.T) {
	r := newRasterizer(t, 8, 8)

	p, err := r.NewShaderProgram("missing")
	require.NoError(t, err)
	assert.ErrorIs(t, p.AddShaderStage(scene.ShaderStageVertex, "missing.wgsl"), fs.ErrNotExist)
	assert.Error(t, p.Link(), "no vertex stage")
	assert.ErrorIs(t, p.Bind(), ErrNotLinked)
	assert.ErrorIs(t, p.SetUniform(scene.UniformHeight, float32(1)), ErrNotLinked)

	// a vertex stage that does not declare the tile uniforms cannot drive the walls
	custom, err := NewRasterizer(8, 8, WithShaderFS(fstest.MapFS{
		"bare.wgsl": &fstest.MapFile{Data: []byte(`
struct U { scale: f32, };
@group(0) @binding(0) var<uniform> u: U;
struct In { @location(0) position: vec3<f32>, };
@vertex
fn vs_main(in: In) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in.position * u.scale, 1.0);
}
`)},
	}))
	require.NoError(t, err)
	bare, err := custom.NewShaderProgram("bare")
	require.NoError(t, err)
	require.NoError(t, bare.AddShaderStage(scene.ShaderStageVertex, "bare.wgsl"))
	assert.Error(t, bare.Link())
}

func TestDrawRequiresBoundState(t *testing.T) {
	r := newRasterizer(t, 8, 8)
	assert.ErrorIs(t, r.DrawLineLoop(4), ErrNothingBound)

	p := shadowProgram(t, r)
	require.NoError(t, p.Bind())
	assert.ErrorIs(t, r.DrawLineLoop(4), ErrNothingBound)

	g, err := r.NewGeometryBuffer("square")
	require.NoError(t, err)
	assert.Error(t, g.Bind(), "no data yet")
	assert.Error(t, g.SetData([]mgl32.Vec2{{0, 0}}))
	require.NoError(t, g.SetData([]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}))
	require.NoError(t, g.Bind())

	assert.ErrorIs(t, r.DrawLineLoop(6), ErrVertexCount)
	assert.NoError(t, r.DrawLineLoop(4))

	// the color program needs a shadow map on its texture unit
	m := mainProgram(t, r)
	require.NoError(t, m.Bind())
	assert.Error(t, r.DrawLineLoop(4))
}

func TestClear(t *testing.T) {
	r := newRasterizer(t, 4, 4)
	r.ClearColor(1, 0, 0, 1)
	require.NoError(t, r.Clear(scene.ClearColorBuffer|scene.ClearDepthBuffer))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r.Image().RGBAAt(3, 3))

	// the copy is detached from the surface
	img := r.Image()
	img.SetRGBA(0, 0, color.RGBA{})
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, r.Image().RGBAAt(0, 0))

	r.Resize(6, 2)
	assert.Equal(t, 6, r.Width())
	assert.Equal(t, 2, r.Height())
	assert.Equal(t, color.RGBA{}, r.Image().RGBAAt(5, 1))
}

// TestOccludedWallSamplesShadowed puts a tall wall between the light and a short one: the
// shadow map must hold the tall wall's depth, the short wall must sample as shadowed and the
// tall wall as lit.
func TestOccludedWallSamplesShadowed(t *testing.T) {
	r := newRasterizer(t, 64, 64)
	lightVP := sideLight()

	st, err := r.NewShadowTarget(128, 128)
	require.NoError(t, err)
	wall, err := r.NewGeometryBuffer("wall")
	require.NoError(t, err)
	require.NoError(t, wall.SetData([]mgl32.Vec2{{-1, 0}, {1, 0}}))

	tall := mgl32.Translate3D(0, -1, 0)
	short := mgl32.Translate3D(0, 1, 0)

	// shadow pass
	sp := shadowProgram(t, r)
	r.Viewport(st.Width(), st.Height())
	require.NoError(t, st.Bind())
	require.NoError(t, r.Clear(scene.ClearDepthBuffer))
	r.SetDepthTest(true)
	require.NoError(t, sp.Bind())
	require.NoError(t, sp.SetUniform(scene.UniformViewProjection, lightVP))
	r.SetDepthOffset(true, 4, 4)
	require.NoError(t, wall.Bind())
	for _, w := range []struct {
		model  mgl32.Mat4
		height float32
	}{{tall, 3}, {short, 1}} {
		require.NoError(t, sp.SetUniform(scene.UniformModel, w.model))
		require.NoError(t, sp.SetUniform(scene.UniformHeight, w.height))
		require.NoError(t, r.DrawLineLoop(2))
	}
	r.SetDepthOffset(false, 0, 0)
	require.NoError(t, st.Unbind())

	shadowMap := st.(*shadowTarget)
	onTall := lightVP.Mul4x1(mgl32.Vec4{0, -1, 2, 1})
	behindTall := lightVP.Mul4x1(mgl32.Vec4{0, 1, 0.5, 1})
	aboveTall := lightVP.Mul4x1(mgl32.Vec4{0, 1, 3.5, 1})

	// every texel the tall wall covers holds its depth, not the short wall's
	tallDepth := 0.5*onTall.Z()/onTall.W() + 0.5
	assert.InDelta(t, tallDepth, shadowMap.Depth(64, 40), 1e-4)
	assert.Equal(t, float32(1), shadowMap.Depth(2, 2), "untouched texels stay at the far plane")

	assert.Equal(t, float32(0), visibility(shadowMap.target, behindTall))
	assert.InDelta(t, 1, visibility(shadowMap.target, onTall), 1e-6)
	assert.InDelta(t, 1, visibility(shadowMap.target, aboveTall), 1e-6)

	// color pass seen from the light: the short wall is dimmed, the tall one is not
	mp := mainProgram(t, r)
	r.Viewport(64, 64)
	r.ClearColor(0, 0, 0, 0)
	require.NoError(t, r.Clear(scene.ClearColorBuffer|scene.ClearDepthBuffer))
	require.NoError(t, st.BindTexture(0))
	require.NoError(t, mp.Bind())
	for name, v := range map[string]any{
		scene.UniformViewProjection:      lightVP,
		scene.UniformLightViewProjection: lightVP,
		scene.UniformColor:               mgl32.Vec3{1, 1, 1},
		scene.UniformShadowMap:           0,
	} {
		require.NoError(t, mp.SetUniform(name, v))
	}
	require.NoError(t, mp.SetUniform(scene.UniformModel, short))
	require.NoError(t, mp.SetUniform(scene.UniformHeight, float32(1)))
	require.NoError(t, r.DrawLineLoop(2))
	require.NoError(t, mp.SetUniform(scene.UniformModel, tall))
	require.NoError(t, mp.SetUniform(scene.UniformHeight, float32(3)))
	require.NoError(t, r.DrawLineLoop(2))

	img := r.Image()
	// z = 2 on the tall wall maps to row 19, z = 3.5 above it to row 9 where only the clear shows
	lit := img.RGBAAt(32, 19)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, lit)
	assert.Equal(t, color.RGBA{}, img.RGBAAt(32, 9))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
}

func TestShadowedWallColor(t *testing.T) {
	r := newRasterizer(t, 64, 64)
	lightVP := sideLight()

	st, err := r.NewShadowTarget(64, 64)
	require.NoError(t, err)
	wall, err := r.NewGeometryBuffer("wall")
	require.NoError(t, err)
	require.NoError(t, wall.SetData([]mgl32.Vec2{{-1, 0}, {1, 0}}))
	require.NoError(t, wall.Bind())

	// occluder only in the shadow map
	sp := shadowProgram(t, r)
	r.Viewport(64, 64)
	require.NoError(t, st.Bind())
	require.NoError(t, r.Clear(scene.ClearDepthBuffer))
	r.SetDepthTest(true)
	require.NoError(t, sp.Bind())
	require.NoError(t, sp.SetUniform(scene.UniformViewProjection, lightVP))
	require.NoError(t, sp.SetUniform(scene.UniformModel, mgl32.Translate3D(0, -1, 0)))
	require.NoError(t, sp.SetUniform(scene.UniformHeight, float32(3)))
	require.NoError(t, r.DrawLineLoop(2))
	require.NoError(t, st.Unbind())

	// only the hidden wall in the color pass
	mp := mainProgram(t, r)
	require.NoError(t, r.Clear(scene.ClearColorBuffer|scene.ClearDepthBuffer))
	require.NoError(t, st.BindTexture(0))
	require.NoError(t, mp.Bind())
	require.NoError(t, mp.SetUniform(scene.UniformViewProjection, lightVP))
	require.NoError(t, mp.SetUniform(scene.UniformLightViewProjection, lightVP))
	require.NoError(t, mp.SetUniform(scene.UniformColor, mgl32.Vec3{1, 1, 1}))
	require.NoError(t, mp.SetUniform(scene.UniformModel, mgl32.Translate3D(0, 1, 0)))
	require.NoError(t, mp.SetUniform(scene.UniformHeight, float32(1)))
	require.NoError(t, r.DrawLineLoop(2))

	// z = 0.5 maps to row 28
	px := r.Image().RGBAAt(32, 28)
	assert.InDelta(t, 77, int(px.R), 1)
	assert.Equal(t, px.R, px.G)
	assert.Equal(t, px.R, px.B)
	assert.Equal(t, uint8(255), px.A)
}

// coverageDevice records how many pixels each shadow pass draw covered.
type coverageDevice struct {
	*rasterizer
	shadowCoverage []int
}

func (d *coverageDevice) DrawLineLoop(vertexCount int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	shadow := d.state.target != nil
	covered, err := d.drawLineLoop(vertexCount)
	if shadow {
		d.shadowCoverage = append(d.shadowCoverage, covered)
	}
	return err
}

func TestShadowPassWritesEveryTile(t *testing.T) {
	d := &coverageDevice{rasterizer: newRasterizer(t, 64, 64)}
	s, err := scene.NewScene(d,
		scene.WithGrid(tiling.Grid{Rows: 4, Columns: 4}),
		scene.WithSeed(11),
		scene.WithViewport(64, 64),
		scene.WithShadowResolution(256),
	)
	require.NoError(t, err)
	require.NoError(t, s.RenderAndStep(0))

	instances := s.Instances()
	require.Len(t, d.shadowCoverage, len(instances))
	for i, inst := range instances {
		if inst.Height < 0.5 {
			// a flat tile has no wall to rasterize
			continue
		}
		assert.Positive(t, d.shadowCoverage[i], "%s %v at height %v", inst.Shape, inst.Slot, inst.Height)
	}
}

func renderFrames(t *testing.T, seed uint64, steps ...float32) []byte {
	t.Helper()
	r := newRasterizer(t, 64, 64)
	s, err := scene.NewScene(r,
		scene.WithSeed(seed),
		scene.WithViewport(64, 64),
		scene.WithShadowResolution(256),
	)
	require.NoError(t, err)
	for _, dt := range steps {
		require.NoError(t, s.RenderAndStep(dt))
	}
	return r.Image().Pix
}

func TestSameSeedSameFrame(t *testing.T) {
	a := renderFrames(t, 7, 0.025, 0.025)
	b := renderFrames(t, 7, 0.025, 0.025)
	assert.Equal(t, a, b)

	c := renderFrames(t, 8, 0.025, 0.025)
	assert.NotEqual(t, a, c)
}

func TestZeroStepRepeatsFrame(t *testing.T) {
	once := renderFrames(t, 3, 0)
	twice := renderFrames(t, 3, 0, 0)
	assert.Equal(t, once, twice)

	// the last frame is drawn before its own step is applied
	stale := renderFrames(t, 3, 0, 0.5)
	assert.Equal(t, once, stale)

	moved := renderFrames(t, 3, 0.5, 0)
	assert.NotEqual(t, once, moved)
}

func TestSceneFrameHasLitAndShadowedWalls(t *testing.T) {
	r := newRasterizer(t, 96, 96)
	s, err := scene.NewScene(r,
		scene.WithSeed(5),
		scene.WithViewport(96, 96),
		scene.WithShadowResolution(512),
	)
	require.NoError(t, err)
	require.NoError(t, s.RenderAndStep(0))

	var lit, shadowed int
	pix := r.Image().Pix
	for i := 0; i < len(pix); i += 4 {
		switch {
		case pix[i] == 255 && pix[i+3] == 255:
			lit++
		case pix[i] >= 76 && pix[i] <= 78 && pix[i+3] == 255:
			shadowed++
		}
	}
	assert.Positive(t, lit)
	assert.Positive(t, shadowed)
}
