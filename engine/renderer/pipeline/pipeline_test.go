package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/assets"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadShaders(t *testing.T) (shadow, vertex, fragment shader.Shader) {
	t.Helper()
	var err error
	shadow, err = shader.LoadShader(assets.FS, shader.ShaderTypeVertex, "shadow.vert.wgsl")
	require.NoError(t, err)
	vertex, err = shader.LoadShader(assets.FS, shader.ShaderTypeVertex, "tile.vert.wgsl")
	require.NoError(t, err)
	fragment, err = shader.LoadShader(assets.FS, shader.ShaderTypeFragment, "tile.frag.wgsl")
	require.NoError(t, err)
	return shadow, vertex, fragment
}

func TestVariantKey(t *testing.T) {
	assert.Equal(t, "main/color/test=true", Variant{Program: "main", DepthTest: true}.Key())
	assert.Equal(t, "shadow/depth/test=true/offset=4,4",
		Variant{Program: "shadow", DepthOnly: true, DepthTest: true, DepthOffset: true, OffsetFactor: 4, OffsetUnits: 4}.Key())
	// offset values only matter while the offset is enabled
	assert.Equal(t, Variant{Program: "p", OffsetFactor: 1}.Key(), Variant{Program: "p"}.Key())
}

func TestShadowVariantDescriptor(t *testing.T) {
	shadow, _, _ := loadShaders(t)
	v := Variant{Program: "shadow", DepthOnly: true, DepthTest: true, DepthOffset: true, OffsetFactor: 4, OffsetUnits: 4}
	p := NewVariantPipeline(v, shadow, nil, wgpu.TextureFormatBGRA8Unorm, 4)

	assert.True(t, p.DepthOnly())
	assert.Equal(t, v.Key(), p.PipelineKey())
	assert.Nil(t, p.RenderPipeline())

	d := p.Descriptor(nil, nil, nil)
	assert.Nil(t, d.Fragment)
	assert.Equal(t, "vs_main", d.Vertex.EntryPoint)
	require.Len(t, d.Vertex.Buffers, 1)
	assert.Equal(t, uint32(1), d.Multisample.Count)
	require.NotNil(t, d.DepthStencil)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, d.DepthStencil.Format)
	assert.Equal(t, wgpu.CompareFunctionLess, d.DepthStencil.DepthCompare)
	assert.True(t, d.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, int32(4), d.DepthStencil.DepthBias)
	assert.Equal(t, float32(4), d.DepthStencil.DepthBiasSlopeScale)
	assert.Equal(t, wgpu.CullModeNone, d.Primitive.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, d.Primitive.Topology)
}

func TestColorVariantDescriptor(t *testing.T) {
	_, vertex, fragment := loadShaders(t)
	p := NewVariantPipeline(Variant{Program: "main", DepthTest: true}, vertex, fragment, wgpu.TextureFormatBGRA8Unorm, 4)

	assert.False(t, p.DepthOnly())
	assert.Equal(t, fragment, p.Shader(shader.ShaderTypeFragment))

	d := p.Descriptor(nil, nil, nil)
	require.NotNil(t, d.Fragment)
	assert.Equal(t, "fs_main", d.Fragment.EntryPoint)
	require.Len(t, d.Fragment.Targets, 1)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, d.Fragment.Targets[0].Format)
	assert.Nil(t, d.Fragment.Targets[0].Blend)
	assert.Equal(t, uint32(4), d.Multisample.Count)
	assert.Equal(t, wgpu.TextureFormatDepth24Plus, d.DepthStencil.Format)
	assert.Zero(t, d.DepthStencil.DepthBias)
}

func TestDepthTestDisabledSkipsWrites(t *testing.T) {
	_, vertex, fragment := loadShaders(t)
	p := NewVariantPipeline(Variant{Program: "main"}, vertex, fragment, wgpu.TextureFormatRGBA8Unorm, 1)

	d := p.Descriptor(nil, nil, nil)
	assert.Equal(t, wgpu.CompareFunctionAlways, d.DepthStencil.DepthCompare)
	assert.False(t, d.DepthStencil.DepthWriteEnabled)
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("custom",
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithSampleCount(0),
		WithColorFormat(wgpu.TextureFormatRGBA8Unorm),
		WithFragmentShader(nil),
	)
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, p.Topology())
	assert.True(t, p.DepthOnly())
	assert.Nil(t, p.Shader(shader.ShaderTypeVertex))

	d := p.Descriptor(nil, nil, nil)
	assert.Equal(t, uint32(1), d.Multisample.Count)
	assert.Empty(t, d.Vertex.EntryPoint)
	assert.NotPanics(t, p.Release)
}
