package shader

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/assets"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTileVertexShader(t *testing.T) {
	s, err := LoadShader(assets.FS, ShaderTypeVertex, "tile.vert.wgsl")
	require.NoError(t, err)

	assert.Equal(t, "tile.vert.wgsl", s.Key())
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, "tile.vert.wgsl", s.Module().Label)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(12), layouts[0].ArrayStride)
	require.Len(t, layouts[0].Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layouts[0].Attributes[0].Format)
	assert.Equal(t, uint32(0), layouts[0].Attributes[0].ShaderLocation)

	blocks := s.UniformBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, "u", blocks[0].VarName)
	assert.Equal(t, "TileUniforms", blocks[0].TypeName)
	assert.Equal(t, uint64(224), blocks[0].Size)

	tests := []struct {
		name   string
		offset uint64
		size   uint64
	}{
		{"viewProjectionMatrix", 0, 64},
		{"modelMatrix", 64, 64},
		{"lightViewProjection", 128, 64},
		{"lightPosition", 192, 12},
		{"height", 204, 4},
		{"color", 208, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, f, ok := s.UniformField(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.offset, f.Offset)
			assert.Equal(t, tt.size, f.Size)
		})
	}

	_, _, ok := s.UniformField("shadowMapTexture")
	assert.False(t, ok)
}

func TestLoadShadowVertexShader(t *testing.T) {
	s, err := LoadShader(assets.FS, ShaderTypeVertex, "shadow.vert.wgsl")
	require.NoError(t, err)

	block, f, ok := s.UniformField("height")
	require.True(t, ok)
	assert.Equal(t, uint64(128), f.Offset)
	assert.Equal(t, uint64(144), block.Size)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, desc.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(144), desc.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex, desc.Entries[0].Visibility)
}

func TestLoadTileFragmentShader(t *testing.T) {
	s, err := LoadShader(assets.FS, ShaderTypeFragment, "tile.frag.wgsl")
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts())

	shadow := s.BindGroupLayoutDescriptor(1)
	require.Len(t, shadow.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, shadow.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, shadow.Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, shadow.Entries[1].Sampler.Type)
	assert.Equal(t, wgpu.ShaderStageFragment, shadow.Entries[1].Visibility)

	group, binding, ok := s.BindingFromVarName("shadowMapTexture")
	require.True(t, ok)
	assert.Equal(t, 1, group)
	assert.Equal(t, 0, binding)
	assert.Equal(t, "shadowSampler", s.BindGroupVarName(1, 1))

	_, _, ok = s.BindingFromVarName("nothing")
	assert.False(t, ok)
}

func TestLoadShaderErrors(t *testing.T) {
	_, err := LoadShader(assets.FS, ShaderTypeVertex, "missing.wgsl")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	fsys := fstest.MapFS{
		"frag_only.wgsl": {Data: []byte("@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")},
	}
	_, err = LoadShader(fsys, ShaderTypeVertex, "frag_only.wgsl")
	assert.ErrorIs(t, err, ErrMissingEntryPoint)

	_, err = LoadShader(fsys, ShaderTypeFragment, "frag_only.wgsl")
	assert.NoError(t, err)
}

func TestNestedStructLayout(t *testing.T) {
	src := `
/* outer /* nested */ still comment */
struct Inner {
    a: vec3<f32>,
    b: f32,
};

// struct Ignored { x: f32 };
struct Outer {
    scale: f32,
    inner: Inner,
    weights: array<vec4<f32>, 2>,
    tail: u32,
};

@group(0) @binding(0) var<uniform> params: Outer;
@group(0) @binding(1) var<storage, read> values: array<f32>;

@vertex
fn main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(params.scale);
}
`
	s, err := NewShader("inline", ShaderTypeVertex, src)
	require.NoError(t, err)

	blocks := s.UniformBlocks()
	require.Len(t, blocks, 1)
	b := blocks[0]

	// scale 0, inner aligned to 16, weights after the 16-byte Inner, tail after two vec4s
	want := map[string]uint64{"scale": 0, "inner": 16, "weights": 32, "tail": 64}
	for name, off := range want {
		f, ok := b.Field(name)
		require.True(t, ok, name)
		assert.Equal(t, off, f.Offset, name)
	}
	assert.Equal(t, uint64(80), b.Size)

	entries := s.BindGroupLayoutDescriptor(0).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, entries[1].Buffer.Type)
	assert.Equal(t, uint64(4), entries[1].Buffer.MinBindingSize)

	_, _, ok := s.UniformField("x")
	assert.False(t, ok)
}

func TestStripComments(t *testing.T) {
	in := "a // line\nb /* block /* nested */ */ c\n// end"
	assert.Equal(t, "a \nb  c\n", stripComments(in))
}
