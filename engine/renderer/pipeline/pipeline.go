package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Variant identifies one render pipeline of a program. A GL-style program is compiled into a
// separate WebGPU pipeline for every combination of target and fixed-function depth state it
// is drawn with.
type Variant struct {
	// Program is the key of the owning program.
	Program string
	// DepthOnly selects the shadow target layout: Depth32Float, no color target, one sample.
	DepthOnly bool
	// DepthTest selects CompareFunctionLess over CompareFunctionAlways.
	DepthTest bool
	// DepthOffset enables the polygon offset below.
	DepthOffset bool
	// OffsetFactor scales the slope-dependent part of the offset.
	OffsetFactor float32
	// OffsetUnits is the constant part of the offset in depth-buffer units.
	OffsetUnits float32
}

// Key returns a stable label for the variant.
func (v Variant) Key() string {
	target := "color"
	if v.DepthOnly {
		target = "depth"
	}
	key := fmt.Sprintf("%s/%s/test=%t", v.Program, target, v.DepthTest)
	if v.DepthOffset {
		key += fmt.Sprintf("/offset=%g,%g", v.OffsetFactor, v.OffsetUnits)
	}
	return key
}

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// vertexShader is required; fragmentShader is nil for depth-only pipelines
	vertexShader, fragmentShader shader.Shader

	// renderPipeline is set once the backend has created the GPU object
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	depthFormat         wgpu.TextureFormat
	colorFormat         wgpu.TextureFormat
	sampleCount         uint32
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
}

// Pipeline holds the configuration of one render pipeline (vertex and optional fragment stage,
// depth, cull and topology state) together with the GPU object created from it.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the GPU pipeline, or nil before the backend has created it.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// DepthOnly reports whether the pipeline writes depth without any color target.
	//
	// Returns:
	//   - bool: true when no fragment shader or color format is set
	DepthOnly() bool

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled, false otherwise
	DepthTestEnabled() bool

	// DepthBias returns the constant depth bias configured for this pipeline.
	//
	// Returns:
	//   - int32: the depth bias value for this pipeline
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	//
	// Returns:
	//   - float32: the depth bias slope scale for this pipeline
	DepthBiasSlopeScale() float32

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// Descriptor assembles the render pipeline descriptor from the pipeline configuration.
	//
	// Parameters:
	//   - layout: the pipeline layout holding the program's bind group layouts
	//   - vertexModule: the compiled vertex shader module
	//   - fragmentModule: the compiled fragment shader module, ignored for depth-only pipelines
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor to pass to CreateRenderPipeline
	Descriptor(layout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// SetRenderPipeline sets the render pipeline
	//
	// Parameters:
	//   - p: the WebGPU render pipeline to set
	SetRenderPipeline(p *wgpu.RenderPipeline)

	// Release releases the GPU pipeline if one was created.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. Defaults describe an opaque,
// depth-tested triangle list with no culling drawn into a single-sample Depth24Plus target.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthFormat:       wgpu.TextureFormatDepth24Plus,
		sampleCount:       1,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewVariantPipeline builds the pipeline for a program variant. Depth-only variants drop the
// fragment stage and target the shadow map format; color variants use the given surface
// format and sample count.
//
// Parameters:
//   - v: the variant to build
//   - vertex, fragment: the program's shader stages
//   - colorFormat: the surface format for color variants
//   - sampleCount: the color target sample count
//
// Returns:
//   - Pipeline: the configured pipeline, not yet created on the GPU
func NewVariantPipeline(v Variant, vertex, fragment shader.Shader, colorFormat wgpu.TextureFormat, sampleCount uint32) Pipeline {
	opts := []PipelineBuilderOption{
		WithVertexShader(vertex),
		WithDepthTestEnabled(v.DepthTest),
	}
	if v.DepthOffset {
		opts = append(opts, WithDepthBias(int32(v.OffsetUnits), v.OffsetFactor))
	}
	if v.DepthOnly {
		opts = append(opts, WithDepthFormat(wgpu.TextureFormatDepth32Float))
	} else {
		opts = append(opts,
			WithFragmentShader(fragment),
			WithColorFormat(colorFormat),
			WithSampleCount(sampleCount),
		)
	}
	return NewPipeline(v.Key(), opts...)
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) DepthOnly() bool {
	return p.fragmentShader == nil || p.colorFormat == wgpu.TextureFormatUndefined
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}

func (p *pipeline) Descriptor(layout *wgpu.PipelineLayout, vertexModule, fragmentModule *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	var buffers []wgpu.VertexBufferLayout
	if p.vertexShader != nil {
		buffers = p.vertexShader.VertexLayouts()
	}

	depthCompare := wgpu.CompareFunctionLess
	depthWrite := p.depthWriteEnabled
	if !p.depthTestEnabled {
		// GL skips depth writes along with the test
		depthCompare = wgpu.CompareFunctionAlways
		depthWrite = false
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vertexModule,
			EntryPoint: p.entryPoint(p.vertexShader),
			Buffers:    buffers,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   depthWrite,
			DepthCompare:        depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	}

	if p.DepthOnly() {
		return desc
	}

	target := wgpu.ColorTargetState{
		Format:    p.colorFormat,
		WriteMask: p.writeMask,
	}
	desc.Fragment = &wgpu.FragmentState{
		Module:     fragmentModule,
		EntryPoint: p.entryPoint(p.fragmentShader),
		Targets:    []wgpu.ColorTargetState{target},
	}
	desc.Multisample.Count = p.sampleCount
	return desc
}

func (p *pipeline) entryPoint(s shader.Shader) string {
	if s == nil {
		return ""
	}
	return s.EntryPoint()
}
