package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNotLinked is returned when a program is used before Link succeeded.
	ErrNotLinked = errors.New("renderer: program is not linked")

	// ErrMissingStage is returned by Link when the program has no vertex stage.
	ErrMissingStage = errors.New("renderer: program has no vertex stage")
)

const (
	// uniformGroup holds the program's uniform block, bound with a dynamic offset per draw.
	uniformGroup = 0
	// textureGroup holds the sampled shadow map and its comparison sampler.
	textureGroup = 1
)

// program is the WebGPU ShaderProgram. GL-style per-draw uniform writes are emulated with a
// staging copy of the uniform block that is snapshotted into an arena slot at every draw.
type program struct {
	r     *renderer
	label string

	stages [2]shader.Shader // indexed by scene.ShaderStage
	linked bool

	vertexModule, fragmentModule *wgpu.ShaderModule
	groupLayouts                 []*wgpu.BindGroupLayout
	pipelineLayout               *wgpu.PipelineLayout
	descriptors                  map[int]wgpu.BindGroupLayoutDescriptor

	block    shader.UniformBlock
	staging  []byte
	arena    uniformArena
	uniforms bind_group_provider.BindGroupProvider
	capacity uint64

	// textureVar is the texture declared in the texture group, set through SetUniform as a unit
	textureVar    string
	textureUnit   int
	textureGroups map[*shadowTarget]bind_group_provider.BindGroupProvider

	pipelines map[pipeline.Variant]pipeline.Pipeline
}

var _ scene.ShaderProgram = &program{}

func (p *program) AddShaderStage(stage scene.ShaderStage, sourcePath string) error {
	if p.linked {
		return fmt.Errorf("program %s: cannot add a stage after linking", p.label)
	}

	var shaderType shader.ShaderType
	switch stage {
	case scene.ShaderStageVertex:
		shaderType = shader.ShaderTypeVertex
	case scene.ShaderStageFragment:
		shaderType = shader.ShaderTypeFragment
	default:
		return fmt.Errorf("program %s: unsupported stage %s", p.label, stage)
	}

	s, err := shader.LoadShader(p.r.shaderFS, shaderType, sourcePath)
	if err != nil {
		return fmt.Errorf("program %s: %s stage: %w", p.label, stage, err)
	}
	p.stages[stage] = s
	return nil
}

func (p *program) Link() error {
	if p.linked {
		return nil
	}
	vertex, fragment := p.stages[scene.ShaderStageVertex], p.stages[scene.ShaderStageFragment]
	if vertex == nil {
		return fmt.Errorf("program %s: %w", p.label, ErrMissingStage)
	}

	block, err := p.reflectUniforms(vertex, fragment)
	if err != nil {
		return fmt.Errorf("program %s: %w", p.label, err)
	}

	fragmentLayouts := map[int]wgpu.BindGroupLayoutDescriptor{}
	if fragment != nil {
		fragmentLayouts = fragment.BindGroupLayoutDescriptors()
	}
	descriptors := mergeBindGroupLayouts(vertex.BindGroupLayoutDescriptors(), fragmentLayouts)
	if err := p.prepareDescriptors(descriptors, block); err != nil {
		return fmt.Errorf("program %s: %w", p.label, err)
	}

	backend := p.r.backend
	if p.vertexModule, err = backend.CreateShaderModule(vertex); err != nil {
		return fmt.Errorf("program %s: %w", p.label, err)
	}
	if fragment != nil {
		if p.fragmentModule, err = backend.CreateShaderModule(fragment); err != nil {
			return fmt.Errorf("program %s: %w", p.label, err)
		}
	}
	if p.groupLayouts, p.pipelineLayout, err = backend.CreateProgramLayout(p.label, descriptors); err != nil {
		return fmt.Errorf("program %s: %w", p.label, err)
	}

	p.block = block
	p.descriptors = descriptors
	p.staging = make([]byte, block.Size)
	p.capacity = capacityFor(int(block.Size))
	p.uniforms = bind_group_provider.NewBindGroupProvider(p.label+" Uniforms",
		bind_group_provider.WithBindGroupLayout(p.groupLayouts[uniformGroup]),
	)
	if err := backend.InitBindGroup(p.uniforms, descriptors[uniformGroup], nil, map[int]uint64{block.Binding: p.capacity}); err != nil {
		return fmt.Errorf("program %s: uniform bind group: %w", p.label, err)
	}

	p.linked = true
	p.r.logger.Debug("program linked",
		"program", p.label,
		"uniform_size", block.Size,
		"groups", len(p.groupLayouts),
	)
	return nil
}

// reflectUniforms picks the uniform block at group 0 binding 0. When both stages declare it,
// their layouts must agree.
func (p *program) reflectUniforms(vertex, fragment shader.Shader) (shader.UniformBlock, error) {
	find := func(s shader.Shader) (shader.UniformBlock, bool) {
		if s == nil {
			return shader.UniformBlock{}, false
		}
		for _, b := range s.UniformBlocks() {
			if b.Group == uniformGroup && b.Binding == 0 {
				return b, true
			}
		}
		return shader.UniformBlock{}, false
	}

	vb, vok := find(vertex)
	fb, fok := find(fragment)
	switch {
	case vok && fok:
		if vb.Size != fb.Size || len(vb.Fields) != len(fb.Fields) {
			return shader.UniformBlock{}, fmt.Errorf("uniform blocks %s and %s differ between stages", vb.TypeName, fb.TypeName)
		}
		for i := range vb.Fields {
			if vb.Fields[i] != fb.Fields[i] {
				return shader.UniformBlock{}, fmt.Errorf("uniform field %s differs between stages", vb.Fields[i].Name)
			}
		}
		return vb, nil
	case vok:
		return vb, nil
	case fok:
		return fb, nil
	default:
		return shader.UniformBlock{}, errors.New("no uniform block at group 0 binding 0")
	}
}

// prepareDescriptors switches the uniform binding to a dynamic offset and checks the texture
// group holds only textures and samplers.
func (p *program) prepareDescriptors(descriptors map[int]wgpu.BindGroupLayoutDescriptor, block shader.UniformBlock) error {
	for g := range descriptors {
		if g > textureGroup {
			return fmt.Errorf("bind group %d is not supported", g)
		}
	}

	uniforms := descriptors[uniformGroup]
	if len(uniforms.Entries) != 1 {
		return fmt.Errorf("group %d must hold only the uniform block", uniformGroup)
	}
	uniforms.Entries[0].Buffer.HasDynamicOffset = true
	uniforms.Entries[0].Buffer.MinBindingSize = block.Size
	descriptors[uniformGroup] = uniforms

	textures, ok := descriptors[textureGroup]
	if !ok {
		return nil
	}
	for _, e := range textures.Entries {
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			p.textureVar = p.varName(textureGroup, int(e.Binding))
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		default:
			return fmt.Errorf("group %d binding %d must be a texture or sampler", textureGroup, e.Binding)
		}
	}
	if p.textureVar == "" {
		return fmt.Errorf("group %d declares no texture", textureGroup)
	}
	return nil
}

func (p *program) varName(group, binding int) string {
	for _, s := range p.stages {
		if s == nil {
			continue
		}
		if name := s.BindGroupVarName(group, binding); name != "" {
			return name
		}
	}
	return ""
}

func (p *program) Bind() error {
	if !p.linked {
		return fmt.Errorf("program %s: %w", p.label, ErrNotLinked)
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.state.program = p
	return nil
}

func (p *program) SetUniform(name string, value any) error {
	if !p.linked {
		return fmt.Errorf("program %s: %w", p.label, ErrNotLinked)
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()

	if name != "" && name == p.textureVar {
		var unit int
		switch v := value.(type) {
		case int:
			unit = v
		case int32:
			unit = int(v)
		default:
			return fmt.Errorf("%w: texture unit for %s must be an int, got %T", ErrUniformType, name, value)
		}
		if unit < 0 || unit >= maxTextureUnits {
			return fmt.Errorf("texture unit %d out of range [0, %d)", unit, maxTextureUnits)
		}
		p.textureUnit = unit
		return nil
	}

	field, ok := p.block.Field(name)
	if !ok {
		return fmt.Errorf("program %s: %w: %s", p.label, ErrUnknownUniform, name)
	}
	return encodeUniform(p.staging, field, value)
}

// samplesTexture reports whether draws need the texture group bound.
func (p *program) samplesTexture() bool {
	return len(p.groupLayouts) > textureGroup
}

// pipelineFor returns the pipeline of a variant, creating it on first use.
func (p *program) pipelineFor(v pipeline.Variant) (pipeline.Pipeline, error) {
	if pl, ok := p.pipelines[v]; ok {
		return pl, nil
	}

	backend := p.r.backend
	pl := pipeline.NewVariantPipeline(v,
		p.stages[scene.ShaderStageVertex],
		p.stages[scene.ShaderStageFragment],
		backend.SurfaceFormat(),
		backend.SampleCount(),
	)
	if !pl.DepthOnly() && p.fragmentModule == nil {
		return nil, fmt.Errorf("program %s has no fragment stage to draw color with", p.label)
	}
	if err := backend.RegisterRenderPipeline(pl, p.pipelineLayout, p.vertexModule, p.fragmentModule); err != nil {
		return nil, fmt.Errorf("program %s: pipeline %s: %w", p.label, v.Key(), err)
	}
	p.pipelines[v] = pl
	p.r.logger.Debug("pipeline created", "program", p.label, "variant", v.Key())
	return pl, nil
}

// textureBindGroup returns the texture group bound to a shadow target, creating it on first use.
func (p *program) textureBindGroup(t *shadowTarget) (bind_group_provider.BindGroupProvider, error) {
	if bg, ok := p.textureGroups[t]; ok {
		return bg, nil
	}

	sampler, err := p.r.comparisonSampler()
	if err != nil {
		return nil, err
	}

	desc := p.descriptors[textureGroup]
	bg := bind_group_provider.NewBindGroupProvider(p.label+" Shadow Map", shadowMapOptions(desc, p.groupLayouts[textureGroup], t.view, sampler)...)
	if err := p.r.backend.InitBindGroup(bg, desc, nil, nil); err != nil {
		return nil, fmt.Errorf("program %s: shadow map bind group: %w", p.label, err)
	}
	p.textureGroups[t] = bg
	return bg, nil
}

// shadowMapOptions binds the shadow target's view to every texture entry of desc and the
// comparison sampler to every sampler entry. Both are borrowed by the provider.
func shadowMapOptions(desc wgpu.BindGroupLayoutDescriptor, layout *wgpu.BindGroupLayout, view *wgpu.TextureView, sampler *wgpu.Sampler) []bind_group_provider.BindGroupProviderOption {
	opts := []bind_group_provider.BindGroupProviderOption{bind_group_provider.WithBindGroupLayout(layout)}
	for _, e := range desc.Entries {
		switch {
		case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			opts = append(opts, bind_group_provider.WithTextureView(int(e.Binding), view))
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			opts = append(opts, bind_group_provider.WithSampler(int(e.Binding), sampler))
		}
	}
	return opts
}

// bindGroups returns the providers to set at groups 0..n for a draw.
func (p *program) bindGroups(shadowMap *shadowTarget) ([]bind_group_provider.BindGroupProvider, error) {
	groups := []bind_group_provider.BindGroupProvider{p.uniforms}
	if !p.samplesTexture() {
		return groups, nil
	}
	bg, err := p.textureBindGroup(shadowMap)
	if err != nil {
		return nil, err
	}
	return append(groups, bg), nil
}

// flush grows the uniform buffer to fit the frame's arena and returns the write uploading it.
func (p *program) flush() ([]bind_group_provider.BufferWrite, error) {
	if len(p.arena.data) == 0 {
		return nil, nil
	}

	if need := capacityFor(len(p.arena.data)); need > p.capacity {
		p.uniforms.SetBuffer(p.block.Binding, nil)
		if err := p.r.backend.InitBindGroup(p.uniforms, p.descriptors[uniformGroup], nil, map[int]uint64{p.block.Binding: need}); err != nil {
			return nil, fmt.Errorf("program %s: grow uniform arena: %w", p.label, err)
		}
		p.r.logger.Debug("uniform arena grown", "program", p.label, "from", p.capacity, "to", need)
		p.capacity = need
	}

	return []bind_group_provider.BufferWrite{{
		Provider: p.uniforms,
		Binding:  p.block.Binding,
		Offset:   0,
		Data:     p.arena.data,
	}}, nil
}

func (p *program) release() {
	for _, pl := range p.pipelines {
		pl.Release()
	}
	p.pipelines = map[pipeline.Variant]pipeline.Pipeline{}
	for _, bg := range p.textureGroups {
		bg.Release()
	}
	p.textureGroups = map[*shadowTarget]bind_group_provider.BindGroupProvider{}
	if p.uniforms != nil {
		p.uniforms.Release()
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
	}
	for _, l := range p.groupLayouts {
		l.Release()
	}
	if p.vertexModule != nil {
		p.vertexModule.Release()
	}
	if p.fragmentModule != nil {
		p.fragmentModule.Release()
	}
	p.linked = false
}
