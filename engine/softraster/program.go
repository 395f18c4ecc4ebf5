package softraster

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNotLinked is returned when a program is used before Link succeeded.
	ErrNotLinked = errors.New("softraster: program is not linked")

	// ErrUnknownUniform is returned by SetUniform for a name the program does not declare.
	ErrUnknownUniform = errors.New("softraster: unknown uniform")

	// ErrUniformType is returned by SetUniform when the value does not fit the declared type.
	ErrUniformType = errors.New("softraster: uniform type mismatch")
)

// depthUniforms are read by every program; colorUniforms additionally by programs with a
// fragment stage.
var (
	depthUniforms = []string{scene.UniformViewProjection, scene.UniformModel, scene.UniformHeight}
	colorUniforms = []string{scene.UniformLightViewProjection, scene.UniformColor}
)

// program runs the tile shaders on the CPU. The WGSL sources are parsed so that uniform names
// and types are checked against the same declarations the GPU backend uses.
type program struct {
	r     *rasterizer
	label string

	stages [2]shader.Shader // indexed by scene.ShaderStage
	linked bool

	// fields maps uniform names to their WGSL types
	fields     map[string]string
	textureVar string
	values     map[string]any

	textureUnit int
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
		return fmt.Errorf("program %s: no vertex stage", p.label)
	}

	fields := make(map[string]string)
	for _, s := range p.stages {
		if s == nil {
			continue
		}
		for _, b := range s.UniformBlocks() {
			for _, f := range b.Fields {
				if prev, ok := fields[f.Name]; ok && prev != f.TypeName {
					return fmt.Errorf("program %s: uniform %s is %s in one stage and %s in another", p.label, f.Name, prev, f.TypeName)
				}
				fields[f.Name] = f.TypeName
			}
		}
	}

	required := depthUniforms
	if fragment != nil {
		required = append(append([]string(nil), depthUniforms...), colorUniforms...)
		for _, e := range fragment.BindGroupLayoutDescriptor(1).Entries {
			if e.Texture.SampleType == wgpu.TextureSampleTypeDepth {
				p.textureVar = fragment.BindGroupVarName(1, int(e.Binding))
				break
			}
		}
		if p.textureVar == "" {
			return fmt.Errorf("program %s: fragment stage samples no depth texture", p.label)
		}
	}
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("program %s: stages do not declare uniform %s", p.label, name)
		}
	}

	p.fields = fields
	p.values = make(map[string]any, len(fields))
	p.linked = true
	return nil
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
		unit, ok := asInt(value)
		if !ok {
			return fmt.Errorf("%w: texture unit for %s must be an int, got %T", ErrUniformType, name, value)
		}
		if unit < 0 || unit >= maxTextureUnits {
			return fmt.Errorf("texture unit %d out of range [0, %d)", unit, maxTextureUnits)
		}
		p.textureUnit = unit
		return nil
	}

	typeName, ok := p.fields[name]
	if !ok {
		return fmt.Errorf("program %s: %w: %s", p.label, ErrUnknownUniform, name)
	}

	var matches bool
	switch value.(type) {
	case float32:
		matches = typeName == "f32"
	case int, int32:
		matches = typeName == "i32" || typeName == "u32"
	case mgl32.Vec3:
		matches = typeName == "vec3<f32>" || typeName == "vec3f"
	case mgl32.Mat4:
		matches = typeName == "mat4x4<f32>" || typeName == "mat4x4f"
	}
	if !matches {
		return fmt.Errorf("%w: cannot write %T to %s %s", ErrUniformType, value, typeName, name)
	}
	p.values[name] = value
	return nil
}

// samplesShadow reports whether the program has a fragment stage reading the shadow map.
func (p *program) samplesShadow() bool {
	return p.textureVar != ""
}

// mat4 returns a matrix uniform. Unset uniforms read as zero, like a freshly linked GL program.
func (p *program) mat4(name string) mgl32.Mat4 {
	m, _ := p.values[name].(mgl32.Mat4)
	return m
}

func (p *program) vec3(name string) mgl32.Vec3 {
	v, _ := p.values[name].(mgl32.Vec3)
	return v
}

func (p *program) float(name string) float32 {
	f, _ := p.values[name].(float32)
	return f
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	default:
		return 0, false
	}
}
