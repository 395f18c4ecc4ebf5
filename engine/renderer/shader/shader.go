package shader

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingEntryPoint is returned when a source has no entry point for its stage.
var ErrMissingEntryPoint = errors.New("shader: missing entry point")

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeVertex marks a source with an @vertex entry point.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment marks a source with an @fragment entry point.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// UniformField is one member of a uniform block with its byte placement.
type UniformField struct {
	Name     string
	TypeName string
	Offset   uint64
	Size     uint64
}

// UniformBlock describes a var<uniform> declaration and the layout of its struct.
type UniformBlock struct {
	VarName  string
	TypeName string
	Group    int
	Binding  int
	Size     uint64
	Fields   []UniformField
}

// Field looks up a member of the block by name.
func (b UniformBlock) Field(name string) (UniformField, bool) {
	for _, f := range b.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return UniformField{}, false
}

// shader is the implementation of the Shader interface.
// It holds the reflected layout data needed to build pipelines and write uniforms.
type shader struct {
	key        string
	source     string
	shaderType ShaderType
	entryPoint string
	module     *wgpu.ShaderModuleDescriptor

	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []wgpu.VertexBufferLayout
	uniformBlocks              []UniformBlock
}

// Shader is a parsed WGSL source for one stage. It exposes the reflected bind group layouts,
// vertex buffer layouts and uniform block layouts the renderer needs to build pipelines and
// place uniform values.
type Shader interface {
	// Key returns the identifier the shader was created with, usually its source path.
	Key() string

	// Source returns the WGSL source code.
	Source() string

	// ShaderType returns the stage this shader is written for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the stage's entry point function.
	EntryPoint() string

	// Module returns the descriptor used to create the GPU shader module.
	Module() *wgpu.ShaderModuleDescriptor

	// BindGroupLayoutDescriptor returns the layout of one bind group, or an empty descriptor.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the reflected layout
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors returns every reflected bind group layout keyed by group index.
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the variable declared at group and binding, or "".
	BindGroupVarName(group, binding int) string

	// BindingFromVarName finds the group and binding a resource variable is declared at.
	//
	// Parameters:
	//   - varName: the WGSL variable name
	//
	// Returns:
	//   - group, binding: the location of the declaration
	//   - bool: false if no resource has that name
	BindingFromVarName(varName string) (group, binding int, ok bool)

	// BindGroupVarNames returns every resource variable name keyed by group and binding.
	BindGroupVarNames() map[int]map[int]string

	// VertexLayouts returns one buffer layout per vertex input struct, in declaration order.
	VertexLayouts() []wgpu.VertexBufferLayout

	// UniformBlocks returns the var<uniform> declarations with resolved struct layouts.
	UniformBlocks() []UniformBlock

	// UniformField finds a uniform block member by name across all blocks.
	//
	// Parameters:
	//   - name: the struct member name
	//
	// Returns:
	//   - UniformBlock: the block holding the member
	//   - UniformField: the member layout
	//   - bool: false if no block declares the member
	UniformField(name string) (UniformBlock, UniformField, bool)
}

var _ Shader = &shader{}

// NewShader parses WGSL source for the given stage.
//
// Parameters:
//   - key: an identifier for the shader, used as the module label
//   - shaderType: the stage the source is written for
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
//   - error: ErrMissingEntryPoint if the source has no entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	if err := s.reflect(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadShader reads a WGSL source from fsys and parses it. The path doubles as the shader key.
//
// Parameters:
//   - fsys: the file system holding the source
//   - shaderType: the stage the source is written for
//   - path: the source path inside fsys
//
// Returns:
//   - Shader: the parsed shader
//   - error: error if the file cannot be read or has no entry point for the stage
func LoadShader(fsys fs.FS, shaderType ShaderType, path string) (Shader, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("shader: read %s: %w", path, err)
	}
	return NewShader(path, shaderType, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindingFromVarName(varName string) (int, int, bool) {
	for group, names := range s.bindingVarNames {
		for binding, name := range names {
			if name == varName {
				return group, binding, true
			}
		}
	}
	return -1, -1, false
}

func (s *shader) BindGroupVarNames() map[int]map[int]string {
	return s.bindingVarNames
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) UniformBlocks() []UniformBlock {
	return s.uniformBlocks
}

func (s *shader) UniformField(name string) (UniformBlock, UniformField, bool) {
	for _, b := range s.uniformBlocks {
		if f, ok := b.Field(name); ok {
			return b, f, true
		}
	}
	return UniformBlock{}, UniformField{}, false
}

// reflect extracts the entry point, vertex inputs, bind group layouts and uniform layouts.
func (s *shader) reflect() error {
	var visibility wgpu.ShaderStage
	switch s.shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	default:
		return fmt.Errorf("shader: %s: unsupported type %s", s.key, s.shaderType)
	}

	cleaned := stripComments(s.source)
	s.entryPoint = parseEntryPoint(cleaned, s.shaderType)
	if s.entryPoint == "" {
		return fmt.Errorf("%w: %s has no @%s function", ErrMissingEntryPoint, s.key, s.shaderType)
	}

	structs := parseStructBlocks(cleaned)
	layouts := computeStructLayouts(structs)

	if s.shaderType == ShaderTypeVertex {
		s.vertexLayouts = parseVertexLayouts(structs)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames, s.uniformBlocks = parseBindGroupLayouts(cleaned, visibility, layouts)

	s.module = &wgpu.ShaderModuleDescriptor{
		Label: s.key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.source,
		},
	}
	return nil
}
