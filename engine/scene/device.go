package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderStage identifies a programmable stage a ShaderProgram is assembled from.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

// ClearMask selects which buffers of the bound target Device.Clear resets.
type ClearMask uint8

const (
	ClearColorBuffer ClearMask = 1 << iota
	ClearDepthBuffer
)

// Uniform names shared by the tile shaders of every backend.
const (
	UniformViewProjection      = "viewProjectionMatrix"
	UniformModel               = "modelMatrix"
	UniformHeight              = "height"
	UniformLightPosition       = "lightPosition"
	UniformColor               = "color"
	UniformLightViewProjection = "lightViewProjection"
	UniformShadowMap           = "shadowMapTexture"
)

// ShaderProgram is a linked set of shader stages with named uniforms.
// SetUniform accepts float32, int32, int, mgl32.Vec3 and mgl32.Mat4 values; a texture unit is
// passed as an int.
type ShaderProgram interface {
	// AddShaderStage loads the source at sourcePath for the given stage.
	//
	// Parameters:
	//   - stage: the stage the source is compiled for
	//   - sourcePath: path of the source, resolved by the backend
	//
	// Returns:
	//   - error: error if the source is missing or fails to compile
	AddShaderStage(stage ShaderStage, sourcePath string) error

	// Link finalizes the program after all stages are added.
	//
	// Returns:
	//   - error: error if the stages do not form a valid program
	Link() error

	// Bind makes the program current for subsequent SetUniform and draw calls.
	//
	// Returns:
	//   - error: error if the program has not been linked
	Bind() error

	// SetUniform writes a value into the named uniform of the bound program.
	//
	// Parameters:
	//   - name: the uniform name as declared in the shader
	//   - value: the value to write
	//
	// Returns:
	//   - error: error if the uniform is unknown or the value type does not match
	SetUniform(name string, value any) error
}

// GeometryBuffer holds one closed outline on the device.
type GeometryBuffer interface {
	// SetData uploads the ordered outline vertices.
	//
	// Parameters:
	//   - vertices: the closed outline in local tile space
	//
	// Returns:
	//   - error: error if the upload fails
	SetData(vertices []mgl32.Vec2) error

	// Bind selects the buffer for subsequent draws.
	//
	// Returns:
	//   - error: error if the buffer holds no data
	Bind() error
}

// ShadowTarget is an off-screen depth buffer rendered from the light and sampled by the color pass.
type ShadowTarget interface {
	// Bind redirects rendering into the depth buffer.
	Bind() error

	// Unbind restores the default target.
	Unbind() error

	// BindTexture exposes the written depth buffer to the color pass on a texture unit.
	//
	// Parameters:
	//   - unit: the texture unit the shadowMapTexture uniform refers to
	//
	// Returns:
	//   - error: error if the unit is unsupported
	BindTexture(unit int) error

	// Width returns the depth buffer width in texels.
	Width() int

	// Height returns the depth buffer height in texels.
	Height() int
}

// Device is the set of graphics capabilities a Scene draws through. The WebGPU renderer and
// the software rasterizer both implement it.
type Device interface {
	// NewShaderProgram creates an empty program.
	//
	// Parameters:
	//   - label: a debug label for the program
	//
	// Returns:
	//   - ShaderProgram: the new program
	//   - error: error if the program could not be allocated
	NewShaderProgram(label string) (ShaderProgram, error)

	// NewGeometryBuffer creates an empty outline buffer.
	//
	// Parameters:
	//   - label: a debug label for the buffer
	//
	// Returns:
	//   - GeometryBuffer: the new buffer
	//   - error: error if the buffer could not be allocated
	NewGeometryBuffer(label string) (GeometryBuffer, error)

	// NewShadowTarget allocates a depth-only render target.
	//
	// Parameters:
	//   - width, height: the target size in texels
	//
	// Returns:
	//   - ShadowTarget: the new target
	//   - error: error if the target could not be allocated
	NewShadowTarget(width, height int) (ShadowTarget, error)

	// Viewport sets the rasterized area of the bound target.
	Viewport(width, height int)

	// ClearColor sets the color used by Clear(ClearColorBuffer).
	ClearColor(r, g, b, a float32)

	// Clear resets the selected buffers of the bound target.
	Clear(mask ClearMask) error

	// SetDepthTest enables or disables less-than depth testing.
	SetDepthTest(enabled bool)

	// SetDepthOffset enables or disables the polygon depth offset applied to subsequent draws.
	SetDepthOffset(enabled bool, factor, units float32)

	// DrawLineLoop draws the bound outline of vertexCount vertices with the bound program.
	// Each outline segment is extruded into a wall from z=0 up to the height uniform.
	//
	// Parameters:
	//   - vertexCount: number of outline vertices in the bound geometry
	//
	// Returns:
	//   - error: error if no program or geometry is bound
	DrawLineLoop(vertexCount int) error
}
