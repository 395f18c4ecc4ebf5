package renderer

import (
	"io/fs"
	"log/slog"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count of the color pass.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff or MSAA4x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithCapture keeps a CPU copy of every submitted frame, readable through Capture.
// Each frame then waits for the GPU to finish before EndFrame returns.
//
// Parameters:
//   - enabled: true to read back frames
//
// Returns:
//   - RendererBuilderOption: a function that applies the capture option to a renderer
func WithCapture(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.captureEnabled = enabled
	}
}

// WithShaderFS sets the file system AddShaderStage resolves source paths against.
// Defaults to the embedded tile shaders.
//
// Parameters:
//   - fsys: the shader source file system
//
// Returns:
//   - RendererBuilderOption: a function that applies the shader FS option to a renderer
func WithShaderFS(fsys fs.FS) RendererBuilderOption {
	return func(r *renderer) {
		if fsys != nil {
			r.shaderFS = fsys
		}
	}
}

// WithLogger sets the logger the renderer reports to.
//
// Parameters:
//   - logger: the base logger; a component attribute is added
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
