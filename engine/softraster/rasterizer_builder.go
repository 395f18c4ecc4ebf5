package softraster

import (
	"io/fs"
	"log/slog"
)

// RasterizerBuilderOption is a functional option applied to a rasterizer during construction via NewRasterizer.
type RasterizerBuilderOption func(*rasterizer)

// WithShaderFS sets the file system AddShaderStage resolves source paths against.
//
// Parameters:
//   - fsys: the shader source file system
//
// Returns:
//   - RasterizerBuilderOption: a function that applies the shader FS option to a rasterizer
func WithShaderFS(fsys fs.FS) RasterizerBuilderOption {
	return func(r *rasterizer) {
		if fsys != nil {
			r.shaderFS = fsys
		}
	}
}

// WithLogger sets the logger the rasterizer reports to.
func WithLogger(logger *slog.Logger) RasterizerBuilderOption {
	return func(r *rasterizer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
