package scene

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-tiling/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiling/engine/light"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/go-gl/mathgl/mgl32"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithGrid sets the hexagon grid dimensions. The diamond grid is one smaller in each axis.
// Default is tiling.DefaultGrid (12×12).
//
// Parameters:
//   - grid: the hexagon grid size, at least 2×2
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGrid(grid tiling.Grid) SceneBuilderOption {
	return func(s *scene) {
		s.grid = grid
	}
}

// WithRandSource sets the source the tile phases are drawn from.
// Without it phases come from tiling.SystemSource and differ on every run.
//
// Parameters:
//   - src: the random source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRandSource(src tiling.Source) SceneBuilderOption {
	return func(s *scene) {
		s.src = src
	}
}

// WithSeed draws the tile phases from a deterministic source seeded with seed.
//
// Parameters:
//   - seed: the seed value
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSeed(seed uint64) SceneBuilderOption {
	return func(s *scene) {
		s.src = tiling.NewSeededSource(seed)
	}
}

// WithViewport sets the initial window size the color pass renders at. Default is 800×800.
// The default camera derives its aspect ratio from this size.
//
// Parameters:
//   - width, height: framebuffer size in pixels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewport(width, height int) SceneBuilderOption {
	return func(s *scene) {
		s.width = width
		s.height = height
	}
}

// WithCamera replaces the default camera.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(cam camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.cam = cam
	}
}

// WithLight replaces the default light.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLight(l light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.light = l
	}
}

// WithShadowResolution sets the width and height in texels of the shadow target.
// Default is light.ShadowMapResolution (2048).
//
// Parameters:
//   - resolution: shadow map size in texels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShadowResolution(resolution int) SceneBuilderOption {
	return func(s *scene) {
		s.shadowResolution = resolution
	}
}

// WithTileColor sets the flat color of lit walls. Default is white.
func WithTileColor(color mgl32.Vec3) SceneBuilderOption {
	return func(s *scene) {
		s.color = color
	}
}

// WithShaderPaths overrides the shader sources the programs are built from.
func WithShaderPaths(paths ShaderPaths) SceneBuilderOption {
	return func(s *scene) {
		s.shaderPaths = paths
	}
}

// WithLogger sets the logger the scene reports through. Default is slog.Default().
func WithLogger(logger *slog.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
