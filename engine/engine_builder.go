package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-tiling/common"
	"github.com/Carmen-Shannon/oxy-tiling/engine/framedump"
	"github.com/Carmen-Shannon/oxy-tiling/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiling/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets the window the display loop runs in. Without one the engine can only dump frames.
//
// Parameters:
//   - w: a spawned Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene to drive and the target its device draws into.
//
// Parameters:
//   - s: the Scene to render each frame
//   - target: the frame lifecycle of the device s was created on
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene, target Target) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
		e.target = target
	}
}

// WithRenderFrameLimit sets an optional display frame rate cap in frames per second.
// Pass 0 to uncap the loop. Defaults to 60.
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameLimit = 0
			return
		}
		e.frameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithFrameDump switches the engine to frame dump mode. Run closes w once the last frame is written.
//
// Parameters:
//   - w: the writer every rendered frame is handed to
//   - frames: the number of frames to render
//   - fps: the fixed step rate, dt = 1/fps; values <= 0 keep the default of 40
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameDump(w framedump.Writer, frames int, fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.mode = ModeFrameDump
		e.writer = w
		e.frameCount = frames
		e.stepRate = common.Coalesce(max(fps, 0), e.stepRate)
	}
}

// WithLogger sets the logger the engine reports to.
func WithLogger(logger *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}
