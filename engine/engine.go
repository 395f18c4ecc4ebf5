package engine

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-tiling/engine/framedump"
	"github.com/Carmen-Shannon/oxy-tiling/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiling/engine/window"
)

var (
	// ErrNoScene is returned by Run when the engine was built without a scene or target.
	ErrNoScene = errors.New("engine: no scene or render target")

	// ErrNoWindow is returned by Run in display mode when the engine has no window.
	ErrNoWindow = errors.New("engine: display mode needs a window")

	// ErrNoWriter is returned by Run in frame dump mode when the engine has no frame writer.
	ErrNoWriter = errors.New("engine: frame dump mode needs a frame writer")
)

// Mode selects how the engine drives frames.
type Mode int

const (
	// ModeDisplay renders until the window closes, stepping by the time measured between frames.
	ModeDisplay Mode = iota
	// ModeFrameDump renders a fixed number of frames at a fixed step and writes each one out.
	ModeFrameDump
)

func (m Mode) String() string {
	switch m {
	case ModeDisplay:
		return "display"
	case ModeFrameDump:
		return "frame-dump"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Target is the device side of a frame: the renderer, or the software rasterizer.
type Target interface {
	// BeginFrame starts a frame. Every device call RenderAndStep makes falls between it and EndFrame.
	BeginFrame() error

	// EndFrame finishes the frame's draws.
	EndFrame() error

	// Present shows the finished frame.
	Present()

	// Capture reads back the last finished frame.
	Capture() (*image.RGBA, error)

	// Resize changes the surface size.
	Resize(width, height int)
}

// engine implements the Engine interface.
// It drives the scene on the calling goroutine, which must be the one that created the window.
type engine struct {
	logger *slog.Logger

	mode   Mode
	window window.Window
	target Target
	scene  scene.Scene
	writer framedump.Writer

	profiler         *profiler.Profiler
	profilingEnabled bool

	// frameLimit is the minimum display frame duration; 0 = uncapped
	frameLimit time.Duration
	// stepRate and frameCount drive frame dump mode
	stepRate   float64
	frameCount int

	frames int

	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine runs the frame loop: each frame is BeginFrame, Scene.RenderAndStep, EndFrame, Present.
type Engine interface {
	// Window returns the window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene the engine drives.
	Scene() scene.Scene

	// Mode returns how the engine drives frames.
	Mode() Mode

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional display frame rate cap in frames per second.
	// Pass 0 to uncap the loop.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frames returns the number of frames rendered so far.
	Frames() int

	// Run renders until the window closes, Quit is called, or, in frame dump mode, the last
	// frame has been written. It blocks until every dumped frame is on disk.
	//
	// Returns:
	//   - error: the first render error, or any frame write error
	Run() error

	// Quit stops Run after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A window's resize events are forwarded to the target and the scene.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		logger:      slog.Default(),
		quitChannel: make(chan struct{}),
		frameLimit:  time.Second / 60,
		stepRate:    40,
		frameCount:  120,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	e.logger = e.logger.With("component", "engine")

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Mode() Mode {
	return e.mode
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Frames() int {
	return e.frames
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		// minimized
		return
	}
	e.target.Resize(width, height)
	e.scene.Resize(width, height)
}

func (e *engine) Run() error {
	if e.scene == nil || e.target == nil {
		return ErrNoScene
	}
	e.logger.Info("running", "mode", e.mode)
	switch e.mode {
	case ModeFrameDump:
		return e.runFrameDump()
	default:
		return e.runDisplay()
	}
}

// renderFrame brackets one RenderAndStep with the target's frame lifecycle.
func (e *engine) renderFrame(dt float32) error {
	if err := e.target.BeginFrame(); err != nil {
		return fmt.Errorf("failed to begin frame %d: %w", e.frames, err)
	}
	renderErr := e.scene.RenderAndStep(dt)
	if err := e.target.EndFrame(); err != nil {
		return errors.Join(renderErr, fmt.Errorf("failed to end frame %d: %w", e.frames, err))
	}
	if renderErr != nil {
		return fmt.Errorf("frame %d: %w", e.frames, renderErr)
	}
	e.target.Present()
	e.frames++

	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

// runDisplay renders on every window message loop iteration, stepping by the timer delta.
func (e *engine) runDisplay() error {
	if e.window == nil {
		return ErrNoWindow
	}

	var runErr error
	last := e.window.Time()
	e.window.SetUpdateCallback(func() {
		if e.quitting() {
			return
		}
		frameStart := time.Now()
		now := e.window.Time()
		dt := float32(now - last)
		last = now

		if err := e.renderFrame(dt); err != nil {
			runErr = err
			e.Quit()
			return
		}

		if e.frameLimit > 0 {
			if remaining := e.frameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()
	e.window.SetUpdateCallback(nil)

	e.logger.Info("display loop stopped", "frames", e.frames)
	return runErr
}

// runFrameDump renders frameCount frames at dt = 1/stepRate and hands each to the writer.
// With a window, one frame is dumped per message loop iteration so the window stays responsive.
func (e *engine) runFrameDump() error {
	if e.writer == nil {
		return ErrNoWriter
	}

	var runErr error
	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			if e.quitting() {
				return
			}
			if err := e.dumpFrame(); err != nil {
				runErr = err
			}
			if runErr != nil || e.frames >= e.frameCount {
				e.Quit()
			}
		})
		e.window.ProcessMessages()
		e.window.SetUpdateCallback(nil)
	} else {
		for e.frames < e.frameCount && !e.quitting() {
			if err := e.dumpFrame(); err != nil {
				runErr = err
				break
			}
		}
	}

	writeErr := e.writer.Close()
	e.logger.Info("frame dump finished", "frames", e.frames, "written", e.writer.Written())
	return errors.Join(runErr, writeErr)
}

// dumpFrame renders the next frame and queues it for writing under its frame number.
func (e *engine) dumpFrame() error {
	index := e.frames
	if err := e.renderFrame(float32(1 / e.stepRate)); err != nil {
		return err
	}
	img, err := e.target.Capture()
	if err != nil {
		return fmt.Errorf("failed to capture frame %d: %w", index, err)
	}
	return e.writer.Write(index, img)
}
