// Command tiling animates a field of hexagon and diamond walls under a shadow-casting light.
//
// In display mode it opens a window and steps by wall-clock time until Escape is pressed. In
// frame-dump mode it renders one animation cycle at a fixed step and writes every frame to a
// numbered image file, on the GPU or, with --backend software, entirely on the CPU.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-tiling/engine"
	"github.com/Carmen-Shannon/oxy-tiling/engine/config"
	"github.com/Carmen-Shannon/oxy-tiling/engine/framedump"
	"github.com/Carmen-Shannon/oxy-tiling/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tiling/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiling/engine/softraster"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/Carmen-Shannon/oxy-tiling/engine/window"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("tiling failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load("tiling", args)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	sceneOptions := []scene.SceneBuilderOption{
		scene.WithGrid(tiling.Grid{Rows: cfg.Grid.Rows, Columns: cfg.Grid.Columns}),
		scene.WithShadowResolution(cfg.ShadowResolution),
		scene.WithLogger(logger),
	}
	if cfg.Seed != nil {
		sceneOptions = append(sceneOptions, scene.WithSeed(uint64(*cfg.Seed)))
	}
	engineOptions := []engine.EngineBuilderOption{
		engine.WithLogger(logger),
		engine.WithProfiling(cfg.Profiling),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger))),
		engine.WithRenderFrameLimit(cfg.FrameRate()),
	}

	var (
		device scene.Device
		target engine.Target
	)
	switch cfg.Backend {
	case config.BackendSoftware:
		r, err := softraster.NewRasterizer(cfg.Width, cfg.Height, softraster.WithLogger(logger))
		if err != nil {
			return err
		}
		device, target = r, r
		sceneOptions = append(sceneOptions, scene.WithViewport(cfg.Width, cfg.Height))

	default:
		win := window.NewWindow(
			window.WithTitle(cfg.Title),
			window.WithSize(cfg.Width, cfg.Height),
			window.WithLogger(logger),
		)
		defer win.Close()

		presentMode := renderer.PresentModeVSync
		if cfg.PresentMode == config.PresentUncapped {
			presentMode = renderer.PresentModeUncapped
		}
		r := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
			renderer.WithPresentMode(presentMode),
			renderer.WithCapture(cfg.Mode == config.ModeFrameDump),
			renderer.WithLogger(logger),
		)
		defer r.Release()

		device, target = r, r
		// the framebuffer can be larger than the requested size on high-DPI displays
		sceneOptions = append(sceneOptions, scene.WithViewport(win.Width(), win.Height()))
		engineOptions = append(engineOptions, engine.WithWindow(win))
	}

	s, err := scene.NewScene(device, sceneOptions...)
	if err != nil {
		return fmt.Errorf("failed to create scene: %w", err)
	}
	engineOptions = append(engineOptions, engine.WithScene(s, target))

	if cfg.Mode == config.ModeFrameDump {
		writerOptions := []framedump.WriterBuilderOption{
			framedump.WithDirectory(cfg.FrameDump.Directory),
			framedump.WithLogger(logger),
		}
		if cfg.FrameDump.Workers > 0 {
			writerOptions = append(writerOptions, framedump.WithWorkers(cfg.FrameDump.Workers))
		}
		w, err := framedump.NewWriter(cfg.FrameDump.Path, writerOptions...)
		if err != nil {
			return err
		}
		engineOptions = append(engineOptions, engine.WithFrameDump(w, cfg.FrameCount(), cfg.FrameRate()))
	}

	return engine.NewEngine(engineOptions...).Run()
}
