package config

import (
	"strings"

	"github.com/spf13/pflag"
)

// Load builds a Config from the defaults, then the TOML file named by --config (if any), then
// the remaining command-line flags. Only flags that were set override file values.
//
// Parameters:
//   - name: the program name used in usage output
//   - args: the command-line arguments without the program name
//
// Returns:
//   - *Config: the validated configuration
//   - error: pflag.ErrHelp when help was requested, or a load or validation error
func Load(name string, args []string) (*Config, error) {
	cfg := Default()
	if path := configPath(args); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	fs := NewFlagSet(name, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configPath finds --config ahead of full parsing so the file can be loaded under the flags.
func configPath(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// FlagSet is the demo's command line. Its defaults are the values of the Config it was built
// from, so an unset flag leaves that Config unchanged.
type FlagSet struct {
	*pflag.FlagSet

	configFile  string
	mode        string
	backend     string
	presentMode string
	seed        int64
}

// NewFlagSet registers every configurable field of cfg as a flag. Fields bound directly are
// written by Parse; enums and the optional seed are applied after parsing.
//
// Parameters:
//   - name: the program name
//   - cfg: the configuration the flags write into
//
// Returns:
//   - *FlagSet: the flag set
func NewFlagSet(name string, cfg *Config) *FlagSet {
	fs := &FlagSet{FlagSet: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	fs.SortFlags = false

	fs.StringVar(&fs.configFile, "config", "", "TOML configuration file")
	fs.StringVarP(&fs.mode, "mode", "m", string(cfg.Mode), "run mode: display or frame-dump")
	fs.StringVarP(&fs.backend, "backend", "b", string(cfg.Backend), "device backend: webgpu or software")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width in pixels")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height in pixels")
	fs.StringVar(&cfg.Title, "title", cfg.Title, "window title")
	fs.IntVar(&cfg.Grid.Rows, "rows", cfg.Grid.Rows, "hexagon grid rows")
	fs.IntVar(&cfg.Grid.Columns, "columns", cfg.Grid.Columns, "hexagon grid columns")

	seed := int64(0)
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	fs.Int64Var(&fs.seed, "seed", seed, "seed for the tile phases; unset means random")

	fs.IntVar(&cfg.ShadowResolution, "shadow-resolution", cfg.ShadowResolution, "shadow map size in texels")
	fs.Float64Var(&cfg.FPS, "fps", cfg.FPS, "frame rate; 0 uses 60 for display and 40 for frame-dump")
	fs.Float64Var(&cfg.CycleDuration, "cycle-duration", cfg.CycleDuration, "animation cycle in seconds")
	fs.StringVarP(&cfg.FrameDump.Path, "output", "o", cfg.FrameDump.Path, "frame file pattern; the extension picks ppm, png, bmp or tiff")
	fs.StringVar(&cfg.FrameDump.Directory, "output-dir", cfg.FrameDump.Directory, "directory for frame files")
	fs.IntVarP(&cfg.FrameDump.Frames, "frames", "n", cfg.FrameDump.Frames, "frames to dump; 0 means one cycle")
	fs.IntVar(&cfg.FrameDump.Workers, "workers", cfg.FrameDump.Workers, "concurrent frame encoders; 0 means one per CPU")
	fs.StringVar(&fs.presentMode, "present-mode", string(cfg.PresentMode), "vsync or uncapped")
	fs.BoolVar(&cfg.Profiling, "profile", cfg.Profiling, "log FPS and memory once per second")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	return fs
}

// apply copies the flags that do not bind a Config field directly.
func (fs *FlagSet) apply(cfg *Config) {
	cfg.Mode = Mode(fs.mode)
	cfg.Backend = Backend(fs.backend)
	cfg.PresentMode = PresentMode(fs.presentMode)
	if fs.Changed("seed") {
		seed := fs.seed
		cfg.Seed = &seed
	}
}
