package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid wraps every validation failure reported by Validate.
var ErrInvalid = errors.New("config: invalid")

// Mode selects how frames are driven.
type Mode string

const (
	// ModeDisplay runs a window with dt taken from the wall clock.
	ModeDisplay Mode = "display"
	// ModeFrameDump renders a fixed number of frames at a fixed step and writes each to a file.
	ModeFrameDump Mode = "frame-dump"
)

// Backend selects the device that executes draw calls.
type Backend string

const (
	BackendWebGPU   Backend = "webgpu"
	BackendSoftware Backend = "software"
)

// PresentMode selects how the display swaps frames.
type PresentMode string

const (
	PresentVSync    PresentMode = "vsync"
	PresentUncapped PresentMode = "uncapped"
)

const (
	// DefaultDisplayFPS caps the display loop.
	DefaultDisplayFPS = 60
	// DefaultFrameDumpFPS is the fixed step of frame dump mode, dt = 1/40.
	DefaultFrameDumpFPS = 40
	// DefaultCycleDuration is the length of one animation cycle in seconds.
	DefaultCycleDuration = 3
)

// GridConfig sizes the hexagon grid; the diamond grid is one smaller in each direction.
type GridConfig struct {
	Rows    int `toml:"rows"`
	Columns int `toml:"columns"`
}

// FrameDumpConfig controls frame dump output.
type FrameDumpConfig struct {
	// Path is a printf pattern for the frame index. Its extension picks the format.
	Path string `toml:"path"`
	// Directory is prepended to every frame path when set.
	Directory string `toml:"directory"`
	// Frames is the number of frames to write. Zero means one full cycle.
	Frames int `toml:"frames"`
	// Workers bounds concurrent encoders. Zero means one per CPU.
	Workers int `toml:"workers"`
}

// Config is the complete run configuration of the demo.
type Config struct {
	Mode    Mode    `toml:"mode"`
	Backend Backend `toml:"backend"`

	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`

	Grid GridConfig `toml:"grid"`
	// Seed makes the tile phases reproducible. Nil draws them from a time-seeded source.
	Seed             *int64 `toml:"seed"`
	ShadowResolution int    `toml:"shadow_resolution"`

	// FPS is the display cap or the frame dump step rate. Zero means the mode's default.
	FPS float64 `toml:"fps"`
	// CycleDuration is in seconds.
	CycleDuration float64 `toml:"cycle_duration"`

	FrameDump FrameDumpConfig `toml:"frame_dump"`

	PresentMode PresentMode `toml:"present_mode"`
	Profiling   bool        `toml:"profiling"`
	LogLevel    string      `toml:"log_level"`
}

// Default returns the configuration the demo runs with when nothing is overridden.
//
// Returns:
//   - *Config: a new configuration holding the defaults
func Default() *Config {
	return &Config{
		Mode:             ModeDisplay,
		Backend:          BackendWebGPU,
		Width:            800,
		Height:           800,
		Title:            "demo",
		Grid:             GridConfig{Rows: 12, Columns: 12},
		ShadowResolution: 2048,
		CycleDuration:    DefaultCycleDuration,
		FrameDump: FrameDumpConfig{
			Path: "%05d.ppm",
		},
		PresentMode: PresentVSync,
		LogLevel:    "info",
	}
}

// LoadFile decodes a TOML file over c. Keys absent from the file keep their current values;
// unknown keys are an error.
//
// Parameters:
//   - path: the TOML file
//
// Returns:
//   - error: error if the file cannot be read or decoded
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()
	return c.Decode(f)
}

// Decode reads TOML from r over c.
func (c *Config) Decode(r io.Reader) error {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("failed to decode config: %s", strict.String())
		}
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
//
// Returns:
//   - error: nil, or every failure joined, each wrapping ErrInvalid
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.Mode {
	case ModeDisplay, ModeFrameDump:
	default:
		bad("mode %q, want %q or %q", c.Mode, ModeDisplay, ModeFrameDump)
	}
	switch c.Backend {
	case BackendWebGPU, BackendSoftware:
	default:
		bad("backend %q, want %q or %q", c.Backend, BackendWebGPU, BackendSoftware)
	}
	if c.Mode == ModeDisplay && c.Backend == BackendSoftware {
		bad("the %q backend has no window and only runs in %q mode", BackendSoftware, ModeFrameDump)
	}
	if c.Width <= 0 || c.Height <= 0 {
		bad("window size %dx%d", c.Width, c.Height)
	}
	if c.Grid.Rows < 2 || c.Grid.Columns < 2 {
		bad("grid %dx%d, need at least 2x2", c.Grid.Rows, c.Grid.Columns)
	}
	if c.ShadowResolution <= 0 {
		bad("shadow_resolution %d", c.ShadowResolution)
	}
	if c.FPS < 0 || math.IsNaN(c.FPS) || math.IsInf(c.FPS, 0) {
		bad("fps %v", c.FPS)
	}
	if !(c.CycleDuration > 0) || math.IsInf(c.CycleDuration, 0) {
		bad("cycle_duration %v", c.CycleDuration)
	}
	if c.FrameDump.Frames < 0 {
		bad("frame_dump.frames %d", c.FrameDump.Frames)
	}
	if c.FrameDump.Workers < 0 {
		bad("frame_dump.workers %d", c.FrameDump.Workers)
	}
	if c.Mode == ModeFrameDump && c.FrameDump.Path == "" {
		bad("frame_dump.path is empty")
	}
	switch c.PresentMode {
	case PresentVSync, PresentUncapped:
	default:
		bad("present_mode %q, want %q or %q", c.PresentMode, PresentVSync, PresentUncapped)
	}
	if _, err := c.Level(); err != nil {
		bad("log_level %q", c.LogLevel)
	}
	return errors.Join(errs...)
}

// FrameRate returns the configured FPS, or the default for the mode.
func (c *Config) FrameRate() float64 {
	if c.FPS > 0 {
		return c.FPS
	}
	if c.Mode == ModeFrameDump {
		return DefaultFrameDumpFPS
	}
	return DefaultDisplayFPS
}

// FrameInterval returns the time between frames at FrameRate.
func (c *Config) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.FrameRate())
}

// FrameCount returns the number of frames a frame dump writes: frame_dump.frames, or one
// cycle at FrameRate.
//
// Returns:
//   - int: the frame count, at least 1
func (c *Config) FrameCount() int {
	if c.FrameDump.Frames > 0 {
		return c.FrameDump.Frames
	}
	return max(1, int(math.Round(c.CycleDuration*c.FrameRate())))
}

// Level parses LogLevel as a slog level name, case-insensitively.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel)))
	return level, err
}

// NewLogger builds the text logger the demo reports through, at the configured level.
//
// Parameters:
//   - w: the log destination, usually os.Stderr
//
// Returns:
//   - *slog.Logger: the logger
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
