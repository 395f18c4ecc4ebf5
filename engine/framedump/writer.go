package framedump

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"golang.org/x/image/draw"
)

// ErrBadPattern is returned by NewWriter when the path pattern has no integer verb for the frame index.
var ErrBadPattern = errors.New("framedump: path pattern must format the frame index")

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("framedump: writer closed")

// Writer saves rendered frames to numbered files. Encoding and file I/O run on a worker
// pool so the frame loop only pays for copying the image.
type Writer interface {
	// Write queues a frame for encoding. The image is copied before Write returns,
	// so the caller may reuse it immediately.
	//
	// Parameters:
	//   - index: the frame number substituted into the path pattern
	//   - img: the frame
	//
	// Returns:
	//   - error: ErrClosed after Close, or an error if img is nil or empty
	Write(index int, img image.Image) error

	// Wait blocks until every queued frame has been written.
	//
	// Returns:
	//   - error: every encode or file error since the last Wait, joined
	Wait() error

	// Close waits for the queued frames like Wait and then stops the worker pool.
	// Later calls return nil.
	//
	// Returns:
	//   - error: the errors Wait would report
	Close() error

	// Path returns the file a frame index is written to.
	Path(index int) string

	// Written returns the number of frames successfully written so far.
	Written() int

	// Format returns the encoding chosen from the pattern's extension.
	Format() Format
}

type writer struct {
	mu *sync.Mutex
	wg *sync.WaitGroup

	logger *slog.Logger

	pattern string
	dir     string
	format  Format

	workers int
	pool    worker.DynamicWorkerPool
	nextID  int

	written int
	failed  int
	errs    []error
	started time.Time
	closed  bool
}

var _ Writer = &writer{}

// NewWriter creates a Writer for a printf-style path pattern such as "%05d.ppm". The
// extension of the pattern selects the image format.
//
// Parameters:
//   - pattern: the path pattern; it must contain one integer verb
//   - options: functional options to configure the writer
//
// Returns:
//   - Writer: the new writer
//   - error: error if the pattern or format is invalid, or the output directory cannot be created
func NewWriter(pattern string, options ...WriterBuilderOption) (Writer, error) {
	if first := fmt.Sprintf(pattern, 0); first == pattern || strings.Contains(first, "%!") {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, pattern)
	}
	format, err := FormatFromPath(pattern)
	if err != nil {
		return nil, err
	}

	w := &writer{
		mu:      &sync.Mutex{},
		wg:      &sync.WaitGroup{},
		logger:  slog.Default(),
		pattern: pattern,
		format:  format,
		workers: runtime.NumCPU(),
	}
	for _, option := range options {
		option(w)
	}
	w.logger = w.logger.With("component", "framedump")

	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create frame dump directory: %w", err)
		}
	}
	if w.workers < 1 {
		w.workers = 1
	}
	w.pool = worker.NewDynamicWorkerPool(w.workers, 256, 1*time.Second)
	w.logger.Debug("frame writer ready", "pattern", pattern, "format", format, "workers", w.workers)
	return w, nil
}

func (w *writer) Write(index int, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("framedump: frame %d is empty", index)
	}
	b := img.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(frame, frame.Bounds(), img, b.Min, draw.Src)
	path := w.Path(index)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.started.IsZero() {
		w.started = time.Now()
	}
	id := w.nextID
	w.nextID++
	// added under the lock so a concurrent Close waits for this frame
	w.wg.Add(1)
	w.mu.Unlock()

	w.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer w.wg.Done()
			err := w.save(path, frame)

			w.mu.Lock()
			defer w.mu.Unlock()
			if err != nil {
				w.failed++
				w.errs = append(w.errs, fmt.Errorf("frame %d: %w", index, err))
				return nil, err
			}
			w.written++
			w.logger.Debug("frame written", "index", index, "path", path)
			return nil, nil
		},
	})
	return nil
}

func (w *writer) save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := Encode(bw, img, w.format); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (w *writer) Wait() error {
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	err := errors.Join(w.errs...)
	w.errs = nil
	if !w.started.IsZero() {
		w.logger.Info("frames written",
			"written", w.written,
			"failed", w.failed,
			"elapsed", time.Since(w.started).Round(time.Millisecond))
	}
	return err
}

func (w *writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	err := w.Wait()
	w.pool.Stop()
	w.logger.Debug("frame writer closed")
	return err
}

func (w *writer) Path(index int) string {
	name := fmt.Sprintf(w.pattern, index)
	if w.dir == "" {
		return name
	}
	return filepath.Join(w.dir, name)
}

func (w *writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *writer) Format() Format {
	return w.format
}
