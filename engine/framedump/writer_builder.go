package framedump

import "log/slog"

// WriterBuilderOption is a functional option applied to a writer during construction via NewWriter.
type WriterBuilderOption func(*writer)

// WithWorkers sets the maximum number of frames encoded concurrently.
//
// Parameters:
//   - n: the worker count; values below 1 mean one worker
//
// Returns:
//   - WriterBuilderOption: a function that applies the worker count to a writer
func WithWorkers(n int) WriterBuilderOption {
	return func(w *writer) {
		w.workers = n
	}
}

// WithDirectory places every frame file under dir, creating it if needed.
func WithDirectory(dir string) WriterBuilderOption {
	return func(w *writer) {
		w.dir = dir
	}
}

// WithLogger sets the logger the writer reports to.
func WithLogger(logger *slog.Logger) WriterBuilderOption {
	return func(w *writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}
