package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	now := time.Unix(100, 0)
	var buf bytes.Buffer
	p := NewProfiler(
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		withClock(func() time.Time { return now }),
	)

	for range 49 {
		now = now.Add(20 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	now = now.Add(20 * time.Millisecond)
	assert.True(t, p.Tick())

	assert.InDelta(t, 50, p.Last().FPS, 1e-6)
	assert.InDelta(t, 0.02, p.Last().FrameSeconds, 1e-9)
	assert.Contains(t, buf.String(), "frame stats")
	assert.Contains(t, buf.String(), "component=profiler")

	// the count restarts after a report
	now = now.Add(time.Second / 2)
	assert.False(t, p.Tick())
}

func TestWithInterval(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(
		WithInterval(100*time.Millisecond),
		WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
		withClock(func() time.Time { return now }),
	)
	now = now.Add(100 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.InDelta(t, 10, p.Last().FPS, 1e-6)

	assert.Equal(t, time.Second, NewProfiler(WithInterval(-1)).updateInterval)
}
