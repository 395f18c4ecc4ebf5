package renderer

import (
	"github.com/Carmen-Shannon/oxy-tiling/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// drawRecord is one DrawLineLoop captured between BeginFrame and EndFrame.
type drawRecord struct {
	pipeline      pipeline.Pipeline
	program       *program
	geometry      *geometry
	uniformOffset uint32
	shadowMap     *shadowTarget
	viewport      [2]int
}

// passRecord groups consecutive draws into the same target. A nil target is the surface.
type passRecord struct {
	target     *shadowTarget
	clearColor *wgpu.Color
	clearDepth bool
	draws      []drawRecord
}

// frameRecord turns the immediate-mode device calls of a frame into render passes.
// Passes are replayed in order by EndFrame.
type frameRecord struct {
	passes []passRecord
}

// clear starts a pass on target that clears the selected buffers. A clear issued before any
// draw of the current pass merges into it. Color clears of a depth-only target are dropped.
func (f *frameRecord) clear(target *shadowTarget, color *wgpu.Color, depth bool) {
	if target != nil {
		color = nil
	}
	if color == nil && !depth {
		return
	}

	if n := len(f.passes); n > 0 {
		last := &f.passes[n-1]
		if last.target == target && len(last.draws) == 0 {
			if color != nil {
				c := *color
				last.clearColor = &c
			}
			last.clearDepth = last.clearDepth || depth
			return
		}
	}

	p := passRecord{target: target, clearDepth: depth}
	if color != nil {
		c := *color
		p.clearColor = &c
	}
	f.passes = append(f.passes, p)
}

// draw appends d to the open pass of target, opening a loading pass when the target changed.
func (f *frameRecord) draw(target *shadowTarget, d drawRecord) {
	if n := len(f.passes); n == 0 || f.passes[n-1].target != target {
		f.passes = append(f.passes, passRecord{target: target})
	}
	last := &f.passes[len(f.passes)-1]
	last.draws = append(last.draws, d)
}

func (f *frameRecord) reset() {
	f.passes = f.passes[:0]
}
