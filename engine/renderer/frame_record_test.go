package renderer

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRecordMergesClearsBeforeDraws(t *testing.T) {
	var f frameRecord
	shadow := &shadowTarget{width: 8, height: 8}
	black := wgpu.Color{A: 1}

	f.clear(shadow, &black, true)
	f.clear(shadow, nil, true)
	f.draw(shadow, drawRecord{uniformOffset: 0})
	f.draw(shadow, drawRecord{uniformOffset: 256})

	f.clear(nil, &black, false)
	f.clear(nil, nil, true)
	f.draw(nil, drawRecord{})

	require.Len(t, f.passes, 2)
	assert.Same(t, shadow, f.passes[0].target)
	assert.Nil(t, f.passes[0].clearColor, "depth-only targets have no color")
	assert.True(t, f.passes[0].clearDepth)
	assert.Len(t, f.passes[0].draws, 2)

	assert.Nil(t, f.passes[1].target)
	require.NotNil(t, f.passes[1].clearColor)
	assert.Equal(t, black, *f.passes[1].clearColor)
	assert.True(t, f.passes[1].clearDepth)
	assert.Len(t, f.passes[1].draws, 1)
}

func TestFrameRecordClearAfterDrawStartsPass(t *testing.T) {
	var f frameRecord
	f.draw(nil, drawRecord{})
	f.clear(nil, nil, true)
	f.draw(nil, drawRecord{})

	require.Len(t, f.passes, 2)
	assert.False(t, f.passes[0].clearDepth, "the first pass loads")
	assert.True(t, f.passes[1].clearDepth)
}

func TestFrameRecordTargetSwitchLoads(t *testing.T) {
	var f frameRecord
	shadow := &shadowTarget{}

	f.draw(nil, drawRecord{})
	f.draw(shadow, drawRecord{})
	f.draw(nil, drawRecord{})

	require.Len(t, f.passes, 3)
	for _, p := range f.passes {
		assert.Nil(t, p.clearColor)
		assert.False(t, p.clearDepth)
		assert.Len(t, p.draws, 1)
	}
}

func TestFrameRecordSnapshotsClearColor(t *testing.T) {
	var f frameRecord
	c := wgpu.Color{R: 1, A: 1}
	f.clear(nil, &c, false)
	c.R = 0
	assert.Equal(t, 1.0, f.passes[0].clearColor.R)

	// a colour clear of a depth-only target with no depth bit is a no-op
	f.clear(&shadowTarget{}, &c, false)
	assert.Len(t, f.passes, 1)

	f.reset()
	assert.Empty(t, f.passes)
}
