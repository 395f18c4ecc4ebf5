package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tiling/engine/light"
	"github.com/Carmen-Shannon/oxy-tiling/engine/tiling"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestMeasureShadowCoverage(t *testing.T) {
	model := mgl32.HomogRotate3DZ(ModelRotation)
	lightVP := light.NewLight().ViewProjectionMatrix()

	small := MeasureShadowCoverage(tiling.Grid{Rows: 2, Columns: 2}, model, lightVP)
	assert.Equal(t, ShadowCoverage{Inside: 5}, small)
	assert.True(t, small.Complete())

	// the default light volume does not reach the corners of the full grid
	full := MeasureShadowCoverage(tiling.DefaultGrid, model, lightVP)
	assert.Equal(t, tiling.DefaultGrid.Count(tiling.Hexagon)+tiling.DefaultGrid.Count(tiling.Diamond),
		full.Inside+full.Intersecting+full.Outside)
	assert.False(t, full.Complete())
	assert.Positive(t, full.Inside)
}
