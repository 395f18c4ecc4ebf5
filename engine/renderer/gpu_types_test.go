package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtrudeOutline(t *testing.T) {
	square := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	walls := ExtrudeOutline(square)
	require.Len(t, walls, len(square)*verticesPerSegment)

	// the last segment closes the loop back to the first vertex
	last := walls[3*verticesPerSegment:]
	assert.Equal(t, [3]float32{0, 1, 0}, last[0].Position)
	assert.Equal(t, [3]float32{0, 0, 0}, last[1].Position)
	assert.Equal(t, [3]float32{0, 0, 1}, last[2].Position)
	assert.Equal(t, [3]float32{0, 1, 1}, last[5].Position)

	for i, w := range walls {
		z := w.Position[2]
		assert.True(t, z == 0 || z == 1, "vertex %d has top flag %v", i, z)
	}
}

func TestExtrudeOutlineTooShort(t *testing.T) {
	assert.Nil(t, ExtrudeOutline(nil))
	assert.Nil(t, ExtrudeOutline([]mgl32.Vec2{{1, 1}}))
	assert.Len(t, ExtrudeOutline([]mgl32.Vec2{{0, 0}, {1, 0}}), 2*verticesPerSegment)
}

func TestGPUWallVertexMarshal(t *testing.T) {
	v := GPUWallVertex{Position: [3]float32{1.5, -2, 1}}
	assert.Equal(t, 12, v.Size())

	buf := v.Marshal()
	require.Len(t, buf, v.Size())
	assert.Equal(t, float32(1.5), floatAt(buf, 0))
	assert.Equal(t, float32(-2), floatAt(buf, 4))
	assert.Equal(t, float32(1), floatAt(buf, 8))

	walls := ExtrudeOutline([]mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}})
	packed := marshalWalls(walls)
	assert.Len(t, packed, len(walls)*12)
	assert.Equal(t, walls[4].Marshal(), packed[4*12:5*12])
}
