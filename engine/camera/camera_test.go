package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultCameraProjectsTargetToCentre(t *testing.T) {
	c := NewCamera()

	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	dist := math32.Sqrt(6*6 + 12*12)

	assert.InDelta(t, 0, clip.X(), 1e-4)
	assert.InDelta(t, 0, clip.Y(), 1e-4)
	assert.InDelta(t, dist, clip.W(), 1e-4)

	ndcZ := clip.Z() / clip.W()
	assert.Greater(t, ndcZ, float32(-1))
	assert.Less(t, ndcZ, float32(1))
}

func TestCameraMatricesCompose(t *testing.T) {
	c := NewCamera(WithPosition(1, 2, 3), WithTarget(0, 1, 0), WithFov(mgl32.DegToRad(60)), WithNear(0.5), WithFar(20))
	want := c.ProjectionMatrix().Mul4(c.ViewMatrix())
	assert.True(t, want.ApproxEqualThreshold(c.ViewProjectionMatrix(), 1e-6))
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, c.Position())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, c.Target())
	assert.Equal(t, float32(0.5), c.Near())
	assert.Equal(t, float32(20), c.Far())
}

func TestCameraSetViewport(t *testing.T) {
	c := NewCamera(WithViewport(800, 800))
	assert.Equal(t, float32(1), c.Aspect())
	before := c.ProjectionMatrix()

	c.SetViewport(1600, 800)
	assert.Equal(t, float32(2), c.Aspect())

	focal := 1 / math32.Tan(mgl32.DegToRad(45)/2)
	assert.InDelta(t, focal/2, c.ProjectionMatrix()[0], 1e-5)
	assert.InDelta(t, before[5], c.ProjectionMatrix()[5], 1e-6)

	// a minimised window reports a zero height and must not poison the matrices
	c.SetViewport(1600, 0)
	c.SetAspect(-1)
	assert.Equal(t, float32(2), c.Aspect())
}
