package light

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLightViewProjection(t *testing.T) {
	l := NewLight()

	assert.Equal(t, mgl32.Vec3{-6, -12, 15}, l.Position())
	assert.Equal(t, OrthoBounds{-10, 10, -10, 10}, l.Bounds())
	assert.Equal(t, float32(1), l.Near())
	assert.Equal(t, float32(50), l.Far())

	clip := l.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	dist := math32.Sqrt(6*6 + 12*12 + 15*15)

	// orthographic: w stays 1 and the target lands on the centre of the map
	assert.InDelta(t, 1, clip.W(), 1e-6)
	assert.InDelta(t, 0, clip.X(), 1e-5)
	assert.InDelta(t, 0, clip.Y(), 1e-5)
	assert.InDelta(t, (2*dist-51)/49, clip.Z(), 1e-5)
}

func TestLightDepthIncreasesAwayFromLight(t *testing.T) {
	l := NewLight()
	vp := l.ViewProjectionMatrix()

	toward := l.Position().Normalize()
	near := vp.Mul4x1(toward.Mul(2).Vec4(1))
	far := vp.Mul4x1(toward.Mul(-2).Vec4(1))
	assert.Less(t, near.Z(), far.Z())
}

func TestLightOptions(t *testing.T) {
	l := NewLight(
		WithPosition(0, 0, 10),
		WithTarget(0, 0, 0),
		WithUp(0, 1, 0),
		WithOrthoBounds(OrthoBounds{-2, 2, -2, 2}),
		WithDepthRange(1, 21),
	)
	want := mgl32.Ortho(-2, 2, -2, 2, 1, 21).Mul4(mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	assert.True(t, want.ApproxEqualThreshold(l.ViewProjectionMatrix(), 1e-6))

	// a point on the ground plane at x=2 maps to the right edge of the map
	clip := l.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{2, 0, 0, 1})
	assert.InDelta(t, 1, clip.X(), 1e-5)
	assert.InDelta(t, -0.1, clip.Z(), 1e-5)
}
