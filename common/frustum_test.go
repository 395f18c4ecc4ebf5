package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestExtractFrustumOrtho(t *testing.T) {
	f := ExtractFrustum(mgl32.Ortho(-10, 10, -5, 5, 1, 50))

	// an ortho camera at the origin looks down -Z
	assert.InDelta(t, 10, f.Planes[FrustumLeft].SignedDistance(mgl32.Vec3{0, 0, -10}), 1e-4)
	assert.InDelta(t, 1, f.Planes[FrustumTop].SignedDistance(mgl32.Vec3{0, 4, -10}), 1e-4)
	assert.InDelta(t, 9, f.Planes[FrustumNear].SignedDistance(mgl32.Vec3{0, 0, -10}), 1e-4)
	assert.InDelta(t, 40, f.Planes[FrustumFar].SignedDistance(mgl32.Vec3{0, 0, -10}), 1e-4)
}

func TestClassifySphere(t *testing.T) {
	f := ExtractFrustum(mgl32.Ortho(-10, 10, -10, 10, 1, 50))

	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   Containment
	}{
		{"centre", mgl32.Vec3{0, 0, -20}, 2, Inside},
		{"straddles right", mgl32.Vec3{9.5, 0, -20}, 2, Intersecting},
		{"past far", mgl32.Vec3{0, 0, -60}, 2, Outside},
		{"behind near", mgl32.Vec3{0, 0, 5}, 2, Outside},
		{"touches near", mgl32.Vec3{0, 0, -1.5}, 1, Intersecting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.ClassifySphere(tt.center, tt.radius))
		})
	}
}

func TestClassifySpherePerspective(t *testing.T) {
	vp := mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100).Mul4(
		mgl32.LookAtV(mgl32.Vec3{0, 0, 10}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	f := ExtractFrustum(vp)
	assert.Equal(t, Inside, f.ClassifySphere(mgl32.Vec3{}, 1))
	assert.Equal(t, Outside, f.ClassifySphere(mgl32.Vec3{0, 0, 20}, 1))
	assert.Equal(t, Outside, f.ClassifySphere(mgl32.Vec3{30, 0, 0}, 1))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 40.0, Coalesce(0, 40.0))
	assert.Equal(t, 25.0, Coalesce(25.0, 40.0))
	assert.Equal(t, "", Coalesce("", ""))
}
