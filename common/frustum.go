package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the distance of p from the plane, positive on the normal's side.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) + p.Distance
}

// Frustum represents the six planes of a view volume.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// Containment classifies a volume against a Frustum.
type Containment int

const (
	Outside Containment = iota
	Intersecting
	Inside
)

func (c Containment) String() string {
	switch c {
	case Inside:
		return "inside"
	case Intersecting:
		return "intersecting"
	default:
		return "outside"
	}
}

// ExtractFrustum extracts frustum planes from a view-projection matrix in GL clip
// convention (-w <= z <= w), the convention mgl32 builds.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	r0, r1, r2, r3 := viewProj.Row(0), viewProj.Row(1), viewProj.Row(2), viewProj.Row(3)

	var f Frustum
	for i, row := range [6]mgl32.Vec4{
		FrustumLeft:   r3.Add(r0),
		FrustumRight:  r3.Sub(r0),
		FrustumBottom: r3.Add(r1),
		FrustumTop:    r3.Sub(r1),
		FrustumNear:   r3.Add(r2),
		FrustumFar:    r3.Sub(r2),
	} {
		f.Planes[i] = Plane{Normal: row.Vec3(), Distance: row.W()}
		f.normalizePlane(i)
	}
	return f
}

// normalizePlane scales a plane so its normal has unit length, making SignedDistance metric.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := p.Normal.Len()
	if length > 0 {
		p.Normal = p.Normal.Mul(1 / length)
		p.Distance /= length
	}
}

// ClassifySphere reports whether a sphere lies entirely inside, partly inside, or entirely
// outside the frustum.
//
// Parameters:
//   - center: the sphere centre in world space
//   - radius: the sphere radius
//
// Returns:
//   - Containment: the classification
func (f Frustum) ClassifySphere(center mgl32.Vec3, radius float32) Containment {
	result := Inside
	for _, p := range f.Planes {
		d := p.SignedDistance(center)
		if d < -radius {
			return Outside
		}
		if d < radius {
			result = Intersecting
		}
	}
	return result
}
