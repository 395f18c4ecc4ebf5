package light

import "github.com/go-gl/mathgl/mgl32"

// OrthoBounds is the box of the light's orthographic shadow frustum in light view space.
type OrthoBounds struct {
	Left, Right, Bottom, Top float32
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	position mgl32.Vec3
	target   mgl32.Vec3
	up       mgl32.Vec3
	bounds   OrthoBounds
	near     float32
	far      float32

	viewProjection mgl32.Mat4
}

// Light defines the interface for the single shadow-casting light of the scene.
//
// The light is a positioned point that looks at a target through an orthographic frustum;
// the shadow pass renders depth through ViewProjectionMatrix and the color pass reprojects
// every fragment through the same matrix to look the depth up again. The light does not move
// once constructed, so its matrices are computed once.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Target returns the world-space point the light looks at.
	//
	// Returns:
	//   - mgl32.Vec3: the look-at target
	Target() mgl32.Vec3

	// Bounds returns the orthographic frustum box.
	//
	// Returns:
	//   - OrthoBounds: left, right, bottom and top extents
	Bounds() OrthoBounds

	// Near returns the near plane of the orthographic frustum.
	Near() float32

	// Far returns the far plane of the orthographic frustum.
	Far() float32

	// ViewMatrix returns lookAt(position, target, up).
	//
	// Returns:
	//   - mgl32.Mat4: the light view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns ortho(bounds, near, far) in OpenGL clip-space convention.
	//
	// Returns:
	//   - mgl32.Mat4: the light projection matrix
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns ProjectionMatrix × ViewMatrix.
	//
	// Returns:
	//   - mgl32.Mat4: the light view-projection matrix
	ViewProjectionMatrix() mgl32.Mat4
}

var _ Light = &lightImpl{}

// NewLight creates the scene light. Defaults place it at (-6, -12, 15) looking at the origin
// with +Y up, through an orthographic box of [-10, 10] on both axes and depth range [1, 50].
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		position: mgl32.Vec3{-6, -12, 15},
		target:   mgl32.Vec3{0, 0, 0},
		up:       mgl32.Vec3{0, 1, 0},
		bounds:   OrthoBounds{Left: -DefaultShadowHalfExtent, Right: DefaultShadowHalfExtent, Bottom: -DefaultShadowHalfExtent, Top: DefaultShadowHalfExtent},
		near:     DefaultShadowNear,
		far:      DefaultShadowFar,
	}
	for _, option := range options {
		option(l)
	}
	l.viewProjection = l.ProjectionMatrix().Mul4(l.ViewMatrix())
	return l
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Target() mgl32.Vec3 {
	return l.target
}

func (l *lightImpl) Bounds() OrthoBounds {
	return l.bounds
}

func (l *lightImpl) Near() float32 {
	return l.near
}

func (l *lightImpl) Far() float32 {
	return l.far
}

func (l *lightImpl) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(l.position, l.target, l.up)
}

func (l *lightImpl) ProjectionMatrix() mgl32.Mat4 {
	b := l.bounds
	return mgl32.Ortho(b.Left, b.Right, b.Bottom, b.Top, l.near, l.far)
}

func (l *lightImpl) ViewProjectionMatrix() mgl32.Mat4 {
	return l.viewProjection
}
