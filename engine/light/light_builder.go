package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithTarget is an option builder that sets the point the light looks at.
//
// Parameters:
//   - x: the x target component
//   - y: the y target component
//   - z: the z target component
//
// Returns:
//   - LightBuilderOption: a function that applies the target option to a lightImpl
func WithTarget(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.target = mgl32.Vec3{x, y, z}
	}
}

// WithUp is an option builder that sets the light's up vector used by its view matrix.
func WithUp(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.up = mgl32.Vec3{x, y, z}
	}
}

// WithOrthoBounds is an option builder that sets the orthographic frustum box.
//
// Parameters:
//   - bounds: left, right, bottom and top extents in light view space
//
// Returns:
//   - LightBuilderOption: a function that applies the bounds option to a lightImpl
func WithOrthoBounds(bounds OrthoBounds) LightBuilderOption {
	return func(l *lightImpl) {
		l.bounds = bounds
	}
}

// WithDepthRange is an option builder that sets the near and far planes of the orthographic
// frustum.
//
// Parameters:
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - LightBuilderOption: a function that applies the depth range option to a lightImpl
func WithDepthRange(near, far float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.near = near
		l.far = far
	}
}
