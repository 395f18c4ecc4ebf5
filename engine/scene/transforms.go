package scene

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-tiling/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiling/engine/light"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNegativeDelta is returned when a frame step would move the scene clock backwards.
var ErrNegativeDelta = errors.New("scene: negative time step")

// ModelRotation is the fixed rotation about +Z applied to every tile.
const ModelRotation = math32.Pi / 4

// Transforms holds the matrices shared by every draw of one frame.
type Transforms struct {
	Model                mgl32.Mat4
	LightViewProjection  mgl32.Mat4
	CameraViewProjection mgl32.Mat4
}

// Composer derives the per-frame Transforms from the camera and the light.
type Composer struct {
	model mgl32.Mat4
	cam   camera.Camera
	light light.Light
}

// NewComposer creates a Composer for the given observers.
//
// Parameters:
//   - cam: the perspective camera of the color pass
//   - l: the light the shadow pass renders from
//
// Returns:
//   - *Composer: the composer
func NewComposer(cam camera.Camera, l light.Light) *Composer {
	return &Composer{
		model: mgl32.HomogRotate3DZ(ModelRotation),
		cam:   cam,
		light: l,
	}
}

// Compose returns the model rotation, the light view-projection and the camera view-projection.
// The model and light matrices are constant; the camera matrix changes only on resize.
func (c *Composer) Compose() Transforms {
	return Transforms{
		Model:                c.model,
		LightViewProjection:  c.light.ViewProjectionMatrix(),
		CameraViewProjection: c.cam.ViewProjectionMatrix(),
	}
}

// Clock accumulates scene time in seconds. The zero value starts at t = 0.
type Clock struct {
	now float32
}

// Now returns the accumulated time.
func (c *Clock) Now() float32 {
	return c.now
}

// Advance moves the clock forward by dt. A negative, NaN or infinite dt leaves the clock unchanged.
//
// Parameters:
//   - dt: elapsed time in seconds
//
// Returns:
//   - error: ErrNegativeDelta if dt is not a finite value >= 0
func (c *Clock) Advance(dt float32) error {
	if !validDelta(dt) {
		return ErrNegativeDelta
	}
	c.now += dt
	return nil
}

// validDelta reports whether dt is a finite, non-negative step.
func validDelta(dt float32) bool {
	return dt >= 0 && !math32.IsInf(dt, 1)
}
