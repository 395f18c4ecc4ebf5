package light

// ShadowMapResolution is the default width and height in texels of the shadow
// depth target. Scenes can override it via the WithShadowResolution builder option.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// of the light frustum. It covers the whole 12×12 grid including its rotation.
const DefaultShadowHalfExtent float32 = 10.0

// DefaultShadowNear is the default near plane of the light's orthographic projection.
const DefaultShadowNear float32 = 1.0

// DefaultShadowFar is the default far plane of the light's orthographic projection.
const DefaultShadowFar float32 = 50.0

// DepthOffsetFactor is the slope-scaled polygon offset applied while rendering the shadow pass.
const DepthOffsetFactor float32 = 4

// DepthOffsetUnits is the constant polygon offset, in units of the smallest resolvable depth
// difference, applied while rendering the shadow pass.
const DepthOffsetUnits float32 = 4

// ShadowAttenuation is the fraction of the tile color kept by fragments the light cannot see.
const ShadowAttenuation float32 = 0.3
