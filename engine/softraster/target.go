package softraster

import (
	"image"
	"image/color"
)

// target is a raster the device draws into: a float32 depth buffer and, for the surface, an
// RGBA8 color buffer. Row 0 is the top row, as in a WebGPU framebuffer.
type target struct {
	width, height int
	depth         []float32
	color         *image.RGBA // nil for depth-only targets
}

func newTarget(width, height int, withColor bool) *target {
	t := &target{
		width:  width,
		height: height,
		depth:  make([]float32, width*height),
	}
	if withColor {
		t.color = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	for i := range t.depth {
		t.depth[i] = 1
	}
	return t
}

// clear resets the selected buffers. Depth clears to the far plane.
func (t *target) clear(c *color.RGBA, depth bool) {
	if c != nil && t.color != nil {
		pix := t.color.Pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if depth {
		for i := range t.depth {
			t.depth[i] = 1
		}
	}
}

// depthAt returns the stored depth with coordinates clamped to the edge.
func (t *target) depthAt(x, y int) float32 {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	return t.depth[y*t.width+x]
}
