package renderer

import (
	"errors"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrCaptureDisabled is returned by Capture when the renderer was built without WithCapture.
var ErrCaptureDisabled = errors.New("renderer: frame capture is disabled")

// alignedRowBytes returns the padded row pitch of a 4-byte-per-pixel copy of the given width.
func alignedRowBytes(width int) uint32 {
	row := uint32(width) * 4
	return (row + copyRowAlignment - 1) &^ (copyRowAlignment - 1)
}

func isBGRA(format wgpu.TextureFormat) bool {
	return format == wgpu.TextureFormatBGRA8Unorm || format == wgpu.TextureFormatBGRA8UnormSrgb
}

// copyRows unpacks a padded readback into a tightly packed RGBA image, swapping the red and
// blue channels of BGRA surfaces.
//
// Parameters:
//   - src: the mapped buffer, rowBytes per row
//   - rowBytes: the padded row pitch of src
//   - width, height: the image size in pixels
//   - bgra: true if src holds BGRA pixels
//
// Returns:
//   - *image.RGBA: the unpacked image
func copyRows(src []byte, rowBytes, width, height int, bgra bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		row := src[y*rowBytes : y*rowBytes+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		copy(dst, row)
		if bgra {
			for x := 0; x < len(dst); x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img
}
