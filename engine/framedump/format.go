package framedump

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ErrUnknownFormat is returned when a path's extension names no supported image format.
var ErrUnknownFormat = errors.New("framedump: unknown image format")

// Format is an image encoding the frame dumper can write.
type Format int

const (
	// FormatPPM is binary portable pixmap (P6), the format the demo has always dumped.
	FormatPPM Format = iota
	FormatPNG
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPPM:
		return "ppm"
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the Format for a file name by its extension, case-insensitively.
//
// Parameters:
//   - path: the file name or pattern
//
// Returns:
//   - Format: the matching format
//   - error: ErrUnknownFormat if the extension is missing or unsupported
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "ppm":
		return FormatPPM, nil
	case "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
}

// Encode writes img to w in the given format.
//
// Parameters:
//   - w: the destination
//   - img: the image to encode
//   - f: the output format
//
// Returns:
//   - error: error if encoding or writing fails
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPPM:
		return encodePPM(w, img)
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}

// encodePPM writes a P6 pixmap with 8-bit channels, top row first. Alpha is dropped.
func encodePPM(w io.Writer, img image.Image) error {
	b := img.Bounds()
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", b.Dx(), b.Dy()); err != nil {
		return err
	}

	row := make([]byte, 3*b.Dx())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if rgba, ok := img.(*image.RGBA); ok {
			src := rgba.Pix[rgba.PixOffset(b.Min.X, y):]
			for x := range b.Dx() {
				copy(row[3*x:3*x+3], src[4*x:4*x+3])
			}
		} else {
			for x := range b.Dx() {
				r, g, bl, _ := img.At(b.Min.X+x, y).RGBA()
				row[3*x], row[3*x+1], row[3*x+2] = byte(r>>8), byte(g>>8), byte(bl>>8)
			}
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}
