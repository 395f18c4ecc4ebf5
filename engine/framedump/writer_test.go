package framedump

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"%05d.ppm", FormatPPM},
		{"out/frame%03d.PNG", FormatPNG},
		{"%d.bmp", FormatBMP},
		{"%d.tif", FormatTIFF},
		{"%d.tiff", FormatTIFF},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := FormatFromPath("%05d.jpg")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	_, err = FormatFromPath("%05d")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestEncodePPM(t *testing.T) {
	img := testFrame(2, 2, color.RGBA{10, 20, 30, 255})
	img.SetRGBA(1, 0, color.RGBA{200, 100, 50, 255})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, FormatPPM))

	header := "P6\n2 2\n255\n"
	out := buf.Bytes()
	require.Len(t, out, len(header)+2*2*3)
	assert.Equal(t, header, string(out[:len(header)]))
	assert.Equal(t, []byte{10, 20, 30, 200, 100, 50, 10, 20, 30, 10, 20, 30}, out[len(header):])
}

func TestEncodePPMSubImage(t *testing.T) {
	img := testFrame(4, 4, color.RGBA{1, 2, 3, 255})
	img.SetRGBA(2, 2, color.RGBA{9, 9, 9, 255})
	sub := img.SubImage(image.Rect(2, 2, 3, 3))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sub, FormatPPM))
	assert.Equal(t, "P6\n1 1\n255\n\x09\x09\x09", buf.String())
}

func TestNewWriterRejectsBadPattern(t *testing.T) {
	_, err := NewWriter("frame.ppm")
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = NewWriter("%s.ppm")
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = NewWriter("%05d.gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestWriterWritesNumberedFrames(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("%05d.ppm", WithDirectory(dir), WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, FormatPPM, w.Format())
	assert.Equal(t, filepath.Join(dir, "00007.ppm"), w.Path(7))

	for i := range 5 {
		require.NoError(t, w.Write(i, testFrame(3, 2, color.RGBA{uint8(i), 0, 0, 255})))
	}
	require.NoError(t, w.Wait())
	assert.Equal(t, 5, w.Written())

	for i := range 5 {
		data, err := os.ReadFile(filepath.Join(dir, filepath.Base(w.Path(i))))
		require.NoError(t, err)
		header := "P6\n3 2\n255\n"
		require.Len(t, data, len(header)+3*2*3)
		assert.Equal(t, byte(i), data[len(header)], "frame %d red channel", i)
	}
}

func TestWriterCopiesFrame(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("%d.png", WithDirectory(dir), WithWorkers(1))
	require.NoError(t, err)

	img := testFrame(2, 2, color.RGBA{0, 255, 0, 255})
	require.NoError(t, w.Write(0, img))
	// reusing the buffer right away must not change the queued frame
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	require.NoError(t, w.Wait())

	f, err := os.Open(w.Path(0))
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	r, g, _, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0xffff), g)
}

func TestWriterBMP(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("f%02d.bmp", WithDirectory(dir))
	require.NoError(t, err)
	require.NoError(t, w.Write(3, testFrame(4, 3, color.RGBA{0, 0, 255, 255})))
	require.NoError(t, w.Wait())

	f, err := os.Open(filepath.Join(dir, "f03.bmp"))
	require.NoError(t, err)
	defer f.Close()
	decoded, err := bmp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), decoded.Bounds())
	_, _, b, _ := decoded.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), b)
}

func TestWriterReportsFailures(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("missing/%d.ppm", WithDirectory(dir))
	require.NoError(t, err)

	require.NoError(t, w.Write(0, testFrame(1, 1, color.RGBA{})))
	require.NoError(t, w.Write(1, testFrame(1, 1, color.RGBA{})))
	err = w.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 0")
	assert.Contains(t, err.Error(), "frame 1")
	assert.Zero(t, w.Written())

	// errors are reported once
	assert.NoError(t, w.Wait())
}

func TestWriterRejectsEmptyFrame(t *testing.T) {
	w, err := NewWriter("%d.ppm", WithDirectory(t.TempDir()))
	require.NoError(t, err)
	assert.Error(t, w.Write(0, nil))
	assert.Error(t, w.Write(0, image.NewRGBA(image.Rect(0, 0, 0, 0))))
	assert.NoError(t, w.Wait())
}

func TestWriterClose(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("%d.ppm", WithDirectory(dir))
	require.NoError(t, err)

	for i := range 3 {
		require.NoError(t, w.Write(i, testFrame(2, 2, color.RGBA{G: 255, A: 255})))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, 3, w.Written())
	for i := range 3 {
		assert.FileExists(t, w.Path(i))
	}

	assert.ErrorIs(t, w.Write(3, testFrame(2, 2, color.RGBA{})), ErrClosed)
	assert.NoError(t, w.Close())
	assert.NoFileExists(t, w.Path(3))
}

func TestWriterCloseReportsFailures(t *testing.T) {
	w, err := NewWriter("missing/%d.ppm", WithDirectory(t.TempDir()))
	require.NoError(t, err)
	require.NoError(t, w.Write(0, testFrame(1, 1, color.RGBA{})))
	err = w.Close()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 0")
}
