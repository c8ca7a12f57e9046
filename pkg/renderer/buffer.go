package renderer

import (
	"image"
	"image/color"

	"github.com/df07/go-progressive-raymarcher/pkg/core"
)

// BytesPerPixel is the stride of one pixel in the RGB buffer
const BytesPerPixel = 3

// PixelBuffer is a flat RGB byte buffer, row-major with a top-left origin.
// Pixel i occupies bytes [3i, 3i+3).
type PixelBuffer struct {
	width, height int
	pix           []byte
}

// NewPixelBuffer allocates a zeroed width x height buffer
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		width:  width,
		height: height,
		pix:    make([]byte, width*height*BytesPerPixel),
	}
}

// Width returns the buffer width in pixels
func (b *PixelBuffer) Width() int { return b.width }

// Height returns the buffer height in pixels
func (b *PixelBuffer) Height() int { return b.height }

// PixelCount returns width*height
func (b *PixelBuffer) PixelCount() int { return b.width * b.height }

// Bytes returns the underlying RGB bytes. Callers must treat it as read-only.
func (b *PixelBuffer) Bytes() []byte { return b.pix }

// Set writes the RGB triple for pixel index i
func (b *PixelBuffer) Set(i int, rgb [3]uint8) {
	o := i * BytesPerPixel
	b.pix[o] = rgb[0]
	b.pix[o+1] = rgb[1]
	b.pix[o+2] = rgb[2]
}

// Get returns the RGB triple for pixel index i
func (b *PixelBuffer) Get(i int) [3]uint8 {
	o := i * BytesPerPixel
	return [3]uint8{b.pix[o], b.pix[o+1], b.pix[o+2]}
}

// At returns the RGB triple at (x, y), y counted from the top
func (b *PixelBuffer) At(x, y int) [3]uint8 {
	return b.Get(y*b.width + x)
}

// Fill sets every pixel to rgb
func (b *PixelBuffer) Fill(rgb [3]uint8) {
	for i := 0; i < b.PixelCount(); i++ {
		b.Set(i, rgb)
	}
}

// ToRGBA copies the buffer into an opaque image.RGBA
func (b *PixelBuffer) ToRGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	b.CopyToRGBA(img)
	return img
}

// CopyToRGBA copies the buffer into img, which must be at least as large
func (b *PixelBuffer) CopyToRGBA(img *image.RGBA) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			rgb := b.At(x, y)
			img.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
}

// FlippedRows returns a copy with the row order reversed, for consumers that
// expect a bottom-left origin such as GL textures
func (b *PixelBuffer) FlippedRows() []byte {
	out := make([]byte, len(b.pix))
	stride := b.width * BytesPerPixel
	for y := 0; y < b.height; y++ {
		src := b.pix[y*stride : (y+1)*stride]
		copy(out[(b.height-1-y)*stride:], src)
	}
	return out
}

// ColorToRGB clamps a [0,1] color per channel and truncates it to bytes
func ColorToRGB(c core.Vec3) [3]uint8 {
	c = c.Clamp(0, 1)
	return [3]uint8{uint8(c.X * 255), uint8(c.Y * 255), uint8(c.Z * 255)}
}
