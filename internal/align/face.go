package align

import (
	"image"
	"image/color"
)

// Face is an aligned face: interleaved RGB samples in [0, 1], row-major.
type Face struct {
	Width  int
	Height int
	Pix    []float32
}

// NewFace allocates a black face of the given size.
func NewFace(width, height int) *Face {
	return &Face{Width: width, Height: height, Pix: make([]float32, width*height*3)}
}

// FromRGBA rescales an 8-bit raster to a Face.
func FromRGBA(img *image.RGBA) *Face {
	b := img.Bounds()
	f := NewFace(b.Dx(), b.Dy())
	for y := range f.Height {
		row := img.Pix[y*img.Stride:]
		for x := range f.Width {
			i := (y*f.Width + x) * 3
			f.Pix[i] = float32(row[x*4]) / 255
			f.Pix[i+1] = float32(row[x*4+1]) / 255
			f.Pix[i+2] = float32(row[x*4+2]) / 255
		}
	}
	return f
}

// RGB returns the samples of the pixel at (x, y).
func (f *Face) RGB(x, y int) (r, g, b float32) {
	i := (y*f.Width + x) * 3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// RGBA converts the face back to an 8-bit image, e.g. for encoding.
func (f *Face) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := range f.Height {
		for x := range f.Width {
			r, g, b := f.RGB(x, y)
			img.SetRGBA(x, y, color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255})
		}
	}
	return img
}

func to8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
