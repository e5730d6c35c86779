// Package align warps a located face into the canonical eye-aligned crop
// that the embedding network expects.
package align

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/kozaktomas/facerec/internal/landmarks"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// ErrDegenerateLandmarks is returned when the eye centers coincide and no
// rotation or scale can be derived. Callers treat it as "no face".
var ErrDegenerateLandmarks = errors.New("eye centers coincide")

// Options configures the canonical crop.
type Options struct {
	Width    int
	Height   int
	LeftEyeX float64 // fraction of Width
	LeftEyeY float64 // fraction of Height, shared by both eyes
}

// Aligner maps faces onto a fixed-size crop with the eyes at fixed positions.
type Aligner struct {
	opts Options
}

// New creates an aligner, validating the target geometry.
func New(opts Options) (*Aligner, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("aligned face size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.LeftEyeX <= 0 || opts.LeftEyeX >= 0.5 || opts.LeftEyeY <= 0 || opts.LeftEyeY >= 1 {
		return nil, fmt.Errorf("desired left eye (%v, %v) out of range", opts.LeftEyeX, opts.LeftEyeY)
	}
	return &Aligner{opts: opts}, nil
}

// Transform returns the similarity transform from source pixel coordinates
// to aligned-face coordinates. The eye midpoint is rotated so both eyes lie on
// one horizontal line, scaled so their distance is (1 - 2*LeftEyeX)*Width, and
// moved to (Width/2, Height*LeftEyeY).
func (a *Aligner) Transform(set *landmarks.Set) (f64.Aff3, error) {
	left, right := set.EyeCenters()
	dx := right.X - left.X
	dy := right.Y - left.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 || math.IsNaN(dist) || math.IsInf(dist, 0) {
		return f64.Aff3{}, ErrDegenerateLandmarks
	}

	angle := math.Atan2(dy, dx)
	desiredDist := (1 - 2*a.opts.LeftEyeX) * float64(a.opts.Width)
	scale := desiredDist / dist

	cx := (left.X + right.X) / 2
	cy := (left.Y + right.Y) / 2

	alpha := scale * math.Cos(angle)
	beta := scale * math.Sin(angle)

	tx := float64(a.opts.Width) * 0.5
	ty := float64(a.opts.Height) * a.opts.LeftEyeY

	return f64.Aff3{
		alpha, beta, (1-alpha)*cx - beta*cy + (tx - cx),
		-beta, alpha, beta*cx + (1-alpha)*cy + (ty - cy),
	}, nil
}

// Align warps img so the eyes of set land on the canonical positions.
// Pixels mapped from outside the source are black and the result is
// rescaled to [0, 1].
func (a *Aligner) Align(img image.Image, set *landmarks.Set) (*Face, error) {
	m, err := a.Transform(set)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, a.opts.Width, a.opts.Height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	draw.CatmullRom.Transform(dst, pixelCenterTransform(m, img.Bounds().Min), img, img.Bounds(), draw.Over, nil)

	return FromRGBA(dst), nil
}

// pixelCenterTransform adapts a transform defined on integer pixel
// coordinates relative to the image origin to x/image/draw, which works in
// absolute coordinates and samples at pixel centers.
func pixelCenterTransform(m f64.Aff3, origin image.Point) f64.Aff3 {
	sx := float64(origin.X) + 0.5
	sy := float64(origin.Y) + 0.5
	out := m
	out[2] = m[2] + 0.5 - (m[0]*sx + m[1]*sy)
	out[5] = m[5] + 0.5 - (m[3]*sx + m[4]*sy)
	return out
}
