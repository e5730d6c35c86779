// Package landmarks locates faces and their 68-point landmark sets.
package landmarks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/kozaktomas/facerec/internal/constants"
)

// Count is the number of points in a landmark set.
const Count = 68

// ErrInvalidUpsample is returned for upsample counts outside [0, MaxUpsample].
var ErrInvalidUpsample = errors.New("invalid upsample count")

// Point is a landmark position in source image pixels.
type Point struct {
	X, Y float64
}

// Range is a half-open index range into a Set.
type Range struct {
	Start, End int
}

// Regions of the 68-point convention. Left and right are as seen in the image.
var (
	Jaw       = Range{0, 17}
	LeftBrow  = Range{17, 22}
	RightBrow = Range{22, 27}
	Nose      = Range{27, 36}
	LeftEye   = Range{36, 42}
	RightEye  = Range{42, 48}
	Mouth     = Range{48, 68}
)

// Set is one face's 68 landmark points.
type Set [Count]Point

// Center returns the mean of the points in r.
func (s *Set) Center(r Range) Point {
	var c Point
	n := float64(r.End - r.Start)
	for _, p := range s[r.Start:r.End] {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= n
	c.Y /= n
	return c
}

// EyeCenters returns the left and right eye centers.
func (s *Set) EyeCenters() (left, right Point) {
	return s.Center(LeftEye), s.Center(RightEye)
}

// Scaled returns a copy of the set with every coordinate multiplied by f.
func (s Set) Scaled(f float64) Set {
	for i := range s {
		s[i].X *= f
		s[i].Y *= f
	}
	return s
}

// Translated returns a copy of the set shifted by (dx, dy).
func (s Set) Translated(dx, dy float64) Set {
	for i := range s {
		s[i].X += dx
		s[i].Y += dy
	}
	return s
}

// SetFromSlice builds a Set from [x, y] pairs, rejecting anything that is not 68 points.
func SetFromSlice(points [][]float64) (Set, error) {
	var s Set
	if len(points) != Count {
		return s, fmt.Errorf("expected %d landmarks, got %d", Count, len(points))
	}
	for i, p := range points {
		if len(p) != 2 {
			return s, fmt.Errorf("landmark %d: expected [x, y], got %d values", i, len(p))
		}
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			return s, fmt.Errorf("landmark %d is not a number", i)
		}
		s[i] = Point{X: p[0], Y: p[1]}
	}
	return s, nil
}

// Detection is a located face with its landmark set.
type Detection struct {
	Box       image.Rectangle
	Landmarks Set
	Score     float64
}

// Area returns the bounding box area in pixels.
func (d Detection) Area() int {
	return d.Box.Dx() * d.Box.Dy()
}

// Locator finds faces in an image. An image without faces yields an empty
// slice and no error. Upsample is the number of times the image is doubled
// before detection; coordinates are always reported in the input image.
type Locator interface {
	Locate(ctx context.Context, img image.Image, upsample int) ([]Detection, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context, img image.Image, upsample int) ([]Detection, error)

func (f LocatorFunc) Locate(ctx context.Context, img image.Image, upsample int) ([]Detection, error) {
	return f(ctx, img, upsample)
}

// CheckUpsample validates an upsample count.
func CheckUpsample(upsample int) error {
	if upsample < 0 || upsample > constants.MaxUpsample {
		return fmt.Errorf("%w: %d (expected 0-%d)", ErrInvalidUpsample, upsample, constants.MaxUpsample)
	}
	return nil
}

// UpsampleFactor returns the linear scale applied for an upsample count.
func UpsampleFactor(upsample int) int {
	return 1 << upsample
}
