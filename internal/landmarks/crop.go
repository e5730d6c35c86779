package landmarks

import (
	"fmt"
	"image"
)

// ExpandBox grows a detector box by margin (a fraction of its size) on every
// side and clips it to bounds. Landmark networks expect some context around
// the tight box a cascade detector returns.
func ExpandBox(box image.Rectangle, margin float64, bounds image.Rectangle) image.Rectangle {
	dx := int(float64(box.Dx()) * margin)
	dy := int(float64(box.Dy()) * margin)
	return image.Rect(box.Min.X-dx, box.Min.Y-dy, box.Max.X+dx, box.Max.Y+dy).Intersect(bounds)
}

// SetFromNormalized maps 136 values (x0, y0, x1, y1, ...) in [0, 1] relative
// to crop into image coordinates.
func SetFromNormalized(values []float32, crop image.Rectangle) (Set, error) {
	var s Set
	if len(values) != Count*2 {
		return s, fmt.Errorf("expected %d landmark values, got %d", Count*2, len(values))
	}
	w, h := float64(crop.Dx()), float64(crop.Dy())
	for i := range s {
		s[i] = Point{X: float64(values[2*i]) * w, Y: float64(values[2*i+1]) * h}
	}
	return s.Translated(float64(crop.Min.X), float64(crop.Min.Y)), nil
}
