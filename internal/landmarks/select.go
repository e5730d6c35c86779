package landmarks

import (
	"image"
	"slices"
)

// Largest returns the detection with the largest bounding box area.
// Equal areas are broken by position (top-most, then left-most) so the
// choice does not depend on the order a detector reports faces in.
func Largest(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}
	best := dets[0]
	for _, d := range dets[1:] {
		if larger(d, best) {
			best = d
		}
	}
	return best, true
}

func larger(a, b Detection) bool {
	if a.Area() != b.Area() {
		return a.Area() > b.Area()
	}
	if a.Box.Min.Y != b.Box.Min.Y {
		return a.Box.Min.Y < b.Box.Min.Y
	}
	return a.Box.Min.X < b.Box.Min.X
}

// IoU calculates Intersection over Union between two bounding boxes.
func IoU(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}

	intersection := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - intersection
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// Suppress drops detections overlapping a larger one by more than threshold IoU.
// The survivors are ordered largest first.
func Suppress(dets []Detection, threshold float64) []Detection {
	if len(dets) < 2 {
		return dets
	}

	sorted := slices.Clone(dets)
	slices.SortStableFunc(sorted, func(a, b Detection) int {
		switch {
		case larger(a, b):
			return -1
		case larger(b, a):
			return 1
		}
		return 0
	})

	kept := make([]Detection, 0, len(sorted))
	for _, d := range sorted {
		overlaps := false
		for _, k := range kept {
			if IoU(d.Box, k.Box) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, d)
		}
	}
	return kept
}

// Rescale maps detections found on an image scaled by factor back to the
// original image coordinates.
func Rescale(dets []Detection, factor float64) []Detection {
	if factor == 1 || factor <= 0 {
		return dets
	}
	inv := 1 / factor
	out := make([]Detection, len(dets))
	for i, d := range dets {
		out[i] = Detection{
			Box: image.Rect(
				int(float64(d.Box.Min.X)*inv),
				int(float64(d.Box.Min.Y)*inv),
				int(float64(d.Box.Max.X)*inv+0.5),
				int(float64(d.Box.Max.Y)*inv+0.5),
			),
			Landmarks: d.Landmarks.Scaled(inv),
			Score:     d.Score,
		}
	}
	return out
}
