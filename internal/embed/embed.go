// Package embed turns aligned faces into fixed-length embedding vectors.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/kozaktomas/facerec/internal/align"
)

var (
	// ErrCountMismatch is returned when an extractor does not return one embedding per face.
	ErrCountMismatch = errors.New("embedding count does not match face count")

	// ErrDimensionMismatch is returned when embeddings in one batch differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNonFinite is returned when an embedding holds a NaN or infinite value.
	ErrNonFinite = errors.New("embedding has non-finite values")
)

// Extractor computes one embedding per aligned face. An empty batch yields an
// empty result; otherwise the i-th embedding belongs to the i-th face.
type Extractor interface {
	Embed(ctx context.Context, faces []*align.Face) ([][]float32, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, faces []*align.Face) ([][]float32, error)

func (f Func) Embed(ctx context.Context, faces []*align.Face) ([][]float32, error) {
	return f(ctx, faces)
}

// Check verifies the count, dimension and finiteness of a batch of embeddings
// and returns the dimension.
func Check(embeddings [][]float32, faces int) (int, error) {
	if len(embeddings) != faces {
		return 0, fmt.Errorf("%w: got %d for %d faces", ErrCountMismatch, len(embeddings), faces)
	}
	if faces == 0 {
		return 0, nil
	}
	dim := len(embeddings[0])
	if dim == 0 {
		return 0, errors.New("empty embedding returned")
	}
	for i, e := range embeddings {
		if len(e) != dim {
			return 0, fmt.Errorf("%w: embedding %d has %d values, expected %d", ErrDimensionMismatch, i, len(e), dim)
		}
		for j, v := range e {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return 0, fmt.Errorf("%w: embedding %d value %d is %v", ErrNonFinite, i, j, v)
			}
		}
	}
	return dim, nil
}

// Batched calls ex on consecutive chunks of at most size faces and reports
// progress after each chunk.
func Batched(ctx context.Context, ex Extractor, faces []*align.Face, size int, progress func(done int)) ([][]float32, error) {
	if size <= 0 {
		size = len(faces)
	}
	out := make([][]float32, 0, len(faces))
	for start := 0; start < len(faces); start += size {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+size, len(faces))
		vecs, err := ex.Embed(ctx, faces[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding faces %d-%d: %w", start, end-1, err)
		}
		if _, err := Check(vecs, end-start); err != nil {
			return nil, err
		}
		out = append(out, vecs...)
		if progress != nil {
			progress(end - start)
		}
	}
	if _, err := Check(out, len(faces)); err != nil {
		return nil, err
	}
	return out, nil
}

// Standardize returns the face samples shifted to zero mean and unit variance,
// the per-image normalization FaceNet-style networks are trained with. The
// deviation is floored at 1/sqrt(n) so flat images do not blow up.
func Standardize(pix []float32) []float32 {
	n := float64(len(pix))
	if n == 0 {
		return nil
	}
	var sum, sq float64
	for _, v := range pix {
		sum += float64(v)
	}
	mean := sum / n
	for _, v := range pix {
		d := float64(v) - mean
		sq += d * d
	}
	std := max(math.Sqrt(sq/n), 1/math.Sqrt(n))

	out := make([]float32, len(pix))
	for i, v := range pix {
		out[i] = float32((float64(v) - mean) / std)
	}
	return out
}
