package embed

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/kozaktomas/facerec/internal/align"
)

// PackNCHW lays the faces out as a little-endian float32 tensor of shape
// [N, 3, H, W], the input layout of networks exported from PyTorch. All faces
// must share one size. With standardize set every face is standardized first.
func PackNCHW(faces []*align.Face, standardize bool) ([]byte, error) {
	if len(faces) == 0 {
		return nil, nil
	}
	w, h := faces[0].Width, faces[0].Height
	plane := w * h
	out := make([]byte, 0, len(faces)*3*plane*4)
	for i, f := range faces {
		if f.Width != w || f.Height != h {
			return nil, fmt.Errorf("face %d is %dx%d, expected %dx%d", i, f.Width, f.Height, w, h)
		}
		pix := f.Pix
		if standardize {
			pix = Standardize(pix)
		}
		for c := range 3 {
			for p := range plane {
				out = binary.LittleEndian.AppendUint32(out, math.Float32bits(pix[p*3+c]))
			}
		}
	}
	return out, nil
}

// Split cuts a flat network output into n rows of equal length.
func Split(flat []float32, n int) ([][]float32, error) {
	if n == 0 {
		return nil, nil
	}
	if len(flat) == 0 || len(flat)%n != 0 {
		return nil, fmt.Errorf("%w: %d values cannot be split into %d embeddings", ErrCountMismatch, len(flat), n)
	}
	dim := len(flat) / n
	out := make([][]float32, n)
	for i := range out {
		out[i] = append([]float32(nil), flat[i*dim:(i+1)*dim]...)
	}
	return out, nil
}
