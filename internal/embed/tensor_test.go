package embed

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackNCHW(t *testing.T) {
	f := align.NewFace(2, 1)
	copy(f.Pix, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}) // two RGB pixels

	data, err := PackNCHW([]*align.Face{f}, false)
	require.NoError(t, err)
	require.Len(t, data, 6*4)

	got := make([]float32, 6)
	for i := range got {
		got[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	// planes: R R, G G, B B
	assert.Equal(t, []float32{0.1, 0.4, 0.2, 0.5, 0.3, 0.6}, got)
}

func TestPackNCHW_Standardize(t *testing.T) {
	f := align.NewFace(2, 1)
	copy(f.Pix, []float32{0, 0, 0, 1, 1, 1})

	data, err := PackNCHW([]*align.Face{f}, true)
	require.NoError(t, err)

	var sum float64
	for i := range 6 {
		sum += float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	assert.InDelta(t, 0, sum, 1e-6)
}

func TestPackNCHW_SizeMismatch(t *testing.T) {
	_, err := PackNCHW([]*align.Face{align.NewFace(2, 2), align.NewFace(3, 3)}, false)
	assert.Error(t, err)

	data, err := PackNCHW(nil, false)
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestSplit(t *testing.T) {
	rows, err := Split([]float32{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = Split([]float32{1, 2, 3}, 2)
	assert.ErrorIs(t, err, ErrCountMismatch)

	rows, err = Split(nil, 0)
	assert.NoError(t, err)
	assert.Nil(t, rows)
}
