package trainer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"github.com/kozaktomas/facerec/internal/landmarks"
	"github.com/kozaktomas/facerec/internal/recognition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// centerFace reports one face in the middle of a 200x200 image unless its
// top-left pixel is black.
var centerFace = landmarks.LocatorFunc(func(_ context.Context, img image.Image, _ int) ([]landmarks.Detection, error) {
	r, g, b, _ := img.At(0, 0).RGBA()
	if r == 0 && g == 0 && b == 0 {
		return nil, nil
	}
	var set landmarks.Set
	for i := landmarks.LeftEye.Start; i < landmarks.LeftEye.End; i++ {
		set[i] = landmarks.Point{X: 85, Y: 90}
	}
	for i := landmarks.RightEye.Start; i < landmarks.RightEye.End; i++ {
		set[i] = landmarks.Point{X: 115, Y: 90}
	}
	return []landmarks.Detection{{Box: image.Rect(50, 50, 150, 150), Landmarks: set}}, nil
})

func writeSolidPNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := range 200 {
		for x := range 200 {
			img.SetRGBA(x, y, c)
		}
	}
	data, err := imageutil.EncodePNG(img)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestEnrollAndRecognize(t *testing.T) {
	root := t.TempDir()
	for i := range 5 {
		shade := uint8(i * 8)
		name := fmt.Sprintf("%03d.png", i)
		writeSolidPNG(t, filepath.Join(root, "Alice", name), color.RGBA{R: 200 + shade, G: 30 + shade, B: 30, A: 255})
		writeSolidPNG(t, filepath.Join(root, "Bob", name), color.RGBA{R: 30, G: 30 + shade, B: 200 + shade, A: 255})
	}
	// neither of these becomes a sample
	writeSolidPNG(t, filepath.Join(root, "Alice", "dark.png"), color.RGBA{A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(root, "Bob", "notes.txt"), []byte("not an image"), 0o644))

	aligner, err := align.New(align.Options{
		Width:    constants.AlignedFaceWidth,
		Height:   constants.AlignedFaceHeight,
		LeftEyeX: constants.DesiredLeftEyeX,
		LeftEyeY: constants.DesiredLeftEyeY,
	})
	require.NoError(t, err)
	pre, err := recognition.NewPreprocessor(centerFace, aligner, 0)
	require.NoError(t, err)

	ctx := context.Background()
	samples, stats, err := dataset.Load(ctx, root, pre, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, stats.Labels)
	assert.Equal(t, 11, stats.Files)
	assert.Equal(t, 10, stats.Aligned)
	assert.Equal(t, 1, stats.NoFace)
	require.Len(t, samples, 10)
	assert.Equal(t, constants.AlignedFaceWidth, samples[0].Face.Width)

	model, report, err := Train(ctx, samples, meanColor, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Alice": 5, "Bob": 5}, report.PerLabel)

	dir := t.TempDir()
	require.NoError(t, model.Save(dir))
	loaded, err := classifier.Load(dir)
	require.NoError(t, err)

	p, err := recognition.New(pre, meanColor, loaded, constants.DefaultRecognitionThreshold)
	require.NoError(t, err)

	heldOut := filepath.Join(t.TempDir(), "alice.png")
	writeSolidPNG(t, heldOut, color.RGBA{R: 215, G: 40, B: 30, A: 255})
	img, err := imageutil.Open(heldOut)
	require.NoError(t, err)

	r, err := p.RecognizeLargest(ctx, img)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, recognition.StatusKnown, r.Status)
	assert.Equal(t, "Alice", r.Name)
	assert.Greater(t, r.Confidence, constants.DefaultRecognitionThreshold)
}
