package recognition

import (
	"context"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/embed"
	"github.com/kozaktomas/facerec/internal/landmarks"
)

// degenerateMarker is the red value of images whose face has coincident eyes.
const degenerateMarker = 13

// faceBox is where the fake locator "finds" a face.
var faceBox = image.Rect(60, 60, 140, 140)

func eyes(left, right landmarks.Point) landmarks.Set {
	var s landmarks.Set
	for i := landmarks.LeftEye.Start; i < landmarks.LeftEye.End; i++ {
		s[i] = left
	}
	for i := landmarks.RightEye.Start; i < landmarks.RightEye.End; i++ {
		s[i] = right
	}
	return s
}

// fakeLocator reports one face in the middle of any non-empty image. Images
// whose top-left pixel is black have no face.
var fakeLocator = landmarks.LocatorFunc(func(_ context.Context, img image.Image, _ int) ([]landmarks.Detection, error) {
	r, g, b, _ := img.At(0, 0).RGBA()
	if r == 0 && g == 0 && b == 0 {
		return nil, nil
	}
	set := eyes(landmarks.Point{X: 85, Y: 90}, landmarks.Point{X: 115, Y: 90})
	if r>>8 == degenerateMarker {
		set = eyes(landmarks.Point{X: 100, Y: 90}, landmarks.Point{X: 100, Y: 90})
	}
	return []landmarks.Detection{{Box: faceBox, Landmarks: set}}, nil
})

// meanColorExtractor embeds a face as its mean RGB.
var meanColorExtractor = embed.Func(func(_ context.Context, faces []*align.Face) ([][]float32, error) {
	out := make([][]float32, len(faces))
	for i, f := range faces {
		var sum [3]float32
		for j, v := range f.Pix {
			sum[j%3] += v
		}
		n := float32(f.Width * f.Height)
		out[i] = []float32{sum[0] / n, sum[1] / n, sum[2] / n}
	}
	return out, nil
})

func solidImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := range 200 {
		for x := range 200 {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// colorModel is trained so red is alice, green is bob and blue is carol.
func colorModel(t *testing.T) *classifier.Model {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 6))
	var x [][]float32
	var y []string
	for c, label := range []string{"alice", "bob", "carol"} {
		for range 8 {
			v := []float32{
				float32(rng.Float64() * 0.05),
				float32(rng.Float64() * 0.05),
				float32(rng.Float64() * 0.05),
			}
			v[c] = 1 - float32(rng.Float64()*0.05)
			x = append(x, v)
			y = append(y, label)
		}
	}
	model, err := classifier.Train(x, y, classifier.DefaultTrainOptions())
	if err != nil {
		t.Fatalf("training color model: %v", err)
	}
	return model
}

func testAligner(t *testing.T) *align.Aligner {
	t.Helper()
	a, err := align.New(align.Options{Width: 40, Height: 40, LeftEyeX: 0.35, LeftEyeY: 0.35})
	if err != nil {
		t.Fatalf("creating aligner: %v", err)
	}
	return a
}

func testPipeline(t *testing.T, threshold float64) *Pipeline {
	t.Helper()
	pre, err := NewPreprocessor(fakeLocator, testAligner(t), 1)
	if err != nil {
		t.Fatalf("creating preprocessor: %v", err)
	}
	p, err := New(pre, meanColorExtractor, colorModel(t), threshold)
	if err != nil {
		t.Fatalf("creating pipeline: %v", err)
	}
	return p
}
