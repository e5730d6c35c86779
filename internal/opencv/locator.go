package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/landmarks"
	"gocv.io/x/gocv"
	"k8s.io/klog/v2"
)

// cropMargin is the context added around a cascade box before landmarking.
const cropMargin = 0.1

// LocatorOptions configures a Locator.
type LocatorOptions struct {
	CascadePath   string // Haar cascade XML for frontal faces
	LandmarkModel string // network regressing 68 normalized points from a face crop
	InputSize     int    // square input size of the landmark network
	MinFaceSize   int    // smallest face the cascade reports, in input pixels
}

// Locator finds faces with a Haar cascade and places 68 landmarks on each
// with a DNN. gocv objects are not safe for concurrent use, so calls are
// serialized.
type Locator struct {
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
	net     gocv.Net
	opts    LocatorOptions
}

// NewLocator loads the cascade and the landmark network. Missing files are an error.
func NewLocator(opts LocatorOptions) (*Locator, error) {
	if opts.InputSize <= 0 {
		return nil, fmt.Errorf("landmark input size must be positive, got %d", opts.InputSize)
	}
	if err := checkFile("face cascade", opts.CascadePath); err != nil {
		return nil, err
	}
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(opts.CascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("failed to load face cascade classifier from %s", opts.CascadePath)
	}
	net, err := readNet("landmark model", opts.LandmarkModel, "")
	if err != nil {
		cascade.Close()
		return nil, err
	}
	return &Locator{cascade: cascade, net: net, opts: opts}, nil
}

// Locate implements landmarks.Locator. The frame is enlarged 2^upsample times
// before detection so small faces are found; results are in frame coordinates.
func (l *Locator) Locate(ctx context.Context, img image.Image, upsample int) ([]landmarks.Detection, error) {
	if err := landmarks.CheckUpsample(upsample); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	mat, err := toMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	factor := landmarks.UpsampleFactor(upsample)
	if factor > 1 {
		size := image.Pt(mat.Cols()*factor, mat.Rows()*factor)
		gocv.Resize(mat, &mat, size, 0, 0, gocv.InterpolationLinear)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)

	minSize := image.Pt(l.opts.MinFaceSize, l.opts.MinFaceSize)
	rects := l.cascade.DetectMultiScaleWithParams(gray, 1.1, 5, 0, minSize, image.Point{})

	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())
	dets := make([]landmarks.Detection, 0, len(rects))
	for _, r := range rects {
		crop := landmarks.ExpandBox(r, cropMargin, bounds)
		if crop.Empty() {
			continue
		}
		set, err := l.landmarks(mat, crop)
		if err != nil {
			return nil, err
		}
		dets = append(dets, landmarks.Detection{Box: r, Landmarks: set, Score: 1})
	}
	klog.V(2).Infof("cascade found %d faces at upsample %d", len(dets), upsample)

	dets = landmarks.Rescale(dets, float64(factor))
	return landmarks.Suppress(dets, constants.SuppressionIoU), nil
}

func (l *Locator) landmarks(mat gocv.Mat, crop image.Rectangle) (landmarks.Set, error) {
	region := mat.Region(crop)
	defer region.Close()

	size := image.Pt(l.opts.InputSize, l.opts.InputSize)
	blob := gocv.BlobFromImage(region, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	l.net.SetInput(blob, "")
	out := l.net.Forward("")
	defer out.Close()

	values, err := outputValues(out)
	if err != nil {
		return landmarks.Set{}, err
	}
	return landmarks.SetFromNormalized(values, crop)
}

// Close releases the cascade and the network.
func (l *Locator) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.net.Close(); err != nil {
		return err
	}
	return l.cascade.Close()
}
