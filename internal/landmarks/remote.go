package landmarks

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/imageutil"
	"github.com/kozaktomas/facerec/internal/remote"
	"k8s.io/klog/v2"
)

// faceResponse represents one face returned by the landmark server.
type faceResponse struct {
	BBox      []float64   `json:"bbox"` // [x1, y1, x2, y2] in input pixels
	Landmarks [][]float64 `json:"landmarks"`
	DetScore  float64     `json:"det_score"`
}

type landmarksResponse struct {
	FacesCount int            `json:"faces_count"`
	Faces      []faceResponse `json:"faces"`
	Model      string         `json:"model"`
}

// RemoteLocator locates faces using a landmark server reachable over HTTP.
type RemoteLocator struct {
	client *remote.Client
}

// NewRemoteLocator creates a new remote landmark locator.
func NewRemoteLocator(baseURL string, timeout time.Duration) *RemoteLocator {
	return &RemoteLocator{client: remote.NewClient(baseURL, timeout)}
}

// Locate enlarges the image 2^upsample times, sends it to the landmark
// server and maps the reported coordinates back to img.
func (l *RemoteLocator) Locate(ctx context.Context, img image.Image, upsample int) ([]Detection, error) {
	if err := CheckUpsample(upsample); err != nil {
		return nil, err
	}

	factor := UpsampleFactor(upsample)
	data, err := imageutil.EncodePNG(imageutil.Scale(img, factor))
	if err != nil {
		return nil, err
	}

	var resp landmarksResponse
	parts := []remote.Part{{Field: "file", FileName: "image.png", Data: data}}
	if err := l.client.PostImages(ctx, "/landmarks", parts, &resp); err != nil {
		return nil, fmt.Errorf("locating landmarks: %w", err)
	}

	dets := make([]Detection, 0, len(resp.Faces))
	for i, f := range resp.Faces {
		if len(f.BBox) != 4 {
			return nil, fmt.Errorf("face %d: expected 4 bbox values, got %d", i, len(f.BBox))
		}
		set, err := SetFromSlice(f.Landmarks)
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		dets = append(dets, Detection{
			Box:       image.Rect(int(f.BBox[0]), int(f.BBox[1]), int(f.BBox[2]+0.5), int(f.BBox[3]+0.5)),
			Landmarks: set,
			Score:     f.DetScore,
		})
	}

	klog.V(2).Infof("landmark server %s reported %d faces (model %q) at upsample %d", l.client.BaseURL(), len(dets), resp.Model, upsample)
	dets = Rescale(dets, float64(factor))
	return Suppress(dets, constants.SuppressionIoU), nil
}
