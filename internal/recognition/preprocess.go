package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/landmarks"
)

// Preprocessor locates faces and aligns them. It is shared by dataset
// preparation and by every recognition path so training and inference see
// identically prepared faces.
type Preprocessor struct {
	locator  landmarks.Locator
	aligner  *align.Aligner
	upsample int
}

// NewPreprocessor creates a preprocessor that runs the locator with the given upsample count.
func NewPreprocessor(locator landmarks.Locator, aligner *align.Aligner, upsample int) (*Preprocessor, error) {
	if locator == nil || aligner == nil {
		return nil, errors.New("preprocessor needs a locator and an aligner")
	}
	if err := landmarks.CheckUpsample(upsample); err != nil {
		return nil, err
	}
	return &Preprocessor{locator: locator, aligner: aligner, upsample: upsample}, nil
}

// Locate returns every face in img.
func (p *Preprocessor) Locate(ctx context.Context, img image.Image) ([]landmarks.Detection, error) {
	dets, err := p.locator.Locate(ctx, img, p.upsample)
	if err != nil {
		return nil, fmt.Errorf("locating faces: %w", err)
	}
	return dets, nil
}

// Align warps one detection. Degenerate landmarks yield a nil face and no error.
func (p *Preprocessor) Align(img image.Image, det *landmarks.Detection) (*align.Face, error) {
	face, err := p.aligner.Align(img, &det.Landmarks)
	if errors.Is(err, align.ErrDegenerateLandmarks) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return face, nil
}

// AlignLargest locates faces and aligns the one with the largest bounding
// box. It returns a nil face when there is no face or it cannot be aligned;
// the detection is returned whenever a face was located.
func (p *Preprocessor) AlignLargest(ctx context.Context, img image.Image) (*align.Face, *landmarks.Detection, error) {
	dets, err := p.Locate(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	det, ok := landmarks.Largest(dets)
	if !ok {
		return nil, nil, nil
	}
	face, err := p.Align(img, &det)
	if err != nil {
		return nil, &det, err
	}
	return face, &det, nil
}

// PrepareFace returns the aligned largest face of img, or nil when there is none.
func (p *Preprocessor) PrepareFace(ctx context.Context, img image.Image) (*align.Face, error) {
	face, _, err := p.AlignLargest(ctx, img)
	return face, err
}
