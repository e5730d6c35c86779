// Package recognition runs the locate, align, embed, classify and threshold
// sequence for a single image or frame.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/facerec/internal/align"
	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/embed"
	"github.com/kozaktomas/facerec/internal/landmarks"
)

// Status tells which branch of the decision a face ended in.
type Status int

const (
	StatusKnown Status = iota
	StatusUnknown
	StatusNoFaceData
)

func (s Status) String() string {
	switch s {
	case StatusKnown:
		return "known"
	case StatusUnknown:
		return "unknown"
	case StatusNoFaceData:
		return "no_face_data"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome for one located face.
type Result struct {
	Box        image.Rectangle
	Status     Status
	Name       string  // label, UnknownName or NoFaceDataName
	Label      string  // best matching label, also set when Unknown
	Confidence float64 // probability of the best label, 0 for NoFaceData
}

// Known reports whether the face was recognized as an enrolled identity.
func (r Result) Known() bool {
	return r.Status == StatusKnown
}

// ConfidenceText formats the confidence as a percentage with one decimal,
// or N/A when no prediction was made.
func (r Result) ConfidenceText() string {
	if r.Status == StatusNoFaceData {
		return constants.NotAvailable
	}
	return fmt.Sprintf("%.1f%%", r.Confidence*100)
}

// Caption is the overlay text drawn next to a face.
func (r Result) Caption() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ConfidenceText())
}

// Pipeline holds everything recognition needs. It is built once and keeps
// no state between calls, so it is safe for concurrent use when its
// components are.
type Pipeline struct {
	pre       *Preprocessor
	extractor embed.Extractor
	model     *classifier.Model
	threshold float64
}

// New creates a pipeline. The threshold passed here is the only one used for
// every decision the pipeline makes.
func New(pre *Preprocessor, extractor embed.Extractor, model *classifier.Model, threshold float64) (*Pipeline, error) {
	if pre == nil || extractor == nil || model == nil {
		return nil, errors.New("pipeline needs a preprocessor, an extractor and a model")
	}
	if threshold < 0 || threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in [0, 1), got %v", threshold)
	}
	return &Pipeline{pre: pre, extractor: extractor, model: model, threshold: threshold}, nil
}

// Threshold returns the confidence threshold.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

// Model returns the classifier the pipeline predicts with.
func (p *Pipeline) Model() *classifier.Model {
	return p.model
}

// Preprocessor returns the locate-and-align stage.
func (p *Pipeline) Preprocessor() *Preprocessor {
	return p.pre
}

// Recognize returns one result per located face.
func (p *Pipeline) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	dets, err := p.pre.Locate(ctx, img)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(dets))
	for i := range dets {
		r, err := p.RecognizeDetection(ctx, img, &dets[i])
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// RecognizeLargest recognizes only the face with the largest bounding box.
// It returns nil when no face was located.
func (p *Pipeline) RecognizeLargest(ctx context.Context, img image.Image) (*Result, error) {
	dets, err := p.pre.Locate(ctx, img)
	if err != nil {
		return nil, err
	}
	det, ok := landmarks.Largest(dets)
	if !ok {
		return nil, nil
	}
	r, err := p.RecognizeDetection(ctx, img, &det)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// RecognizeDetection aligns, embeds and classifies one located face.
func (p *Pipeline) RecognizeDetection(ctx context.Context, img image.Image, det *landmarks.Detection) (Result, error) {
	face, err := p.pre.Align(img, det)
	if err != nil {
		return Result{}, err
	}
	if face == nil {
		return Result{Box: det.Box, Status: StatusNoFaceData, Name: constants.NoFaceDataName}, nil
	}
	return p.RecognizeAligned(ctx, face, det.Box)
}

// RecognizeAligned embeds and classifies an already aligned face.
func (p *Pipeline) RecognizeAligned(ctx context.Context, face *align.Face, box image.Rectangle) (Result, error) {
	vecs, err := p.extractor.Embed(ctx, []*align.Face{face})
	if err != nil {
		return Result{}, fmt.Errorf("embedding face: %w", err)
	}
	if _, err := embed.Check(vecs, 1); err != nil {
		return Result{}, err
	}

	d, err := p.model.Classify(vecs[0], p.threshold)
	if err != nil {
		return Result{}, fmt.Errorf("classifying face: %w", err)
	}

	status := StatusUnknown
	if d.Known {
		status = StatusKnown
	}
	return Result{
		Box:        box,
		Status:     status,
		Name:       d.Name(),
		Label:      d.Label,
		Confidence: d.Confidence,
	}, nil
}
