// Package trainer turns a loaded dataset into a calibrated classifier and
// checks a trained pipeline against labeled data.
package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/facerec/internal/classifier"
	"github.com/kozaktomas/facerec/internal/constants"
	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/kozaktomas/facerec/internal/embed"
	"k8s.io/klog/v2"
)

// Options configures a training run.
type Options struct {
	Classifier       classifier.TrainOptions
	BatchSize        int     // faces per extractor call
	ConflictDistance float64 // cosine distance under which differently labelled samples are reported, 0 disables
	OnEmbedded       func(n int)
}

// DefaultOptions returns the options used by the train command.
func DefaultOptions() Options {
	return Options{
		Classifier:       classifier.DefaultTrainOptions(),
		BatchSize:        constants.DefaultEmbeddingBatchSize,
		ConflictDistance: constants.DefaultConflictDistance,
	}
}

// Report summarizes a training run.
type Report struct {
	Samples       int
	Labels        []string
	PerLabel      map[string]int
	Dim           int
	Conflicts     []Conflict
	TrainAccuracy float64
	Duration      time.Duration
}

// Train embeds every sample and fits a classifier on the result. An empty
// sample set is rejected before the extractor is called.
func Train(ctx context.Context, samples []dataset.Sample, extractor embed.Extractor, opts Options) (*classifier.Model, *Report, error) {
	if len(samples) == 0 {
		return nil, nil, classifier.ErrEmptyTrainingSet
	}
	start := time.Now()

	faces, labels := dataset.Faces(samples)
	perLabel := make(map[string]int)
	for _, l := range labels {
		perLabel[l]++
	}
	if len(perLabel) < 2 {
		return nil, nil, classifier.ErrTooFewLabels
	}

	vecs, err := embed.Batched(ctx, extractor, faces, opts.BatchSize, opts.OnEmbedded)
	if err != nil {
		return nil, nil, err
	}
	dim, err := embed.Check(vecs, len(faces))
	if err != nil {
		return nil, nil, err
	}
	klog.V(1).Infof("embedded %d faces, dimension %d", len(vecs), dim)

	paths := make([]string, len(samples))
	for i, s := range samples {
		paths[i] = s.Path
	}
	conflicts := FindConflicts(vecs, labels, paths, opts.ConflictDistance)
	for _, c := range conflicts {
		klog.Warningf("%s (%s) and %s (%s) look identical (distance %.4f)", c.PathA, c.LabelA, c.PathB, c.LabelB, c.Distance)
	}

	model, err := classifier.Train(vecs, labels, opts.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("fitting classifier: %w", err)
	}

	correct := 0
	for i, v := range vecs {
		d, err := model.Classify(v, 0)
		if err != nil {
			return nil, nil, err
		}
		if d.Label == labels[i] {
			correct++
		}
	}

	return model, &Report{
		Samples:       len(samples),
		Labels:        model.Codec.Labels(),
		PerLabel:      perLabel,
		Dim:           dim,
		Conflicts:     conflicts,
		TrainAccuracy: float64(correct) / float64(len(vecs)),
		Duration:      time.Since(start),
	}, nil
}
