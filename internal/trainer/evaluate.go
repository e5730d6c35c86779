package trainer

import (
	"context"
	"image"

	"github.com/kozaktomas/facerec/internal/dataset"
	"github.com/kozaktomas/facerec/internal/recognition"
)

// LabelScore counts outcomes for one true label.
type LabelScore struct {
	Total   int
	Correct int
	Unknown int
	Wrong   int
}

// Evaluation is the outcome of running the recognition decision over labeled samples.
type Evaluation struct {
	LabelScore
	PerLabel map[string]*LabelScore
	// Confusions counts wrong known predictions as true label -> predicted label.
	Confusions map[string]map[string]int
}

// Accuracy is the share of samples recognized as their own label.
func (e *Evaluation) Accuracy() float64 {
	if e.Total == 0 {
		return 0
	}
	return float64(e.Correct) / float64(e.Total)
}

// Evaluate runs the pipeline's decision rule over already aligned samples.
// Predictions under the pipeline threshold count as Unknown, never as wrong.
func Evaluate(ctx context.Context, p *recognition.Pipeline, samples []dataset.Sample, progress func()) (*Evaluation, error) {
	ev := &Evaluation{
		PerLabel:   make(map[string]*LabelScore),
		Confusions: make(map[string]map[string]int),
	}
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := p.RecognizeAligned(ctx, s.Face, image.Rectangle{})
		if err != nil {
			return nil, err
		}

		ls := ev.PerLabel[s.Label]
		if ls == nil {
			ls = &LabelScore{}
			ev.PerLabel[s.Label] = ls
		}
		ls.Total++
		ev.Total++
		switch {
		case !r.Known():
			ls.Unknown++
			ev.Unknown++
		case r.Name == s.Label:
			ls.Correct++
			ev.Correct++
		default:
			ls.Wrong++
			ev.Wrong++
			if ev.Confusions[s.Label] == nil {
				ev.Confusions[s.Label] = make(map[string]int)
			}
			ev.Confusions[s.Label][r.Name]++
		}
		if progress != nil {
			progress()
		}
	}
	return ev, nil
}
