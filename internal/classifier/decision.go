package classifier

import "github.com/kozaktomas/facerec/internal/constants"

// Decision is a thresholded prediction.
type Decision struct {
	Index      int     // best class index
	Label      string  // label of the best class, set even when not Known
	Confidence float64 // probability of the best class
	Known      bool    // Confidence > threshold
}

// Name returns the label for known identities and UnknownName otherwise.
func (d Decision) Name() string {
	if d.Known {
		return d.Label
	}
	return constants.UnknownName
}

// Decide picks the most probable class and reports it as known only when its
// probability is strictly greater than threshold. Ties go to the lower index.
func Decide(probs []float64, threshold float64) Decision {
	if len(probs) == 0 {
		return Decision{Index: -1}
	}
	best := 0
	for i, p := range probs[1:] {
		if p > probs[best] {
			best = i + 1
		}
	}
	return Decision{
		Index:      best,
		Confidence: probs[best],
		Known:      probs[best] > threshold,
	}
}
