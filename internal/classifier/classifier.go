// Package classifier implements the closed-set identity classifier: a label
// codec, one-vs-rest linear max-margin machines over face embeddings and
// Platt-calibrated class probabilities.
package classifier

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/facerec/internal/constants"
	"k8s.io/klog/v2"
)

var (
	// ErrEmptyTrainingSet is returned when training is attempted without samples.
	ErrEmptyTrainingSet = errors.New("training set is empty")

	// ErrTooFewLabels is returned when the samples carry fewer than two distinct labels.
	ErrTooFewLabels = errors.New("training requires at least two distinct labels")

	// ErrDimension is returned when an embedding does not match the model dimension.
	ErrDimension = errors.New("embedding dimension mismatch")

	// ErrNonFinite is returned when an embedding holds a NaN or infinite value.
	ErrNonFinite = errors.New("embedding has non-finite values")
)

// TrainOptions tunes the fit. The zero value is not valid; use DefaultTrainOptions.
type TrainOptions struct {
	Cost      float64 // soft-margin penalty
	Tolerance float64 // projected gradient gap at which a machine stops
	MaxIter   int
	Folds     int // cross-validation folds for calibration
	Seed      int64
}

// DefaultTrainOptions returns the standard training parameters.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Cost:      constants.DefaultSVMCost,
		Tolerance: constants.SVMTolerance,
		MaxIter:   constants.SVMMaxIterations,
		Folds:     constants.CalibrationFolds,
		Seed:      constants.DefaultTrainingSeed,
	}
}

// machine is one class's separator with its calibration.
type machine struct {
	linearMachine
	Platt sigmoid
}

// Model is the trained classifier state. Codec and machines are only valid together.
type Model struct {
	ID        uuid.UUID
	Codec     *Codec
	Dim       int
	Samples   int
	CreatedAt time.Time
	machines  []machine
}

// Train fits one calibrated machine per label. It fails before doing any work
// when the set is empty, has a single label or has inconsistent dimensions.
func Train(embeddings [][]float32, labels []string, opts TrainOptions) (*Model, error) {
	if len(embeddings) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(embeddings) != len(labels) {
		return nil, fmt.Errorf("got %d embeddings but %d labels", len(embeddings), len(labels))
	}
	if opts.Cost <= 0 || opts.MaxIter <= 0 {
		return nil, fmt.Errorf("invalid training options: %+v", opts)
	}

	dim := len(embeddings[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrDimension)
	}
	x := make([][]float64, len(embeddings))
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: sample %d has %d values, expected %d", ErrDimension, i, len(e), dim)
		}
		if !finite(e) {
			return nil, fmt.Errorf("%w: sample %d", ErrNonFinite, i)
		}
		x[i] = toFloat64(e)
	}

	codec := NewCodec(labels)
	if codec.Len() < 2 {
		return nil, fmt.Errorf("%w (got %d)", ErrTooFewLabels, codec.Len())
	}
	y, err := codec.EncodeAll(labels)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(uint64(opts.Seed), uint64(opts.Seed)^0x9e3779b97f4a7c15))

	classes := codec.Len()
	machines := make([]machine, classes)
	for c := range classes {
		machines[c].linearMachine = trainLinear(x, positives(y, c), opts.Cost, opts.Tolerance, opts.MaxIter, rng)
	}

	dec := calibrationDecisions(x, y, classes, machines, opts, rng)
	for c := range classes {
		machines[c].Platt = fitSigmoid(dec[c], positives(y, c))
	}

	return &Model{
		ID:        uuid.New(),
		Codec:     codec,
		Dim:       dim,
		Samples:   len(embeddings),
		CreatedAt: time.Now().UTC(),
		machines:  machines,
	}, nil
}

// calibrationDecisions returns per-class decision values for every sample.
// When every class can populate each fold, the values come from held-out
// folds; otherwise the final machines are evaluated on their own training data.
func calibrationDecisions(x [][]float64, y []int, classes int, final []machine, opts TrainOptions, rng *rand.Rand) [][]float64 {
	dec := make([][]float64, classes)
	for c := range dec {
		dec[c] = make([]float64, len(x))
	}

	folds := opts.Folds
	if folds < 2 || minClassCount(y, classes) < folds {
		klog.V(1).Infof("calibrating on training decision values (fewer than %d samples in some class)", folds)
		for c := range classes {
			for i := range x {
				dec[c][i] = final[c].decision(x[i])
			}
		}
		return dec
	}

	assignment := stratifiedFolds(y, classes, folds, rng)
	for k := range folds {
		var trainX [][]float64
		var trainY []int
		var held []int
		for i := range x {
			if assignment[i] == k {
				held = append(held, i)
				continue
			}
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		}
		for c := range classes {
			m := trainLinear(trainX, positives(trainY, c), opts.Cost, opts.Tolerance, opts.MaxIter, rng)
			for _, i := range held {
				dec[c][i] = m.decision(x[i])
			}
		}
	}
	return dec
}

// stratifiedFolds deals each class's samples round-robin over the folds after shuffling.
func stratifiedFolds(y []int, classes, folds int, rng *rand.Rand) []int {
	byClass := make([][]int, classes)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	assignment := make([]int, len(y))
	for _, idx := range byClass {
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for pos, i := range idx {
			assignment[i] = pos % folds
		}
	}
	return assignment
}

func minClassCount(y []int, classes int) int {
	counts := make([]int, classes)
	for _, c := range y {
		counts[c]++
	}
	m := len(y)
	for _, n := range counts {
		m = min(m, n)
	}
	return m
}

func positives(y []int, class int) []bool {
	out := make([]bool, len(y))
	for i, c := range y {
		out[i] = c == class
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

func finite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

// Classes returns the number of identities the model distinguishes.
func (m *Model) Classes() int {
	return len(m.machines)
}

// Probabilities returns one calibrated probability per class, in codec order.
// The values are non-negative and sum to 1.
func (m *Model) Probabilities(embedding []float32) ([]float64, error) {
	if len(embedding) != m.Dim {
		return nil, fmt.Errorf("%w: got %d values, model expects %d", ErrDimension, len(embedding), m.Dim)
	}
	if !finite(embedding) {
		return nil, ErrNonFinite
	}
	x := toFloat64(embedding)

	probs := make([]float64, len(m.machines))
	var sum float64
	for c := range m.machines {
		probs[c] = m.machines[c].Platt.prob(m.machines[c].decision(x))
		sum += probs[c]
	}
	if sum <= 0 {
		for c := range probs {
			probs[c] = 1 / float64(len(probs))
		}
		return probs, nil
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}

// Classify predicts the identity of an embedding and applies the threshold.
func (m *Model) Classify(embedding []float32, threshold float64) (Decision, error) {
	probs, err := m.Probabilities(embedding)
	if err != nil {
		return Decision{}, err
	}
	d := Decide(probs, threshold)
	label, err := m.Codec.Decode(d.Index)
	if err != nil {
		return Decision{}, err
	}
	d.Label = label
	return d, nil
}
