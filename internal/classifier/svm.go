package classifier

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// linearMachine is a binary max-margin separator f(x) = w.x + b.
type linearMachine struct {
	W []float64
	B float64
}

func (m *linearMachine) decision(x []float64) float64 {
	return floats.Dot(m.W, x) + m.B
}

// trainLinear fits a soft-margin linear SVM (hinge loss, penalty cost) by
// dual coordinate descent. The bias is learned as the weight of an implicit
// constant feature. Samples are visited in a shuffled order drawn from rng,
// so a fixed seed gives a reproducible machine.
func trainLinear(x [][]float64, positive []bool, cost, tolerance float64, maxIter int, rng *rand.Rand) linearMachine {
	n := len(x)
	d := len(x[0])

	w := make([]float64, d)
	var b float64
	alpha := make([]float64, n)
	y := make([]float64, n)
	qd := make([]float64, n)
	order := make([]int, n)
	for i := range n {
		y[i] = -1
		if positive[i] {
			y[i] = 1
		}
		qd[i] = floats.Dot(x[i], x[i]) + 1
		order[i] = i
	}

	for range maxIter {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		pgMax, pgMin := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			g := y[i]*(floats.Dot(w, x[i])+b) - 1

			// Projected gradient: zero when the bound blocks the step.
			pg := g
			switch {
			case alpha[i] == 0:
				pg = min(g, 0)
			case alpha[i] == cost:
				pg = max(g, 0)
			}
			pgMax = max(pgMax, pg)
			pgMin = min(pgMin, pg)

			if math.Abs(pg) > 1e-12 {
				old := alpha[i]
				alpha[i] = min(max(old-g/qd[i], 0), cost)
				delta := (alpha[i] - old) * y[i]
				floats.AddScaled(w, delta, x[i])
				b += delta
			}
		}

		if pgMax-pgMin <= tolerance {
			break
		}
	}

	return linearMachine{W: w, B: b}
}
