package classifier

import "math"

// sigmoid holds Platt scaling parameters: P(positive | f) = 1 / (1 + exp(A*f + B)).
type sigmoid struct {
	A float64
	B float64
}

func (s sigmoid) prob(f float64) float64 {
	fApB := f*s.A + s.B
	if fApB >= 0 {
		e := math.Exp(-fApB)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(fApB))
}

// fitSigmoid fits Platt's sigmoid to decision values with a Newton method and
// backtracking line search. Targets are smoothed by the class priors
// ((N+ + 1)/(N+ + 2) and 1/(N- + 2)) so separable data does not drive the
// slope to infinity.
func fitSigmoid(dec []float64, positive []bool) sigmoid {
	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	var prior1, prior0 float64
	for _, p := range positive {
		if p {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(dec))
	for i, p := range positive {
		t[i] = loTarget
		if p {
			t[i] = hiTarget
		}
	}

	a := 0.0
	b := math.Log((prior0 + 1) / (prior1 + 1))
	fval := sigmoidLoss(dec, t, a, b)

	for range maxIter {
		h11, h22, h21 := sigma, sigma, 0.0
		g1, g2 := 0.0, 0.0
		for i, f := range dec {
			fApB := f*a + b
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p = e / (1 + e)
				q = 1 / (1 + e)
			} else {
				e := math.Exp(fApB)
				p = 1 / (1 + e)
				q = e / (1 + e)
			}
			d2 := p * q
			h11 += f * f * d2
			h22 += d2
			h21 += f * d2
			d1 := t[i] - p
			g1 += f * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA := a + step*dA
			newB := b + step*dB
			newf := sigmoidLoss(dec, t, newA, newB)
			if newf < fval+0.0001*step*gd {
				a, b, fval = newA, newB, newf
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}

	return sigmoid{A: a, B: b}
}

// sigmoidLoss is the cross-entropy of the sigmoid against the targets.
func sigmoidLoss(dec, t []float64, a, b float64) float64 {
	var f float64
	for i, d := range dec {
		fApB := d*a + b
		if fApB >= 0 {
			f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return f
}
