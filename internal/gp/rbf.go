package gp

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// jitterSchedule is the diagonal regularization tried in order until the
// kernel matrix factorizes; exhausting it without success means the
// anchor set is numerically singular for this kernel (spec §4.6).
var jitterSchedule = []float64{1e-10, 1e-8, 1e-6, 1e-4}

// hyperparameterSearchJitter is the fixed, small jitter used while fitting
// length-scale/variance by maximum likelihood — a value large enough to
// keep every candidate kernel matrix factorizable, independent of the
// escalation used for the final solve.
const hyperparameterSearchJitter = 1e-6

// RBFRegressor is a Gaussian process with a squared-exponential
// (radial-basis-function) kernel and a single fitted length-scale and
// signal variance (Open Question 2: a single fixed kernel family, not a
// kernel-selection search).
type RBFRegressor struct {
	x, y        []float64
	lengthScale float64
	variance    float64
	jitterUsed  float64
	alpha       []float64
	chol        *mat.Cholesky
}

// Fit estimates (lengthScale, variance) by maximizing the log marginal
// likelihood via Nelder-Mead, then factorizes the kernel matrix at that
// hyperparameter setting, escalating the diagonal jitter until it
// succeeds. It returns an error when every jitter in the schedule still
// leaves the matrix singular.
func (r *RBFRegressor) Fit(x, y []float64) error {
	r.x = append([]float64(nil), x...)
	r.y = append([]float64(nil), y...)

	lengthScale, variance := fitHyperparams(x, y)
	r.lengthScale = lengthScale
	r.variance = variance

	n := len(x)
	for _, jitter := range jitterSchedule {
		k := kernelMatrix(x, lengthScale, variance, jitter)
		var chol mat.Cholesky
		if !chol.Factorize(k) {
			continue
		}
		yv := mat.NewVecDense(n, y)
		var alpha mat.VecDense
		if err := chol.SolveVecTo(&alpha, yv); err != nil {
			continue
		}
		r.chol = &chol
		r.jitterUsed = jitter
		r.alpha = make([]float64, n)
		for i := 0; i < n; i++ {
			r.alpha[i] = alpha.AtVec(i)
		}
		return nil
	}
	return errors.New("gp: kernel matrix singular even at maximum jitter")
}

// Predict evaluates the posterior mean at x*.
func (r *RBFRegressor) Predict(xStar float64) float64 {
	sum := 0.0
	for i, xi := range r.x {
		sum += rbfKernel(xStar, xi, r.lengthScale, r.variance) * r.alpha[i]
	}
	return sum
}

// LooMSE computes the exact leave-one-out mean squared error using the
// closed-form GP LOO formula (Rasmussen & Williams eq. 5.12): the i-th
// held-out residual is alpha_i / Kinv_ii, where Kinv is the fitted
// kernel's inverse.
func (r *RBFRegressor) LooMSE() float64 {
	n := len(r.x)
	if n == 0 || r.chol == nil {
		return math.NaN()
	}
	var kinv mat.Dense
	r.chol.InverseTo(&kinv)

	sum := 0.0
	for i := 0; i < n; i++ {
		residual := r.alpha[i] / kinv.At(i, i)
		sum += residual * residual
	}
	return sum / float64(n)
}

// Hyperparams reports the fitted kernel settings.
func (r *RBFRegressor) Hyperparams() map[string]float64 {
	return map[string]float64{
		"length_scale": r.lengthScale,
		"variance":     r.variance,
		"jitter":       r.jitterUsed,
	}
}

func rbfKernel(a, b, lengthScale, variance float64) float64 {
	d := a - b
	return variance * math.Exp(-(d*d)/(2*lengthScale*lengthScale))
}

func kernelMatrix(x []float64, lengthScale, variance, jitter float64) *mat.SymDense {
	n := len(x)
	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := rbfKernel(x[i], x[j], lengthScale, variance)
			if i == j {
				v += jitter
			}
			k.SetSym(i, j, v)
		}
	}
	return k
}

// fitHyperparams maximizes the log marginal likelihood over
// (log length-scale, log variance) with Nelder-Mead, starting from a
// deterministic simplex derived from the data's own spread so the search
// needs no external seed. Ties in the likelihood surface resolve to
// whichever vertex Nelder-Mead's deterministic reflect/contract/shrink
// sequence visits last, which is itself deterministic for a fixed start.
func fitHyperparams(x, y []float64) (lengthScale, variance float64) {
	n := len(x)
	spread := 1.0
	if n > 1 {
		spread = x[n-1] - x[0]
		if spread <= 0 {
			spread = 1.0
		}
	}
	yVar := sampleVariance(y)
	if yVar <= 0 {
		yVar = 1.0
	}

	start := []float64{math.Log(spread / 2), math.Log(yVar)}

	negLL := func(p []float64) float64 {
		ls := math.Exp(p[0])
		v := math.Exp(p[1])
		if ls <= 0 || v <= 0 || math.IsInf(ls, 0) || math.IsInf(v, 0) {
			return math.MaxFloat64 / 2
		}
		k := kernelMatrix(x, ls, v, hyperparameterSearchJitter)
		var chol mat.Cholesky
		if !chol.Factorize(k) {
			return math.MaxFloat64 / 2
		}
		yv := mat.NewVecDense(n, y)
		var alpha mat.VecDense
		if err := chol.SolveVecTo(&alpha, yv); err != nil {
			return math.MaxFloat64 / 2
		}
		quad := mat.Dot(&alpha, yv)
		logDet := chol.LogDet()
		return 0.5*quad + 0.5*logDet + 0.5*float64(n)*math.Log(2*math.Pi)
	}

	problem := optimize.Problem{Func: negLL}
	result, err := optimize.Minimize(problem, start, &optimize.Settings{MajorIterations: 200}, &optimize.NelderMead{})
	if err != nil || result == nil {
		return math.Exp(start[0]), math.Exp(start[1])
	}
	return math.Exp(result.X[0]), math.Exp(result.X[1])
}

func sampleVariance(y []float64) float64 {
	n := float64(len(y))
	if n == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= n
	ss := 0.0
	for _, v := range y {
		d := v - mean
		ss += d * d
	}
	if n < 2 {
		return ss
	}
	return ss / (n - 1)
}
