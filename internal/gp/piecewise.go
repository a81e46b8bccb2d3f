package gp

import (
	"sort"
)

// PiecewiseLinearRegressor is the GP's fallback interpolator, used when
// the kernel matrix is singular at every jitter in the schedule (spec
// §4.6: "GP fell back to piecewise-linear").
type PiecewiseLinearRegressor struct {
	x, y []float64
}

// Fit sorts the anchors by x and stores them; PiecewiseLinearRegressor
// has no hyperparameters to search.
func (r *PiecewiseLinearRegressor) Fit(x, y []float64) error {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	r.x = make([]float64, len(x))
	r.y = make([]float64, len(y))
	for i, j := range idx {
		r.x[i] = x[j]
		r.y[i] = y[j]
	}
	return nil
}

// Predict linearly interpolates between the two bracketing anchors,
// clamping to the nearest endpoint outside the anchor range.
func (r *PiecewiseLinearRegressor) Predict(xStar float64) float64 {
	n := len(r.x)
	if n == 0 {
		return 0
	}
	if n == 1 || xStar <= r.x[0] {
		return r.y[0]
	}
	if xStar >= r.x[n-1] {
		return r.y[n-1]
	}
	i := sort.SearchFloat64s(r.x, xStar)
	x0, x1 := r.x[i-1], r.x[i]
	y0, y1 := r.y[i-1], r.y[i]
	t := (xStar - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// LooMSE re-fits each leave-one-out interpolant from its remaining
// neighbors and averages the squared residual. With fewer than 3 anchors
// there is no neighbor to interpolate from, so it reports 0.
func (r *PiecewiseLinearRegressor) LooMSE() float64 {
	n := len(r.x)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		loo := &PiecewiseLinearRegressor{}
		xs := append(append([]float64(nil), r.x[:i]...), r.x[i+1:]...)
		ys := append(append([]float64(nil), r.y[:i]...), r.y[i+1:]...)
		loo.Fit(xs, ys)
		pred := loo.Predict(r.x[i])
		d := pred - r.y[i]
		sum += d * d
	}
	return sum / float64(n)
}

// Hyperparams is empty: piecewise-linear interpolation has none.
func (r *PiecewiseLinearRegressor) Hyperparams() map[string]float64 {
	return map[string]float64{}
}
