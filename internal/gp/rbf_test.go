package gp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRBFRegressor_FitsSmoothCurve(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = math.Sin(xi)
	}

	r := &RBFRegressor{}
	require.NoError(t, r.Fit(x, y))

	for i, xi := range x {
		assert.InDelta(t, y[i], r.Predict(xi), 0.05)
	}
}

func TestRBFRegressor_InterpolatesBetweenAnchors(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	y := []float64{0, 1, 0, 1}
	r := &RBFRegressor{}
	require.NoError(t, r.Fit(x, y))

	pred := r.Predict(1.5)
	assert.Greater(t, pred, -0.5)
	assert.Less(t, pred, 1.5)
}

func TestRBFRegressor_LooMSENonNegative(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{0.1, 0.3, 0.2, 0.4, 0.35}
	r := &RBFRegressor{}
	require.NoError(t, r.Fit(x, y))
	assert.GreaterOrEqual(t, r.LooMSE(), 0.0)
}

func TestRBFRegressor_HyperparamsReported(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{0, 1, 0}
	r := &RBFRegressor{}
	require.NoError(t, r.Fit(x, y))
	hp := r.Hyperparams()
	assert.Greater(t, hp["length_scale"], 0.0)
	assert.Greater(t, hp["variance"], 0.0)
}
