package gp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPiecewiseLinearRegressor_ExactAtAnchors(t *testing.T) {
	r := &PiecewiseLinearRegressor{}
	require.NoError(t, r.Fit([]float64{2, 0, 1}, []float64{0.4, 0.1, 0.2}))
	assert.InDelta(t, 0.1, r.Predict(0), 1e-12)
	assert.InDelta(t, 0.2, r.Predict(1), 1e-12)
	assert.InDelta(t, 0.4, r.Predict(2), 1e-12)
}

func TestPiecewiseLinearRegressor_InterpolatesMidpoint(t *testing.T) {
	r := &PiecewiseLinearRegressor{}
	require.NoError(t, r.Fit([]float64{0, 2}, []float64{0, 2}))
	assert.InDelta(t, 1.0, r.Predict(1), 1e-12)
}

func TestPiecewiseLinearRegressor_ClampsOutsideRange(t *testing.T) {
	r := &PiecewiseLinearRegressor{}
	require.NoError(t, r.Fit([]float64{0, 1}, []float64{5, 9}))
	assert.Equal(t, 5.0, r.Predict(-10))
	assert.Equal(t, 9.0, r.Predict(10))
}

func TestPiecewiseLinearRegressor_LooMSEZeroBelowThreeAnchors(t *testing.T) {
	r := &PiecewiseLinearRegressor{}
	require.NoError(t, r.Fit([]float64{0, 1}, []float64{0, 1}))
	assert.Equal(t, 0.0, r.LooMSE())
}
