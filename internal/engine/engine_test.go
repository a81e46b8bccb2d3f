package engine

import (
	"context"
	"math"
	"testing"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *Engine { return New(zerolog.Nop()) }

func TestRun_SingleAssetDegenerate(t *testing.T) {
	req := domain.RunRequest{
		Mode: domain.ModeClassical,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A"},
			Weights:     []float64{1.0},
			Volatility:  []float64{0.2},
			Correlation: [][]float64{{1.0}},
		},
		Spec: domain.PerturbSpec{
			Param: domain.ParamVolatility,
			Asset: "A",
			Range: domain.Range{Min: 0.1, Max: 0.3},
			Steps: 3,
			Seed:  1,
		},
	}
	run, err := newEngine().Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Len(t, run.Result.Results, 3)
	assert.InDelta(t, 0.2, run.Result.BaselinePortfolioVolatilityDaily, 1e-9)
	assert.NotEmpty(t, run.TestRunID)
}

func TestRun_TwoAssetWeightSweep_ClosedForm(t *testing.T) {
	req := domain.RunRequest{
		Mode: domain.ModeClassical,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A", "B"},
			Weights:     []float64{0.5, 0.5},
			Volatility:  []float64{0.1, 0.3},
			Correlation: [][]float64{{1, 0}, {0, 1}},
		},
		Spec: domain.PerturbSpec{
			Param: domain.ParamWeight,
			Asset: "A",
			Range: domain.Range{Min: 0.1, Max: 0.9},
			Steps: 5,
			Seed:  7,
		},
	}
	run, err := newEngine().Run(context.Background(), req, nil)
	require.NoError(t, err)

	for _, r := range run.Result.Results {
		wA := r.PerturbedValue
		wB := 1 - wA
		expected := math.Sqrt(wA*wA*0.01 + wB*wB*0.09)
		assert.InDelta(t, expected, r.PortfolioVolatilityDaily, expected*0.03+1e-4)
	}
}

func TestRun_CorrelationSweepIntoNonPSD(t *testing.T) {
	req := domain.RunRequest{
		Mode: domain.ModeClassical,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A", "B"},
			Weights:     []float64{0.5, 0.5},
			Volatility:  []float64{0.2, 0.2},
			Correlation: [][]float64{{1, 0.9}, {0.9, 1}},
		},
		Spec: domain.PerturbSpec{
			Param: domain.ParamCorrelation,
			Asset: "A",
			Range: domain.Range{Min: -1, Max: 1},
			Steps: 5,
			Seed:  3,
		},
	}
	run, err := newEngine().Run(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Len(t, run.Result.Results, 5)
	// Endpoints +-1 make the 2-asset covariance singular; its Cholesky
	// factorization fails, so those steps are NaN and flagged NonPSD.
	// The interior steps -0.5, 0 and 0.5 are positive definite and finite.
	for _, r := range run.Result.Results {
		if math.Abs(r.PerturbedValue) == 1 {
			assert.True(t, math.IsNaN(r.PortfolioVolatilityDaily))
			assert.True(t, r.NonPSD)
		} else {
			assert.False(t, math.IsNaN(r.PortfolioVolatilityDaily))
			assert.False(t, r.NonPSD)
		}
	}
	assert.True(t, run.Result.Flags["any_non_psd"])
}

func TestRun_QuantumVsClassicalAgreement(t *testing.T) {
	portfolio := domain.Portfolio{
		Assets:      []string{"A"},
		Weights:     []float64{1.0},
		Volatility:  []float64{0.2},
		Correlation: [][]float64{{1.0}},
	}
	spec := domain.PerturbSpec{
		Param: domain.ParamVolatility,
		Asset: "A",
		Range: domain.Range{Min: 0.15, Max: 0.25},
		Steps: 3,
		Seed:  9,
	}

	classicalRun, err := newEngine().Run(context.Background(), domain.RunRequest{Mode: domain.ModeClassical, Portfolio: portfolio, Spec: spec}, nil)
	require.NoError(t, err)
	quantumRun, err := newEngine().Run(context.Background(), domain.RunRequest{Mode: domain.ModeQuantum, Portfolio: portfolio, Spec: spec}, nil)
	require.NoError(t, err)

	assert.InDelta(t, classicalRun.Result.BaselinePortfolioVolatilityDaily, quantumRun.Result.BaselinePortfolioVolatilityDaily, 0.03)

	qm := quantumRun.Result.Analytics.Quantum
	require.NotNil(t, qm)
	assert.InDelta(t, 1.0, qm.EnhancementFactor, 0.1)
	assert.InDelta(t, 0.0, qm.QuantumAdvantageRatio, 0.1)
}

func TestRun_HybridFitQuality(t *testing.T) {
	req := domain.RunRequest{
		Mode: domain.ModeHybrid,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A", "B"},
			Weights:     []float64{0.5, 0.5},
			Volatility:  []float64{0.1, 0.3},
			Correlation: [][]float64{{1, 0}, {0, 1}},
		},
		Spec: domain.PerturbSpec{
			Param: domain.ParamWeight,
			Asset: "A",
			Range: domain.Range{Min: 0.1, Max: 0.9},
			Steps: 6,
			Seed:  11,
		},
	}
	run, err := newEngine().Run(context.Background(), req, nil)
	require.NoError(t, err)
	require.NotNil(t, run.Result.Analytics.Hybrid)
	assert.Len(t, run.Result.Results, 6)
}

func TestRun_CancellationMidSweep(t *testing.T) {
	req := domain.RunRequest{
		Mode: domain.ModeClassical,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A"},
			Weights:     []float64{1.0},
			Volatility:  []float64{0.2},
			Correlation: [][]float64{{1.0}},
		},
		Spec: domain.PerturbSpec{
			Param: domain.ParamVolatility,
			Asset: "A",
			Range: domain.Range{Min: 0.1, Max: 0.3},
			Steps: 5,
			Seed:  4,
		},
	}
	token := estimate.NewCancelToken()
	token.Cancel()

	run, err := newEngine().Run(context.Background(), req, token)
	require.NoError(t, err)
	assert.True(t, run.Result.Cancelled)
	assert.True(t, run.Result.Flags["cancelled"])
}

func TestRun_UnknownModeRejected(t *testing.T) {
	_, err := newEngine().Run(context.Background(), domain.RunRequest{
		Mode: "bogus",
		Portfolio: domain.Portfolio{
			Assets: []string{"A"}, Weights: []float64{1}, Volatility: []float64{0.2}, Correlation: [][]float64{{1}},
		},
		Spec: domain.PerturbSpec{Param: domain.ParamVolatility, Asset: "A", Range: domain.Range{Min: 0.1, Max: 0.2}, Steps: 2},
	}, nil)
	require.Error(t, err)
}
