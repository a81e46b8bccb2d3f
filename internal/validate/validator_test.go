package validate

import (
	"testing"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPortfolio() domain.Portfolio {
	return domain.Portfolio{
		Assets:     []string{"A", "B"},
		Weights:    []float64{0.5, 0.5},
		Volatility: []float64{0.1, 0.3},
		Correlation: [][]float64{
			{1.0, 0.0},
			{0.0, 1.0},
		},
	}
}

func TestValidate_Accepts(t *testing.T) {
	req := domain.RunRequest{
		Mode:      domain.ModeClassical,
		Portfolio: validPortfolio(),
		Spec: domain.PerturbSpec{
			Param: domain.ParamWeight,
			Asset: "A",
			Range: domain.Range{Min: 0.0, Max: 0.9},
			Steps: 5,
		},
	}
	_, _, err := Validate(req)
	require.NoError(t, err)
}

func TestValidate_AccumulatesMultipleErrors(t *testing.T) {
	req := domain.RunRequest{
		Mode: "bogus",
		Portfolio: domain.Portfolio{
			Assets:      []string{"A", "A"},
			Weights:     []float64{0.6, 0.6},
			Volatility:  []float64{-1, 0.1},
			Correlation: [][]float64{{1.0, 0.0}, {0.0, 1.0}},
		},
		Spec: domain.PerturbSpec{
			Param: "nonsense",
			Asset: "Z",
			Range: domain.Range{Min: 5, Max: 1},
			Steps: 99,
		},
	}
	_, _, err := Validate(req)
	require.Error(t, err)

	verrs, ok := err.(domain.ValidationErrors)
	require.True(t, ok)
	// mode, duplicate asset, weight sum, volatility, param, asset, range, steps
	assert.GreaterOrEqual(t, len(verrs), 6)
}

func TestValidate_NonPSDCorrelationRejected(t *testing.T) {
	p := domain.Portfolio{
		Assets:     []string{"A", "B", "C"},
		Weights:    []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
		Volatility: []float64{0.2, 0.2, 0.2},
		Correlation: [][]float64{
			{1.0, 0.95, 0.95},
			{0.95, 1.0, -0.95},
			{0.95, -0.95, 1.0},
		},
	}
	req := domain.RunRequest{
		Mode:      domain.ModeClassical,
		Portfolio: p,
		Spec: domain.PerturbSpec{
			Param: domain.ParamVolatility,
			Asset: "A",
			Range: domain.Range{Min: 0.1, Max: 0.3},
			Steps: 3,
		},
	}
	_, _, err := Validate(req)
	require.Error(t, err)
}

func TestValidate_WeightSweepHittingOneRejected(t *testing.T) {
	req := domain.RunRequest{
		Mode:      domain.ModeClassical,
		Portfolio: validPortfolio(),
		Spec: domain.PerturbSpec{
			Param: domain.ParamWeight,
			Asset: "A",
			Range: domain.Range{Min: 0.0, Max: 1.0},
			Steps: 5,
		},
	}
	_, _, err := Validate(req)
	require.Error(t, err)
}
