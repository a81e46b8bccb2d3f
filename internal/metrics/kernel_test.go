package metrics

import (
	"math"
	"testing"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/stretchr/testify/assert"
)

func singleAsset(sigma float64) domain.Portfolio {
	return domain.Portfolio{
		Assets:      []string{"A"},
		Weights:     []float64{1.0},
		Volatility:  []float64{sigma},
		Correlation: [][]float64{{1.0}},
	}
}

func TestPortfolioVolatility_SingleAsset(t *testing.T) {
	daily, annualized, psd := PortfolioVolatility(singleAsset(0.2))
	assert.True(t, psd)
	assert.InDelta(t, 0.2, daily, 1e-9)
	assert.InDelta(t, 0.2*math.Sqrt(252), annualized, 1e-9)
}

func TestPortfolioVolatility_TwoAssetZeroCorrelation(t *testing.T) {
	p := domain.Portfolio{
		Assets:     []string{"A", "B"},
		Weights:    []float64{0.5, 0.5},
		Volatility: []float64{0.1, 0.3},
		Correlation: [][]float64{
			{1.0, 0.0},
			{0.0, 1.0},
		},
	}
	daily, _, psd := PortfolioVolatility(p)
	assert.True(t, psd)
	want := math.Sqrt(0.25*0.01 + 0.25*0.09)
	assert.InDelta(t, want, daily, 1e-9)
}

func TestPortfolioVolatility_NonPSD(t *testing.T) {
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
	daily, annualized, psd := PortfolioVolatility(p)
	assert.False(t, psd)
	assert.True(t, math.IsNaN(daily))
	assert.True(t, math.IsNaN(annualized))
}
