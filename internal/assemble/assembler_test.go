package assemble

import (
	"testing"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variantsAt(values ...float64) []domain.PerturbedPortfolio {
	out := make([]domain.PerturbedPortfolio, len(values))
	for i, v := range values {
		out[i] = domain.PerturbedPortfolio{PerturbedValue: v}
	}
	return out
}

func TestAssemble_OrderingInvariant(t *testing.T) {
	variants := variantsAt(0.1, 0.2, 0.3)
	outcome := estimate.Outcome{
		Points: []estimate.PointEstimate{
			{DailyVolatility: 0.10},
			{DailyVolatility: 0.15},
			{DailyVolatility: 0.20},
		},
	}
	spec := domain.PerturbSpec{Param: domain.ParamVolatility, Asset: "A"}

	result := Assemble(domain.ModeClassical, spec, variants, 0.12, 0.12*15.8745, outcome,
		domain.PerformanceMetrics{}, domain.StatisticalMetrics{}, domain.SensitivityMetrics{})

	require.Len(t, result.Results, 3)
	for i, r := range result.Results {
		assert.Equal(t, result.RangeTested[i], r.PerturbedValue)
	}
}

func TestAssemble_DeltaVsBaseline(t *testing.T) {
	variants := variantsAt(0.1)
	outcome := estimate.Outcome{Points: []estimate.PointEstimate{{DailyVolatility: 0.18}}}
	spec := domain.PerturbSpec{Param: domain.ParamVolatility, Asset: "A"}

	result := Assemble(domain.ModeClassical, spec, variants, 0.12, 0, outcome,
		domain.PerformanceMetrics{}, domain.StatisticalMetrics{}, domain.SensitivityMetrics{})

	assert.InDelta(t, 0.06, result.Results[0].DeltaVsBaseline, 1e-9)
}

func TestAssemble_ModeMetricsUnpacked(t *testing.T) {
	variants := variantsAt(0.1)
	outcome := estimate.Outcome{
		Points:      []estimate.PointEstimate{{DailyVolatility: 0.18}},
		ModeMetrics: &domain.ClassicalMetrics{SamplesPerStep: 10000},
	}
	spec := domain.PerturbSpec{Param: domain.ParamVolatility, Asset: "A"}

	result := Assemble(domain.ModeClassical, spec, variants, 0.12, 0, outcome,
		domain.PerformanceMetrics{}, domain.StatisticalMetrics{}, domain.SensitivityMetrics{})

	require.NotNil(t, result.Analytics.Classical)
	assert.Equal(t, 10000, result.Analytics.Classical.SamplesPerStep)
	assert.Nil(t, result.Analytics.Quantum)
}

func TestAssemble_FlagsSetOnNonPSDAndCancellation(t *testing.T) {
	variants := variantsAt(0.1, 0.2)
	outcome := estimate.Outcome{
		Cancelled: true,
		Points: []estimate.PointEstimate{
			{DailyVolatility: 0.1, NonPSD: true},
		},
	}
	spec := domain.PerturbSpec{Param: domain.ParamCorrelation, Asset: "A"}

	result := Assemble(domain.ModeClassical, spec, variants, 0.12, 0, outcome,
		domain.PerformanceMetrics{}, domain.StatisticalMetrics{}, domain.SensitivityMetrics{})

	assert.True(t, result.Flags["any_non_psd"])
	assert.True(t, result.Flags["cancelled"])
	assert.True(t, result.Cancelled)
	assert.Len(t, result.RangeTested, 1)
}
