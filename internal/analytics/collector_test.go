package analytics

import (
	"testing"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func sampleSteps() []domain.StepResult {
	return []domain.StepResult{
		{PerturbedValue: 0.1, PortfolioVolatilityDaily: 0.10},
		{PerturbedValue: 0.2, PortfolioVolatilityDaily: 0.15},
		{PerturbedValue: 0.3, PortfolioVolatilityDaily: 0.25},
		{PerturbedValue: 0.4, PortfolioVolatilityDaily: 0.22},
	}
}

func TestCollect_PerformanceReportsStepsAndElapsed(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	start := time.Now().Add(-10 * time.Millisecond)
	steps := sampleSteps()
	rangeTested := []float64{0.1, 0.2, 0.3, 0.4}

	perf, _, _ := c.Collect(start, domain.BaselineResult{PortfolioVolatilityDaily: 0.12}, steps, rangeTested)
	assert.Equal(t, 4, perf.StepsProcessed)
	assert.Greater(t, perf.TotalExecutionTime, time.Duration(0))
}

func TestCollect_StatisticalMoments(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	steps := sampleSteps()
	rangeTested := []float64{0.1, 0.2, 0.3, 0.4}

	_, statMetrics, _ := c.Collect(time.Now(), domain.BaselineResult{}, steps, rangeTested)
	assert.Equal(t, 4, statMetrics.SampleSize)
	assert.InDelta(t, 0.18, statMetrics.Median, 0.05)
	assert.Greater(t, statMetrics.IQR, 0.0)
	assert.LessOrEqual(t, statMetrics.ConfidenceInterval95[0], statMetrics.Median)
	assert.GreaterOrEqual(t, statMetrics.ConfidenceInterval95[1], statMetrics.Median)
}

func TestCollect_SensitivityCurveShape(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	steps := sampleSteps()
	rangeTested := []float64{0.1, 0.2, 0.3, 0.4}

	_, _, sens := c.Collect(time.Now(), domain.BaselineResult{PortfolioVolatilityDaily: 0.12}, steps, rangeTested)
	assert.InDelta(t, 0.10, sens.PortfolioVolatilityRange[0], 1e-9)
	assert.InDelta(t, 0.25, sens.PortfolioVolatilityRange[1], 1e-9)
	assert.InDelta(t, 0.3, sens.MaxSensitivityPoint, 1e-9)
	assert.Greater(t, sens.CurveSteepness, 0.0)
}

func TestCollect_SingleStepCollapsesCI(t *testing.T) {
	c := NewCollector(zerolog.Nop())
	steps := []domain.StepResult{{PerturbedValue: 0.1, PortfolioVolatilityDaily: 0.2}}
	_, statMetrics, _ := c.Collect(time.Now(), domain.BaselineResult{}, steps, []float64{0.1})
	assert.Equal(t, statMetrics.ConfidenceInterval95[0], statMetrics.ConfidenceInterval95[1])
}
