// Package assemble composes the final domain.Result from an estimator's
// Outcome and the analytics collector's output (spec §4.8). It owns the
// one hard ordering invariant the whole pipeline must preserve:
// results[i].PerturbedValue == rangeTested[i] for every i.
package assemble

import (
	"math"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/metrics"
)

var sqrtTradingDays = math.Sqrt(metrics.TradingDaysPerYear)

// Assemble builds the Result for one run. mode selects which slot of the
// AnalyticsBundle outcome.ModeMetrics is unpacked into.
func Assemble(
	mode domain.Mode,
	spec domain.PerturbSpec,
	variants []domain.PerturbedPortfolio,
	baselineDaily, baselineAnnualized float64,
	outcome estimate.Outcome,
	perf domain.PerformanceMetrics,
	statMetrics domain.StatisticalMetrics,
	sens domain.SensitivityMetrics,
) domain.Result {
	rangeTested := make([]float64, len(variants))
	for i, v := range variants {
		rangeTested[i] = v.PerturbedValue
	}

	results := make([]domain.StepResult, len(outcome.Points))
	anyNonPSD := false
	anyQuantumFallback := false
	for i, pe := range outcome.Points {
		daily := pe.DailyVolatility
		results[i] = domain.StepResult{
			PerturbedValue:                variants[i].PerturbedValue,
			PortfolioVolatilityDaily:      daily,
			PortfolioVolatilityAnnualized: daily * sqrtTradingDays,
			DeltaVsBaseline:               daily - baselineDaily,
			NonPSD:                        pe.NonPSD,
			QuantumFallback:               pe.QuantumFallback,
		}
		anyNonPSD = anyNonPSD || pe.NonPSD
		anyQuantumFallback = anyQuantumFallback || pe.QuantumFallback
	}

	// When the run was cancelled mid-sweep, results is truncated to
	// whatever completed; rangeTested is truncated to match so the
	// ordering invariant still holds over the shared prefix.
	rangeTested = rangeTested[:len(results)]

	bundle := domain.AnalyticsBundle{
		Mode:        mode,
		Performance: perf,
		Statistical: statMetrics,
		Sensitivity: sens,
	}
	switch mode {
	case domain.ModeClassical:
		if cm, ok := outcome.ModeMetrics.(*domain.ClassicalMetrics); ok {
			bundle.Classical = cm
		}
	case domain.ModeQuantum:
		if qm, ok := outcome.ModeMetrics.(*domain.QuantumMetrics); ok {
			bundle.Quantum = qm
		}
	case domain.ModeHybrid:
		if hm, ok := outcome.ModeMetrics.(*domain.HybridMetrics); ok {
			bundle.Hybrid = hm
		}
	}

	flags := domain.Flags{}
	if anyNonPSD {
		flags["any_non_psd"] = true
	}
	if anyQuantumFallback {
		flags["any_quantum_fallback"] = true
	}
	if outcome.Cancelled {
		flags["cancelled"] = true
	}

	return domain.Result{
		Perturbation:                          spec.Param,
		Asset:                                  spec.Asset,
		RangeTested:                            rangeTested,
		BaselinePortfolioVolatilityDaily:       baselineDaily,
		BaselinePortfolioVolatilityAnnualized:  baselineAnnualized,
		Results:                                results,
		Analytics:                              bundle,
		Cancelled:                              outcome.Cancelled,
		Flags:                                  flags,
	}
}
