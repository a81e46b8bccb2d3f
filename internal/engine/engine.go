// Package engine is the top-level orchestrator (spec §4.9, §9): it wires
// validation, the sweep planner, mode dispatch, analytics, and result
// assembly into the single run() operation every transport (HTTP, CLI)
// calls.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/kanosym/sensitivity-core/internal/analytics"
	"github.com/kanosym/sensitivity-core/internal/assemble"
	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/estimate/classical"
	"github.com/kanosym/sensitivity-core/internal/estimate/hybrid"
	quantumest "github.com/kanosym/sensitivity-core/internal/estimate/quantum"
	"github.com/kanosym/sensitivity-core/internal/idgen"
	"github.com/kanosym/sensitivity-core/internal/metrics"
	"github.com/kanosym/sensitivity-core/internal/sweep"
	"github.com/kanosym/sensitivity-core/internal/validate"
	"github.com/rs/zerolog"
)

// Engine dispatches a validated RunRequest to the estimator matching its
// Mode and assembles the persisted TestRun (spec §9: "Dynamic dispatch
// over modes").
type Engine struct {
	estimators map[domain.Mode]estimate.Estimator
	analytics  *analytics.Collector
	log        zerolog.Logger
}

// New builds an Engine with the three built-in estimators registered.
func New(log zerolog.Logger) *Engine {
	return &Engine{
		estimators: map[domain.Mode]estimate.Estimator{
			domain.ModeClassical: classical.New(),
			domain.ModeQuantum:   quantumest.New(),
			domain.ModeHybrid:    hybrid.New(),
		},
		analytics: analytics.NewCollector(log),
		log:       log,
	}
}

// Validate runs request validation without executing a sweep, for the
// transport layer's standalone validate operation (spec §6.4).
func (e *Engine) Validate(req domain.RunRequest) (domain.Portfolio, domain.PerturbSpec, error) {
	return validate.Validate(req)
}

// Run validates req, expands its sweep, dispatches to the selected
// estimator, computes analytics, and returns the assembled TestRun. A
// nil token means Run derives cancellation from ctx alone; callers
// driving their own CancelToken (e.g. an explicit cancel button) should
// pass one in directly.
func (e *Engine) Run(ctx context.Context, req domain.RunRequest, token *estimate.CancelToken) (*domain.TestRun, error) {
	portfolio, spec, err := validate.Validate(req)
	if err != nil {
		return nil, err
	}

	if token == nil {
		var stop func()
		token, stop = estimate.FromContext(ctx)
		defer stop()
	}

	pl, err := sweep.New(portfolio, spec)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	variants := pl.Portfolios()

	baselineDaily, baselineAnnualized, _ := metrics.PortfolioVolatility(portfolio)
	baseline := domain.BaselineResult{
		PortfolioVolatilityDaily:      baselineDaily,
		PortfolioVolatilityAnnualized: baselineAnnualized,
	}

	est, ok := e.estimators[req.Mode]
	if !ok {
		return nil, fmt.Errorf("engine: no estimator registered for mode %q", req.Mode)
	}

	start := time.Now()
	outcome, err := est.Run(ctx, portfolio, spec, variants, token)
	if err != nil {
		return nil, err
	}

	statSteps := make([]domain.StepResult, len(outcome.Points))
	statRange := make([]float64, len(outcome.Points))
	for i, pe := range outcome.Points {
		statSteps[i] = domain.StepResult{PortfolioVolatilityDaily: pe.DailyVolatility}
		statRange[i] = variants[i].PerturbedValue
	}
	perf, statMetrics, sens := e.analytics.Collect(start, baseline, statSteps, statRange)

	result := assemble.Assemble(req.Mode, spec, variants, baselineDaily, baselineAnnualized, outcome, perf, statMetrics, sens)

	return &domain.TestRun{
		TestRunID: idgen.TestRunID(),
		Timestamp: time.Now(),
		ProjectID: req.ProjectID,
		BlockType: req.Mode,
		Portfolio: portfolio,
		Spec:      spec,
		Result:    result,
	}, nil
}
