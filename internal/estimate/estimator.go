// Package estimate defines the shared contract the three numerical
// backends (classical, quantum, hybrid) implement, and the cooperative
// cancellation token they all poll. Modeling the backends as tagged
// variants behind one interface (spec §9 "Dynamic dispatch over modes")
// keeps the engine orchestrator (internal/engine) free of backend-specific
// branching beyond a single selector.
package estimate

import (
	"context"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// PointEstimate is one estimator's output for a single sweep step (or the
// baseline point).
type PointEstimate struct {
	DailyVolatility float64
	NonPSD          bool
	QuantumFallback bool
}

// Outcome is everything an Estimator produces for one full sweep: the
// baseline point, one PointEstimate per variant (ascending order,
// truncated on cancellation), whether cancellation occurred, and the
// mode-specific metrics struct (one of *domain.ClassicalMetrics,
// *domain.QuantumMetrics, *domain.HybridMetrics).
type Outcome struct {
	Baseline    PointEstimate
	Points      []PointEstimate
	Cancelled   bool
	ModeMetrics interface{}
}

// Estimator is the polymorphic contract every evaluation mode implements:
// estimate(variant, seed, cancel_token) -> (sigma_daily, flags,
// estimator-specific metrics), generalized here to operate on the whole
// sweep at once so mode-specific aggregate diagnostics (convergence rate,
// GP hyperparameters, ...) can be computed in one pass.
type Estimator interface {
	Mode() domain.Mode
	Run(ctx context.Context, portfolio domain.Portfolio, spec domain.PerturbSpec, variants []domain.PerturbedPortfolio, token *CancelToken) (Outcome, error)
}
