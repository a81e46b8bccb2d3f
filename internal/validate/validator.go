// Package validate implements the §4.1 Validator: a pure function that
// checks every Portfolio and PerturbSpec invariant and accumulates every
// offending field before returning, rather than stopping at the first
// failure. The shape mirrors the teacher project's own configuration
// validator (internal/modules/planning/config/validator.go in the
// source tree), generalized from planner-configuration fields to
// portfolio/perturbation fields.
package validate

import (
	"fmt"
	"math"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/metrics"
)

const weightSumTolerance = 1e-6

// Validate checks req and returns the validated Portfolio/PerturbSpec
// pair, or a non-nil domain.ValidationErrors listing every offending
// field. It performs no numerical heavy lifting beyond the Cholesky used
// for PSD confirmation.
func Validate(req domain.RunRequest) (domain.Portfolio, domain.PerturbSpec, error) {
	var errs domain.ValidationErrors

	errs = append(errs, validateMode(req.Mode)...)
	errs = append(errs, validatePortfolio(req.Portfolio)...)
	errs = append(errs, validateSpec(req.Portfolio, req.Spec)...)

	if errs.HasErrors() {
		return domain.Portfolio{}, domain.PerturbSpec{}, errs
	}
	return req.Portfolio, req.Spec, nil
}

func validateMode(m domain.Mode) domain.ValidationErrors {
	switch m {
	case domain.ModeClassical, domain.ModeQuantum, domain.ModeHybrid:
		return nil
	default:
		return domain.ValidationErrors{{Field: "mode", Message: fmt.Sprintf("unknown mode %q", m)}}
	}
}

func validatePortfolio(p domain.Portfolio) domain.ValidationErrors {
	var errs domain.ValidationErrors
	n := len(p.Assets)

	if n < 1 || n > 5 {
		errs = append(errs, domain.ValidationError{
			Field:   "portfolio.assets",
			Message: fmt.Sprintf("must contain between 1 and 5 assets, got %d", n),
		})
	}

	seen := make(map[string]bool, n)
	for _, a := range p.Assets {
		if seen[a] {
			errs = append(errs, domain.ValidationError{
				Field:   "portfolio.assets",
				Message: fmt.Sprintf("duplicate asset %q", a),
			})
		}
		seen[a] = true
	}

	if len(p.Weights) != n {
		errs = append(errs, domain.ValidationError{
			Field:   "portfolio.weights",
			Message: fmt.Sprintf("expected %d weights, got %d", n, len(p.Weights)),
		})
	} else {
		sum := 0.0
		for i, w := range p.Weights {
			if w < 0 {
				errs = append(errs, domain.ValidationError{
					Field:   "portfolio.weights",
					Message: fmt.Sprintf("weight[%d] must be non-negative, got %v", i, w),
				})
			}
			sum += w
		}
		if math.Abs(sum-1.0) > weightSumTolerance {
			errs = append(errs, domain.ValidationError{
				Field:   "portfolio.weights",
				Message: fmt.Sprintf("weights must sum to 1 (+/- %v), got %v", weightSumTolerance, sum),
			})
		}
	}

	if len(p.Volatility) != n {
		errs = append(errs, domain.ValidationError{
			Field:   "portfolio.volatility",
			Message: fmt.Sprintf("expected %d volatilities, got %d", n, len(p.Volatility)),
		})
	} else {
		for i, s := range p.Volatility {
			if !(s > 0) {
				errs = append(errs, domain.ValidationError{
					Field:   "portfolio.volatility",
					Message: fmt.Sprintf("volatility[%d] must be positive, got %v", i, s),
				})
			}
		}
	}

	errs = append(errs, validateCorrelation(p, n)...)

	// PSD confirmation is the validator's one numerically heavy check
	// (spec §4.1); skip it if shape errors above would make it meaningless.
	if !errs.HasErrors() {
		sigma := metrics.Covariance(p)
		if _, ok := metrics.CholeskyPSD(sigma); !ok {
			errs = append(errs, domain.ValidationError{
				Field:   "portfolio.correlation",
				Message: "resulting covariance matrix is not positive semi-definite",
			})
		}
	}

	return errs
}

func validateCorrelation(p domain.Portfolio, n int) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if len(p.Correlation) != n {
		errs = append(errs, domain.ValidationError{
			Field:   "portfolio.correlation",
			Message: fmt.Sprintf("expected %d rows, got %d", n, len(p.Correlation)),
		})
		return errs
	}
	for i, row := range p.Correlation {
		if len(row) != n {
			errs = append(errs, domain.ValidationError{
				Field:   "portfolio.correlation",
				Message: fmt.Sprintf("row %d: expected %d columns, got %d", i, n, len(row)),
			})
			return errs
		}
	}

	for i := 0; i < n; i++ {
		if math.Abs(p.Correlation[i][i]-1.0) > 1e-9 {
			errs = append(errs, domain.ValidationError{
				Field:   "portfolio.correlation",
				Message: fmt.Sprintf("diagonal[%d] must equal 1.0, got %v", i, p.Correlation[i][i]),
			})
		}
		for j := i + 1; j < n; j++ {
			if math.Abs(p.Correlation[i][j]-p.Correlation[j][i]) > 1e-9 {
				errs = append(errs, domain.ValidationError{
					Field:   "portfolio.correlation",
					Message: fmt.Sprintf("not symmetric at (%d,%d)", i, j),
				})
			}
			if p.Correlation[i][j] < -1 || p.Correlation[i][j] > 1 {
				errs = append(errs, domain.ValidationError{
					Field:   "portfolio.correlation",
					Message: fmt.Sprintf("entry (%d,%d) = %v outside [-1,1]", i, j, p.Correlation[i][j]),
				})
			}
		}
	}
	return errs
}

func validateSpec(p domain.Portfolio, s domain.PerturbSpec) domain.ValidationErrors {
	var errs domain.ValidationErrors

	switch s.Param {
	case domain.ParamVolatility, domain.ParamWeight, domain.ParamCorrelation:
	default:
		errs = append(errs, domain.ValidationError{
			Field:   "spec.param",
			Message: fmt.Sprintf("unknown param %q", s.Param),
		})
	}

	assetIdx := -1
	for i, a := range p.Assets {
		if a == s.Asset {
			assetIdx = i
			break
		}
	}
	if assetIdx == -1 {
		errs = append(errs, domain.ValidationError{
			Field:   "spec.asset",
			Message: fmt.Sprintf("asset %q not present in portfolio", s.Asset),
		})
	}

	if s.Range.Min >= s.Range.Max {
		errs = append(errs, domain.ValidationError{
			Field:   "spec.range",
			Message: fmt.Sprintf("range.min (%v) must be less than range.max (%v)", s.Range.Min, s.Range.Max),
		})
	}

	switch s.Param {
	case domain.ParamVolatility:
		if s.Range.Min <= 0 {
			errs = append(errs, domain.ValidationError{
				Field:   "spec.range",
				Message: "volatility sweep range.min must be > 0",
			})
		}
	case domain.ParamWeight:
		if s.Range.Min < 0 || s.Range.Max > 1 {
			errs = append(errs, domain.ValidationError{
				Field:   "spec.range",
				Message: "weight sweep range must be within [0,1]",
			})
		}
	case domain.ParamCorrelation:
		if s.Range.Min < -1 || s.Range.Max > 1 {
			errs = append(errs, domain.ValidationError{
				Field:   "spec.range",
				Message: "correlation sweep range must be within [-1,1]",
			})
		}
	}

	if s.Steps < 2 || s.Steps > 20 {
		errs = append(errs, domain.ValidationError{
			Field:   "spec.steps",
			Message: fmt.Sprintf("steps must be within [2,20], got %d", s.Steps),
		})
	}

	// spec §3.2: a weight sweep whose swept value hits exactly 1.0 with
	// more than one asset leaves no room to renormalize the rest.
	if s.Param == domain.ParamWeight && len(p.Assets) > 1 && s.Steps >= 2 && !errs.HasErrors() {
		for _, v := range linspace(s.Range.Min, s.Range.Max, s.Steps) {
			if v == 1.0 {
				errs = append(errs, domain.ValidationError{
					Field:   "spec.range",
					Message: "weight sweep reaches 1.0 with more than one asset; no weight remains to renormalize",
				})
				break
			}
		}
	}

	return errs
}

// linspace mirrors internal/sweep's spacing rule; duplicated here (rather
// than imported) to keep the validator free of a dependency on the
// planner package it is a precondition for.
func linspace(min, max float64, steps int) []float64 {
	out := make([]float64, steps)
	if steps == 1 {
		out[0] = min
		return out
	}
	step := (max - min) / float64(steps-1)
	for i := 0; i < steps; i++ {
		out[i] = min + step*float64(i)
	}
	out[steps-1] = max
	return out
}
