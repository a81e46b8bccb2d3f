// Package sweep implements the §4.2 perturbation planner: it expands a
// PerturbSpec into the ordered sequence of perturbed Portfolio variants.
package sweep

import (
	"fmt"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// Planner expands a validated (Portfolio, PerturbSpec) pair into the
// sweep. It holds no mutable state: Values and Portfolios are pure
// functions of the inputs captured at construction, so a Planner can be
// asked for its sequence any number of times and always yields identical
// values (spec §4.2: "restartable... re-iteration must yield identical
// values").
type Planner struct {
	portfolio domain.Portfolio
	spec      domain.PerturbSpec
	assetIdx  int
}

// New builds a Planner. The caller must have already run the spec
// through the validator; New does not re-validate.
func New(p domain.Portfolio, spec domain.PerturbSpec) (*Planner, error) {
	idx := -1
	for i, a := range p.Assets {
		if a == spec.Asset {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, fmt.Errorf("sweep: asset %q not found in portfolio", spec.Asset)
	}
	return &Planner{portfolio: p, spec: spec, assetIdx: idx}, nil
}

// Values returns the steps values, linearly spaced and endpoint-inclusive
// across the spec's range (spec §4.2, §3.2: range_tested[0]=min,
// range_tested[-1]=max).
func (pl *Planner) Values() []float64 {
	return linspace(pl.spec.Range.Min, pl.spec.Range.Max, pl.spec.Steps)
}

// Portfolios returns one PerturbedPortfolio per swept value, in the same
// ascending order as Values.
func (pl *Planner) Portfolios() []domain.PerturbedPortfolio {
	values := pl.Values()
	out := make([]domain.PerturbedPortfolio, len(values))
	for i, v := range values {
		out[i] = domain.PerturbedPortfolio{
			Portfolio:      pl.substitute(v),
			PerturbedValue: v,
		}
	}
	return out
}

func (pl *Planner) substitute(v float64) domain.Portfolio {
	p := pl.portfolio.Clone()
	i := pl.assetIdx

	switch pl.spec.Param {
	case domain.ParamVolatility:
		p.Volatility[i] = v

	case domain.ParamWeight:
		substituteWeight(p, i, v)

	case domain.ParamCorrelation:
		for k := range p.Correlation {
			if k == i {
				continue
			}
			p.Correlation[i][k] = v
			p.Correlation[k][i] = v
		}
	}
	return p
}

// substituteWeight sets w[i]=v and rescales the remaining weights so the
// total stays 1. If every other weight is zero, the remainder (1-v) is
// spread uniformly across them (spec §4.2).
func substituteWeight(p domain.Portfolio, i int, v float64) {
	n := len(p.Weights)
	remainder := 1 - v

	othersSum := 0.0
	for k, w := range p.Weights {
		if k != i {
			othersSum += w
		}
	}

	p.Weights[i] = v
	if n == 1 {
		return
	}

	if othersSum == 0 {
		share := remainder / float64(n-1)
		for k := range p.Weights {
			if k != i {
				p.Weights[k] = share
			}
		}
		return
	}

	scale := remainder / othersSum
	for k := range p.Weights {
		if k != i {
			p.Weights[k] *= scale
		}
	}
}

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
