// Package metrics implements the portfolio-metric kernel (spec §4.3): the
// single scalar computation — portfolio daily/annualized volatility —
// shared by the validator's PSD check and every estimator.
package metrics

import (
	"math"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"gonum.org/v1/gonum/mat"
)

// TradingDaysPerYear is the annualization factor (spec §3.1: annualized =
// daily * sqrt(252)).
const TradingDaysPerYear = 252

var sqrtTradingDays = math.Sqrt(TradingDaysPerYear)

// Covariance builds Sigma = diag(sigma) * R * diag(sigma) as a dense
// symmetric matrix from a Portfolio's per-asset volatilities and
// correlation matrix.
func Covariance(p domain.Portfolio) *mat.SymDense {
	n := p.N()
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := p.Volatility[i] * p.Volatility[j] * p.Correlation[i][j]
			sigma.SetSym(i, j, v)
		}
	}
	return sigma
}

// CholeskyPSD attempts a Cholesky factorization of Sigma. It returns the
// factorization and true when the factorization succeeds, which needs every
// pivot to be strictly positive: a singular PSD matrix (for example two
// assets at correlation +-1) can fail and is then treated as not PSD.
// ok is false when the factorization fails,
// which is this package's (and the validator's) sole PSD-rejection signal
// (spec §4.1, §4.3).
func CholeskyPSD(sigma *mat.SymDense) (chol *mat.Cholesky, ok bool) {
	var c mat.Cholesky
	ok = c.Factorize(sigma)
	if !ok {
		return nil, false
	}
	return &c, true
}

// PortfolioVolatility computes sigma_p = sqrt(w^T Sigma w) and its
// annualized counterpart. When Sigma is not PSD, daily and annualized are
// both NaN and psd is false; the caller decides whether to propagate that
// as a step-level flag or a validation failure (spec §4.3).
func PortfolioVolatility(p domain.Portfolio) (daily, annualized float64, psd bool) {
	sigma := Covariance(p)
	if _, ok := CholeskyPSD(sigma); !ok {
		return math.NaN(), math.NaN(), false
	}

	n := p.N()
	w := mat.NewVecDense(n, p.Weights)
	var sw mat.VecDense
	sw.MulVec(sigma, w)

	variance := mat.Dot(w, &sw)
	if variance < 0 {
		// Numerical edge: a near-singular but technically-factorizable
		// matrix can still yield a tiny negative quadratic form.
		if variance > -1e-10 {
			variance = 0
		} else {
			return math.NaN(), math.NaN(), false
		}
	}

	daily = math.Sqrt(variance)
	annualized = daily * sqrtTradingDays
	return daily, annualized, true
}
