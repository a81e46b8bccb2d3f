// Package classical implements the Monte-Carlo estimator (spec §4.4): it
// samples correlated asset returns through the Cholesky factor of Sigma,
// forms the portfolio return series, and takes its empirical standard
// deviation as the daily volatility estimate.
package classical

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/metrics"
	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/mat"
)

// SamplesPerPoint is the fixed Monte-Carlo sample count for every baseline
// or swept point (spec §4.4: S=10,000).
const SamplesPerPoint = 10000

// pollEvery is how often, in samples, the sampling loop checks the cancel
// token (spec §5's documented suspension points).
const pollEvery = 1024

// convergenceWindows splits the sample run into this many contiguous
// checkpoints when judging running-sigma stability.
const convergenceWindows = 10

// convergenceTolerance is the fractional distance from the final sigma a
// checkpoint must stay within to count as "converged".
const convergenceTolerance = 0.05

// Estimator is the classical Monte-Carlo Estimator.
type Estimator struct{}

// New returns a classical Estimator.
func New() *Estimator { return &Estimator{} }

// Mode implements estimate.Estimator.
func (e *Estimator) Mode() domain.Mode { return domain.ModeClassical }

// Run implements estimate.Estimator: it samples the baseline portfolio and
// every swept variant, S draws each, and reports the Monte-Carlo
// diagnostics (spec §4.4).
func (e *Estimator) Run(ctx context.Context, portfolio domain.Portfolio, spec domain.PerturbSpec, variants []domain.PerturbedPortfolio, token *estimate.CancelToken) (estimate.Outcome, error) {
	start := time.Now()
	seed := spec.Seed

	base, baseConv, cancelled := e.samplePoint(portfolio, seed, token)
	out := estimate.Outcome{Baseline: base}
	if cancelled {
		out.Cancelled = true
		return out, nil
	}

	points := make([]estimate.PointEstimate, 0, len(variants))
	convergenceSum := baseConv
	convergenceCount := 1
	for i, v := range variants {
		// Each variant gets its own deterministic sub-stream so re-running
		// the same request yields identical samples (spec §5).
		pe, conv, cancelled := e.samplePoint(v.Portfolio, seed+int64(i)+1, token)
		if cancelled {
			out.Cancelled = true
			break
		}
		points = append(points, pe)
		convergenceSum += conv
		convergenceCount++
	}
	out.Points = points

	elapsed := time.Since(start)
	totalSamples := SamplesPerPoint * (1 + len(points))
	rate := 0.0
	if elapsed.Seconds() > 0 {
		rate = float64(totalSamples) / elapsed.Seconds()
	}

	out.ModeMetrics = &domain.ClassicalMetrics{
		SimulationsPerSecond: rate,
		IterationsPerSecond:  rate,
		ConvergenceRate:      convergenceSum / float64(convergenceCount),
		MonteCarloEfficiency: monteCarloEfficiency(portfolio),
		StandardError:        base.DailyVolatility / math.Sqrt(SamplesPerPoint),
		SamplesPerStep:       SamplesPerPoint,
	}
	return out, nil
}

// samplePoint draws SamplesPerPoint correlated return vectors for p,
// collapses each to a portfolio return, and returns the empirical daily
// volatility plus a convergence-rate diagnostic for this point.
func (e *Estimator) samplePoint(p domain.Portfolio, seed int64, token *estimate.CancelToken) (pe estimate.PointEstimate, convergence float64, cancelled bool) {
	sigma := metrics.Covariance(p)
	chol, ok := metrics.CholeskyPSD(sigma)
	if !ok {
		return estimate.PointEstimate{DailyVolatility: math.NaN(), NonPSD: true}, 0, false
	}

	n := p.N()
	var ltri mat.TriDense
	chol.LTo(&ltri)

	w := mat.NewVecDense(n, p.Weights)
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9E3779B97F4A7C15)
	rng := rand.New(src)

	returns := make([]float64, SamplesPerPoint)
	z := make([]float64, n)
	for k := 0; k < SamplesPerPoint; k++ {
		if k%pollEvery == 0 && token != nil && token.Cancelled() {
			return estimate.PointEstimate{}, 0, true
		}
		for j := 0; j < n; j++ {
			z[j] = rng.NormFloat64()
		}
		zvec := mat.NewVecDense(n, z)
		var x mat.VecDense
		x.MulVec(&ltri, zvec)
		returns[k] = mat.Dot(w, &x)
	}

	_, sampleStd := meanStd(returns)
	convergence = runningStdStability(returns, sampleStd)

	// The point estimate carries only the sampled daily sigma; the
	// assembler derives the annualized figure from it (daily * sqrt(252))
	// when it builds the StepResult.
	return estimate.PointEstimate{DailyVolatility: sampleStd}, convergence, false
}

func meanStd(xs []float64) (mean, std float64) {
	n := float64(len(xs))
	for _, x := range xs {
		mean += x
	}
	mean /= n
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / n)
}

// runningStdStability reports the fraction of convergenceWindows
// contiguous checkpoints whose cumulative-sample standard deviation is
// within convergenceTolerance of the final sigma, using go-talib's rolling
// StdDev (inTimePeriod == len(slice) collapses it to a single whole-slice
// standard deviation at the last index).
func runningStdStability(returns []float64, finalSigma float64) float64 {
	if finalSigma == 0 {
		return 1
	}
	windowSize := len(returns) / convergenceWindows
	if windowSize == 0 {
		return 1
	}
	hits := 0
	checks := 0
	for k := 1; k <= convergenceWindows; k++ {
		upto := k * windowSize
		if upto > len(returns) {
			upto = len(returns)
		}
		slice := returns[:upto]
		std := talib.StdDev(slice, len(slice), 1)
		running := std[len(std)-1]
		checks++
		if math.Abs(running-finalSigma) < convergenceTolerance*finalSigma {
			hits++
		}
	}
	if checks == 0 {
		return 1
	}
	return float64(hits) / float64(checks)
}

// monteCarloEfficiency compares the true portfolio variance (with
// correlation) against the variance a naive uncorrelated sum of the same
// weights and volatilities would produce, clamped to [0,1]. A portfolio
// whose correlation structure diversifies away variance scores close to 1.
func monteCarloEfficiency(p domain.Portfolio) float64 {
	naive := 0.0
	for i := range p.Assets {
		naive += p.Weights[i] * p.Weights[i] * p.Volatility[i] * p.Volatility[i]
	}
	if naive == 0 {
		return 1
	}
	daily, _, ok := metrics.PortfolioVolatility(p)
	if !ok {
		return 0
	}
	actual := daily * daily
	eff := 1 - actual/naive
	if eff < 0 {
		eff = 0
	}
	if eff > 1 {
		eff = 1
	}
	return eff
}
