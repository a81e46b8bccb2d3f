// Package quantum adapts the internal/quantum statevector simulator to the
// estimate.Estimator contract (spec §4.5): for each point it discretizes
// the analytically-known return distribution, estimates the tail mass
// above a threshold via iterative amplitude estimation, and inverts that
// tail probability back into a daily-volatility figure.
package quantum

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/metrics"
	"github.com/kanosym/sensitivity-core/internal/quantum"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultNumQubits = 5
	defaultShots     = 1000
	defaultRounds    = 6
)

// Estimator is the quantum-simulator Estimator.
type Estimator struct{}

// New returns a quantum Estimator.
func New() *Estimator { return &Estimator{} }

// Mode implements estimate.Estimator.
func (e *Estimator) Mode() domain.Mode { return domain.ModeQuantum }

// Run implements estimate.Estimator.
func (e *Estimator) Run(ctx context.Context, portfolio domain.Portfolio, spec domain.PerturbSpec, variants []domain.PerturbedPortfolio, token *estimate.CancelToken) (estimate.Outcome, error) {
	start := time.Now()
	numQubits, shots := resolveOptions(spec.QuantumOptions)
	requestedThreshold := 0.0
	hasThreshold := spec.QuantumOptions.Threshold != nil
	if hasThreshold {
		requestedThreshold = *spec.QuantumOptions.Threshold
	}

	seed := spec.Seed
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0xA24BAED4963EE407))

	tau0Used := false
	totalShots := 0
	totalOps := 0
	maxM := 0
	enhancementSum := 0.0
	enhancementCount := 0

	estimatePoint := func(p domain.Portfolio) (estimate.PointEstimate, bool) {
		daily, _, psd := metrics.PortfolioVolatility(p)
		if !psd {
			return estimate.PointEstimate{DailyVolatility: math.NaN(), NonPSD: true}, true
		}

		threshold := requestedThreshold
		if !hasThreshold || threshold == 0 {
			// tau=0 is the at-the-money threshold: P(X>0)=0.5 regardless
			// of sigma, so it carries no information to invert. Fall back
			// to a one-sigma surrogate threshold and flag the substitution.
			tau0Used = true
			threshold = daily
		}

		values, probs := quantum.DiscretizeGaussian(0, daily, numQubits)
		a := quantum.GoodMass(values, probs, threshold)

		schedule := quantum.DefaultSchedule(defaultRounds)
		rounds := quantum.SimulateRounds(a, shots, schedule, rng)
		aHat := quantum.MLEEstimate(rounds)

		for _, r := range schedule {
			if r > maxM {
				maxM = r
			}
			totalOps += 2*r + 1
		}
		totalShots += shots * len(schedule)

		sigmaEst, ok := invertTailProbability(threshold, aHat)
		if !ok {
			// Degenerate inversion (a_hat too close to 0 or 1): fall back
			// to the analytic point as this point's estimate.
			if daily != 0 {
				enhancementSum++ // sigmaEst == daily on this fallback path, ratio is exactly 1
				enhancementCount++
			}
			return estimate.PointEstimate{DailyVolatility: daily, QuantumFallback: true}, true
		}
		if daily != 0 {
			enhancementSum += sigmaEst / daily
			enhancementCount++
		}
		return estimate.PointEstimate{DailyVolatility: sigmaEst}, true
	}

	base, ok := estimatePoint(portfolio)
	out := estimate.Outcome{Baseline: base}
	if !ok {
		out.Cancelled = true
		return out, nil
	}

	points := make([]estimate.PointEstimate, 0, len(variants))
	for _, v := range variants {
		if token != nil && token.Cancelled() {
			out.Cancelled = true
			break
		}
		pe, _ := estimatePoint(v.Portfolio)
		points = append(points, pe)
	}
	out.Points = points

	elapsed := time.Since(start).Seconds()
	shotsPerSecond := 0.0
	circuitsPerSecond := 0.0
	totalCircuits := float64(defaultRounds * (1 + len(points)))
	if elapsed > 0 {
		shotsPerSecond = float64(totalShots) / elapsed
		circuitsPerSecond = totalCircuits / elapsed
	}

	// EnhancementFactor is the mean sigma_phat/sigma_classical ratio across
	// every point where a classical reference exists (spec §4.5); NaN when
	// every point was non-PSD and no reference was ever computed.
	enhancementFactor := math.NaN()
	if enhancementCount > 0 {
		enhancementFactor = enhancementSum / float64(enhancementCount)
	}

	out.ModeMetrics = &domain.QuantumMetrics{
		CircuitDepth:          2*maxM + 1,
		TotalQubits:           numQubits + 1,
		QuantumOperations:     totalOps,
		ShotsPerSecond:        shotsPerSecond,
		CircuitsPerSecond:     circuitsPerSecond,
		EnhancementFactor:     enhancementFactor,
		QuantumAdvantageRatio: math.Abs(enhancementFactor - 1),
		Tau0SurrogateUsed:     tau0Used,
	}
	return out, nil
}

func resolveOptions(opts domain.QuantumOptions) (numQubits, shots int) {
	numQubits = defaultNumQubits
	shots = defaultShots
	if opts.NumQubits != nil {
		numQubits = *opts.NumQubits
	}
	if opts.Shots != nil {
		shots = *opts.Shots
	}
	return numQubits, shots
}

// invertTailProbability solves P(X > threshold) = aHat for sigma under
// X ~ N(0, sigma^2), returning ok=false when aHat is too extreme (close to
// 0 or 1) for a stable inversion.
func invertTailProbability(threshold, aHat float64) (sigma float64, ok bool) {
	if aHat <= 1e-6 || aHat >= 1-1e-6 {
		return 0, false
	}
	n := distuv.Normal{Mu: 0, Sigma: 1}
	z := n.Quantile(1 - aHat)
	if math.Abs(z) < 1e-9 {
		return 0, false
	}
	sigma = threshold / z
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return 0, false
	}
	return sigma, true
}
