// Package hybrid implements the sparse-quantum-plus-interpolation
// estimator (spec §4.6): it runs the classical Monte-Carlo estimator
// across every swept point, the quantum estimator at a handful of evenly
// spaced anchors, fits a Gaussian process to the quantum-minus-classical
// residual at those anchors, and applies the GP's predicted correction to
// every point on the classical curve.
package hybrid

import (
	"context"
	"math"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/estimate"
	"github.com/kanosym/sensitivity-core/internal/estimate/classical"
	quantumest "github.com/kanosym/sensitivity-core/internal/estimate/quantum"
	"github.com/kanosym/sensitivity-core/internal/gp"
)

const defaultAnchors = 3

// significantCorrectionThreshold is the fixed absolute daily-sigma
// correction an anchor's quantum-minus-classical residual must exceed to
// count as "significant" (spec §4.6 default).
const significantCorrectionThreshold = 1e-3

// Estimator is the hybrid Estimator.
type Estimator struct {
	classical *classical.Estimator
	quantum   *quantumest.Estimator
}

// New returns a hybrid Estimator composing a classical and a quantum
// Estimator.
func New() *Estimator {
	return &Estimator{classical: classical.New(), quantum: quantumest.New()}
}

// Mode implements estimate.Estimator.
func (e *Estimator) Mode() domain.Mode { return domain.ModeHybrid }

// Run implements estimate.Estimator.
func (e *Estimator) Run(ctx context.Context, portfolio domain.Portfolio, spec domain.PerturbSpec, variants []domain.PerturbedPortfolio, token *estimate.CancelToken) (estimate.Outcome, error) {
	classicalOut, err := e.classical.Run(ctx, portfolio, spec, variants, token)
	if err != nil {
		return estimate.Outcome{}, err
	}
	if classicalOut.Cancelled {
		return estimate.Outcome{Cancelled: true}, nil
	}

	anchorIdx := anchorIndices(len(variants), numAnchors(spec.HybridOptions, len(variants)))
	anchorVariants := make([]domain.PerturbedPortfolio, len(anchorIdx))
	for i, idx := range anchorIdx {
		anchorVariants[i] = variants[idx]
	}

	quantumAnchorOut, err := e.quantum.Run(ctx, portfolio, spec, anchorVariants, token)
	if err != nil {
		return estimate.Outcome{}, err
	}
	if quantumAnchorOut.Cancelled {
		return estimate.Outcome{Cancelled: true}, nil
	}
	anchorX := make([]float64, len(anchorIdx))
	residual := make([]float64, len(anchorIdx))
	for i, idx := range anchorIdx {
		anchorX[i] = variants[idx].PerturbedValue
		residual[i] = quantumAnchorOut.Points[i].DailyVolatility - classicalOut.Points[idx].DailyVolatility
	}

	regressor, fellBack := fitRegressor(anchorX, residual)

	points := make([]estimate.PointEstimate, len(variants))
	for i, v := range variants {
		correction := regressor.Predict(v.PerturbedValue)
		points[i] = estimate.PointEstimate{
			DailyVolatility: classicalOut.Points[i].DailyVolatility + correction,
			NonPSD:          classicalOut.Points[i].NonPSD,
		}
	}
	for i, idx := range anchorIdx {
		if quantumAnchorOut.Points[i].QuantumFallback {
			points[idx].QuantumFallback = true
		}
	}

	out := estimate.Outcome{
		Baseline: classicalOut.Baseline,
		Points:   points,
	}

	meanCorrection, maxCorrection, fracSignificant := correctionStats(residual)

	looMSE := regressor.LooMSE()
	hp := regressor.Hyperparams()
	lengthScale, variance := math.NaN(), math.NaN()
	if !fellBack {
		lengthScale = hp["length_scale"]
		variance = hp["variance"]
	} else {
		looMSE = math.NaN()
	}

	classicalCurve := dailyVolatilities(classicalOut.Points)
	hybridCurve := dailyVolatilities(points)

	out.ModeMetrics = &domain.HybridMetrics{
		MeanQuantumCorrection:         meanCorrection,
		MaxQuantumCorrection:          maxCorrection,
		FractionSignificantCorrection: fracSignificant,
		HybridBaselineVsQuantum:       anchorRMS(points, anchorIdx, quantumAnchorOut.Points),
		GPInterpolationMSE:            looMSE,
		GPKernelLengthScale:           lengthScale,
		GPKernelVariance:              variance,
		CurveShapeChange:              countExtrema(hybridCurve) - countExtrema(classicalCurve),
		GPFellBackToPiecewiseLinear:   fellBack,
	}
	return out, nil
}

// numAnchors resolves the anchor count: the request's HybridOptions
// override, clamped to [1, total], else min(defaultAnchors, total).
func numAnchors(opts domain.HybridOptions, total int) int {
	n := defaultAnchors
	if opts.NumAnchors != nil {
		n = *opts.NumAnchors
	}
	if n > total {
		n = total
	}
	if n < 1 {
		n = 1
	}
	return n
}

// anchorIndices picks n evenly spaced indices into [0, total), always
// including both endpoints when n > 1.
func anchorIndices(total, n int) []int {
	if n >= total {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if n == 1 {
		return []int{0}
	}
	idx := make([]int, n)
	step := float64(total-1) / float64(n-1)
	for i := 0; i < n; i++ {
		idx[i] = int(math.Round(float64(i) * step))
	}
	return idx
}

// fitRegressor tries the RBF GP first; if its kernel matrix is singular
// at every jitter in the schedule, it falls back to piecewise-linear
// interpolation (spec §4.6).
func fitRegressor(x, y []float64) (gp.Regressor, bool) {
	rbf := &gp.RBFRegressor{}
	if err := rbf.Fit(x, y); err == nil {
		return rbf, false
	}
	pl := &gp.PiecewiseLinearRegressor{}
	_ = pl.Fit(x, y)
	return pl, true
}

func correctionStats(residual []float64) (mean, max, fracSignificant float64) {
	if len(residual) == 0 {
		return 0, 0, 0
	}
	significant := 0
	sum := 0.0
	for _, r := range residual {
		abs := math.Abs(r)
		sum += abs
		if abs > max {
			max = abs
		}
		if abs > significantCorrectionThreshold {
			significant++
		}
	}
	mean = sum / float64(len(residual))
	fracSignificant = float64(significant) / float64(len(residual))
	return mean, max, fracSignificant
}

// anchorRMS is the root-mean-square gap between the hybrid curve and the
// quantum sub-estimator's own anchor-point estimate, over just the
// anchors (spec §4.6): |sigma_hyb(v_a) - sigma_q(v_a)|.
func anchorRMS(hybridPoints []estimate.PointEstimate, anchorIdx []int, quantumAnchorPoints []estimate.PointEstimate) float64 {
	if len(anchorIdx) == 0 {
		return 0
	}
	sumSq := 0.0
	for i, idx := range anchorIdx {
		d := hybridPoints[idx].DailyVolatility - quantumAnchorPoints[i].DailyVolatility
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(anchorIdx)))
}

func dailyVolatilities(points []estimate.PointEstimate) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.DailyVolatility
	}
	return out
}

// countExtrema counts local maxima and minima in a sequence by sign
// changes of its discrete first difference.
func countExtrema(values []float64) int {
	if len(values) < 3 {
		return 0
	}
	count := 0
	prevSign := 0
	for i := 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		sign := 0
		switch {
		case d > 0:
			sign = 1
		case d < 0:
			sign = -1
		}
		if sign != 0 && prevSign != 0 && sign != prevSign {
			count++
		}
		if sign != 0 {
			prevSign = sign
		}
	}
	return count
}
