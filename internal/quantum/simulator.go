// Package quantum is a classical statevector simulator for the quantum
// estimator (spec §4.5): it loads a discretized return distribution into a
// basis-state amplitude vector via the Born rule. Its iterative
// (Grover-power) amplitude estimation (qae.go) does not evolve that
// vector: it samples each round's hits from the closed-form probability
// for the good-subset mass.
//
// This is conceptually grounded on the teacher's quantum-probability
// calculator (amplitude-from-energy, Born rule, interference vocabulary)
// even though that calculator scored an entirely different thing (bubble
// and value-trap probability); the amplitude/Born-rule/interference
// machinery carries over to this domain's tail-probability estimation.
package quantum

import (
	"math"
	"math/cmplx"
)

// AmplitudeVector is a statevector over 2^n computational basis states.
type AmplitudeVector []complex128

// DiscretizeGaussian bins a N(mean, std) distribution into 2^numQubits
// equal-width cells spanning mean ± 4*std, returning each cell's
// representative value and probability mass.
func DiscretizeGaussian(mean, std float64, numQubits int) (values, probs []float64) {
	n := 1 << numQubits
	values = make([]float64, n)
	probs = make([]float64, n)
	if std <= 0 {
		// Degenerate distribution: all mass on the mean.
		for i := range values {
			values[i] = mean
		}
		probs[n/2] = 1
		return values, probs
	}

	lo := mean - 4*std
	hi := mean + 4*std
	width := (hi - lo) / float64(n)

	total := 0.0
	for i := 0; i < n; i++ {
		center := lo + width*(float64(i)+0.5)
		values[i] = center
		probs[i] = normalPDF(center, mean, std) * width
		total += probs[i]
	}
	// Renormalize: the binned PDF doesn't sum to exactly 1 since the
	// support is truncated to ±4 sigma.
	for i := range probs {
		probs[i] /= total
	}
	return values, probs
}

func normalPDF(x, mean, std float64) float64 {
	z := (x - mean) / std
	return math.Exp(-0.5*z*z) / (std * math.Sqrt(2*math.Pi))
}

// LoadDistribution performs Born-rule amplitude loading: amplitude_i =
// sqrt(probability_i), a real, non-negative statevector whose measurement
// probabilities reproduce probs exactly.
func LoadDistribution(probs []float64) AmplitudeVector {
	amp := make(AmplitudeVector, len(probs))
	for i, p := range probs {
		amp[i] = complex(math.Sqrt(p), 0)
	}
	return amp
}

// BornProbabilities returns |amplitude_i|^2 for every basis state.
func BornProbabilities(amp AmplitudeVector) []float64 {
	probs := make([]float64, len(amp))
	for i, a := range amp {
		probs[i] = real(cmplx.Conj(a) * a)
	}
	return probs
}

// GoodMass sums the probability mass of every bin whose representative
// value exceeds threshold: the "good subset" amplitude-estimation targets.
func GoodMass(values, probs []float64, threshold float64) float64 {
	mass := 0.0
	for i, v := range values {
		if v > threshold {
			mass += probs[i]
		}
	}
	return mass
}
