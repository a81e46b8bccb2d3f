package quantum

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedule_Doubling(t *testing.T) {
	s := DefaultSchedule(5)
	assert.Equal(t, Schedule{0, 1, 2, 4, 8}, s)
}

func TestMLEEstimate_RecoversKnownAmplitude(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	const trueA = 0.2
	rounds := SimulateRounds(trueA, 2000, DefaultSchedule(6), rng)
	got := MLEEstimate(rounds)
	assert.InDelta(t, trueA, got, 0.03)
}

func TestMLEEstimate_HalfAmplitude(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	rounds := SimulateRounds(0.5, 2000, DefaultSchedule(6), rng)
	got := MLEEstimate(rounds)
	assert.InDelta(t, 0.5, got, 0.03)
}
