package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_EmptyReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", renderSparkline(nil))
}

func TestRenderSparkline_FlatCurveUsesMiddleBlock(t *testing.T) {
	got := renderSparkline([]float64{1, 1, 1})
	assert.Equal(t, "▅▅▅", got)
}

func TestRenderSparkline_MonotonicCurveSpansLowToHigh(t *testing.T) {
	got := renderSparkline([]float64{0, 1, 2, 3})
	runes := []rune(got)
	require := assert.New(t)
	require.Len(runes, 4)
	require.Equal(rune('▁'), runes[0])
	require.Equal(rune('█'), runes[3])
}
