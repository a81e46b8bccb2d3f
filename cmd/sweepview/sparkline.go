package main

import "math"

// sparkBlocks are the eight eighth-height Unicode block characters used
// to render a value curve as one line of text, lowest to highest.
var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// renderSparkline maps values onto the block alphabet, scaled by their
// own min/max so a flat curve still renders as a single repeated block
// rather than dividing by zero.
func renderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}

	min, max := values[0], values[0]
	for _, v := range values {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}

	span := max - min
	out := make([]rune, len(values))
	for i, v := range values {
		if span == 0 {
			out[i] = sparkBlocks[len(sparkBlocks)/2]
			continue
		}
		frac := (v - min) / span
		idx := int(frac * float64(len(sparkBlocks)-1))
		out[i] = sparkBlocks[idx]
	}
	return string(out)
}
