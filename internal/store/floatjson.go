package store

import (
	"encoding/json"
	"math"
)

// nullFloat64 wraps a float64 whose NaN/Inf values must still round-trip
// through JSON (spec §6.2): encoding/json.Marshal errors on NaN and ±Inf,
// but a non-PSD step, a GP fallback, or an enhancement factor with no
// classical reference legitimately produce one. NaN and ±Inf all encode
// as JSON null; decoding null back yields NaN, which is indistinguishable
// from the degenerate cases that produced it in the first place.
type nullFloat64 float64

func (f nullFloat64) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func (f *nullFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = nullFloat64(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = nullFloat64(v)
	return nil
}
