package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// sweepSpec is the on-disk JSON shape a caller of sweepview writes by
// hand: a portfolio plus the single-parameter sweep to run over it,
// mirroring domain.RunRequest with JSON-friendly field names.
type sweepSpec struct {
	Mode      domain.Mode `json:"mode"`
	Portfolio struct {
		Assets      []string    `json:"assets"`
		Weights     []float64   `json:"weights"`
		Volatility  []float64   `json:"volatility"`
		Correlation [][]float64 `json:"correlation"`
	} `json:"portfolio"`
	Spec struct {
		Param    domain.ParamKind `json:"param"`
		Asset    string           `json:"asset"`
		RangeMin float64          `json:"range_min"`
		RangeMax float64          `json:"range_max"`
		Steps    int              `json:"steps"`
		Seed     int64            `json:"seed,omitempty"`
	} `json:"spec"`
}

func loadSweepSpec(path string) (domain.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RunRequest{}, fmt.Errorf("reading spec file: %w", err)
	}

	var s sweepSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.RunRequest{}, fmt.Errorf("parsing spec file: %w", err)
	}

	return domain.RunRequest{
		Mode: s.Mode,
		Portfolio: domain.Portfolio{
			Assets:      s.Portfolio.Assets,
			Weights:     s.Portfolio.Weights,
			Volatility:  s.Portfolio.Volatility,
			Correlation: s.Portfolio.Correlation,
		},
		Spec: domain.PerturbSpec{
			Param: s.Spec.Param,
			Asset: s.Spec.Asset,
			Range: domain.Range{Min: s.Spec.RangeMin, Max: s.Spec.RangeMax},
			Steps: s.Spec.Steps,
			Seed:  s.Spec.Seed,
		},
		HasSeed: s.Spec.Seed != 0,
	}, nil
}
