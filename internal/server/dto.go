package server

import "github.com/kanosym/sensitivity-core/internal/domain"

// runRequestDTO is the wire shape of a validate/run request body,
// mirroring domain.RunRequest with JSON-friendly field names.
type runRequestDTO struct {
	Mode      domain.Mode      `json:"mode"`
	ProjectID string           `json:"project_id,omitempty"`
	Portfolio portfolioDTO     `json:"portfolio"`
	Spec      perturbSpecDTO   `json:"spec"`
}

type portfolioDTO struct {
	Assets      []string    `json:"assets"`
	Weights     []float64   `json:"weights"`
	Volatility  []float64   `json:"volatility"`
	Correlation [][]float64 `json:"correlation"`
}

type perturbSpecDTO struct {
	Param          domain.ParamKind      `json:"param"`
	Asset          string                `json:"asset"`
	RangeMin       float64               `json:"range_min"`
	RangeMax       float64               `json:"range_max"`
	Steps          int                   `json:"steps"`
	Seed           int64                 `json:"seed,omitempty"`
	QuantumOptions domain.QuantumOptions `json:"quantum_options,omitzero"`
	HybridOptions  domain.HybridOptions  `json:"hybrid_options,omitzero"`
}

func (d runRequestDTO) toDomain() domain.RunRequest {
	return domain.RunRequest{
		Mode:      d.Mode,
		ProjectID: d.ProjectID,
		Portfolio: domain.Portfolio{
			Assets:      d.Portfolio.Assets,
			Weights:     d.Portfolio.Weights,
			Volatility:  d.Portfolio.Volatility,
			Correlation: d.Portfolio.Correlation,
		},
		Spec: domain.PerturbSpec{
			Param:          d.Spec.Param,
			Asset:          d.Spec.Asset,
			Range:          domain.Range{Min: d.Spec.RangeMin, Max: d.Spec.RangeMax},
			Steps:          d.Spec.Steps,
			Seed:           d.Spec.Seed,
			QuantumOptions: d.Spec.QuantumOptions,
			HybridOptions:  d.Spec.HybridOptions,
		},
		HasSeed: d.Spec.Seed != 0,
	}
}

// createProjectRequest is the body of POST /api/v1/projects.
type createProjectRequest struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	Configuration map[string]interface{} `json:"configuration,omitempty"`
}

// renameProjectRequest is the body of PATCH /api/v1/projects/{project_id}.
type renameProjectRequest struct {
	Name string `json:"name"`
}

// saveTestRunRequest wraps the body of POST
// /api/v1/projects/{project_id}/test-runs: the client posts a TestRun it
// already ran (e.g. via /api/v1/run) and wants persisted verbatim.
type saveTestRunRequest struct {
	TestRun domain.TestRun `json:"test_run"`
}

// errorResponse is the JSON body written alongside every non-2xx status.
type errorResponse struct {
	Error  string              `json:"error"`
	Fields []fieldErrorDTO     `json:"fields,omitempty"`
}

type fieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
