// Package domain holds the core value types shared by every stage of the
// sensitivity-evaluation pipeline: request parsing, validation, the sweep
// planner, the three estimators, analytics, and persistence. Nothing in
// this package talks to disk, the network, or a clock — it is pure data.
package domain

import "time"

// ParamKind is the scalar parameter a PerturbSpec sweeps.
type ParamKind string

const (
	ParamVolatility  ParamKind = "volatility"
	ParamWeight      ParamKind = "weight"
	ParamCorrelation ParamKind = "correlation"
)

// Mode selects which estimator backs a run.
type Mode string

const (
	ModeClassical Mode = "classical"
	ModeQuantum   Mode = "quantum"
	ModeHybrid    Mode = "hybrid"
)

// Portfolio is a small multi-asset portfolio: assets, their weights,
// individual daily volatilities, and a correlation matrix. Once built by
// the validator it is treated as immutable by every downstream stage.
type Portfolio struct {
	Assets      []string    // unique symbols, 1..5 entries
	Weights     []float64   // sums to 1 ± 1e-6
	Volatility  []float64   // per-asset daily sigma, all > 0
	Correlation [][]float64 // symmetric, unit diagonal, entries in [-1,1]
}

// N returns the number of assets.
func (p Portfolio) N() int { return len(p.Assets) }

// Clone returns a deep copy, safe for the planner to mutate.
func (p Portfolio) Clone() Portfolio {
	out := Portfolio{
		Assets:     append([]string(nil), p.Assets...),
		Weights:    append([]float64(nil), p.Weights...),
		Volatility: append([]float64(nil), p.Volatility...),
	}
	out.Correlation = make([][]float64, len(p.Correlation))
	for i, row := range p.Correlation {
		out.Correlation[i] = append([]float64(nil), row...)
	}
	return out
}

// Range is an inclusive [Min, Max] sweep range.
type Range struct {
	Min float64
	Max float64
}

// QuantumOptions tunes the quantum estimator; zero values mean "use the
// documented defaults" (see internal/estimate/quantum).
type QuantumOptions struct {
	NumQubits *int
	Shots     *int
	Threshold *float64
}

// HybridOptions tunes the hybrid estimator.
type HybridOptions struct {
	NumAnchors *int
}

// PerturbSpec describes a single-parameter sweep over a Portfolio.
type PerturbSpec struct {
	Param          ParamKind
	Asset          string
	Range          Range
	Steps          int
	Seed           int64
	QuantumOptions QuantumOptions
	HybridOptions  HybridOptions
}

// RunRequest is the transport-neutral request described in spec §6.1.
type RunRequest struct {
	Mode        Mode
	ProjectID   string
	Portfolio   Portfolio
	Spec        PerturbSpec
	HasSeed     bool
}

// PerturbedPortfolio is a Portfolio variant produced for one sweep step.
type PerturbedPortfolio struct {
	Portfolio     Portfolio
	PerturbedValue float64
}

// Flags records run-level non-finite or fallback conditions, keyed by
// name; per-step conditions live on each StepResult's NonPSD and
// QuantumFallback fields.
type Flags map[string]bool

// StepResult is one point on the sensitivity curve.
type StepResult struct {
	PerturbedValue                  float64
	PortfolioVolatilityDaily        float64
	PortfolioVolatilityAnnualized   float64
	DeltaVsBaseline                 float64
	NonPSD                          bool
	QuantumFallback                 bool
}

// BaselineResult is the metric computed on the unperturbed Portfolio.
type BaselineResult struct {
	PortfolioVolatilityDaily      float64
	PortfolioVolatilityAnnualized float64
}

// PerformanceMetrics are execution-time and resource counters (§4.7).
type PerformanceMetrics struct {
	TotalExecutionTime time.Duration
	Throughput         float64 // steps / second
	StepsProcessed     int
	MemoryUsageMB      float64 // RSS when analytics are collected; not a delta or a peak; process-global, best-effort
	CPUUsagePercent    float64 // mean over the process lifetime, not this run alone; process-global, best-effort
}

// StatisticalMetrics summarize the vector of per-step daily volatilities.
type StatisticalMetrics struct {
	ConfidenceInterval95   [2]float64
	CoefficientOfVariation float64
	Skewness               float64
	Kurtosis               float64 // Fisher (excess) kurtosis
	StandardError          float64
	Median                 float64
	IQR                    float64
	SampleSize             int
}

// SensitivityMetrics describe the shape of the sensitivity curve.
type SensitivityMetrics struct {
	BaselinePortfolioVolatilityDaily float64
	PortfolioVolatilityRange         [2]float64 // min, max
	MaxSensitivityPoint             float64     // value at argmax |dV/dv|
	CurveSteepness                  float64     // max finite-difference slope
	Percentile95Volatility          float64
}

// ClassicalMetrics are the Monte-Carlo-specific diagnostics (§4.4).
type ClassicalMetrics struct {
	SimulationsPerSecond  float64
	IterationsPerSecond   float64
	ConvergenceRate       float64
	MonteCarloEfficiency  float64
	StandardError         float64
	SamplesPerStep        int
}

// QuantumMetrics are the circuit-level diagnostics (§4.5).
type QuantumMetrics struct {
	CircuitDepth          int
	TotalQubits           int
	QuantumOperations     int
	ShotsPerSecond        float64
	CircuitsPerSecond     float64
	EnhancementFactor     float64 // NaN if no classical reference exists
	QuantumAdvantageRatio float64
	Tau0SurrogateUsed     bool
}

// HybridMetrics are the GP-interpolation diagnostics (§4.6).
type HybridMetrics struct {
	MeanQuantumCorrection        float64
	MaxQuantumCorrection         float64
	FractionSignificantCorrection float64
	HybridBaselineVsQuantum      float64
	GPInterpolationMSE           float64 // NaN on GP fallback
	GPKernelLengthScale          float64
	GPKernelVariance             float64
	CurveShapeChange             int
	GPFellBackToPiecewiseLinear  bool
}

// AnalyticsBundle is §4.7's per-run analytics record. Exactly one of
// Classical/Quantum/Hybrid is populated, matching Mode.
type AnalyticsBundle struct {
	Mode               Mode
	Performance        PerformanceMetrics
	Statistical        StatisticalMetrics
	Sensitivity        SensitivityMetrics
	Classical          *ClassicalMetrics
	Quantum            *QuantumMetrics
	Hybrid             *HybridMetrics
}

// Result is the §4.8 assembled response, prior to being wrapped in a
// persisted TestRun record.
type Result struct {
	Perturbation                   ParamKind
	Asset                          string
	RangeTested                    []float64
	BaselinePortfolioVolatilityDaily      float64
	BaselinePortfolioVolatilityAnnualized float64
	Results                        []StepResult
	Analytics                      AnalyticsBundle
	Cancelled                      bool
	Flags                          Flags
}

// TestRun is the persisted, serializable record for one evaluation run.
type TestRun struct {
	TestRunID string
	Timestamp time.Time
	ProjectID string
	BlockType Mode
	Portfolio Portfolio
	Spec      PerturbSpec
	Result    Result
}

// ProjectRecord is a persisted project descriptor (§3.1, §6.3). The
// Configuration blob is opaque to the core: it is round-tripped verbatim.
type ProjectRecord struct {
	ProjectID      string
	Name           string
	Created        time.Time
	LastModified   time.Time
	Description    string
	Configuration  map[string]interface{}
	TestRunIDs     []string
	CurrentTab     string
}
