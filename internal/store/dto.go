package store

import (
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
)

// currentVersion is the schema major version FileStore writes. Readers
// reject any file whose version is greater than this, per spec §6.3's open
// question on forward compatibility; files at this version or older are
// read.
const currentVersion = 1

// projectFile is the on-disk shape of a project descriptor (spec §6.3).
// Configuration is round-tripped verbatim; the core never interprets it.
type projectFile struct {
	Version       int                    `json:"version"`
	Metadata      projectMetadata        `json:"metadata"`
	Configuration map[string]interface{} `json:"configuration"`
	Results       projectResults         `json:"results"`
}

type projectMetadata struct {
	ProjectID    string `json:"project_id"`
	Name         string `json:"name"`
	Created      string `json:"created"`
	LastModified string `json:"last_modified"`
	Description  string `json:"description"`
}

type projectResults struct {
	TestRuns   []string `json:"test_runs"`
	CurrentTab string   `json:"current_tab,omitempty"`
}

func projectToFile(p domain.ProjectRecord) projectFile {
	return projectFile{
		Version: currentVersion,
		Metadata: projectMetadata{
			ProjectID:    p.ProjectID,
			Name:         p.Name,
			Created:      p.Created.UTC().Format(time.RFC3339Nano),
			LastModified: p.LastModified.UTC().Format(time.RFC3339Nano),
			Description:  p.Description,
		},
		Configuration: p.Configuration,
		Results: projectResults{
			TestRuns:   p.TestRunIDs,
			CurrentTab: p.CurrentTab,
		},
	}
}

func fileToProject(f projectFile) (domain.ProjectRecord, error) {
	created, err := time.Parse(time.RFC3339Nano, f.Metadata.Created)
	if err != nil {
		return domain.ProjectRecord{}, err
	}
	modified, err := time.Parse(time.RFC3339Nano, f.Metadata.LastModified)
	if err != nil {
		return domain.ProjectRecord{}, err
	}
	return domain.ProjectRecord{
		ProjectID:     f.Metadata.ProjectID,
		Name:          f.Metadata.Name,
		Created:       created,
		LastModified:  modified,
		Description:   f.Metadata.Description,
		Configuration: f.Configuration,
		TestRunIDs:    f.Results.TestRuns,
		CurrentTab:    f.Results.CurrentTab,
	}, nil
}

// testRunFile is the on-disk shape of one persisted evaluation (spec
// §6.3, §3.1).
type testRunFile struct {
	Version     int             `json:"version"`
	TestRunID   string          `json:"test_run_id"`
	Timestamp   string          `json:"timestamp"`
	ProjectID   string          `json:"project_id"`
	BlockType   string          `json:"block_type"`
	Parameters  testRunParams   `json:"parameters"`
	Results     testRunResults  `json:"results"`
	Analytics   analyticsFile   `json:"analytics"`
	Flags       domain.Flags    `json:"flags,omitempty"`
}

type testRunParams struct {
	Portfolio      domain.Portfolio      `json:"portfolio"`
	Param          domain.ParamKind      `json:"param"`
	Asset          string                `json:"asset"`
	RangeMin       float64               `json:"range_min"`
	RangeMax       float64               `json:"range_max"`
	Steps          int                   `json:"steps"`
	Seed           int64                 `json:"seed"`
	QuantumOptions domain.QuantumOptions `json:"quantum_options,omitzero"`
	HybridOptions  domain.HybridOptions  `json:"hybrid_options,omitzero"`
}

type testRunResults struct {
	RangeTested                           []float64        `json:"range_tested"`
	BaselinePortfolioVolatilityDaily      nullFloat64      `json:"baseline_portfolio_volatility_daily"`
	BaselinePortfolioVolatilityAnnualized nullFloat64      `json:"baseline_portfolio_volatility_annualized"`
	Steps                                 []stepResultFile `json:"steps"`
	Cancelled                             bool             `json:"cancelled"`
}

// stepResultFile mirrors domain.StepResult with NaN-safe floats: a
// non-PSD step carries NaN volatility (spec §3.2/§4.9), which must still
// round-trip through the on-disk record.
type stepResultFile struct {
	PerturbedValue                float64     `json:"perturbed_value"`
	PortfolioVolatilityDaily      nullFloat64 `json:"portfolio_volatility_daily"`
	PortfolioVolatilityAnnualized nullFloat64 `json:"portfolio_volatility_annualized"`
	DeltaVsBaseline               nullFloat64 `json:"delta_vs_baseline"`
	NonPSD                        bool        `json:"non_psd"`
	QuantumFallback               bool        `json:"quantum_fallback"`
}

func stepResultToFile(s domain.StepResult) stepResultFile {
	return stepResultFile{
		PerturbedValue:                s.PerturbedValue,
		PortfolioVolatilityDaily:      nullFloat64(s.PortfolioVolatilityDaily),
		PortfolioVolatilityAnnualized: nullFloat64(s.PortfolioVolatilityAnnualized),
		DeltaVsBaseline:               nullFloat64(s.DeltaVsBaseline),
		NonPSD:                        s.NonPSD,
		QuantumFallback:               s.QuantumFallback,
	}
}

func fileToStepResult(f stepResultFile) domain.StepResult {
	return domain.StepResult{
		PerturbedValue:                f.PerturbedValue,
		PortfolioVolatilityDaily:      float64(f.PortfolioVolatilityDaily),
		PortfolioVolatilityAnnualized: float64(f.PortfolioVolatilityAnnualized),
		DeltaVsBaseline:               float64(f.DeltaVsBaseline),
		NonPSD:                        f.NonPSD,
		QuantumFallback:               f.QuantumFallback,
	}
}

// analyticsFile mirrors domain.AnalyticsBundle with NaN-safe floats on
// every field a run with at least one non-PSD step can leave non-finite:
// the statistical/sensitivity aggregates are computed straight across
// the per-step daily volatilities (internal/analytics), so one NaN step
// propagates into their mean, std, skew, min/max, and so on, in addition
// to QuantumMetrics.EnhancementFactor with no classical reference, the
// HybridMetrics GP fields (interpolation MSE, kernel length-scale and
// variance) on a GP-fit fallback, and the HybridMetrics mean correction
// and baseline-vs-quantum figures when an anchor step is non-PSD.
type analyticsFile struct {
	Mode        domain.Mode               `json:"mode"`
	Performance domain.PerformanceMetrics `json:"performance"`
	Statistical statisticalMetricsFile    `json:"statistical"`
	Sensitivity sensitivityMetricsFile    `json:"sensitivity"`
	Classical   *classicalMetricsFile     `json:"classical,omitempty"`
	Quantum     *quantumMetricsFile       `json:"quantum,omitempty"`
	Hybrid      *hybridMetricsFile        `json:"hybrid,omitempty"`
}

// classicalMetricsFile mirrors domain.ClassicalMetrics: StandardError is
// derived from the baseline daily volatility (internal/estimate/classical)
// and inherits its NaN when the baseline portfolio is non-PSD.
type classicalMetricsFile struct {
	SimulationsPerSecond float64     `json:"simulations_per_second"`
	IterationsPerSecond  float64     `json:"iterations_per_second"`
	ConvergenceRate      float64     `json:"convergence_rate"`
	MonteCarloEfficiency float64     `json:"monte_carlo_efficiency"`
	StandardError        nullFloat64 `json:"standard_error"`
	SamplesPerStep       int         `json:"samples_per_step"`
}

type statisticalMetricsFile struct {
	ConfidenceInterval95   [2]nullFloat64 `json:"confidence_interval_95"`
	CoefficientOfVariation nullFloat64    `json:"coefficient_of_variation"`
	Skewness               nullFloat64    `json:"skewness"`
	Kurtosis               nullFloat64    `json:"kurtosis"`
	StandardError          nullFloat64    `json:"standard_error"`
	Median                 nullFloat64    `json:"median"`
	IQR                    nullFloat64    `json:"iqr"`
	SampleSize             int            `json:"sample_size"`
}

func statisticalToFile(s domain.StatisticalMetrics) statisticalMetricsFile {
	return statisticalMetricsFile{
		ConfidenceInterval95:   [2]nullFloat64{nullFloat64(s.ConfidenceInterval95[0]), nullFloat64(s.ConfidenceInterval95[1])},
		CoefficientOfVariation: nullFloat64(s.CoefficientOfVariation),
		Skewness:               nullFloat64(s.Skewness),
		Kurtosis:               nullFloat64(s.Kurtosis),
		StandardError:          nullFloat64(s.StandardError),
		Median:                 nullFloat64(s.Median),
		IQR:                    nullFloat64(s.IQR),
		SampleSize:             s.SampleSize,
	}
}

func fileToStatistical(f statisticalMetricsFile) domain.StatisticalMetrics {
	return domain.StatisticalMetrics{
		ConfidenceInterval95:   [2]float64{float64(f.ConfidenceInterval95[0]), float64(f.ConfidenceInterval95[1])},
		CoefficientOfVariation: float64(f.CoefficientOfVariation),
		Skewness:               float64(f.Skewness),
		Kurtosis:               float64(f.Kurtosis),
		StandardError:          float64(f.StandardError),
		Median:                 float64(f.Median),
		IQR:                    float64(f.IQR),
		SampleSize:             f.SampleSize,
	}
}

type sensitivityMetricsFile struct {
	BaselinePortfolioVolatilityDaily nullFloat64    `json:"baseline_portfolio_volatility_daily"`
	PortfolioVolatilityRange         [2]nullFloat64 `json:"portfolio_volatility_range"`
	MaxSensitivityPoint              nullFloat64    `json:"max_sensitivity_point"`
	CurveSteepness                   nullFloat64    `json:"curve_steepness"`
	Percentile95Volatility           nullFloat64    `json:"percentile_95_volatility"`
}

func sensitivityToFile(s domain.SensitivityMetrics) sensitivityMetricsFile {
	return sensitivityMetricsFile{
		BaselinePortfolioVolatilityDaily: nullFloat64(s.BaselinePortfolioVolatilityDaily),
		PortfolioVolatilityRange:         [2]nullFloat64{nullFloat64(s.PortfolioVolatilityRange[0]), nullFloat64(s.PortfolioVolatilityRange[1])},
		MaxSensitivityPoint:              nullFloat64(s.MaxSensitivityPoint),
		CurveSteepness:                   nullFloat64(s.CurveSteepness),
		Percentile95Volatility:           nullFloat64(s.Percentile95Volatility),
	}
}

func fileToSensitivity(f sensitivityMetricsFile) domain.SensitivityMetrics {
	return domain.SensitivityMetrics{
		BaselinePortfolioVolatilityDaily: float64(f.BaselinePortfolioVolatilityDaily),
		PortfolioVolatilityRange:         [2]float64{float64(f.PortfolioVolatilityRange[0]), float64(f.PortfolioVolatilityRange[1])},
		MaxSensitivityPoint:              float64(f.MaxSensitivityPoint),
		CurveSteepness:                   float64(f.CurveSteepness),
		Percentile95Volatility:           float64(f.Percentile95Volatility),
	}
}

type quantumMetricsFile struct {
	CircuitDepth          int         `json:"circuit_depth"`
	TotalQubits           int         `json:"total_qubits"`
	QuantumOperations     int         `json:"quantum_operations"`
	ShotsPerSecond        float64     `json:"shots_per_second"`
	CircuitsPerSecond     float64     `json:"circuits_per_second"`
	EnhancementFactor     nullFloat64 `json:"enhancement_factor"`
	QuantumAdvantageRatio nullFloat64 `json:"quantum_advantage_ratio"`
	Tau0SurrogateUsed     bool        `json:"tau0_surrogate_used"`
}

type hybridMetricsFile struct {
	MeanQuantumCorrection         nullFloat64 `json:"mean_quantum_correction"`
	MaxQuantumCorrection          float64     `json:"max_quantum_correction"`
	FractionSignificantCorrection float64     `json:"fraction_significant_correction"`
	HybridBaselineVsQuantum       nullFloat64 `json:"hybrid_baseline_vs_quantum"`
	GPInterpolationMSE            nullFloat64 `json:"gp_interpolation_mse"`
	GPKernelLengthScale           nullFloat64 `json:"gp_kernel_length_scale"`
	GPKernelVariance              nullFloat64 `json:"gp_kernel_variance"`
	CurveShapeChange              int         `json:"curve_shape_change"`
	GPFellBackToPiecewiseLinear   bool        `json:"gp_fell_back_to_piecewise_linear"`
}

func analyticsToFile(a domain.AnalyticsBundle) analyticsFile {
	f := analyticsFile{
		Mode:        a.Mode,
		Performance: a.Performance,
		Statistical: statisticalToFile(a.Statistical),
		Sensitivity: sensitivityToFile(a.Sensitivity),
	}
	if a.Classical != nil {
		f.Classical = &classicalMetricsFile{
			SimulationsPerSecond: a.Classical.SimulationsPerSecond,
			IterationsPerSecond:  a.Classical.IterationsPerSecond,
			ConvergenceRate:      a.Classical.ConvergenceRate,
			MonteCarloEfficiency: a.Classical.MonteCarloEfficiency,
			StandardError:        nullFloat64(a.Classical.StandardError),
			SamplesPerStep:       a.Classical.SamplesPerStep,
		}
	}
	if a.Quantum != nil {
		f.Quantum = &quantumMetricsFile{
			CircuitDepth:          a.Quantum.CircuitDepth,
			TotalQubits:           a.Quantum.TotalQubits,
			QuantumOperations:     a.Quantum.QuantumOperations,
			ShotsPerSecond:        a.Quantum.ShotsPerSecond,
			CircuitsPerSecond:     a.Quantum.CircuitsPerSecond,
			EnhancementFactor:     nullFloat64(a.Quantum.EnhancementFactor),
			QuantumAdvantageRatio: nullFloat64(a.Quantum.QuantumAdvantageRatio),
			Tau0SurrogateUsed:     a.Quantum.Tau0SurrogateUsed,
		}
	}
	if a.Hybrid != nil {
		f.Hybrid = &hybridMetricsFile{
			MeanQuantumCorrection:         nullFloat64(a.Hybrid.MeanQuantumCorrection),
			MaxQuantumCorrection:          a.Hybrid.MaxQuantumCorrection,
			FractionSignificantCorrection: a.Hybrid.FractionSignificantCorrection,
			HybridBaselineVsQuantum:       nullFloat64(a.Hybrid.HybridBaselineVsQuantum),
			GPInterpolationMSE:            nullFloat64(a.Hybrid.GPInterpolationMSE),
			GPKernelLengthScale:           nullFloat64(a.Hybrid.GPKernelLengthScale),
			GPKernelVariance:              nullFloat64(a.Hybrid.GPKernelVariance),
			CurveShapeChange:              a.Hybrid.CurveShapeChange,
			GPFellBackToPiecewiseLinear:   a.Hybrid.GPFellBackToPiecewiseLinear,
		}
	}
	return f
}

func fileToAnalytics(f analyticsFile) domain.AnalyticsBundle {
	a := domain.AnalyticsBundle{
		Mode:        f.Mode,
		Performance: f.Performance,
		Statistical: fileToStatistical(f.Statistical),
		Sensitivity: fileToSensitivity(f.Sensitivity),
	}
	if f.Classical != nil {
		a.Classical = &domain.ClassicalMetrics{
			SimulationsPerSecond: f.Classical.SimulationsPerSecond,
			IterationsPerSecond:  f.Classical.IterationsPerSecond,
			ConvergenceRate:      f.Classical.ConvergenceRate,
			MonteCarloEfficiency: f.Classical.MonteCarloEfficiency,
			StandardError:        float64(f.Classical.StandardError),
			SamplesPerStep:       f.Classical.SamplesPerStep,
		}
	}
	if f.Quantum != nil {
		a.Quantum = &domain.QuantumMetrics{
			CircuitDepth:          f.Quantum.CircuitDepth,
			TotalQubits:           f.Quantum.TotalQubits,
			QuantumOperations:     f.Quantum.QuantumOperations,
			ShotsPerSecond:        f.Quantum.ShotsPerSecond,
			CircuitsPerSecond:     f.Quantum.CircuitsPerSecond,
			EnhancementFactor:     float64(f.Quantum.EnhancementFactor),
			QuantumAdvantageRatio: float64(f.Quantum.QuantumAdvantageRatio),
			Tau0SurrogateUsed:     f.Quantum.Tau0SurrogateUsed,
		}
	}
	if f.Hybrid != nil {
		a.Hybrid = &domain.HybridMetrics{
			MeanQuantumCorrection:         float64(f.Hybrid.MeanQuantumCorrection),
			MaxQuantumCorrection:          f.Hybrid.MaxQuantumCorrection,
			FractionSignificantCorrection: f.Hybrid.FractionSignificantCorrection,
			HybridBaselineVsQuantum:       float64(f.Hybrid.HybridBaselineVsQuantum),
			GPInterpolationMSE:            float64(f.Hybrid.GPInterpolationMSE),
			GPKernelLengthScale:           float64(f.Hybrid.GPKernelLengthScale),
			GPKernelVariance:              float64(f.Hybrid.GPKernelVariance),
			CurveShapeChange:              f.Hybrid.CurveShapeChange,
			GPFellBackToPiecewiseLinear:   f.Hybrid.GPFellBackToPiecewiseLinear,
		}
	}
	return a
}

func testRunToFile(run domain.TestRun) testRunFile {
	return testRunFile{
		Version:   currentVersion,
		TestRunID: run.TestRunID,
		Timestamp: run.Timestamp.UTC().Format(time.RFC3339Nano),
		ProjectID: run.ProjectID,
		BlockType: string(run.BlockType),
		Parameters: testRunParams{
			Portfolio:      run.Portfolio,
			Param:          run.Spec.Param,
			Asset:          run.Spec.Asset,
			RangeMin:       run.Spec.Range.Min,
			RangeMax:       run.Spec.Range.Max,
			Steps:          run.Spec.Steps,
			Seed:           run.Spec.Seed,
			QuantumOptions: run.Spec.QuantumOptions,
			HybridOptions:  run.Spec.HybridOptions,
		},
		Results: testRunResults{
			RangeTested:                           run.Result.RangeTested,
			BaselinePortfolioVolatilityDaily:       nullFloat64(run.Result.BaselinePortfolioVolatilityDaily),
			BaselinePortfolioVolatilityAnnualized:  nullFloat64(run.Result.BaselinePortfolioVolatilityAnnualized),
			Steps:                                  stepResultsToFile(run.Result.Results),
			Cancelled:                              run.Result.Cancelled,
		},
		Analytics: analyticsToFile(run.Result.Analytics),
		Flags:     run.Result.Flags,
	}
}

func stepResultsToFile(steps []domain.StepResult) []stepResultFile {
	out := make([]stepResultFile, len(steps))
	for i, s := range steps {
		out[i] = stepResultToFile(s)
	}
	return out
}

func fileToStepResults(files []stepResultFile) []domain.StepResult {
	out := make([]domain.StepResult, len(files))
	for i, f := range files {
		out[i] = fileToStepResult(f)
	}
	return out
}

func fileToTestRun(f testRunFile) (domain.TestRun, error) {
	ts, err := time.Parse(time.RFC3339Nano, f.Timestamp)
	if err != nil {
		return domain.TestRun{}, err
	}
	spec := domain.PerturbSpec{
		Param:          f.Parameters.Param,
		Asset:          f.Parameters.Asset,
		Range:          domain.Range{Min: f.Parameters.RangeMin, Max: f.Parameters.RangeMax},
		Steps:          f.Parameters.Steps,
		Seed:           f.Parameters.Seed,
		QuantumOptions: f.Parameters.QuantumOptions,
		HybridOptions:  f.Parameters.HybridOptions,
	}
	result := domain.Result{
		Perturbation:                          spec.Param,
		Asset:                                  spec.Asset,
		RangeTested:                            f.Results.RangeTested,
		BaselinePortfolioVolatilityDaily:       float64(f.Results.BaselinePortfolioVolatilityDaily),
		BaselinePortfolioVolatilityAnnualized:  float64(f.Results.BaselinePortfolioVolatilityAnnualized),
		Results:                                fileToStepResults(f.Results.Steps),
		Analytics:                              fileToAnalytics(f.Analytics),
		Cancelled:                              f.Results.Cancelled,
		Flags:                                  f.Flags,
	}
	return domain.TestRun{
		TestRunID: f.TestRunID,
		Timestamp: ts,
		ProjectID: f.ProjectID,
		BlockType: domain.Mode(f.BlockType),
		Portfolio: f.Parameters.Portfolio,
		Spec:      spec,
		Result:    result,
	}, nil
}
