// Package analytics computes the §4.7 analytics bundle's
// mode-independent sections (performance, statistical, sensitivity) from
// the assembled step results. Mode-specific sections (classical/quantum/
// hybrid) come from the Estimator itself and are merged in by
// internal/assemble.
package analytics

import (
	"math"
	"os"
	"sort"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Collector computes the run-level performance, statistical, and
// sensitivity diagnostics. Resource sampling (RSS, CPU) is best-effort
// and labeled process-global (spec §4.7, §5): a sampling failure is
// logged and the corresponding field left at zero rather than failing
// the run.
type Collector struct {
	log zerolog.Logger
}

// NewCollector returns a Collector that logs best-effort sampling
// failures through log.
func NewCollector(log zerolog.Logger) *Collector {
	return &Collector{log: log}
}

// Collect builds the performance/statistical/sensitivity sections for one
// run. steps must be in range_tested order.
func (c *Collector) Collect(start time.Time, baseline domain.BaselineResult, steps []domain.StepResult, rangeTested []float64) (domain.PerformanceMetrics, domain.StatisticalMetrics, domain.SensitivityMetrics) {
	perf := c.performance(start, len(steps))
	statMetrics := statistical(steps)
	sens := sensitivity(baseline, steps, rangeTested)
	return perf, statMetrics, sens
}

func (c *Collector) performance(start time.Time, stepsProcessed int) domain.PerformanceMetrics {
	elapsed := time.Since(start)
	throughput := 0.0
	if elapsed.Seconds() > 0 {
		throughput = float64(stepsProcessed) / elapsed.Seconds()
	}

	memMB, cpuPct := c.sampleProcess()
	return domain.PerformanceMetrics{
		TotalExecutionTime: elapsed,
		Throughput:         throughput,
		StepsProcessed:     stepsProcessed,
		MemoryUsageMB:      memMB,
		CPUUsagePercent:    cpuPct,
	}
}

// sampleProcess reads the current process's RSS and its CPU share
// averaged since the process started. Both
// samples are process-global, not attributable to this run alone, and
// best-effort: a sampling error is logged and zero is reported.
func (c *Collector) sampleProcess() (memMB, cpuPct float64) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		c.log.Warn().Err(err).Msg("resource sampling: could not open process handle")
		return 0, 0
	}
	if mem, err := proc.MemoryInfo(); err != nil {
		c.log.Warn().Err(err).Msg("resource sampling: memory read failed")
	} else {
		memMB = float64(mem.RSS) / (1024 * 1024)
	}
	if pct, err := proc.CPUPercent(); err != nil {
		c.log.Warn().Err(err).Msg("resource sampling: cpu read failed")
	} else {
		cpuPct = pct
	}
	return memMB, cpuPct
}

func statistical(steps []domain.StepResult) domain.StatisticalMetrics {
	n := len(steps)
	values := make([]float64, n)
	for i, s := range steps {
		values[i] = s.PortfolioVolatilityDaily
	}

	mean, std := stat.MeanStdDev(values, nil)
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	standardError := 0.0
	if n > 0 {
		standardError = std / math.Sqrt(float64(n))
	}

	ci := confidenceInterval95(mean, standardError, n)

	cv := 0.0
	if mean != 0 {
		cv = std / mean
	}

	median := 0.0
	iqr := 0.0
	if n > 0 {
		median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
		iqr = q3 - q1
	}

	return domain.StatisticalMetrics{
		ConfidenceInterval95:   ci,
		CoefficientOfVariation: cv,
		Skewness:               stat.Skew(values, nil),
		Kurtosis:               stat.ExKurtosis(values, nil),
		StandardError:          standardError,
		Median:                 median,
		IQR:                    iqr,
		SampleSize:             n,
	}
}

// confidenceInterval95 uses a Student's-t critical value at n-1 degrees
// of freedom; with fewer than 2 samples there is no dispersion to bound,
// so the interval collapses to the mean.
func confidenceInterval95(mean, standardError float64, n int) [2]float64 {
	if n < 2 {
		return [2]float64{mean, mean}
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}
	crit := t.Quantile(0.975)
	margin := crit * standardError
	return [2]float64{mean - margin, mean + margin}
}

func sensitivity(baseline domain.BaselineResult, steps []domain.StepResult, rangeTested []float64) domain.SensitivityMetrics {
	n := len(steps)
	values := make([]float64, n)
	for i, s := range steps {
		values[i] = s.PortfolioVolatilityDaily
	}

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if n == 0 {
		minV, maxV = 0, 0
	}

	maxSlope := 0.0
	maxSensitivityValue := 0.0
	for i := 1; i < n; i++ {
		dv := rangeTested[i] - rangeTested[i-1]
		if dv == 0 {
			continue
		}
		slope := math.Abs((values[i] - values[i-1]) / dv)
		if slope > maxSlope {
			maxSlope = slope
			maxSensitivityValue = rangeTested[i]
		}
	}

	p95 := 0.0
	if n > 0 {
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		p95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	}

	return domain.SensitivityMetrics{
		BaselinePortfolioVolatilityDaily: baseline.PortfolioVolatilityDaily,
		PortfolioVolatilityRange:         [2]float64{minV, maxV},
		MaxSensitivityPoint:              maxSensitivityValue,
		CurveSteepness:                   maxSlope,
		Percentile95Volatility:           p95,
	}
}
