package store

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"testing"
	"time"

	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	return fs
}

func sampleProject() domain.ProjectRecord {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.ProjectRecord{
		ProjectID:     "proj-1",
		Name:          "Example Portfolio",
		Created:       now,
		LastModified:  now,
		Description:   "a test project",
		Configuration: map[string]interface{}{"theme": "dark"},
		TestRunIDs:    []string{},
		CurrentTab:    "classical",
	}
}

func sampleTestRun() domain.TestRun {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return domain.TestRun{
		TestRunID: "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Timestamp: now,
		ProjectID: "proj-1",
		BlockType: domain.ModeClassical,
		Portfolio: domain.Portfolio{
			Assets:      []string{"A"},
			Weights:     []float64{1},
			Volatility:  []float64{0.2},
			Correlation: [][]float64{{1}},
		},
		Spec: domain.PerturbSpec{Param: domain.ParamVolatility, Asset: "A", Range: domain.Range{Min: 0.1, Max: 0.3}, Steps: 3, Seed: 1},
		Result: domain.Result{
			Perturbation:                     domain.ParamVolatility,
			Asset:                            "A",
			RangeTested:                      []float64{0.1, 0.2, 0.3},
			BaselinePortfolioVolatilityDaily: 0.2,
			Results: []domain.StepResult{
				{PerturbedValue: 0.1, PortfolioVolatilityDaily: 0.1},
				{PerturbedValue: 0.2, PortfolioVolatilityDaily: 0.2},
				{PerturbedValue: 0.3, PortfolioVolatilityDaily: 0.3},
			},
			Analytics: domain.AnalyticsBundle{Mode: domain.ModeClassical, Classical: &domain.ClassicalMetrics{SamplesPerStep: 10000}},
			Flags:     domain.Flags{},
		},
	}
}

func TestFileStore_ProjectRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	project := sampleProject()

	require.NoError(t, fs.CreateProject(ctx, project))

	got, err := fs.GetProject(ctx, project.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, project.Name, got.Name)
	assert.Equal(t, project.Description, got.Description)
	assert.Equal(t, "dark", got.Configuration["theme"])
}

func TestFileStore_ListProjects_SortedByName(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	b := sampleProject()
	b.ProjectID, b.Name = "proj-b", "Bravo"
	a := sampleProject()
	a.ProjectID, a.Name = "proj-a", "Alpha"

	require.NoError(t, fs.CreateProject(ctx, b))
	require.NoError(t, fs.CreateProject(ctx, a))

	list, err := fs.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha", list[0].Name)
	assert.Equal(t, "Bravo", list[1].Name)
}

func TestFileStore_RenameProject(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	project := sampleProject()
	require.NoError(t, fs.CreateProject(ctx, project))

	require.NoError(t, fs.RenameProject(ctx, project.ProjectID, "Renamed"))

	got, err := fs.GetProject(ctx, project.ProjectID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestFileStore_DeleteProject_RemovesTestRuns(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	project := sampleProject()
	require.NoError(t, fs.CreateProject(ctx, project))
	run := sampleTestRun()
	require.NoError(t, fs.SaveTestRun(ctx, run))

	require.NoError(t, fs.DeleteProject(ctx, project.ProjectID))

	_, err := fs.GetProject(ctx, project.ProjectID)
	assert.Error(t, err)
	runs, err := fs.ListTestRuns(ctx, project.ProjectID)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFileStore_TestRunRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	run := sampleTestRun()

	require.NoError(t, fs.SaveTestRun(ctx, run))

	got, err := fs.GetTestRun(ctx, run.ProjectID, run.TestRunID)
	require.NoError(t, err)
	assert.Equal(t, run.Spec.Param, got.Spec.Param)
	assert.Equal(t, run.Result.RangeTested, got.Result.RangeTested)
	require.NotNil(t, got.Result.Analytics.Classical)
	assert.Equal(t, 10000, got.Result.Analytics.Classical.SamplesPerStep)
	assert.True(t, got.Timestamp.Equal(run.Timestamp))
}

func TestFileStore_ListTestRuns_SortedByID(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	first := sampleTestRun()
	first.TestRunID = "01AAAAAAAAAAAAAAAAAAAAAAAA"
	second := sampleTestRun()
	second.TestRunID = "01ZZZZZZZZZZZZZZZZZZZZZZZZ"

	require.NoError(t, fs.SaveTestRun(ctx, second))
	require.NoError(t, fs.SaveTestRun(ctx, first))

	list, err := fs.ListTestRuns(ctx, first.ProjectID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.TestRunID, list[0].TestRunID)
	assert.Equal(t, second.TestRunID, list[1].TestRunID)
}

func TestFileStore_DeleteTestRun(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	run := sampleTestRun()
	require.NoError(t, fs.SaveTestRun(ctx, run))

	require.NoError(t, fs.DeleteTestRun(ctx, run.ProjectID, run.TestRunID))

	_, err := fs.GetTestRun(ctx, run.ProjectID, run.TestRunID)
	assert.Error(t, err)
}

func TestFileStore_TestRunRoundTrip_NaNMetrics(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	run := sampleTestRun()
	run.BlockType = domain.ModeQuantum
	run.Result.Results = []domain.StepResult{
		{PerturbedValue: 0.1, PortfolioVolatilityDaily: math.NaN(), NonPSD: true},
		{PerturbedValue: 0.2, PortfolioVolatilityDaily: 0.2},
	}
	run.Result.Analytics = domain.AnalyticsBundle{
		Mode: domain.ModeQuantum,
		Quantum: &domain.QuantumMetrics{
			EnhancementFactor:     math.NaN(),
			QuantumAdvantageRatio: math.NaN(),
		},
	}

	require.NoError(t, fs.SaveTestRun(ctx, run))

	raw, err := os.ReadFile(fs.testRunPath(run.ProjectID, run.TestRunID))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"portfolio_volatility_daily": null`)
	assert.Contains(t, string(raw), `"enhancement_factor": null`)

	got, err := fs.GetTestRun(ctx, run.ProjectID, run.TestRunID)
	require.NoError(t, err)
	require.Len(t, got.Result.Results, 2)
	assert.True(t, math.IsNaN(got.Result.Results[0].PortfolioVolatilityDaily))
	assert.True(t, got.Result.Results[0].NonPSD)
	assert.InDelta(t, 0.2, got.Result.Results[1].PortfolioVolatilityDaily, 1e-9)
	require.NotNil(t, got.Result.Analytics.Quantum)
	assert.True(t, math.IsNaN(got.Result.Analytics.Quantum.EnhancementFactor))
}

func TestFileStore_RejectsUnsupportedVersion(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()
	project := sampleProject()
	require.NoError(t, fs.CreateProject(ctx, project))

	path := fs.projectPath(project.ProjectID)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	doc["version"] = 99
	bumped, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, bumped, 0o644))

	_, err = fs.GetProject(ctx, project.ProjectID)
	assert.Error(t, err)
}
