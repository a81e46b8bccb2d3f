package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kanosym/sensitivity-core/internal/domain"
	"github.com/kanosym/sensitivity-core/internal/engine"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle = lipgloss.NewStyle().Bold(true)
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// tickCmd drives the indeterminate progress animation while run() is in
// flight: sweepview has no per-step progress callback from the engine, so
// the bar advances on a timer and snaps to full on completion, the same
// "animate toward a target" idiom the teacher's TUI uses for its hero
// number (internal/ui/update.go's heroTarget/heroVelocity spring).
func tickCmd() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type tickMsg time.Time

type sweepDoneMsg struct {
	run *domain.TestRun
	err error
}

func runSweepCmd(eng *engine.Engine, req domain.RunRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		run, err := eng.Run(ctx, req, nil)
		return sweepDoneMsg{run: run, err: err}
	}
}

// model is the sweepview TUI state: a progress bar while the sweep
// executes, then the rendered curve and analytics summary.
type model struct {
	engine   *engine.Engine
	req      domain.RunRequest
	progress progress.Model

	done   bool
	run    *domain.TestRun
	runErr error
}

func newModel(eng *engine.Engine, req domain.RunRequest) model {
	return model{
		engine:   eng,
		req:      req,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(runSweepCmd(m.engine, m.req), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - 4
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		cmd := m.progress.IncrPercent(0.08)
		return m, tea.Batch(tickCmd(), cmd)

	case progress.FrameMsg:
		updated, cmd := m.progress.Update(msg)
		m.progress = updated.(progress.Model)
		return m, cmd

	case sweepDoneMsg:
		m.done = true
		m.run = msg.run
		m.runErr = msg.err
		return m, m.progress.SetPercent(1.0)
	}

	return m, nil
}

func (m model) View() string {
	if !m.done {
		return "\n" + titleStyle.Render("running sensitivity sweep") + "\n\n" +
			m.progress.View() + "\n\n" + labelStyle.Render("press q to cancel")
	}

	if m.runErr != nil {
		return "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render("error: "+m.runErr.Error()) + "\n"
	}

	return "\n" + renderResult(m.run) + "\n"
}

// renderResult builds the post-sweep summary: curve sparkline, baseline,
// range, and the per-mode analytics bundle.
func renderResult(run *domain.TestRun) string {
	res := run.Result
	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render(fmt.Sprintf("%s sweep over %s of %s", run.BlockType, res.Perturbation, res.Asset)))
	fmt.Fprintln(&b)

	daily := make([]float64, len(res.Results))
	for i, step := range res.Results {
		daily[i] = step.PortfolioVolatilityDaily
	}
	fmt.Fprintln(&b, renderSparkline(daily))
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%s %.6f   %s %.6f\n",
		labelStyle.Render("baseline daily vol"), res.BaselinePortfolioVolatilityDaily,
		labelStyle.Render("annualized"), res.BaselinePortfolioVolatilityAnnualized)
	fmt.Fprintf(&b, "%s [%.4f, %.4f] over %d steps\n",
		labelStyle.Render("range"), res.RangeTested[0], res.RangeTested[len(res.RangeTested)-1], len(res.RangeTested))

	if res.Cancelled {
		fmt.Fprintln(&b, flagStyle.Render("run cancelled before completion"))
	}
	for flag, set := range res.Flags {
		if set {
			fmt.Fprintln(&b, flagStyle.Render("flag: "+flag))
		}
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, renderAnalytics(res.Analytics))

	return b.String()
}

func renderAnalytics(a domain.AnalyticsBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %v   %s %.2f steps/s\n",
		labelStyle.Render("elapsed"), a.Performance.TotalExecutionTime, labelStyle.Render("throughput"), a.Performance.Throughput)
	fmt.Fprintf(&b, "%s [%.6f, %.6f]   %s %.4f\n",
		labelStyle.Render("95% CI"), a.Statistical.ConfidenceInterval95[0], a.Statistical.ConfidenceInterval95[1],
		labelStyle.Render("coef. of variation"), a.Statistical.CoefficientOfVariation)
	fmt.Fprintf(&b, "%s %.6f   %s %.4f\n",
		labelStyle.Render("curve steepness"), a.Sensitivity.CurveSteepness, labelStyle.Render("95th pct vol"), a.Sensitivity.Percentile95Volatility)

	switch {
	case a.Classical != nil:
		fmt.Fprintf(&b, "%s convergence=%.4f efficiency=%.4f samples/step=%d\n",
			valueStyle.Render("classical"), a.Classical.ConvergenceRate, a.Classical.MonteCarloEfficiency, a.Classical.SamplesPerStep)
	case a.Quantum != nil:
		fmt.Fprintf(&b, "%s qubits=%d depth=%d advantage=%.4f\n",
			valueStyle.Render("quantum"), a.Quantum.TotalQubits, a.Quantum.CircuitDepth, a.Quantum.QuantumAdvantageRatio)
	case a.Hybrid != nil:
		fmt.Fprintf(&b, "%s mean_correction=%.6f gp_mse=%.6f fell_back=%v\n",
			valueStyle.Render("hybrid"), a.Hybrid.MeanQuantumCorrection, a.Hybrid.GPInterpolationMSE, a.Hybrid.GPFellBackToPiecewiseLinear)
	}

	return b.String()
}
