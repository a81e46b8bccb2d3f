// Package main implements sweepview, a small terminal program that
// drives the engine's run() operation directly (no HTTP hop) and renders
// the resulting sensitivity curve and analytics summary. It exists to
// exercise the core contract from a terminal the way the teacher's own
// sentinel-tui-go exercises its HTTP API, adapted here to call the
// engine in-process.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kanosym/sensitivity-core/internal/engine"
	"github.com/kanosym/sensitivity-core/pkg/logger"
)

func main() {
	specPath := flag.String("spec", "", "path to a JSON sweep spec file")
	logLevel := flag.String("log-level", "error", "log level for the in-process engine")
	flag.Parse()

	if *specPath == "" {
		fmt.Fprintln(os.Stderr, "sweepview: -spec is required")
		os.Exit(1)
	}

	req, err := loadSweepSpec(*specPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sweepview: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: *logLevel})
	eng := engine.New(log)

	m := newModel(eng, req)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "sweepview: %v\n", err)
		os.Exit(1)
	}
}
