// Command mapf-viewer plays a multi-agent plan in the terminal.
//
// Usage:
//
//	mapf-viewer [flags] <graph>              draw a graph
//	mapf-viewer [flags] <plan>               play a plan given in positions
//	mapf-viewer [flags] <graph> <plan>       play a plan on a graph
//	mapf-viewer [flags] <graph> <layout>     route a start/goal layout, then play it
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cxd309/mapf-player/internal/config"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/session"
	"github.com/cxd309/mapf-player/internal/solver"
	"github.com/cxd309/mapf-player/internal/store"
	"github.com/cxd309/mapf-player/internal/tui"
)

func main() {
	var (
		configPath string
		dbPath     string
		recordDir  string
		logPath    string
	)
	flag.StringVar(&configPath, "config", "", "path to a JSON config file")
	flag.StringVar(&dbPath, "db", "", "sqlite run history (overrides config)")
	flag.StringVar(&recordDir, "record", "", "directory for JSONL recordings (overrides config)")
	flag.StringVar(&logPath, "log", "", "write diagnostics to this file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <graph|plan> [plan|layout]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 || flag.NArg() > 2 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if recordDir != "" {
		cfg.RecordDir = recordDir
	}

	// The alt screen owns the terminal; diagnostics go to a file or nowhere.
	if logPath != "" {
		f, err := tea.LogToFile(logPath, "viewer")
		if err != nil {
			log.Fatalf("log file: %v", err)
		}
		defer f.Close()
	} else {
		monitoring.SetLogger(nil)
	}

	in, err := session.LoadInput(context.Background(), solver.RouteSolver{}, flag.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading input: %v\n", err)
		os.Exit(1)
	}

	deps := session.Deps{Source: in.Source}
	if cfg.DBPath != "" {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			log.Fatalf("run history: %v", err)
		}
		defer st.Close()
		deps.Store = st
	}

	s, err := session.New(in.Graph, in.Plan, cfg, deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	p := tea.NewProgram(tui.NewModel(s, cfg.FrameInterval()), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Printf("TUI error: %v", err)
	}
}
