package session

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/plan"
	"github.com/cxd309/mapf-player/internal/solver"
)

// Input is what a session plays.
type Input struct {
	Graph  *graph.Graph
	Plan   *plan.Plan
	Source string
}

// LoadInput resolves command-line files into an Input. Accepted forms:
//
//	<graph>                  graph only, nothing moves
//	<plan>                   plan in explicit positions, no graph
//	<graph> <plan>           plan in vertex ids, positions or routes
//	<graph> <layout>         start/goal layout, planned by sv
func LoadInput(ctx context.Context, sv solver.Solver, paths ...string) (Input, error) {
	switch len(paths) {
	case 1:
		kind, err := plan.Kind(paths[0])
		if err != nil {
			return Input{}, err
		}
		switch kind {
		case "graph":
			g, err := plan.LoadGraph(paths[0])
			return Input{Graph: g, Source: filepath.Base(paths[0])}, err
		case "plan":
			p, err := plan.LoadFile(paths[0], nil)
			return Input{Plan: p, Source: filepath.Base(paths[0])}, err
		default:
			return Input{}, fmt.Errorf("%s: a %s needs a graph", paths[0], kind)
		}

	case 2:
		g, err := plan.LoadGraph(paths[0])
		if err != nil {
			return Input{}, err
		}
		kind, err := plan.Kind(paths[1])
		if err != nil {
			return Input{}, err
		}
		in := Input{Graph: g, Source: filepath.Base(paths[1])}
		switch kind {
		case "plan":
			in.Plan, err = plan.LoadFile(paths[1], g)
		case "layout":
			var layout plan.Layout
			if layout, err = plan.LoadLayout(paths[1], g); err != nil {
				return Input{}, err
			}
			in.Plan, err = sv.Solve(ctx, g, layout)
			if err == nil {
				err = plan.CheckLayout(in.Plan, layout)
			}
			in.Source = fmt.Sprintf("%T:%s", sv, in.Source)
		default:
			err = fmt.Errorf("%s: expected a plan or layout, got a %s", paths[1], kind)
		}
		if err != nil {
			return Input{}, err
		}
		return in, nil

	default:
		return Input{}, fmt.Errorf("expected 1 or 2 files, got %d", len(paths))
	}
}
