// Package solver produces plans from a graph and a layout. The player treats a
// solved plan exactly like one loaded from a file.
package solver

import (
	"context"
	"fmt"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
)

// Solver computes a plan that takes every agent of a layout from its start to
// its goal.
type Solver interface {
	Solve(ctx context.Context, g *graph.Graph, layout plan.Layout) (*plan.Plan, error)
}

// RouteSolver sends every agent along its own shortest path, ignoring the
// others. It performs no collision avoidance.
type RouteSolver struct {
	Radius float64 // agent radius; plan.DefaultRadius when zero
	Speed  float64 // distance per second; plan.DefaultSpeed when zero
}

var _ Solver = RouteSolver{}

// Solve implements Solver.
func (s RouteSolver) Solve(ctx context.Context, g *graph.Graph, layout plan.Layout) (*plan.Plan, error) {
	if g == nil {
		return nil, fmt.Errorf("solver needs a graph")
	}
	if err := layout.Validate(g); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}

	trs := make([]plan.Trajectory, 0, len(layout.Agents))
	for id, a := range layout.Agents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stops := []plan.RouteStop{{Vertex: a.Start}}
		if a.Goal != a.Start {
			stops = append(stops, plan.RouteStop{Vertex: a.Goal})
		}
		tr, err := plan.FromRoute(g, id, stops, s.Radius, s.Speed)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", id, err)
		}
		trs = append(trs, tr)
	}

	p, err := plan.New(trs)
	if err != nil {
		return nil, err
	}
	monitoring.Logf("[solver] routed %d agents, makespan %.3f", p.Len(), p.Makespan())
	return p, nil
}
