package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
)

func init() { monitoring.SetLogger(nil) }

// square is a 2x2 grid with unit edges plus an isolated vertex "x".
func square(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.NewGraph(graph.GraphData{Vertices: []graph.VertexData{
		{ID: "a", Pos: graph.Coordinate{X: 0, Y: 0}, Neighbors: []string{"b", "c"}},
		{ID: "b", Pos: graph.Coordinate{X: 1, Y: 0}, Neighbors: []string{"d"}},
		{ID: "c", Pos: graph.Coordinate{X: 0, Y: 1}, Neighbors: []string{"d"}},
		{ID: "d", Pos: graph.Coordinate{X: 1, Y: 1}},
		{ID: "x", Pos: graph.Coordinate{X: 5, Y: 5}},
	}})
	require.NoError(t, err)
	return g
}

func TestRouteSolver(t *testing.T) {
	layout := plan.Layout{Agents: []plan.Placement{
		{Start: "a", Goal: "d"},
		{Start: "b", Goal: "b"},
	}}
	var s Solver = RouteSolver{Speed: 2}
	p, err := s.Solve(context.Background(), square(t), layout)
	require.NoError(t, err)

	require.Equal(t, 2, p.Len())
	assert.Equal(t, 1.0, p.Makespan(), "two unit edges at speed 2")
	assert.NoError(t, plan.CheckLayout(p, layout))
	assert.Equal(t, 3, p.Trajectory(0).Len())
	assert.True(t, p.Trajectory(1).First().Unbounded(), "agent already at goal waits forever")
}

func TestRouteSolverErrors(t *testing.T) {
	ctx := context.Background()
	g := square(t)
	s := RouteSolver{}

	_, err := s.Solve(ctx, nil, plan.Layout{Agents: []plan.Placement{{Start: "a", Goal: "d"}}})
	assert.Error(t, err)

	_, err = s.Solve(ctx, g, plan.Layout{Agents: []plan.Placement{{Start: "a", Goal: "zz"}}})
	assert.Error(t, err)

	_, err = s.Solve(ctx, g, plan.Layout{Agents: []plan.Placement{{Start: "a", Goal: "x"}}})
	assert.Error(t, err, "unreachable goal")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Solve(cancelled, g, plan.Layout{Agents: []plan.Placement{{Start: "a", Goal: "d"}}})
	assert.ErrorIs(t, err, context.Canceled)
}
