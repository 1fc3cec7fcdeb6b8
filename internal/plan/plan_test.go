package plan

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/kinematics"
)

var (
	p0 = r2.Vec{X: 0, Y: 0}
	p1 = r2.Vec{X: 2, Y: 0}
	p2 = r2.Vec{X: 2, Y: 3}
)

func line() *graph.Graph {
	g, err := graph.NewGraph(graph.GraphData{Vertices: []graph.VertexData{
		{ID: "0", Pos: graph.Coordinate{X: 0, Y: 0}, Neighbors: []string{"1"}},
		{ID: "1", Pos: graph.Coordinate{X: 2, Y: 0}, Neighbors: []string{"2"}},
		{ID: "2", Pos: graph.Coordinate{X: 2, Y: 3}},
	}})
	if err != nil {
		panic(err)
	}
	return g
}

func TestNewMakespan(t *testing.T) {
	p, err := New([]Trajectory{
		{AgentID: 1, Segments: []kinematics.Segment{kinematics.Hold(p2, 0, 0)}},
		{AgentID: 0, Segments: []kinematics.Segment{
			kinematics.Move(p0, p1, 0, 2),
			kinematics.Move(p1, p2, 2, 3),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 5.0, p.Makespan())
	assert.Equal(t, 0, p.Trajectory(0).AgentID)

	b := p.Trajectory(1)
	require.Equal(t, 1, b.Len())
	assert.True(t, b.First().Unbounded(), "final zero hold widened")
	assert.Equal(t, DefaultRadius, b.Radius)
	assert.Equal(t, DefaultSpeed, b.Speed)
}

func TestNewLeadingHold(t *testing.T) {
	p, err := New([]Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
		kinematics.Move(p0, p1, 1.5, 2),
	}}})
	require.NoError(t, err)

	tr := p.Trajectory(0)
	require.Equal(t, 2, tr.Len())
	assert.Equal(t, kinematics.Hold(p0, 0, 1.5), tr.Segments[0])
	assert.Equal(t, 3.5, p.Makespan())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		trs  []Trajectory
		want error
	}{
		{"empty plan", nil, ErrEmptyPlan},
		{"empty trajectory", []Trajectory{{AgentID: 0}}, ErrEmptyTrajectory},
		{"sparse ids", []Trajectory{{AgentID: 1, Segments: []kinematics.Segment{kinematics.Hold(p0, 0, 0)}}}, ErrAgentIDs},
		{"duplicate ids", []Trajectory{
			{AgentID: 0, Segments: []kinematics.Segment{kinematics.Hold(p0, 0, 0)}},
			{AgentID: 0, Segments: []kinematics.Segment{kinematics.Hold(p0, 0, 0)}},
		}, ErrAgentIDs},
		{"position gap", []Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
			kinematics.Move(p0, p1, 0, 2),
			kinematics.Move(p0, p2, 2, 3),
		}}}, ErrDiscontinuous},
		{"time gap", []Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
			kinematics.Move(p0, p1, 0, 2),
			kinematics.Move(p1, p2, 4, 3),
		}}}, ErrDiscontinuous},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.trs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := New([]Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
		kinematics.Hold(p0, 0, math.Inf(1)),
		kinematics.Move(p0, p1, 0, 1),
	}}})
	assert.Error(t, err, "unbounded hold before the end")
}

func TestNewToleratesDrift(t *testing.T) {
	p, err := New([]Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
		kinematics.Move(p0, p1, 0, 2),
		kinematics.Move(r2.Vec{X: 2.001, Y: 0}, p2, 2.001, 3),
	}}})
	require.NoError(t, err)

	segs := p.Trajectory(0).Segments
	assert.Equal(t, 2.0, segs[1].Start, "starts follow summed durations")
	assert.Equal(t, 5.0, p.Makespan())
}

func TestProperties(t *testing.T) {
	p, err := New([]Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
		kinematics.Move(p0, p1, 0, 2),
		kinematics.Move(p1, p2, 2, 3),
	}}})
	require.NoError(t, err)

	props := p.Properties()
	assert.Equal(t, 2.0, props.Width())
	assert.Equal(t, 3.0, props.Height())
}

func TestFromStates(t *testing.T) {
	g := line()
	tr, err := FromStates(g, 0, []StateRecord{
		{From: "0", To: "1", Start: 0, Duration: 2},
		{From: "1", To: "1", Start: 2, Duration: 1},
		{From: "1", To: "2", Start: 3, Duration: 3},
	})
	require.NoError(t, err)

	want := []kinematics.Segment{
		kinematics.Move(p0, p1, 0, 2),
		kinematics.Hold(p1, 2, 1),
		kinematics.Move(p1, p2, 3, 3),
	}
	if diff := cmp.Diff(want, tr.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "0", tr.Start)
	assert.Equal(t, "2", tr.Goal)

	_, err = FromStates(nil, 0, []StateRecord{{From: "0", To: "1", Duration: 1}})
	assert.Error(t, err, "vertex ids without a graph")

	pos, err := FromStates(nil, 0, []StateRecord{{
		FromPos: &graph.Coordinate{X: 1, Y: 1}, ToPos: &graph.Coordinate{X: 1, Y: 2}, Duration: 1,
	}})
	require.NoError(t, err)
	assert.Equal(t, kinematics.KindMove, pos.Segments[0].Kind)
}

func TestFromRoute(t *testing.T) {
	g := line()
	tr, err := FromRoute(g, 0, []RouteStop{{Vertex: "0", Wait: 1}, {Vertex: "2"}}, 0, 2)
	require.NoError(t, err)

	want := []kinematics.Segment{
		kinematics.Hold(p0, 0, 1),
		kinematics.Move(p0, p1, 1, 1),
		kinematics.Move(p1, p2, 2, 1.5),
		kinematics.Hold(p2, 3.5, 0),
	}
	if diff := cmp.Diff(want, tr.Segments); diff != "" {
		t.Errorf("segments mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, DefaultRadius, tr.Radius)
	assert.Equal(t, "2", tr.Goal)

	_, err = FromRoute(nil, 0, []RouteStop{{Vertex: "0"}}, 0, 0)
	assert.Error(t, err)

	_, err = FromRoute(g, 0, []RouteStop{{Vertex: "0"}, {Vertex: "9"}}, 0, 0)
	assert.ErrorContains(t, err, `route to "9"`)
}

func TestBuildAndGoalOwner(t *testing.T) {
	p, err := Build(Spec{Agents: []AgentSpec{
		{ID: 0, Route: []RouteStop{{Vertex: "0"}, {Vertex: "2"}}},
		{ID: 1, Radius: 0.3, States: []StateRecord{{From: "2", To: "2"}}},
	}}, line())
	require.NoError(t, err)

	assert.Equal(t, 5.0, p.Makespan())
	assert.Equal(t, 0.3, p.Trajectory(1).Radius)

	// Both agents end on vertex 2; the first one wins.
	owner, ok := p.GoalOwner("2")
	assert.True(t, ok)
	assert.Equal(t, 0, owner)
	_, ok = p.GoalOwner("1")
	assert.False(t, ok)

	_, err = Build(Spec{Agents: []AgentSpec{{ID: 0,
		Route:  []RouteStop{{Vertex: "0"}},
		States: []StateRecord{{From: "0", To: "0"}},
	}}}, line())
	assert.Error(t, err)
}

func TestCheckLayout(t *testing.T) {
	g := line()
	p, err := Build(Spec{Agents: []AgentSpec{{ID: 0, Route: []RouteStop{{Vertex: "0"}, {Vertex: "2"}}}}}, g)
	require.NoError(t, err)

	assert.NoError(t, CheckLayout(p, Layout{Agents: []Placement{{Start: "0", Goal: "2"}}}))
	err = CheckLayout(p, Layout{Agents: []Placement{{Start: "0", Goal: "1"}}})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
	err = CheckLayout(p, Layout{})
	assert.ErrorIs(t, err, ErrLayoutMismatch)

	assert.Error(t, Layout{Agents: []Placement{{Start: "0", Goal: "9"}}}.Validate(g))
	assert.Error(t, Layout{}.Validate(g))
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		return path
	}

	gPath := write("g.yaml", `
vertices:
  - {id: "0", pos: {x: 0, y: 0}, neighbors: ["1"]}
  - {id: "1", pos: {x: 2, y: 0}, neighbors: ["2"]}
  - {id: "2", pos: {x: 2, y: 3}}
`)
	g, err := LoadGraph(gPath)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Len())

	pPath := write("p.json", `{"agents":[{"id":0,"states":[
		{"from":"0","to":"1","start":0,"duration":2},
		{"from":"1","to":"2","start":2,"duration":3}]}]}`)
	p, err := LoadFile(pPath, g)
	require.NoError(t, err)
	assert.Equal(t, 5.0, p.Makespan())

	lPath := write("l.yml", "agents:\n  - {start: \"0\", goal: \"2\"}\n")
	l, err := LoadLayout(lPath, g)
	require.NoError(t, err)
	assert.NoError(t, CheckLayout(p, l))

	kind, err := Kind(lPath)
	require.NoError(t, err)
	assert.Equal(t, "layout", kind)
	kind, err = Kind(pPath)
	require.NoError(t, err)
	assert.Equal(t, "plan", kind)
	kind, err = Kind(gPath)
	require.NoError(t, err)
	assert.Equal(t, "graph", kind)

	_, err = LoadSpec(write("bad.json", `{"agents":[],"extra":1}`))
	assert.Error(t, err, "unknown fields rejected")
	_, err = LoadSpec(write("p.txt", `{}`))
	assert.Error(t, err, "unsupported extension")
	_, err = LoadGraph(write("empty.json", `{"vertices":[]}`))
	assert.Error(t, err)
}
