package plan

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/kinematics"
)

// StateRecord is one timed state of a loaded plan. Endpoints are given either as
// graph vertex ids (From/To) or as explicit positions (FromPos/ToPos); vertex
// ids need a graph to resolve. Equal endpoints describe a hold.
type StateRecord struct {
	From     graph.VertexID    `json:"from,omitempty" yaml:"from,omitempty"`
	To       graph.VertexID    `json:"to,omitempty" yaml:"to,omitempty"`
	FromPos  *graph.Coordinate `json:"from_pos,omitempty" yaml:"from_pos,omitempty"`
	ToPos    *graph.Coordinate `json:"to_pos,omitempty" yaml:"to_pos,omitempty"`
	Start    float64           `json:"start" yaml:"start"`
	Duration float64           `json:"duration" yaml:"duration"` // seconds
}

// RouteStop is a vertex on an agent's route with a wait time after arrival.
type RouteStop struct {
	Vertex graph.VertexID `json:"vertex" yaml:"vertex"`
	Wait   float64        `json:"wait,omitempty" yaml:"wait,omitempty"` // seconds
}

// AgentSpec is the serialisable description of one agent. Exactly one of
// States or Route must be set.
type AgentSpec struct {
	ID     AgentID       `json:"id" yaml:"id"`
	Radius float64       `json:"radius,omitempty" yaml:"radius,omitempty"`
	Speed  float64       `json:"speed,omitempty" yaml:"speed,omitempty"` // distance per second
	States []StateRecord `json:"states,omitempty" yaml:"states,omitempty"`
	Route  []RouteStop   `json:"route,omitempty" yaml:"route,omitempty"`
}

// Spec is the serialisable input representation of a plan.
type Spec struct {
	Agents []AgentSpec `json:"agents" yaml:"agents"`
}

// Build resolves a Spec into a Plan. g may be nil when every state uses
// explicit positions.
func Build(spec Spec, g *graph.Graph) (*Plan, error) {
	trs := make([]Trajectory, 0, len(spec.Agents))
	for _, a := range spec.Agents {
		var (
			tr  Trajectory
			err error
		)
		switch {
		case len(a.States) > 0 && len(a.Route) > 0:
			err = fmt.Errorf("both states and route given")
		case len(a.Route) > 0:
			tr, err = FromRoute(g, a.ID, a.Route, a.Radius, a.Speed)
		default:
			tr, err = FromStates(g, a.ID, a.States)
			tr.Radius, tr.Speed = a.Radius, a.Speed
		}
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", a.ID, err)
		}
		trs = append(trs, tr)
	}
	return New(trs)
}

// FromStates builds a trajectory from timed state records.
func FromStates(g *graph.Graph, id AgentID, states []StateRecord) (Trajectory, error) {
	tr := Trajectory{AgentID: id}
	if len(states) == 0 {
		return tr, ErrEmptyTrajectory
	}
	for i, st := range states {
		from, err := resolve(g, st.From, st.FromPos)
		if err != nil {
			return tr, fmt.Errorf("state %d from: %w", i, err)
		}
		to, err := resolve(g, st.To, st.ToPos)
		if err != nil {
			return tr, fmt.Errorf("state %d to: %w", i, err)
		}
		if from == to {
			tr.Segments = append(tr.Segments, kinematics.Hold(from, st.Start, st.Duration))
		} else {
			tr.Segments = append(tr.Segments, kinematics.Move(from, to, st.Start, st.Duration))
		}
	}
	tr.Start, tr.Goal = states[0].From, states[len(states)-1].To
	return tr, nil
}

func resolve(g *graph.Graph, id graph.VertexID, pos *graph.Coordinate) (r2.Vec, error) {
	switch {
	case pos != nil:
		return pos.Vec(), nil
	case id == "":
		return r2.Vec{}, fmt.Errorf("neither vertex nor position given")
	case g == nil:
		return r2.Vec{}, fmt.Errorf("vertex %q needs a graph", id)
	}
	v, err := g.Vertex(id)
	if err != nil {
		return r2.Vec{}, err
	}
	return v.Pos, nil
}

// FromRoute expands a vertex route into a trajectory. Consecutive stops are
// joined along shortest paths, each edge becoming a move of length/speed
// seconds; a stop's wait becomes a hold. The trajectory ends with a zero hold
// at the goal, which New widens into an unbounded one.
func FromRoute(g *graph.Graph, id AgentID, stops []RouteStop, radius, speed float64) (Trajectory, error) {
	if radius <= 0 {
		radius = DefaultRadius
	}
	if speed <= 0 {
		speed = DefaultSpeed
	}
	tr := Trajectory{AgentID: id, Radius: radius, Speed: speed}
	if len(stops) == 0 {
		return tr, ErrEmptyTrajectory
	}
	if g == nil {
		return tr, fmt.Errorf("route needs a graph")
	}

	start, err := g.Vertex(stops[0].Vertex)
	if err != nil {
		return tr, err
	}
	t, at := 0.0, start
	hold := func(wait float64) {
		if wait > 0 {
			tr.Segments = append(tr.Segments, kinematics.Hold(at.Pos, t, wait))
			t += wait
		}
	}
	hold(stops[0].Wait)

	for _, stop := range stops[1:] {
		path, err := g.ShortestPath(at.ID, stop.Vertex)
		if err != nil {
			return tr, fmt.Errorf("route to %q: %w", stop.Vertex, err)
		}
		for _, vid := range path.Route[1:] {
			next, err := g.Vertex(vid)
			if err != nil {
				return tr, err
			}
			l, err := g.EdgeLength(at.ID, next.ID)
			if err != nil {
				return tr, err
			}
			d := l / speed
			tr.Segments = append(tr.Segments, kinematics.Move(at.Pos, next.Pos, t, d))
			t += d
			at = next
		}
		hold(stop.Wait)
	}
	tr.Segments = append(tr.Segments, kinematics.Hold(at.Pos, t, 0))
	tr.Start, tr.Goal = start.ID, at.ID
	return tr, nil
}
