// Package plan holds the declarative multi-agent plan: one immutable trajectory
// of timed motion segments per agent, plus the aggregate makespan the playback
// engine runs against.
package plan

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/approx"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/kinematics"
)

// AgentID is the dense integer identifier of an agent (0..N-1).
type AgentID = int

var (
	ErrEmptyPlan       = errors.New("plan has no agents")
	ErrEmptyTrajectory = errors.New("trajectory has no segments")
	ErrAgentIDs        = errors.New("agent ids must be unique and dense from 0")
	ErrDiscontinuous   = errors.New("trajectory is discontinuous")
	ErrLayoutMismatch  = errors.New("layout does not match plan")
)

// Default kinematic parameters for agents built from routes.
const (
	DefaultRadius = 0.5
	DefaultSpeed  = 1.0
)

// Trajectory is the ordered segment sequence of one agent. Start and Goal are
// set when the trajectory was built from graph vertices.
type Trajectory struct {
	AgentID  AgentID
	Radius   float64
	Speed    float64
	Segments []kinematics.Segment
	Start    graph.VertexID
	Goal     graph.VertexID
}

// First returns the first segment.
func (tr Trajectory) First() kinematics.Segment { return tr.Segments[0] }

// Len returns the number of segments.
func (tr Trajectory) Len() int { return len(tr.Segments) }

// EndTime is the time the agent arrives at its final position.
func (tr Trajectory) EndTime() float64 { return tr.Segments[len(tr.Segments)-1].EndTime() }

// Final returns the agent's final position.
func (tr Trajectory) Final() r2.Vec { return tr.Segments[len(tr.Segments)-1].End() }

// Plan maps agent id to trajectory. It is immutable after New.
type Plan struct {
	trajectories []Trajectory
	makespan     float64
}

// New validates and assembles trajectories into a Plan. Trajectories may be
// given in any order but their ids must cover 0..N-1 exactly once.
//
// Construction normalises each trajectory: a first segment starting after t=0
// gets a leading hold, segment start times are re-based onto the running sum
// of durations, and a final zero-duration hold is widened to an unbounded one
// so the agent stays visible at its goal.
func New(trajectories []Trajectory) (*Plan, error) {
	if len(trajectories) == 0 {
		return nil, ErrEmptyPlan
	}
	ordered := make([]Trajectory, len(trajectories))
	seen := make([]bool, len(trajectories))
	for _, tr := range trajectories {
		if tr.AgentID < 0 || tr.AgentID >= len(trajectories) || seen[tr.AgentID] {
			return nil, fmt.Errorf("agent %d: %w", tr.AgentID, ErrAgentIDs)
		}
		seen[tr.AgentID] = true
		norm, err := normalise(tr)
		if err != nil {
			return nil, fmt.Errorf("agent %d: %w", tr.AgentID, err)
		}
		ordered[tr.AgentID] = norm
	}

	p := &Plan{trajectories: ordered}
	for _, tr := range ordered {
		p.makespan = math.Max(p.makespan, tr.EndTime())
	}
	return p, nil
}

func normalise(tr Trajectory) (Trajectory, error) {
	if len(tr.Segments) == 0 {
		return Trajectory{}, ErrEmptyTrajectory
	}
	if tr.Radius <= 0 {
		tr.Radius = DefaultRadius
	}
	if tr.Speed <= 0 {
		tr.Speed = DefaultSpeed
	}

	segs := make([]kinematics.Segment, 0, len(tr.Segments)+1)
	if first := tr.Segments[0]; approx.Greater(approx.Tight, first.Start, 0) {
		segs = append(segs, kinematics.Hold(first.From, 0, first.Start))
	}
	segs = append(segs, tr.Segments...)

	for i, s := range segs {
		if err := s.Validate(); err != nil {
			return Trajectory{}, fmt.Errorf("segment %d: %w", i, err)
		}
		if s.Unbounded() && i != len(segs)-1 {
			return Trajectory{}, fmt.Errorf("segment %d: only the last segment may be unbounded", i)
		}
		if i == 0 {
			if !approx.Zero(approx.Huge, s.Start) {
				return Trajectory{}, fmt.Errorf("segment 0 starts at %g: %w", s.Start, ErrDiscontinuous)
			}
			segs[0].Start = 0
			continue
		}
		prev := segs[i-1]
		if !approx.EqualPos(approx.Huge, prev.End(), s.From) {
			return Trajectory{}, fmt.Errorf("segment %d starts at %v, previous ends at %v: %w",
				i, s.From, prev.End(), ErrDiscontinuous)
		}
		if !approx.Equal(approx.Huge, prev.EndTime(), s.Start) {
			return Trajectory{}, fmt.Errorf("segment %d starts at t=%g, previous ends at t=%g: %w",
				i, s.Start, prev.EndTime(), ErrDiscontinuous)
		}
		// Playback advances by summed durations, so start times follow them
		// rather than the declared values.
		segs[i].Start = prev.EndTime()
	}

	last := &segs[len(segs)-1]
	if last.Duration == 0 {
		last.Duration = math.Inf(1)
	}
	tr.Segments = segs
	return tr, nil
}

// Len returns the number of agents.
func (p *Plan) Len() int { return len(p.trajectories) }

// Trajectory returns the trajectory of agent id.
func (p *Plan) Trajectory(id AgentID) Trajectory { return p.trajectories[id] }

// Trajectories returns all trajectories ordered by agent id.
func (p *Plan) Trajectories() []Trajectory { return p.trajectories }

// Makespan is the time at which the last agent arrives. Unbounded final holds
// count from their start; they never extend the timeline.
func (p *Plan) Makespan() float64 { return p.makespan }

// Properties returns the bounding box of every segment endpoint, used when no
// graph is available.
func (p *Plan) Properties() graph.Properties {
	var pts []r2.Vec
	for _, tr := range p.trajectories {
		for _, s := range tr.Segments {
			pts = append(pts, s.From, s.To)
		}
	}
	return graph.PropertiesOf(pts)
}

// GoalOwner returns the agent whose goal is vertex v.
func (p *Plan) GoalOwner(v graph.VertexID) (AgentID, bool) {
	for _, tr := range p.trajectories {
		if tr.Goal != "" && tr.Goal == v {
			return tr.AgentID, true
		}
	}
	return 0, false
}
