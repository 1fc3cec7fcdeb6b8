// Package agent defines the runtime state of one agent during playback: the
// segment it is currently on, how far into it it is, and where it is in its
// trajectory.
package agent

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/approx"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/kinematics"
	"github.com/cxd309/mapf-player/internal/plan"
)

// State describes what an agent is doing at the current time.
type State string

const (
	StateMoving   State = "moving"
	StateWaiting  State = "waiting"
	StateFinished State = "finished"
)

// Agent is a trajectory enriched with live playback state. Index ranges over
// 0..len(trajectory); len(trajectory) means the agent has finished and holds
// its final position forever.
type Agent struct {
	ID      plan.AgentID
	Radius  float64
	Speed   float64
	Segment kinematics.Segment
	Elapsed float64 // seconds into Segment
	Index   int
	traj    plan.Trajectory
}

// New creates an Agent positioned at the start of tr.
func New(tr plan.Trajectory) *Agent {
	a := &Agent{ID: tr.AgentID, Radius: tr.Radius, Speed: tr.Speed, traj: tr}
	a.Reset()
	return a
}

// Reset returns the agent to the start of its trajectory.
func (a *Agent) Reset() {
	a.Index = 0
	a.Segment = a.traj.First()
	a.Elapsed = 0
	a.skipInstant()
}

// Trajectory returns the agent's trajectory.
func (a *Agent) Trajectory() plan.Trajectory { return a.traj }

// Pos returns the agent's interpolated position.
func (a *Agent) Pos() r2.Vec { return a.Segment.PosAt(a.Elapsed) }

// Remaining returns the time left on the current segment; +Inf once finished.
func (a *Agent) Remaining() float64 { return a.Segment.Remaining(a.Elapsed) }

// Done reports whether the trajectory is exhausted.
func (a *Agent) Done() bool { return a.Index == a.traj.Len() }

// Active reports whether the agent still has a segment boundary ahead.
func (a *Agent) Active() bool { return !a.Done() && !a.Segment.Unbounded() }

// State classifies the agent's current segment.
func (a *Agent) State() State {
	switch {
	case a.Done() || a.Segment.Unbounded():
		return StateFinished
	case a.Segment.Idle():
		return StateWaiting
	default:
		return StateMoving
	}
}

// Advance moves the agent dt seconds along its current segment. Elapsed is kept
// within [0, Duration]; the engine never asks for more than the time left.
func (a *Agent) Advance(dt float64) {
	a.Elapsed = approx.Clamp(a.Elapsed+dt, 0, a.Segment.Duration)
}

// AtBoundary reports whether the current segment is used up.
func (a *Agent) AtBoundary() bool {
	return a.Active() && approx.Zero(approx.Low, a.Remaining())
}

// Switch moves the agent onto its next segment, skipping instantaneous holds.
// Past the last segment the agent becomes an unbounded hold at its final
// position.
func (a *Agent) Switch() {
	if !a.AtBoundary() {
		panic(fmt.Sprintf("agent %d: switching segment %d with %g s left", a.ID, a.Index, a.Remaining()))
	}
	a.advanceIndex(a.Segment.End())
}

func (a *Agent) advanceIndex(end r2.Vec) {
	a.Index++
	if a.Done() {
		a.Segment = kinematics.Hold(end, a.Segment.EndTime(), math.Inf(1))
		a.Elapsed = 0
		return
	}
	next := a.traj.Segments[a.Index]
	if !approx.EqualPos(approx.Huge, end, next.From) {
		panic(fmt.Sprintf("agent %d: segment %d starts at %v, previous ended at %v", a.ID, a.Index, next.From, end))
	}
	a.Segment = next
	a.Elapsed = 0
	a.skipInstant()
}

// skipInstant passes over zero-duration holds, which occupy no time.
func (a *Agent) skipInstant() {
	if !a.Done() && a.Segment.Duration == 0 {
		a.advanceIndex(a.Segment.End())
	}
}

// Log is a point-in-time snapshot of an agent.
type Log struct {
	ID      plan.AgentID       `json:"agent_id"`
	Pos     graph.Coordinate   `json:"pos"`
	Radius  float64            `json:"radius"`
	State   State              `json:"state"`
	Index   int                `json:"segment_index"`
	Segment kinematics.Segment `json:"segment"`
	Elapsed float64            `json:"elapsed"`
}

// GetLog returns a point-in-time snapshot of the agent.
func (a *Agent) GetLog() Log {
	return Log{
		ID:      a.ID,
		Pos:     graph.CoordinateOf(a.Pos()),
		Radius:  a.Radius,
		State:   a.State(),
		Index:   a.Index,
		Segment: a.Segment,
		Elapsed: a.Elapsed,
	}
}
