package engine

import (
	"github.com/cxd309/mapf-player/internal/agent"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/plan"
)

// State is the playback state of a Player.
type State string

const (
	StateEmpty    State = "empty"    // no plan loaded; stepping is a no-op
	StateReady    State = "ready"    // t = 0, agents on their first segments
	StateRunning  State = "running"  // 0 < t < makespan, or t = makespan while looping
	StateFinished State = "finished" // t = makespan, not looping
)

// Frame is the state of every agent at a single playback time.
type Frame struct {
	Time      float64     `json:"time"` // seconds
	State     State       `json:"state"`
	Threshold float64     `json:"threshold"` // next synchronized switch time
	Agents    []agent.Log `json:"agents"`
}

// Switch reports the agents that moved onto a new segment at Time.
type Switch struct {
	Time   float64        `json:"time"`
	Agents []plan.AgentID `json:"agents"`
}

// Options configures a Player.
type Options struct {
	Looping bool
	// Layout, when set, must match the plan's agent count and endpoints.
	Layout *plan.Layout
	// OnSwitch is called after each synchronized switch pass that moved at
	// least one agent, with the agents positioned at the boundary. Replays
	// from seeking or scrubbing back across a boundary do not call it, so the
	// reported times never go backward within a run.
	OnSwitch func(Switch)
	// OnFinish is called once per run when a non-looping playback reaches the
	// makespan.
	OnFinish func(Frame)
	// OnReset is called whenever the player starts a new run: on Reset, on a
	// step below zero, and when looping wraps.
	OnReset func()
}

// RunMeta holds the identity and sampling parameters for a headless run.
type RunMeta struct {
	RunID    string  `json:"run_id"`
	TimeStep float64 `json:"time_step"` // seconds
	// CaptureSwitches adds a frame at every synchronized switch in addition
	// to the fixed-step samples.
	CaptureSwitches bool `json:"capture_switches,omitempty"`
}

// RunInput is the JSON-serialisable input to a headless run. GraphData may be
// omitted when every plan state uses explicit positions.
type RunInput struct {
	Meta      RunMeta          `json:"run_meta"`
	GraphData *graph.GraphData `json:"graph_data,omitempty"`
	Plan      plan.Spec        `json:"plan"`
	Layout    *plan.Layout     `json:"layout,omitempty"`
}

// RunLog is the complete output of a headless run.
type RunLog struct {
	Meta     RunMeta `json:"run_meta"`
	Makespan float64 `json:"makespan"`
	Frames   []Frame `json:"frames"`
}
