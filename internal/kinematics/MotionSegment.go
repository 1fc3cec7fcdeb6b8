// Package kinematics defines the Motion Segment: the atomic timed transition
// between two positions, or a stationary hold, that every agent trajectory is
// built from.
//
// Segments carry a "kind" discriminator in their serialised form, so the loader
// can tell moves from holds without inspecting the endpoints.
package kinematics

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Kind discriminates moving segments from stationary holds.
type Kind string

const (
	KindMove Kind = "move"
	KindIdle Kind = "idle"
)

// Segment is one timed motion within a trajectory. Start is the offset from the
// trajectory start in seconds; Duration is in seconds and may be +Inf for the
// final hold of a finished agent.
type Segment struct {
	Kind     Kind
	From     r2.Vec
	To       r2.Vec
	Start    float64
	Duration float64
}

// Move returns a segment travelling from → to over duration seconds.
func Move(from, to r2.Vec, start, duration float64) Segment {
	return Segment{Kind: KindMove, From: from, To: to, Start: start, Duration: duration}
}

// Hold returns a stationary segment at pos.
func Hold(pos r2.Vec, start, duration float64) Segment {
	return Segment{Kind: KindIdle, From: pos, To: pos, Start: start, Duration: duration}
}

// Idle reports whether the segment is a stationary hold.
func (s Segment) Idle() bool { return s.Kind == KindIdle }

// Unbounded reports whether the segment never ends.
func (s Segment) Unbounded() bool { return math.IsInf(s.Duration, 1) }

// End returns the segment's end position.
func (s Segment) End() r2.Vec { return s.To }

// EndTime returns Start + Duration, or Start for an unbounded hold.
func (s Segment) EndTime() float64 {
	if s.Unbounded() {
		return s.Start
	}
	return s.Start + s.Duration
}

// Remaining returns the time left in the segment after elapsed seconds.
func (s Segment) Remaining(elapsed float64) float64 { return s.Duration - elapsed }

// PosAt returns the linearly interpolated position after elapsed seconds.
// Holds return their fixed position for any elapsed, including unbounded ones.
func (s Segment) PosAt(elapsed float64) r2.Vec {
	if s.Idle() || s.Duration <= 0 {
		return s.From
	}
	frac := elapsed / s.Duration
	return r2.Add(s.From, r2.Scale(frac, r2.Sub(s.To, s.From)))
}

// Validate checks the per-segment invariants.
func (s Segment) Validate() error {
	switch s.Kind {
	case KindMove:
		if !(s.Duration > 0) || math.IsInf(s.Duration, 1) {
			return fmt.Errorf("move segment at t=%g: duration must be positive and finite, got %g", s.Start, s.Duration)
		}
	case KindIdle:
		if s.From != s.To {
			return fmt.Errorf("idle segment at t=%g: endpoints differ", s.Start)
		}
		if s.Duration < 0 || math.IsNaN(s.Duration) {
			return fmt.Errorf("idle segment at t=%g: negative duration %g", s.Start, s.Duration)
		}
	default:
		return fmt.Errorf("segment at t=%g: unknown kind %q", s.Start, s.Kind)
	}
	if s.Start < 0 || math.IsNaN(s.Start) {
		return fmt.Errorf("segment start %g must be non-negative", s.Start)
	}
	return nil
}

// point is the serialised form of a position.
type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// segmentJSON is the raw JSON shape of a Segment. Unbounded durations are
// written as null.
type segmentJSON struct {
	Kind     Kind     `json:"kind"`
	From     point    `json:"from"`
	To       *point   `json:"to,omitempty"`
	Start    float64  `json:"start"`
	Duration *float64 `json:"duration"`
}

// MarshalJSON implements json.Marshaler for Segment.
func (s Segment) MarshalJSON() ([]byte, error) {
	aux := segmentJSON{Kind: s.Kind, From: point(s.From), Start: s.Start}
	if !s.Idle() {
		to := point(s.To)
		aux.To = &to
	}
	if !s.Unbounded() {
		d := s.Duration
		aux.Duration = &d
	}
	return json.Marshal(aux)
}

// UnmarshalJSON implements json.Unmarshaler for Segment.
// The "kind" field selects the shape: "move" needs both endpoints, "idle" only
// "from". A missing or null duration on a hold means it never ends.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var aux segmentJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch aux.Kind {
	case KindMove:
		if aux.To == nil {
			return fmt.Errorf("move segment: missing \"to\"")
		}
		if aux.Duration == nil {
			return fmt.Errorf("move segment: missing \"duration\"")
		}
		*s = Move(r2.Vec(aux.From), r2.Vec(*aux.To), aux.Start, *aux.Duration)
	case KindIdle:
		d := math.Inf(1)
		if aux.Duration != nil {
			d = *aux.Duration
		}
		*s = Hold(r2.Vec(aux.From), aux.Start, d)
	default:
		return fmt.Errorf("unknown segment kind %q", aux.Kind)
	}
	return nil
}
