// Package engine implements the playback engine that animates a multi-agent plan.
//
// A Player owns a virtual clock and one runtime state per agent. Every call to
// Step advances all agents together. The earliest time at which any agent must
// move onto its next segment is kept as a shared transition threshold; a step
// that reaches the threshold is split in two:
//
//  1. Advance pass - every agent advances exactly up to the threshold.
//
//  2. Switch pass - every agent whose segment is used up adopts its next one,
//     and the threshold is recomputed from the agents' new remaining times.
//
// The rest of the step then continues from the threshold, so a single large
// step never skips a boundary.
package engine

import (
	"fmt"
	"math"

	"github.com/cxd309/mapf-player/internal/agent"
	"github.com/cxd309/mapf-player/internal/approx"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
)

// Player is the playback engine. It is not safe for concurrent use.
type Player struct {
	plan           *plan.Plan
	agents         []*agent.Agent
	makespan       float64
	curTime        float64
	firstThreshold float64
	threshold      float64
	looping        bool
	finishFired    bool
	replaying      bool
	onSwitch       func(Switch)
	onFinish       func(Frame)
	onReset        func()
}

// NewPlayer builds a Player for p. A nil plan yields an empty player whose
// operations are no-ops.
func NewPlayer(p *plan.Plan, opts Options) (*Player, error) {
	pl := &Player{
		plan:     p,
		looping:  opts.Looping,
		onSwitch: opts.OnSwitch,
		onFinish: opts.OnFinish,
		onReset:  opts.OnReset,
	}
	if p == nil {
		return pl, nil
	}
	if opts.Layout != nil {
		if err := plan.CheckLayout(p, *opts.Layout); err != nil {
			return nil, err
		}
	}

	pl.makespan = p.Makespan()
	pl.agents = make([]*agent.Agent, 0, p.Len())
	for _, tr := range p.Trajectories() {
		pl.agents = append(pl.agents, agent.New(tr))
	}
	pl.firstThreshold = pl.nextThreshold(0)
	if pl.firstThreshold < 0 {
		return nil, fmt.Errorf("first transition at t=%g before the start", pl.firstThreshold)
	}
	pl.threshold = pl.firstThreshold

	monitoring.Logf("[player] loaded %d agents: makespan %.3f, first transition at %.3f",
		len(pl.agents), pl.makespan, pl.firstThreshold)
	return pl, nil
}

// Empty reports whether no plan is loaded.
func (pl *Player) Empty() bool { return pl.plan == nil }

// Plan returns the loaded plan, or nil.
func (pl *Player) Plan() *plan.Plan { return pl.plan }

// Time returns the current playback time.
func (pl *Player) Time() float64 { return pl.curTime }

// Makespan returns the end of the timeline.
func (pl *Player) Makespan() float64 { return pl.makespan }

// Threshold returns the time of the next synchronized switch.
func (pl *Player) Threshold() float64 { return pl.threshold }

// FirstThreshold returns the time of the first switch after t = 0.
func (pl *Player) FirstThreshold() float64 { return pl.firstThreshold }

// Looping reports whether stepping past the makespan wraps to the start.
func (pl *Player) Looping() bool { return pl.looping }

// SetLooping enables or disables wrapping at the makespan.
func (pl *Player) SetLooping(on bool) { pl.looping = on }

// OnSwitch replaces the switch hook.
func (pl *Player) OnSwitch(fn func(Switch)) { pl.onSwitch = fn }

// OnFinish replaces the finish hook.
func (pl *Player) OnFinish(fn func(Frame)) { pl.onFinish = fn }

// OnReset replaces the reset hook.
func (pl *Player) OnReset(fn func()) { pl.onReset = fn }

// Finished reports whether a non-looping playback has reached the makespan.
func (pl *Player) Finished() bool {
	return !pl.Empty() && !pl.looping && pl.curTime == pl.makespan
}

// State returns the playback state.
func (pl *Player) State() State {
	switch {
	case pl.Empty():
		return StateEmpty
	case pl.Finished():
		return StateFinished
	case pl.curTime == 0:
		return StateReady
	default:
		return StateRunning
	}
}

// Agents returns a snapshot of every agent, ordered by id.
func (pl *Player) Agents() []agent.Log {
	logs := make([]agent.Log, len(pl.agents))
	for i, a := range pl.agents {
		logs[i] = a.GetLog()
	}
	return logs
}

// Frame returns a snapshot of the whole playback.
func (pl *Player) Frame() Frame {
	return Frame{
		Time:      pl.curTime,
		State:     pl.State(),
		Threshold: pl.threshold,
		Agents:    pl.Agents(),
	}
}

// Reset returns every agent to its first segment and the clock to zero, and
// starts a new run for the purpose of the finish hook.
func (pl *Player) Reset() {
	pl.rewind()
	pl.finishFired = false
	if pl.onReset != nil && !pl.Empty() {
		pl.onReset()
	}
}

func (pl *Player) rewind() {
	if pl.Empty() {
		return
	}
	pl.curTime = 0
	pl.threshold = pl.firstThreshold
	for _, a := range pl.agents {
		a.Reset()
	}
}

// Step advances playback by dt seconds; dt may be negative to scrub backward.
//
//   - Below zero the player resets.
//   - Past the makespan it wraps when looping (the overshoot is replayed from
//     the start) or pins to the makespan and fires the finish hook.
//   - Every segment boundary in between is passed through a switch pass.
//   - A backward step that stays within every agent's current segment is
//     interpolated directly; one that crosses a boundary is replayed from the
//     start.
func (pl *Player) Step(dt float64) { pl.step(dt, false) }

// StepOnce is Step with atomic semantics: it stops at the first segment
// boundary it reaches, dropping the rest of dt.
func (pl *Player) StepOnce(dt float64) { pl.step(dt, true) }

func (pl *Player) step(dt float64, atomic bool) {
	if pl.Empty() || math.IsNaN(dt) {
		return
	}

	tNext := pl.curTime + dt
	switch {
	case tNext < 0:
		pl.Reset()
	case dt < 0:
		pl.stepBack(tNext)
	case tNext > pl.makespan && pl.looping && pl.makespan > 0:
		residual := tNext - pl.makespan
		if residual > pl.makespan {
			residual = math.Mod(residual, pl.makespan)
		}
		pl.Reset()
		pl.advanceTo(residual, atomic)
	default:
		pl.advanceTo(math.Min(tNext, pl.makespan), atomic)
		pl.checkFinish()
	}
}

// SetTime seeks to t, clamped to [0, makespan], by replaying from the start.
func (pl *Player) SetTime(t float64) {
	if pl.Empty() || math.IsNaN(t) {
		return
	}
	pl.seek(approx.Clamp(t, 0, pl.makespan))
	pl.checkFinish()
}

// seek replays from the start to t. Boundaries passed during the replay were
// already reported, so the switch hook stays silent.
func (pl *Player) seek(t float64) {
	pl.rewind()
	pl.replaying = true
	pl.advanceTo(t, false)
	pl.replaying = false
}

// stepBack moves the clock back to tNext (0 <= tNext < t).
func (pl *Player) stepBack(tNext float64) {
	dt := tNext - pl.curTime
	for _, a := range pl.agents {
		if e := a.Elapsed + dt; e < 0 && !approx.Zero(approx.Tight, e) {
			pl.seek(tNext)
			return
		}
	}
	pl.advanceAll(dt)
	pl.curTime = tNext
}

// advanceTo moves the clock forward to target, running a switch pass at every
// threshold on the way. The loop is bounded by the number of segment
// boundaries left in the plan.
func (pl *Player) advanceTo(target float64, atomic bool) {
	for budget := pl.boundariesLeft(); pl.curTime < target && budget >= 0; budget-- {
		if target < pl.threshold {
			pl.advanceAll(target - pl.curTime)
			pl.curTime = target
			return
		}
		pl.advanceAll(pl.threshold - pl.curTime)
		pl.curTime = pl.threshold
		pl.switchPass()
		if atomic {
			return
		}
	}
}

func (pl *Player) advanceAll(dt float64) {
	for _, a := range pl.agents {
		a.Advance(dt)
	}
}

// switchPass moves every agent whose segment is used up onto its next one and
// recomputes the threshold from the current time.
func (pl *Player) switchPass() {
	var switched []plan.AgentID
	for _, a := range pl.agents {
		if !a.AtBoundary() {
			continue
		}
		a.Switch()
		switched = append(switched, a.ID)
	}
	pl.threshold = pl.nextThreshold(pl.curTime)

	if len(switched) > 0 && pl.onSwitch != nil && !pl.replaying {
		pl.onSwitch(Switch{Time: pl.curTime, Agents: switched})
	}
}

// nextThreshold returns the earliest segment end among agents that still have
// one, measured from now. Finished agents do not constrain it; the result is
// clamped to the makespan, which also absorbs floating-point overshoot.
func (pl *Player) nextThreshold(now float64) float64 {
	th := math.Inf(1)
	for _, a := range pl.agents {
		if a.Active() {
			th = math.Min(th, now+a.Remaining())
		}
	}
	if th > pl.makespan {
		if !math.IsInf(th, 1) && !approx.Equal(approx.Low, th, pl.makespan) {
			monitoring.Logf("[player] threshold %.9f overshoots makespan %.9f", th, pl.makespan)
		}
		th = pl.makespan
	}
	return th
}

func (pl *Player) boundariesLeft() int {
	n := 0
	for _, a := range pl.agents {
		n += a.Trajectory().Len() - a.Index
	}
	return n
}

func (pl *Player) checkFinish() {
	if !pl.Finished() || pl.finishFired {
		return
	}
	pl.finishFired = true
	monitoring.Logf("[player] finished at t=%.3f", pl.curTime)
	if pl.onFinish != nil {
		pl.onFinish(pl.Frame())
	}
}
