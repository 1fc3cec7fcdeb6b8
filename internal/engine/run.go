package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/plan"
)

// maxFrames bounds a headless run so a tiny time step cannot exhaust memory.
const maxFrames = 1_000_000

// NewRun builds the graph, plan and player described by input.
func NewRun(input RunInput) (*Player, error) {
	var g *graph.Graph
	if input.GraphData != nil {
		var err error
		if g, err = graph.NewGraph(*input.GraphData); err != nil {
			return nil, fmt.Errorf("building graph: %w", err)
		}
	}
	if input.Layout != nil {
		if g == nil {
			return nil, fmt.Errorf("layout given without graph_data")
		}
		if err := input.Layout.Validate(g); err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
	}

	p, err := plan.Build(input.Plan, g)
	if err != nil {
		return nil, fmt.Errorf("building plan: %w", err)
	}
	return NewPlayer(p, Options{Layout: input.Layout})
}

// Run plays input from t = 0 to the makespan without looping and samples a
// frame every TimeStep seconds. The last frame is always at the makespan.
func Run(input RunInput) (RunLog, error) {
	dt := input.Meta.TimeStep
	if !(dt > 0) || math.IsInf(dt, 1) {
		return RunLog{}, fmt.Errorf("time_step must be positive and finite, got %g", dt)
	}

	pl, err := NewRun(input)
	if err != nil {
		return RunLog{}, err
	}
	if n := pl.Makespan()/dt + 1; n > maxFrames {
		return RunLog{}, fmt.Errorf("time_step %g yields %.0f frames, limit is %d", dt, n, maxFrames)
	}

	log := RunLog{Meta: input.Meta, Makespan: pl.Makespan()}
	record := func(f Frame) {
		if n := len(log.Frames); n > 0 && log.Frames[n-1].Time == f.Time {
			return
		}
		log.Frames = append(log.Frames, f)
	}
	if input.Meta.CaptureSwitches {
		pl.OnSwitch(func(Switch) { record(pl.Frame()) })
	}

	record(pl.Frame())
	for !pl.Finished() {
		pl.Step(dt)
		record(pl.Frame())
	}
	return log, nil
}

// RunJSON is the entry point shared by the CLI and WASM targets. It accepts a
// JSON-encoded RunInput, runs it, and returns a JSON-encoded RunLog.
func RunJSON(jsonInput string) (string, error) {
	var input RunInput
	if err := json.Unmarshal([]byte(jsonInput), &input); err != nil {
		return "", fmt.Errorf("invalid input JSON: %w", err)
	}

	runLog, err := Run(input)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(runLog)
	if err != nil {
		return "", fmt.Errorf("marshaling output: %w", err)
	}
	return string(out), nil
}
