package engine

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mapf-player/internal/plan"
)

const lineInput = `{
	"run_meta": {"run_id": "line", "time_step": %s, "capture_switches": %s},
	"graph_data": {"vertices": [
		{"id": "0", "pos": {"x": 0, "y": 0}, "neighbors": ["1"]},
		{"id": "1", "pos": {"x": 2, "y": 0}, "neighbors": ["2"]},
		{"id": "2", "pos": {"x": 2, "y": 3}}
	]},
	"plan": {"agents": [
		{"id": 0, "route": [{"vertex": "0"}, {"vertex": "2"}]},
		{"id": 1, "states": [{"from": "1", "to": "1", "start": 0, "duration": 0}]}
	]}
}`

func runLine(t *testing.T, step, capture string) RunLog {
	t.Helper()
	out, err := RunJSON(fmt.Sprintf(lineInput, step, capture))
	require.NoError(t, err)
	var log RunLog
	require.NoError(t, json.Unmarshal([]byte(out), &log))
	return log
}

func frameTimes(log RunLog) []float64 {
	ts := make([]float64, len(log.Frames))
	for i, f := range log.Frames {
		ts[i] = f.Time
	}
	return ts
}

func TestRunJSONSamples(t *testing.T) {
	log := runLine(t, "1", "false")
	assert.Equal(t, "line", log.Meta.RunID)
	assert.Equal(t, 5.0, log.Makespan)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, frameTimes(log))

	first, last := log.Frames[0], log.Frames[len(log.Frames)-1]
	assert.Equal(t, StateReady, first.State)
	assert.Equal(t, StateFinished, last.State)
	require.Len(t, last.Agents, 2)
	assert.Equal(t, 2.0, last.Agents[0].Pos.X)
	assert.Equal(t, 3.0, last.Agents[0].Pos.Y)
}

func TestRunJSONCapturesSwitches(t *testing.T) {
	log := runLine(t, "1.5", "true")
	assert.Equal(t, []float64{0, 1.5, 2, 3, 4.5, 5}, frameTimes(log))
	assert.Equal(t, 1, log.Frames[2].Agents[0].Index)
}

func TestRunJSONErrors(t *testing.T) {
	_, err := RunJSON("not json")
	assert.Error(t, err)

	_, err = RunJSON(fmt.Sprintf(lineInput, "0", "false"))
	assert.Error(t, err, "zero time step")

	_, err = RunJSON(`{"run_meta": {"time_step": 1}, "plan": {"agents": []}}`)
	assert.Error(t, err, "empty plan")

	_, err = RunJSON(`{"run_meta": {"time_step": 1}, "plan": {"agents": [
		{"id": 0, "states": [{"from": "a", "to": "b", "duration": 1}]}
	]}}`)
	assert.Error(t, err, "vertex ids without a graph")
}

func TestRunPositionsOnly(t *testing.T) {
	log, err := Run(RunInput{
		Meta: RunMeta{TimeStep: 0.5},
		Plan: mustSpec(t, `{"agents": [{"id": 0, "states": [
			{"from_pos": {"x": 0, "y": 0}, "to_pos": {"x": 1, "y": 0}, "start": 0, "duration": 1}
		]}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, frameTimes(log))
	assert.Equal(t, 0.5, log.Frames[1].Agents[0].Pos.X)
}

func mustSpec(t *testing.T, data string) plan.Spec {
	t.Helper()
	var spec plan.Spec
	require.NoError(t, plan.Unmarshal([]byte(data), plan.FormatJSON, &spec))
	return spec
}
