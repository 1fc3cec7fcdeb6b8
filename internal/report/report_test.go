package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
)

func init() { monitoring.SetLogger(nil) }

func runLog(t *testing.T) engine.RunLog {
	t.Helper()
	var spec plan.Spec
	require.NoError(t, plan.Unmarshal([]byte(`{"agents":[
		{"id":0,"states":[{"from_pos":{"x":0,"y":0},"to_pos":{"x":2,"y":0},"start":0,"duration":2}]},
		{"id":1,"states":[{"from_pos":{"x":0,"y":1},"to_pos":{"x":0,"y":1},"start":0,"duration":1},
		                  {"from_pos":{"x":0,"y":1},"to_pos":{"x":1,"y":1},"start":1,"duration":1}]}
	]}`), plan.FormatJSON, &spec))
	log, err := engine.Run(engine.RunInput{
		Meta: engine.RunMeta{RunID: "r1", TimeStep: 0.5},
		Plan: spec,
	})
	require.NoError(t, err)
	return log
}

func TestSeries(t *testing.T) {
	log := runLog(t)
	ids, byAgent := series(log)
	assert.Equal(t, []plan.AgentID{0, 1}, ids)
	assert.Len(t, byAgent[0], len(log.Frames))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, runLog(t)))
	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "agent 0")
	assert.Contains(t, out, "agent 1")
	assert.Contains(t, out, "Segment progress")
}

func TestEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, WriteHTML(&buf, engine.RunLog{}))
}
