package recorder

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/kinematics"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
)

func init() { monitoring.SetLogger(nil) }

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "run_test_001")

	require.NoError(t, w.Append(Entry{Frame: engine.Frame{Time: 0, State: engine.StateReady}}))
	require.NoError(t, w.Append(Entry{
		Kind:   KindSwitch,
		Frame:  engine.Frame{Time: 2, State: engine.StateRunning},
		Switch: &engine.Switch{Time: 2, Agents: []plan.AgentID{0}},
	}))
	assert.Error(t, w.Append(Entry{RunID: "other"}))
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Append(Entry{}), ErrClosed)
	assert.NoError(t, w.Close())

	got, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Seq)
	assert.Equal(t, KindFrame, got[0].Kind)
	assert.Equal(t, "run_test_001", got[1].RunID)
	assert.Equal(t, int64(2), got[1].Seq)
	assert.Equal(t, []plan.AgentID{0}, got[1].Switch.Agents)
	assert.NotEmpty(t, got[1].TSUTC)
}

func TestNewWriterAssignsRunID(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, "")
	_, err := uuid.Parse(w.RunID())
	assert.NoError(t, err)
}

func TestReaderRejectsGaps(t *testing.T) {
	in := `{"run_id":"r","seq":1,"kind":"frame","ts_utc":"","frame":{"time":0,"state":"ready","threshold":0,"agents":[]}}
{"run_id":"r","seq":3,"kind":"frame","ts_utc":"","frame":{"time":0,"state":"ready","threshold":0,"agents":[]}}
`
	_, err := ReadAll(strings.NewReader(in))
	assert.Error(t, err)

	_, err = ReadAll(strings.NewReader("not json\n"))
	assert.Error(t, err)
}

func TestRecordingHooks(t *testing.T) {
	p, err := plan.New([]plan.Trajectory{{AgentID: 0, Segments: []kinematics.Segment{
		kinematics.Move(r2.Vec{}, r2.Vec{X: 1}, 0, 1),
		kinematics.Move(r2.Vec{X: 1}, r2.Vec{X: 1, Y: 1}, 1, 1),
	}}})
	require.NoError(t, err)
	pl, err := engine.NewPlayer(p, engine.Options{})
	require.NoError(t, err)

	rec, err := Create(t.TempDir(), "")
	require.NoError(t, err)
	onSwitch, onFinish := rec.Hooks(pl.Frame)
	pl.OnSwitch(onSwitch)
	pl.OnFinish(onFinish)

	pl.Step(5)
	pl.Reset()
	pl.Step(5) // the recording is closed; further hooks are ignored
	assert.NoError(t, rec.Close())

	f, err := os.Open(rec.Path)
	require.NoError(t, err)
	defer f.Close()
	entries, err := ReadAll(f)
	require.NoError(t, err)

	kinds := make([]Kind, len(entries))
	for i, e := range entries {
		kinds[i] = e.Kind
		assert.Equal(t, rec.RunID(), e.RunID)
	}
	assert.Equal(t, []Kind{KindSwitch, KindSwitch, KindFinish}, kinds)
	assert.Equal(t, 1.0, entries[0].Frame.Time)
	assert.Equal(t, engine.StateFinished, entries[2].Frame.State)
}
