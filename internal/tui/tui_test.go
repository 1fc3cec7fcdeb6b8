package tui

import (
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/config"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
	"github.com/cxd309/mapf-player/internal/session"
)

func init() { monitoring.SetLogger(nil) }

func newModel(t *testing.T) (Model, *session.Session) {
	t.Helper()
	g, err := graph.NewGraph(graph.GraphData{Vertices: []graph.VertexData{
		{ID: "0", Pos: graph.Coordinate{X: 0, Y: 0}, Neighbors: []string{"1"}},
		{ID: "1", Pos: graph.Coordinate{X: 2, Y: 0}, Neighbors: []string{"2"}},
		{ID: "2", Pos: graph.Coordinate{X: 2, Y: 3}},
	}})
	require.NoError(t, err)
	p, err := plan.Build(plan.Spec{Agents: []plan.AgentSpec{
		{ID: 0, Route: []plan.RouteStop{{Vertex: "0"}, {Vertex: "2"}}},
	}}, g)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Autoplay = false
	cfg.Loop = false
	cfg.SnapshotDir = filepath.Join(t.TempDir(), "shots")
	s, err := session.New(g, p, cfg, session.Deps{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewModel(s, cfg.FrameInterval()), s
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestKeys(t *testing.T) {
	m, s := newModel(t)

	m, _ = press(t, m, runes("p"))
	assert.True(t, s.Status().Playing)
	m, _ = press(t, m, runes("l"))
	assert.True(t, s.Status().Looping)
	m, _ = press(t, m, runes("g"))
	assert.True(t, s.Status().ShowGoals)
	m, _ = press(t, m, runes("f"))
	assert.True(t, s.Status().ShowIDs)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.InDelta(t, config.DefaultSpeed+config.DefaultSpeedStep, s.Status().Speed, 1e-12)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.InDelta(t, config.DefaultSpeed, s.Status().Speed, 1e-12)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.InDelta(t, config.DefaultSpeed, s.Status().Frame.Time, 1e-12)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0.0, s.Status().Frame.Time)

	m, _ = press(t, m, runes("n"))
	assert.InDelta(t, 2.0, s.Status().Frame.Time, 1e-9, "next switch at the corner vertex")
	m, _ = press(t, m, runes("r"))
	assert.Equal(t, 0.0, s.Status().Frame.Time)

	m, _ = press(t, m, runes("?"))
	assert.True(t, m.showHelp)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, strings.HasPrefix(m.message, "saved "), m.message)
	assert.FileExists(t, strings.TrimPrefix(m.message, "saved "))

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTick(t *testing.T) {
	m, s := newModel(t)
	next, cmd := m.Update(tickMsg{})
	assert.NotNil(t, cmd, "ticks reschedule themselves")
	assert.Equal(t, 0.0, s.Status().Frame.Time, "paused")

	s.SetPlaying(true)
	next.Update(tickMsg{})
	assert.InDelta(t, config.DefaultSpeed, s.Status().Frame.Time, 1e-12)
}

func TestView(t *testing.T) {
	m, s := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m = next.(Model)

	out := m.View()
	assert.Contains(t, out, "mapf-player")
	assert.Contains(t, out, "READY")
	assert.Contains(t, out, "t=0.000 / 5.000")
	assert.Contains(t, out, "●")

	s.ToggleIDs()
	s.Seek(5)
	out = m.View()
	assert.Contains(t, out, "FINISHED")
	assert.Contains(t, out, "0")
	assert.NotContains(t, out, "●")
}

func TestCanvasProjection(t *testing.T) {
	props := graph.PropertiesOf([]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 3}})
	c := newCanvas(3, 4, props)

	col, row, ok := c.project(r2.Vec{})
	assert.True(t, ok)
	assert.Equal(t, [2]int{0, 3}, [2]int{col, row}, "origin is bottom left")

	col, row, ok = c.project(r2.Vec{X: 2, Y: 3})
	assert.True(t, ok)
	assert.Equal(t, [2]int{2, 0}, [2]int{col, row})

	_, _, ok = c.project(r2.Vec{X: 10})
	assert.False(t, ok)

	plain := lipgloss.NewStyle()
	c.line(r2.Vec{}, r2.Vec{X: 2}, '-', plain)
	c.set(r2.Vec{X: 1}, '@', plain)
	row3 := []rune{c.cells[3][0].r, c.cells[3][1].r, c.cells[3][2].r}
	assert.Equal(t, "-@-", string(row3))
}

func TestCanvasDegenerate(t *testing.T) {
	c := newCanvas(5, 3, graph.PropertiesOf([]r2.Vec{{X: 1, Y: 1}}))
	col, row, ok := c.project(r2.Vec{X: 1, Y: 1})
	assert.True(t, ok)
	assert.Equal(t, [2]int{2, 1}, [2]int{col, row}, "a single point is centred")
}

func TestKeysFullHelp(t *testing.T) {
	assert.NotEmpty(t, keys.ShortHelp())
	for _, col := range keys.FullHelp() {
		assert.NotEmpty(t, col)
	}
}
