// Package tui is the terminal player: an ASCII rendering of the graph and the
// agents with keyboard playback controls, driven by a session.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/session"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// rows used by everything except the canvas
	chromeHeight = 7
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	paneStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	edgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	vertexStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	stateStyles = map[engine.State]lipgloss.Style{
		engine.StateEmpty:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		engine.StateReady:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		engine.StateRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		engine.StateFinished: lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
	}

	agentColors = []int{39, 208, 42, 205, 220, 141, 203, 51}
)

func agentStyle(id int) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color(strconv.Itoa(agentColors[id%len(agentColors)])))
}

type tickMsg struct{}

// Model is the bubbletea model of the terminal player.
type Model struct {
	session  *session.Session
	interval time.Duration

	width  int
	height int

	help     help.Model
	showHelp bool
	bar      progress.Model
	message  string
}

// NewModel creates a player for s that ticks autoplay every interval.
func NewModel(s *session.Session, interval time.Duration) Model {
	return Model{
		session:  s,
		interval: interval,
		width:    defaultWidth,
		height:   defaultHeight,
		help:     help.New(),
		bar:      progress.New(progress.WithSolidFill("62"), progress.WithoutPercentage()),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.session.Tick()
		return m, m.tick()

	case tea.KeyMsg:
		s := m.session
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Play):
			s.TogglePlaying()
		case key.Matches(msg, keys.Loop):
			s.ToggleLooping()
		case key.Matches(msg, keys.Reset):
			s.Reset()
		case key.Matches(msg, keys.Goals):
			s.ToggleGoals()
		case key.Matches(msg, keys.IDs):
			s.ToggleIDs()
		case key.Matches(msg, keys.Forward):
			s.StepForward()
		case key.Matches(msg, keys.Back):
			s.StepBackward()
		case key.Matches(msg, keys.Next):
			s.Step(s.Status().Makespan, true)
		case key.Matches(msg, keys.Faster):
			s.AdjustSpeed(1)
		case key.Matches(msg, keys.Slower):
			s.AdjustSpeed(-1)
		case key.Matches(msg, keys.Shot):
			path, err := s.SaveSnapshot("png")
			if err != nil {
				m.message = "snapshot failed: " + err.Error()
			} else {
				m.message = "saved " + path
			}
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
		}
	}
	return m, nil
}

func (m Model) View() string {
	st := m.session.Status()

	var b strings.Builder
	b.WriteString(m.renderTitle(st))
	b.WriteByte('\n')
	b.WriteString(paneStyle.Render(m.renderScene(st)))
	b.WriteByte('\n')
	b.WriteString(m.renderStatus(st))
	b.WriteByte('\n')
	if m.message != "" {
		b.WriteString(dimStyle.Render(m.message))
	}
	b.WriteByte('\n')
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) renderTitle(st session.Status) string {
	title := titleStyle.Render("mapf-player")
	stats := fmt.Sprintf("%d agents | makespan %.2f", len(st.Frame.Agents), st.Makespan)
	if st.RunID != "" {
		stats += " | run " + st.RunID[:min(8, len(st.RunID))]
	}
	return title + "  " + dimStyle.Render(stats)
}

func (m Model) renderScene(st session.Status) string {
	w := max(m.width-2, 1)
	h := max(m.height-chromeHeight, 1)
	if m.showHelp {
		h = max(h-2, 1)
	}

	g, p := m.session.Graph(), m.session.Plan()
	var props graph.Properties
	switch {
	case g != nil && g.Len() > 0:
		props = g.Properties()
	case p != nil:
		props = p.Properties()
	}
	c := newCanvas(w, h, props)

	if g != nil {
		g.Edges(func(u, v graph.Vertex) { c.line(u.Pos, v.Pos, '·', edgeStyle) })
		for _, v := range g.Vertices() {
			c.set(v.Pos, '+', vertexStyle)
		}
	}
	if st.ShowGoals && p != nil {
		for _, tr := range p.Trajectories() {
			goal := tr.Final()
			if g != nil && tr.Goal != "" {
				if v, err := g.Vertex(tr.Goal); err == nil {
					goal = v.Pos
				}
			}
			c.set(goal, 'x', agentStyle(tr.AgentID))
		}
	}
	for _, a := range st.Frame.Agents {
		r := '●'
		if st.ShowIDs {
			r = rune('0' + a.ID%10)
		}
		c.set(a.Pos.Vec(), r, agentStyle(a.ID))
	}
	return c.String()
}

func (m Model) renderStatus(st session.Status) string {
	f := st.Frame
	state := stateStyles[f.State].Render(strings.ToUpper(string(f.State)))

	flags := []string{fmt.Sprintf("speed %.2f", st.Speed)}
	if st.Playing {
		flags = append(flags, "playing")
	} else {
		flags = append(flags, "paused")
	}
	if st.Looping {
		flags = append(flags, "loop")
	}
	line := fmt.Sprintf("%s  t=%.3f / %.3f  %s", state, f.Time, st.Makespan, dimStyle.Render(strings.Join(flags, " | ")))

	m.bar.Width = max(m.width-2, 10)
	pct := 0.0
	if st.Makespan > 0 {
		pct = f.Time / st.Makespan
	}
	return line + "\n" + m.bar.ViewAs(pct)
}
