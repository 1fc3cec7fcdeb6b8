// Package snapshot renders the playback at one instant (graph edges, vertices,
// goals, and agents) to PNG, SVG or PDF using gonum/plot.
package snapshot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/plan"
)

// Size is the page size of every snapshot.
const Size = 8 * vg.Inch

// circleSides is the number of sides of the polygon drawn for an agent.
const circleSides = 24

var (
	edgeColor   = color.Gray{Y: 160}
	vertexColor = color.Gray{Y: 90}
)

// Scene is everything drawn in a snapshot. Graph and Plan may each be nil.
type Scene struct {
	Graph     *graph.Graph
	Plan      *plan.Plan
	Frame     engine.Frame
	ShowGoals bool
	ShowIDs   bool
}

// Formats lists the supported output formats.
var Formats = []string{"png", "svg", "pdf"}

// Render builds the plot for s.
func Render(s Scene) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("t = %.3f s (%s)", s.Frame.Time, s.Frame.State)
	p.HideAxes()

	n := len(s.Frame.Agents)
	if s.Plan != nil {
		n = s.Plan.Len()
	}
	colors := palette(n)

	if s.Graph != nil {
		if err := addGraph(p, s.Graph); err != nil {
			return nil, err
		}
	}
	if s.ShowGoals && s.Plan != nil {
		if err := addGoals(p, s.Graph, s.Plan, colors); err != nil {
			return nil, err
		}
	}
	if err := addAgents(p, s.Frame, colors, s.ShowIDs); err != nil {
		return nil, err
	}

	fit(p, bounds(s))
	return p, nil
}

func addGraph(p *plot.Plot, g *graph.Graph) error {
	var err error
	g.Edges(func(u, v graph.Vertex) {
		if err != nil {
			return
		}
		var l *plotter.Line
		l, err = plotter.NewLine(plotter.XYs{{X: u.Pos.X, Y: u.Pos.Y}, {X: v.Pos.X, Y: v.Pos.Y}})
		if err != nil {
			return
		}
		l.Color = edgeColor
		l.Width = vg.Points(1)
		p.Add(l)
	})
	if err != nil {
		return fmt.Errorf("edges: %w", err)
	}

	pts := make(plotter.XYs, 0, g.Len())
	for _, v := range g.Vertices() {
		pts = append(pts, plotter.XY{X: v.Pos.X, Y: v.Pos.Y})
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("vertices: %w", err)
	}
	sc.GlyphStyle.Color = vertexColor
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	return nil
}

// addGoals marks each agent's goal. With a graph, vertices are matched to
// their owner; without one the final trajectory position is used.
func addGoals(p *plot.Plot, g *graph.Graph, pl *plan.Plan, colors []color.Color) error {
	goals := make(map[plan.AgentID]plotter.XY)
	if g != nil {
		for _, v := range g.Vertices() {
			if id, ok := pl.GoalOwner(v.ID); ok {
				goals[id] = plotter.XY{X: v.Pos.X, Y: v.Pos.Y}
			}
		}
	} else {
		for _, tr := range pl.Trajectories() {
			f := tr.Final()
			goals[tr.AgentID] = plotter.XY{X: f.X, Y: f.Y}
		}
	}

	for id := 0; id < pl.Len(); id++ {
		xy, ok := goals[id]
		if !ok {
			continue
		}
		sc, err := plotter.NewScatter(plotter.XYs{xy})
		if err != nil {
			return fmt.Errorf("goal %d: %w", id, err)
		}
		sc.GlyphStyle.Color = colors[id%len(colors)]
		sc.GlyphStyle.Radius = vg.Points(5)
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		p.Add(sc)
	}
	return nil
}

func addAgents(p *plot.Plot, f engine.Frame, colors []color.Color, showIDs bool) error {
	if len(f.Agents) == 0 {
		return nil
	}
	labels := plotter.XYLabels{}
	for _, a := range f.Agents {
		poly, err := plotter.NewPolygon(circle(a.Pos.X, a.Pos.Y, a.Radius))
		if err != nil {
			return fmt.Errorf("agent %d: %w", a.ID, err)
		}
		poly.Color = colors[a.ID%len(colors)]
		poly.LineStyle.Width = 0
		p.Add(poly)

		labels.XYs = append(labels.XYs, plotter.XY{X: a.Pos.X, Y: a.Pos.Y})
		labels.Labels = append(labels.Labels, strconv.Itoa(a.ID))
	}
	if !showIDs {
		return nil
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return fmt.Errorf("labels: %w", err)
	}
	p.Add(l)
	return nil
}

func circle(x, y, r float64) plotter.XYs {
	pts := make(plotter.XYs, circleSides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSides
		pts[i] = plotter.XY{X: x + r*math.Cos(a), Y: y + r*math.Sin(a)}
	}
	return pts
}

func bounds(s Scene) graph.Properties {
	switch {
	case s.Graph != nil:
		return s.Graph.Properties()
	case s.Plan != nil:
		return s.Plan.Properties()
	}
	return graph.Properties{}
}

// fit gives the plot equal axis scales around props, padded by one unit so
// agents on the border stay visible.
func fit(p *plot.Plot, props graph.Properties) {
	const pad = 1.0
	side := math.Max(props.Width(), props.Height()) + 2*pad
	cx := (props.Min.X + props.Max.X) / 2
	cy := (props.Min.Y + props.Max.Y) / 2
	p.X.Min, p.X.Max = cx-side/2, cx+side/2
	p.Y.Min, p.Y.Max = cy-side/2, cy+side/2
}

// palette creates n distinct agent colours.
func palette(n int) []color.Color {
	if n <= 0 {
		n = 1
	}
	colors := make([]color.Color, n)
	for i := range colors {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		switch {
		case t < 0:
			t++
		case t > 1:
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}

// FormatOf returns the output format for path from its extension.
func FormatOf(path string) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, f := range Formats {
		if ext == f {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported snapshot format %q (want one of %v)", ext, Formats)
}

// Save renders s to path; the format follows the extension.
func Save(s Scene, path string) error {
	if _, err := FormatOf(path); err != nil {
		return err
	}
	p, err := Render(s)
	if err != nil {
		return err
	}
	if err := p.Save(Size, Size, path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// WriteTo renders s in format to w.
func WriteTo(s Scene, w io.Writer, format string) (int64, error) {
	if _, err := FormatOf("." + format); err != nil {
		return 0, err
	}
	p, err := Render(s)
	if err != nil {
		return 0, err
	}
	wt, err := p.WriterTo(Size, Size, format)
	if err != nil {
		return 0, fmt.Errorf("snapshot writer: %w", err)
	}
	return wt.WriteTo(w)
}

// Filename is the default snapshot name for playback time t.
func Filename(t float64, format string) string {
	return fmt.Sprintf("snapshot_%09.3f.%s", t, format)
}
