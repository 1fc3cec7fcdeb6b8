// Package report renders a headless run as an HTML page of go-echarts charts:
// the path each agent traced and its segment index over time.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/plan"
)

// series groups the frames of a run by agent, in agent id order.
func series(log engine.RunLog) (ids []plan.AgentID, byAgent map[plan.AgentID][]int) {
	byAgent = make(map[plan.AgentID][]int)
	for fi, f := range log.Frames {
		for _, a := range f.Agents {
			if _, ok := byAgent[a.ID]; !ok {
				ids = append(ids, a.ID)
			}
			byAgent[a.ID] = append(byAgent[a.ID], fi)
		}
	}
	return ids, byAgent
}

func agentName(id plan.AgentID) string { return "agent " + strconv.Itoa(id) }

func subtitle(log engine.RunLog) string {
	return fmt.Sprintf("run=%s frames=%d makespan=%.3f", log.Meta.RunID, len(log.Frames), log.Makespan)
}

// Paths is a scatter chart of every sampled agent position.
func Paths(log engine.RunLog) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Agent paths", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Agent paths", Subtitle: subtitle(log)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "y", NameLocation: "middle", NameGap: 30}),
	)

	ids, byAgent := series(log)
	for _, id := range ids {
		data := make([]opts.ScatterData, 0, len(byAgent[id]))
		for _, fi := range byAgent[id] {
			for _, a := range log.Frames[fi].Agents {
				if a.ID == id {
					data = append(data, opts.ScatterData{Value: []interface{}{a.Pos.X, a.Pos.Y, log.Frames[fi].Time}})
				}
			}
		}
		scatter.AddSeries(agentName(id), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	return scatter
}

// Segments is a line chart of each agent's segment index against time.
func Segments(log engine.RunLog) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Segment progress", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Segment progress", Subtitle: subtitle(log)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "segment", NameLocation: "middle", NameGap: 30}),
	)

	x := make([]string, len(log.Frames))
	for i, f := range log.Frames {
		x[i] = strconv.FormatFloat(f.Time, 'f', 3, 64)
	}
	line.SetXAxis(x)

	ids, _ := series(log)
	for _, id := range ids {
		data := make([]opts.LineData, len(log.Frames))
		for i, f := range log.Frames {
			data[i] = opts.LineData{Value: nil}
			for _, a := range f.Agents {
				if a.ID == id {
					data[i] = opts.LineData{Value: a.Index}
				}
			}
		}
		line.AddSeries(agentName(id), data)
	}
	return line
}

// WriteHTML renders both charts of log as one page.
func WriteHTML(w io.Writer, log engine.RunLog) error {
	page := components.NewPage()
	page.AddCharts(Paths(log), Segments(log))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
