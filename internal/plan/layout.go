package plan

import (
	"fmt"

	"github.com/cxd309/mapf-player/internal/graph"
)

// Placement is one agent's start and goal vertex.
type Placement struct {
	Start graph.VertexID `json:"start" yaml:"start"`
	Goal  graph.VertexID `json:"goal" yaml:"goal"`
}

// Layout assigns a start and goal to every agent; agent i is Agents[i].
type Layout struct {
	Agents []Placement `json:"agents" yaml:"agents"`
}

// Validate checks that every placement names vertices of g.
func (l Layout) Validate(g *graph.Graph) error {
	if len(l.Agents) == 0 {
		return fmt.Errorf("layout has no agents")
	}
	for i, a := range l.Agents {
		if _, err := g.Vertex(a.Start); err != nil {
			return fmt.Errorf("agent %d start: %w", i, err)
		}
		if _, err := g.Vertex(a.Goal); err != nil {
			return fmt.Errorf("agent %d goal: %w", i, err)
		}
	}
	return nil
}

// CheckLayout verifies that p was planned for l: same agent count, and every
// trajectory built from vertices starts and ends where the layout says.
func CheckLayout(p *Plan, l Layout) error {
	if p.Len() != len(l.Agents) {
		return fmt.Errorf("plan has %d agents, layout %d: %w", p.Len(), len(l.Agents), ErrLayoutMismatch)
	}
	for i, a := range l.Agents {
		tr := p.Trajectory(i)
		if tr.Start != "" && tr.Start != a.Start {
			return fmt.Errorf("agent %d starts at %q, layout says %q: %w", i, tr.Start, a.Start, ErrLayoutMismatch)
		}
		if tr.Goal != "" && tr.Goal != a.Goal {
			return fmt.Errorf("agent %d ends at %q, layout says %q: %w", i, tr.Goal, a.Goal, ErrLayoutMismatch)
		}
	}
	return nil
}
