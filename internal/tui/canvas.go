package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/cxd309/mapf-player/internal/graph"
)

// canvas is a character grid onto which world coordinates are projected, with
// y pointing up.
type canvas struct {
	w, h  int
	props graph.Properties
	cells [][]cell
}

type cell struct {
	r     rune
	style lipgloss.Style
}

func newCanvas(w, h int, props graph.Properties) *canvas {
	w, h = max(w, 1), max(h, 1)
	cells := make([][]cell, h)
	for i := range cells {
		cells[i] = make([]cell, w)
		for j := range cells[i] {
			cells[i][j].r = ' '
		}
	}
	return &canvas{w: w, h: h, props: props, cells: cells}
}

func scale(v, lo, extent float64, n int) int {
	if extent <= 0 {
		return (n - 1) / 2
	}
	return int(math.Round((v - lo) / extent * float64(n-1)))
}

// project returns the cell of p, or false when p is outside the canvas.
func (c *canvas) project(p r2.Vec) (col, row int, ok bool) {
	col = scale(p.X, c.props.Min.X, c.props.Width(), c.w)
	row = c.h - 1 - scale(p.Y, c.props.Min.Y, c.props.Height(), c.h)
	return col, row, col >= 0 && col < c.w && row >= 0 && row < c.h
}

func (c *canvas) set(p r2.Vec, r rune, style lipgloss.Style) {
	if col, row, ok := c.project(p); ok {
		c.cells[row][col] = cell{r: r, style: style}
	}
}

// line marks every cell between a and b that is still blank.
func (c *canvas) line(a, b r2.Vec, r rune, style lipgloss.Style) {
	c0, r0, _ := c.project(a)
	c1, r1, _ := c.project(b)
	n := max(abs(c1-c0), abs(r1-r0))
	for i := 0; i <= n; i++ {
		f := 0.0
		if n > 0 {
			f = float64(i) / float64(n)
		}
		p := r2.Add(a, r2.Scale(f, r2.Sub(b, a)))
		if col, row, ok := c.project(p); ok && c.cells[row][col].r == ' ' {
			c.cells[row][col] = cell{r: r, style: style}
		}
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, cl := range row {
			if cl.r == ' ' {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(cl.style.Render(string(cl.r)))
		}
	}
	return b.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
