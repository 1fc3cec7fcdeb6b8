// Package graph provides the read-only roadmap that plans are drawn on: vertices
// with 2D positions, undirected adjacency, bounding-box properties, and cached
// shortest paths.
package graph

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// VertexID and PathID are string aliases used as identifiers.
type (
	VertexID = string
	PathID   = string
)

// Coordinate is the serialisable form of a 2D position.
type Coordinate struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec converts c to a gonum vector.
func (c Coordinate) Vec() r2.Vec { return r2.Vec{X: c.X, Y: c.Y} }

// CoordinateOf converts a gonum vector to its serialisable form.
func CoordinateOf(v r2.Vec) Coordinate { return Coordinate{X: v.X, Y: v.Y} }

// VertexData is the serialisable input representation of a vertex.
// Neighbors may be listed on either endpoint; adjacency is made symmetric.
type VertexData struct {
	ID        VertexID   `json:"id" yaml:"id"`
	Pos       Coordinate `json:"pos" yaml:"pos"`
	Neighbors []VertexID `json:"neighbors,omitempty" yaml:"neighbors,omitempty"`
}

// GraphData is the serialisable input representation of a graph.
type GraphData struct {
	Vertices []VertexData `json:"vertices" yaml:"vertices"`
}

// Vertex is a point in the graph.
type Vertex struct {
	ID  VertexID
	Pos r2.Vec
}

// PathInfo holds the result of a shortest-path computation.
type PathInfo struct {
	ID     PathID
	Route  []VertexID // ordered vertex IDs from start to end
	Length float64    // Euclidean length of the route
}

// Graph is an undirected graph with Euclidean edge weights and cached
// shortest-path computation.
type Graph struct {
	vertices  []Vertex
	vertexMap map[VertexID]int
	adj       map[VertexID]map[VertexID]struct{}
	// Shortest-path trees; nil until first needed.
	paths *pathIndex
	// Path cache; cleared whenever the graph topology changes.
	pathCache map[PathID]PathInfo
}

// NewGraph builds a Graph from GraphData, returning an error if any vertex or
// neighbor reference is invalid.
func NewGraph(data GraphData) (*Graph, error) {
	g := &Graph{
		vertexMap: make(map[VertexID]int),
		adj:       make(map[VertexID]map[VertexID]struct{}),
		pathCache: make(map[PathID]PathInfo),
	}
	for _, v := range data.Vertices {
		if err := g.AddVertex(Vertex{ID: v.ID, Pos: v.Pos.Vec()}); err != nil {
			return nil, err
		}
	}
	for _, v := range data.Vertices {
		for _, n := range v.Neighbors {
			if err := g.AddEdge(v.ID, n); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// AddVertex adds a vertex to the graph. Returns an error if the ID already exists.
func (g *Graph) AddVertex(v Vertex) error {
	if _, exists := g.vertexMap[v.ID]; exists {
		return fmt.Errorf("vertex %q already exists", v.ID)
	}
	g.vertexMap[v.ID] = len(g.vertices)
	g.vertices = append(g.vertices, v)
	g.adj[v.ID] = make(map[VertexID]struct{})
	g.paths = nil // invalidate cached paths
	return nil
}

// AddEdge connects u and v in both directions. Adding an existing edge is a no-op.
func (g *Graph) AddEdge(u, v VertexID) error {
	if u == v {
		return fmt.Errorf("self-loop on vertex %q", u)
	}
	if _, ok := g.vertexMap[u]; !ok {
		return fmt.Errorf("edge %q-%q: vertex %q not found", u, v, u)
	}
	if _, ok := g.vertexMap[v]; !ok {
		return fmt.Errorf("edge %q-%q: vertex %q not found", u, v, v)
	}
	g.adj[u][v] = struct{}{}
	g.adj[v][u] = struct{}{}
	g.paths = nil
	return nil
}

// Vertices returns the vertices in insertion order.
func (g *Graph) Vertices() []Vertex { return g.vertices }

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.vertices) }

// Vertex looks up a vertex by its ID.
func (g *Graph) Vertex(id VertexID) (Vertex, error) {
	i, ok := g.vertexMap[id]
	if !ok {
		return Vertex{}, fmt.Errorf("vertex %q not found", id)
	}
	return g.vertices[i], nil
}

// Neighbors returns the sorted neighbor IDs of id.
func (g *Graph) Neighbors(id VertexID) []VertexID {
	out := make([]VertexID, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// EdgeLength returns the Euclidean length of the edge u-v.
func (g *Graph) EdgeLength(u, v VertexID) (float64, error) {
	if _, ok := g.adj[u][v]; !ok {
		return 0, fmt.Errorf("no edge between %q and %q", u, v)
	}
	a, b := g.vertices[g.vertexMap[u]], g.vertices[g.vertexMap[v]]
	return r2.Norm(r2.Sub(b.Pos, a.Pos)), nil
}

// Edges calls fn once per undirected edge, visiting each edge with u < v.
func (g *Graph) Edges(fn func(u, v Vertex)) {
	for _, u := range g.vertices {
		for _, nid := range g.Neighbors(u.ID) {
			if u.ID > nid {
				continue
			}
			fn(u, g.vertices[g.vertexMap[nid]])
		}
	}
}

// Properties returns the geometric bounding box of the graph.
func (g *Graph) Properties() Properties {
	pts := make([]r2.Vec, len(g.vertices))
	for i, v := range g.vertices {
		pts[i] = v.Pos
	}
	return PropertiesOf(pts)
}

// Properties is the bounding box of a set of positions.
type Properties struct {
	Min r2.Vec
	Max r2.Vec
}

// PropertiesOf returns the bounding box of pts. An empty set yields a zero box.
func PropertiesOf(pts []r2.Vec) Properties {
	if len(pts) == 0 {
		return Properties{}
	}
	p := Properties{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, v := range pts {
		p.Min.X = math.Min(p.Min.X, v.X)
		p.Min.Y = math.Min(p.Min.Y, v.Y)
		p.Max.X = math.Max(p.Max.X, v.X)
		p.Max.Y = math.Max(p.Max.Y, v.Y)
	}
	return p
}

// Width is the horizontal extent of the box.
func (p Properties) Width() float64 { return p.Max.X - p.Min.X }

// Height is the vertical extent of the box.
func (p Properties) Height() float64 { return p.Max.Y - p.Min.Y }

// Box returns the properties as a gonum box.
func (p Properties) Box() r2.Box { return r2.Box{Min: p.Min, Max: p.Max} }
