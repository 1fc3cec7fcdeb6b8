package graph

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/cxd309/mapf-player/internal/approx"
)

// pathIndex is a gonum view of the graph plus one shortest-path tree per
// target, built on first use. Nodes are numbered by vertex insertion order.
type pathIndex struct {
	wg *simple.WeightedUndirectedGraph
	to map[int]path.Shortest
}

func (g *Graph) buildPathIndex() {
	wg := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range g.vertices {
		wg.AddNode(simple.Node(i))
	}
	g.Edges(func(u, v Vertex) {
		l, _ := g.EdgeLength(u.ID, v.ID)
		wg.SetWeightedEdge(wg.NewWeightedEdge(
			simple.Node(g.vertexMap[u.ID]), simple.Node(g.vertexMap[v.ID]), l))
	})
	g.paths = &pathIndex{wg: wg, to: make(map[int]path.Shortest)}
	g.pathCache = make(map[PathID]PathInfo) // clear stale cache
}

// towards returns the shortest-path tree rooted at vertex index v. Edges are
// undirected, so its weights are distances to v.
func (g *Graph) towards(v int) path.Shortest {
	if g.paths == nil {
		g.buildPathIndex()
	}
	tree, ok := g.paths.to[v]
	if !ok {
		tree = path.DijkstraFrom(simple.Node(v), g.paths.wg)
		g.paths.to[v] = tree
	}
	return tree
}

// route returns the shortest route from u to v. Ties are broken by the
// lexicographically smallest vertex sequence: each step takes the smallest
// neighbor that still lies on a shortest path.
func (g *Graph) route(u, v VertexID) ([]VertexID, float64) {
	tree := g.towards(g.vertexMap[v])
	dist := func(id VertexID) float64 { return tree.WeightTo(int64(g.vertexMap[id])) }

	total := dist(u)
	if math.IsInf(total, 1) {
		return nil, total
	}
	route := []VertexID{u}
	seen := map[VertexID]bool{u: true}
	for at := u; at != v; {
		next := ""
		for _, n := range g.Neighbors(at) { // sorted
			if seen[n] {
				continue
			}
			l, _ := g.EdgeLength(at, n)
			if approx.Equal(approx.Tight, l+dist(n), dist(at)) {
				next = n
				break
			}
		}
		if next == "" {
			return nil, math.Inf(1)
		}
		route = append(route, next)
		seen[next] = true
		at = next
	}
	return route, total
}

func pathKey(start, end VertexID) PathID { return start + "->" + end }

// ShortestPath returns the shortest path between start and end, using a cache.
// Returns an error if either vertex is unknown or no path exists.
func (g *Graph) ShortestPath(start, end VertexID) (PathInfo, error) {
	if _, err := g.Vertex(start); err != nil {
		return PathInfo{}, err
	}
	if _, err := g.Vertex(end); err != nil {
		return PathInfo{}, err
	}
	if start == end {
		return PathInfo{ID: pathKey(start, end), Route: []VertexID{start}, Length: 0}, nil
	}
	key := pathKey(start, end)
	if g.paths != nil {
		if p, ok := g.pathCache[key]; ok {
			return p, nil
		}
	}
	route, d := g.route(start, end)
	if route == nil {
		return PathInfo{}, fmt.Errorf("no path from %q to %q", start, end)
	}
	p := PathInfo{ID: key, Route: route, Length: d}
	g.pathCache[key] = p
	return p, nil
}
