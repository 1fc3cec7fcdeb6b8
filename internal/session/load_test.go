package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/mapf-player/internal/solver"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadInput(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"graph.yaml": `
vertices:
  - {id: a, pos: {x: 0, y: 0}, neighbors: [b]}
  - {id: b, pos: {x: 3, y: 0}, neighbors: [c]}
  - {id: c, pos: {x: 3, y: 4}}
`,
		"routes.json": `{"agents":[{"id":0,"route":[{"vertex":"a"},{"vertex":"c"}]}]}`,
		"layout.yaml": "agents:\n  - {start: c, goal: a}\n",
		"positions.json": `{"agents":[{"id":0,"states":[
			{"from_pos":{"x":0,"y":0},"to_pos":{"x":1,"y":0},"start":0,"duration":1}]}]}`,
	})
	path := func(name string) string { return filepath.Join(dir, name) }
	ctx := context.Background()
	sv := solver.RouteSolver{}

	in, err := LoadInput(ctx, sv, path("graph.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, in.Graph)
	assert.Nil(t, in.Plan)

	in, err = LoadInput(ctx, sv, path("graph.yaml"), path("routes.json"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, in.Plan.Makespan())
	assert.Equal(t, "routes.json", in.Source)

	in, err = LoadInput(ctx, sv, path("graph.yaml"), path("layout.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7.0, in.Plan.Makespan())
	assert.Contains(t, in.Source, "layout.yaml")

	in, err = LoadInput(ctx, sv, path("positions.json"))
	require.NoError(t, err)
	assert.Nil(t, in.Graph)
	assert.Equal(t, 1.0, in.Plan.Makespan())

	_, err = LoadInput(ctx, sv, path("layout.yaml"))
	assert.Error(t, err, "a layout needs a graph")
	_, err = LoadInput(ctx, sv, path("graph.yaml"), path("graph.yaml"))
	assert.Error(t, err)
	_, err = LoadInput(ctx, sv)
	assert.Error(t, err)
}
