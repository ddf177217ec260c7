package graph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGraph = `{
  "directed": true,
  "multigraph": true,
  "graph": {},
  "nodes": [
    {"label": "Raj Malhotra", "phone": "+91 98200 11111", "id": ["Person", 1]},
    {"label": "Msg 10", "timestamp": "2024-03-01T22:15:00", "id": ["Message", 10]},
    {"label": "Ahmed Khan", "id": ["Person", 2]},
    {"label": "bitcoin", "id": ["Keyword", "bitcoin"]},
    {"id": ["Call", 7]}
  ],
  "links": [
    {"relation": "SENT", "source": ["Person", 1], "target": ["Message", 10], "key": 0},
    {"relation": "TO", "source": ["Message", 10], "target": ["Person", 2], "key": 0},
    {"relation": "MENTIONS", "source": ["Message", 10], "target": ["Keyword", "bitcoin"], "key": 0},
    {"relation": "SENT", "source": ["Person", 1], "target": ["Message", 10], "key": 1},
    {"relation": "ORIGINATED", "source": ["Person", 1], "target": ["Call", 7], "key": 0}
  ]
}`

func TestParseNodeLink(t *testing.T) {
	g, err := Parse([]byte(sampleGraph))
	require.NoError(t, err)
	ctx := context.Background()

	nodes, err := g.Nodes(ctx, 0)
	require.NoError(t, err)
	require.Len(t, nodes, 5)
	assert.Equal(t, Node{ID: "Person:1", Kind: "Person", Label: "Raj Malhotra"}, nodes[0])
	assert.Equal(t, "Keyword:bitcoin", nodes[3].ID)
	assert.Equal(t, "Call:7", nodes[4].Label, "label falls back to the id")

	prefix, err := g.Nodes(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, prefix, 2)

	neighbors, err := g.Neighbors(ctx, "Person:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Msg 10", "Call:7"}, labels(neighbors), "parallel edges yield one neighbor")

	isolated, err := g.Neighbors(ctx, "Person:2")
	require.NoError(t, err)
	assert.Empty(t, isolated)

	assert.Len(t, g.Edges(), 5)
}

func TestParseEdgesKeyAndUndirected(t *testing.T) {
	g, err := Parse([]byte(`{"directed": false, "nodes": [{"id": "a", "label": "A"}, {"id": "b", "label": "B"}],
		"edges": [{"source": "a", "target": "b"}]}`))
	require.NoError(t, err)
	n, _ := g.Neighbors(context.Background(), "b")
	assert.Equal(t, []string{"A"}, labels(n))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "graph.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraph), 0o600))
	g, err := LoadFile(path)
	require.NoError(t, err)
	nodes, _ := g.Nodes(context.Background(), 1)
	assert.Equal(t, "Raj Malhotra", nodes[0].Label)
}

func TestInsightCapsNeighbors(t *testing.T) {
	var neighbors []Node
	for _, l := range []string{"a", "b", "c", "d", "e", "f"} {
		neighbors = append(neighbors, Node{Label: l})
	}
	assert.Equal(t, "Raj connects to a, b, c, d, e", Insight(Node{Label: "Raj"}, neighbors))
	assert.Equal(t, "Raj connects to a", Insight(Node{Label: "Raj"}, neighbors[:1]))
}

func TestNodeFromDB(t *testing.T) {
	n := nodeFromDB(dbtype.Node{ElementId: "4:abc:1", Labels: []string{"Person"}, Props: map[string]any{"label": "Raj"}})
	assert.Equal(t, Node{ID: "4:abc:1", Kind: "Person", Label: "Raj"}, n)

	bare := nodeFromDB(dbtype.Node{ElementId: "4:abc:2"})
	assert.Equal(t, "4:abc:2", bare.Label)
	assert.Empty(t, bare.Kind)
}

func labels(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}
