// Package graph reads the relationship graph built at ingestion time
// (people, messages, calls, locations and keywords linked by typed edges).
package graph

import (
	"context"
	"strings"
)

const maxInsightNeighbors = 5

// Node is one vertex of the relationship graph
type Node struct {
	ID    string
	Kind  string
	Label string
}

// Edge is a directed, typed link between two nodes
type Edge struct {
	From     string
	To       string
	Relation string
}

// Graph is the read contract the retrieval layer depends on. Nodes returns
// the first limit nodes in stable order (limit <= 0 means all); Neighbors
// returns the distinct successors of a node.
type Graph interface {
	Nodes(ctx context.Context, limit int) ([]Node, error)
	Neighbors(ctx context.Context, id string) ([]Node, error)
}

// Insight renders "<label> connects to <up to five neighbor labels>"
func Insight(node Node, neighbors []Node) string {
	n := len(neighbors)
	if n > maxInsightNeighbors {
		n = maxInsightNeighbors
	}
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = neighbors[i].Label
	}
	return node.Label + " connects to " + strings.Join(labels, ", ")
}
