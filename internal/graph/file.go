package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileGraph serves a node-link JSON document held in memory
type FileGraph struct {
	nodes []Node
	index map[string]int
	succ  map[string][]string
	edges []Edge
}

type nodeLinkDoc struct {
	Directed bool             `json:"directed"`
	Nodes    []map[string]any `json:"nodes"`
	Links    []map[string]any `json:"links"`
	Edges    []map[string]any `json:"edges"`
}

// LoadFile reads a node-link document. A missing file is returned as an
// error wrapping os.ErrNotExist.
func LoadFile(path string) (*FileGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph: %w", err)
	}
	return Parse(data)
}

// Parse decodes a node-link document. Node order follows the document.
// Edges may be listed under "links" or "edges".
func Parse(data []byte) (*FileGraph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc nodeLinkDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}

	g := &FileGraph{
		index: make(map[string]int, len(doc.Nodes)),
		succ:  make(map[string][]string),
	}
	for _, raw := range doc.Nodes {
		id, kind := nodeKey(raw["id"])
		if _, dup := g.index[id]; dup {
			continue
		}
		label, _ := raw["label"].(string)
		if label == "" {
			label = id
		}
		g.index[id] = len(g.nodes)
		g.nodes = append(g.nodes, Node{ID: id, Kind: kind, Label: label})
	}

	links := doc.Links
	if len(links) == 0 {
		links = doc.Edges
	}
	seen := make(map[[2]string]struct{}, len(links))
	for _, raw := range links {
		from, _ := nodeKey(raw["source"])
		to, _ := nodeKey(raw["target"])
		rel, _ := raw["relation"].(string)
		g.edges = append(g.edges, Edge{From: from, To: to, Relation: rel})
		g.ensureNode(from)
		g.ensureNode(to)
		if _, ok := seen[[2]string{from, to}]; ok {
			continue
		}
		seen[[2]string{from, to}] = struct{}{}
		g.succ[from] = append(g.succ[from], to)
		if !doc.Directed {
			g.succ[to] = append(g.succ[to], from)
		}
	}
	return g, nil
}

// ensureNode adds a node referenced only by an edge
func (g *FileGraph) ensureNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, Node{ID: id, Label: id})
}

func (g *FileGraph) Nodes(_ context.Context, limit int) ([]Node, error) {
	if limit <= 0 || limit > len(g.nodes) {
		limit = len(g.nodes)
	}
	out := make([]Node, limit)
	copy(out, g.nodes[:limit])
	return out, nil
}

func (g *FileGraph) Neighbors(_ context.Context, id string) ([]Node, error) {
	ids := g.succ[id]
	out := make([]Node, 0, len(ids))
	for _, nid := range ids {
		out = append(out, g.nodes[g.index[nid]])
	}
	return out, nil
}

// Edges returns every edge in document order
func (g *FileGraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// nodeKey turns a node-link id into a string key. Tuple ids such as
// ["Person", 3] become "Person:3" with kind "Person".
func nodeKey(v any) (id, kind string) {
	switch t := v.(type) {
	case string:
		return t, ""
	case json.Number:
		return t.String(), ""
	case []any:
		parts := make([]string, len(t))
		for i, p := range t {
			parts[i], _ = nodeKey(p)
		}
		if len(parts) > 0 {
			kind = parts[0]
		}
		return strings.Join(parts, ":"), kind
	case nil:
		return "", ""
	default:
		return fmt.Sprint(t), ""
	}
}
