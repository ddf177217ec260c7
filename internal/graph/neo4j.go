package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Neo4jConfig holds connection settings for a Neo4j-backed graph
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Neo4jGraph reads the relationship graph from Neo4j. Node ids are element
// ids; the first label is the kind and the "label" property the display name.
type Neo4jGraph struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jGraph creates the driver; connectivity is checked by Ping
func NewNeo4jGraph(cfg Neo4jConfig) (*Neo4jGraph, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	database := cfg.Database
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jGraph{client: driver, database: database}, nil
}

// Ping verifies the server is reachable
func (g *Neo4jGraph) Ping(ctx context.Context) error {
	return g.client.VerifyConnectivity(ctx)
}

// Close releases the driver
func (g *Neo4jGraph) Close(ctx context.Context) error {
	return g.client.Close(ctx)
}

func (g *Neo4jGraph) Nodes(ctx context.Context, limit int) ([]Node, error) {
	query := `MATCH (n) RETURN n ORDER BY id(n)`
	params := map[string]any{}
	if limit > 0 {
		query += ` LIMIT $limit`
		params["limit"] = limit
	}
	return g.readNodes(ctx, query, params)
}

func (g *Neo4jGraph) Neighbors(ctx context.Context, id string) ([]Node, error) {
	return g.readNodes(ctx, `
		MATCH (n)-->(m)
		WHERE elementId(n) = $id
		RETURN DISTINCT m AS n
		ORDER BY id(n)
	`, map[string]any{"id": id})
}

func (g *Neo4jGraph) readNodes(ctx context.Context, query string, params map[string]any) ([]Node, error) {
	session := g.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: g.database, AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]Node, 0, len(records))
		for _, record := range records {
			value, ok := record.Get("n")
			if !ok {
				continue
			}
			dbNode, ok := value.(dbtype.Node)
			if !ok {
				return nil, fmt.Errorf("unexpected type for node: got %T, expected dbtype.Node", value)
			}
			nodes = append(nodes, nodeFromDB(dbNode))
		}
		return nodes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j read: %w", err)
	}
	return result.([]Node), nil
}

func nodeFromDB(n dbtype.Node) Node {
	node := Node{ID: n.ElementId}
	if len(n.Labels) > 0 {
		node.Kind = n.Labels[0]
	}
	if label, ok := n.Props["label"].(string); ok && label != "" {
		node.Label = label
	} else {
		node.Label = n.ElementId
	}
	return node
}
