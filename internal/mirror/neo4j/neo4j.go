// Package neo4j implements mirror.Mirror using Neo4j.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/uaforge/uaexport/internal/browse"
	"github.com/uaforge/uaexport/internal/mirror"
)

// batchSize bounds how many nodes or edges go into one write transaction.
const batchSize = 500

// Neo4jMirror implements mirror.Mirror over a Neo4j driver.
type Neo4jMirror struct {
	driver neo4j.DriverWithContext
}

var _ mirror.Mirror = (*Neo4jMirror)(nil)

// New creates a Neo4j-backed mirror and verifies connectivity.
func New(ctx context.Context, uri, username, password string) (*Neo4jMirror, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jMirror{driver: driver}, nil
}

func (m *Neo4jMirror) StoreAddressSpace(ctx context.Context, endpoint string, inv *browse.Inventory) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	nodes := inv.Nodes()
	for start := 0; start < len(nodes); start += batchSize {
		end := min(start+batchSize, len(nodes))
		batch := make([]map[string]any, 0, end-start)
		for _, n := range nodes[start:end] {
			batch = append(batch, map[string]any{"id": n.Text, "ns": int64(n.Namespace)})
		}
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx,
				"UNWIND $batch AS row "+
					"MERGE (n:UANode {id: row.id}) "+
					"SET n.namespace = row.ns, n.server = $server",
				map[string]any{"batch": batch, "server": endpoint})
		})
		if err != nil {
			return fmt.Errorf("store nodes [%d:%d]: %w", start, end, err)
		}
	}

	edges := inv.Edges()
	for start := 0; start < len(edges); start += batchSize {
		end := min(start+batchSize, len(edges))
		batch := make([]map[string]any, 0, end-start)
		for _, e := range edges[start:end] {
			batch = append(batch, map[string]any{"parent": e.Parent.Text, "child": e.Child.Text})
		}
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			return tx.Run(ctx,
				"UNWIND $batch AS row "+
					"MERGE (p:UANode {id: row.parent}) "+
					"MERGE (c:UANode {id: row.child}) "+
					"MERGE (p)-[:CONTAINS]->(c)",
				map[string]any{"batch": batch})
		})
		if err != nil {
			return fmt.Errorf("store edges [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

func (m *Neo4jMirror) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}
