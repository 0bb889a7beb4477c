package relation

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/mirelle/solace/internal/memory"
)

// Config holds Neo4j connection settings.
type Config struct {
	URI      string `json:"uri"`
	User     string `json:"user"`
	Password string `json:"password"`
}

// Graph tracks users and their sessions in Neo4j. Each session a user
// opens becomes an OWNS edge; relationship strength grows with the number
// of connections.
type Graph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewGraph connects to Neo4j and verifies reachability.
func NewGraph(ctx context.Context, cfg Config, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Graph{driver: driver, logger: logger}, nil
}

// RecordSession links a user to a new session node.
func (g *Graph) RecordSession(ctx context.Context, userID, sessionID string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (u:User {id: $user})
		 MERGE (s:Session {id: $session})
		 MERGE (u)-[r:OWNS]->(s)
		 ON CREATE SET r.created_at = datetime(), s.message_count = 0`,
		map[string]any{"user": userID, "session": sessionID})
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

// RecordTurn bumps the message count on a session node.
func (g *Graph) RecordTurn(ctx context.Context, sessionID string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH (s:Session {id: $session})
		 SET s.message_count = coalesce(s.message_count, 0) + 1,
		     s.updated_at = datetime()`,
		map[string]any{"session": sessionID})
	if err != nil {
		return fmt.Errorf("record turn: %w", err)
	}
	return nil
}

// RelationshipContext summarizes how established the relationship with a
// user is: one connection per owned session, strength saturating at 1.0
// after ten sessions.
func (g *Graph) RelationshipContext(ctx context.Context, userID string) (memory.RelationshipContext, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (u:User {id: $user})-[r:OWNS]->(s:Session)
		 RETURN count(s) AS connections`,
		map[string]any{"user": userID})
	if err != nil {
		return memory.RelationshipContext{}, fmt.Errorf("relationship context: %w", err)
	}

	rc := memory.RelationshipContext{ConnectionTypes: []string{"session"}}
	if result.Next(ctx) {
		if v, ok := result.Record().Get("connections"); ok {
			if n, ok := v.(int64); ok {
				rc.Connections = int(n)
			}
		}
	}
	rc.RelationshipStrength = float64(rc.Connections) / 10.0
	if rc.RelationshipStrength > 1.0 {
		rc.RelationshipStrength = 1.0
	}
	if rc.Connections == 0 {
		rc.ConnectionTypes = nil
	}
	return rc, nil
}

// Close releases the underlying driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
