package devicegraph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jOptions configures the graph database backend.
type Neo4jOptions struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	Retention      time.Duration
}

// Neo4jStore implements Store on a graph database over Bolt. Useful when the
// device graph is shared with other fraud tooling that wants real traversal
// queries; the decision engine itself only needs the neighbor count.
type Neo4jStore struct {
	driver    neo4j.DriverWithContext
	database  string
	retention time.Duration
}

func NewNeo4jStore(ctx context.Context, opts Neo4jOptions) (*Neo4jStore, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("graph URI is required")
	}

	auth := neo4j.NoAuth()
	if opts.Username != "" {
		auth = neo4j.BasicAuth(opts.Username, opts.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(opts.URI, auth, func(c *neo4j.Config) {
		if opts.MaxConnections > 0 {
			c.MaxConnectionPoolSize = opts.MaxConnections
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}

	return &Neo4jStore{
		driver:    driver,
		database:  opts.Database,
		retention: opts.Retention,
	}, nil
}

func (s *Neo4jStore) RecordUsage(ctx context.Context, deviceID, userID string, now time.Time) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := session.Run(ctx, `
		MERGE (d:Device {id: $device_id})
		MERGE (u:User {id: $user_id})
		MERGE (d)-[r:USED_BY]->(u)
		SET r.last_seen = $ts`,
		map[string]any{
			"device_id": deviceID,
			"user_id":   userID,
			"ts":        now.Unix(),
		})
	if err != nil {
		return fmt.Errorf("device graph record: %w", err)
	}
	return nil
}

func (s *Neo4jStore) DistinctUserCount(ctx context.Context, deviceID string) (int, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	horizon := time.Now().Add(-s.retention).Unix()
	res, err := session.Run(ctx, `
		MATCH (d:Device {id: $device_id})-[r:USED_BY]->(u:User)
		WHERE r.last_seen >= $horizon
		RETURN count(DISTINCT u) AS users`,
		map[string]any{
			"device_id": deviceID,
			"horizon":   horizon,
		})
	if err != nil {
		return 0, fmt.Errorf("device graph count: %w", err)
	}

	record, err := res.Single(ctx)
	if err != nil {
		return 0, fmt.Errorf("device graph count: %w", err)
	}
	users, _ := record.Get("users")
	count, _ := users.(int64)
	return int(count), nil
}

// Ping verifies driver connectivity, for health checks.
func (s *Neo4jStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
