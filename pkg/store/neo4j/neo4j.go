// Package neo4j implements the graph storage on a Neo4j database.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/project-synapse/synapse/pkg/logger"
)

// GraphStore is the Neo4j-backed implementation of store.GraphStorage.
//
// A GraphStore should be created using New.
type GraphStore struct {
	driver neo4j.DriverWithContext
}

// NewGraphStoreParams defines the connection parameters for a GraphStore.
type NewGraphStoreParams struct {
	URI      string
	Username string
	Password string
}

// New connects to Neo4j, verifies connectivity and returns the store.
func New(ctx context.Context, params NewGraphStoreParams) (*GraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(
		params.URI,
		neo4j.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to neo4j at %s: %w", params.URI, err)
	}

	logger.Info("connected to neo4j", "uri", params.URI)

	return &GraphStore{driver: driver}, nil
}

// Ping verifies the database is still reachable.
func (s *GraphStore) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close shuts down the underlying driver.
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *GraphStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
}
