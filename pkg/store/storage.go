// Package store defines the storage abstraction for the canonical
// property graph and holds its backends.
package store

import (
	"context"

	"github.com/project-synapse/synapse/pkg/common"
)

// GraphStorage is the interface every graph backend has to implement.
//
// MergeGraph is idempotent: replaying the same nodes and relationships
// must not create duplicates, and the returned counts cover newly
// created records only. A failed merge leaves no partial writes behind.
type GraphStorage interface {
	// MergeGraph upserts the given nodes and relationships into the graph
	// and returns how many of each were newly created.
	MergeGraph(ctx context.Context, nodes []common.Node, rels []common.Relationship) (int, int, error)

	// Snapshot returns the full graph. Empty slices, never nil, when the
	// graph holds no data.
	Snapshot(ctx context.Context) (common.GraphSnapshot, error)

	// SearchNodes returns up to limit nodes whose label or description
	// contains any of the given lowercase terms.
	SearchNodes(ctx context.Context, terms []string, limit int) ([]common.Node, error)

	// Neighborhood expands from the seed node ids by up to hops
	// relationship steps and returns the visited nodes and the
	// relationships between them, bounded by limit nodes.
	Neighborhood(ctx context.Context, seedIDs []string, hops int, limit int) ([]common.Node, []common.Relationship, error)

	// Clear removes all nodes and relationships. Clearing an empty graph
	// succeeds.
	Clear(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close(ctx context.Context) error
}
