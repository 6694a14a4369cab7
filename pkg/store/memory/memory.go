// Package memory implements the graph storage in process memory. It mirrors
// the Neo4j backend's merge and query semantics and backs the test suites.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/project-synapse/synapse/pkg/common"
)

var validRelType = regexp.MustCompile(`^[A-Z0-9_]+$`)

// GraphStore is the in-memory implementation of store.GraphStorage.
//
// FailMerge, when set, makes the next MergeGraph call fail before any write
// becomes visible. Tests use it to exercise rollback behavior.
type GraphStore struct {
	mu    sync.RWMutex
	nodes map[string]common.Node
	rels  map[string]common.Relationship

	FailMerge error
}

// New returns an empty in-memory graph store.
func New() *GraphStore {
	return &GraphStore{
		nodes: make(map[string]common.Node),
		rels:  make(map[string]common.Relationship),
	}
}

// MergeGraph upserts nodes and relationships and returns how many of each
// were newly created. The merge is all-or-nothing.
func (s *GraphStore) MergeGraph(
	ctx context.Context,
	nodes []common.Node,
	rels []common.Relationship,
) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailMerge != nil {
		err := s.FailMerge
		s.FailMerge = nil
		return 0, 0, err
	}

	for _, rel := range rels {
		if !validRelType.MatchString(rel.Type) {
			return 0, 0, fmt.Errorf("invalid relationship type %q", rel.Type)
		}
		if _, ok := s.nodes[rel.SourceID]; !ok {
			if !containsNode(nodes, rel.SourceID) {
				return 0, 0, fmt.Errorf("relationship %s references unknown node %s", rel.Key(), rel.SourceID)
			}
		}
		if _, ok := s.nodes[rel.TargetID]; !ok {
			if !containsNode(nodes, rel.TargetID) {
				return 0, 0, fmt.Errorf("relationship %s references unknown node %s", rel.Key(), rel.TargetID)
			}
		}
	}

	createdNodes := 0
	for _, node := range nodes {
		existing, ok := s.nodes[node.ID]
		if !ok {
			createdNodes++
			existing = common.Node{
				ID:         node.ID,
				Type:       node.Type,
				Label:      node.Label,
				Properties: map[string]string{},
			}
		}
		mergeProps(existing.Properties, node.Properties)
		s.nodes[node.ID] = existing
	}

	createdRels := 0
	for _, rel := range rels {
		key := rel.Key()
		existing, ok := s.rels[key]
		if !ok {
			createdRels++
			existing = common.Relationship{
				SourceID:   rel.SourceID,
				TargetID:   rel.TargetID,
				Type:       rel.Type,
				Properties: map[string]string{},
			}
		}
		mergeProps(existing.Properties, rel.Properties)
		s.rels[key] = existing
	}

	return createdNodes, createdRels, nil
}

// Snapshot returns the full graph with deterministic ordering.
func (s *GraphStore) Snapshot(ctx context.Context) (common.GraphSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return common.GraphSnapshot{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]common.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, copyNode(n))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	rels := make([]common.Relationship, 0, len(s.rels))
	for _, r := range s.rels {
		rels = append(rels, copyRel(r))
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Key() < rels[j].Key() })

	return common.GraphSnapshot{Nodes: nodes, Links: rels}, nil
}

// SearchNodes returns up to limit nodes whose label or description contains
// any of the given lowercase terms.
func (s *GraphStore) SearchNodes(ctx context.Context, terms []string, limit int) ([]common.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return []common.Node{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]common.Node, 0)
	for _, n := range s.nodes {
		haystack := strings.ToLower(n.Label) + " " + strings.ToLower(n.Properties["description"])
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matches = append(matches, copyNode(n))
				break
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Neighborhood expands from the seed nodes by up to hops relationship steps,
// capped at limit nodes.
func (s *GraphStore) Neighborhood(
	ctx context.Context,
	seedIDs []string,
	hops int,
	limit int,
) ([]common.Node, []common.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(seedIDs) == 0 {
		return []common.Node{}, []common.Relationship{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	visited := make(map[string]bool)
	nodes := make([]common.Node, 0)
	var frontier []string

	sortedSeeds := append([]string(nil), seedIDs...)
	sort.Strings(sortedSeeds)
	for _, id := range sortedSeeds {
		n, ok := s.nodes[id]
		if !ok || visited[id] {
			continue
		}
		if len(nodes) >= limit {
			break
		}
		visited[id] = true
		nodes = append(nodes, copyNode(n))
		frontier = append(frontier, id)
	}

	for hop := 0; hop < hops && len(frontier) > 0 && len(nodes) < limit; hop++ {
		var neighborIDs []string
		for _, r := range s.rels {
			for _, id := range frontier {
				if r.SourceID == id && !visited[r.TargetID] {
					neighborIDs = append(neighborIDs, r.TargetID)
				}
				if r.TargetID == id && !visited[r.SourceID] {
					neighborIDs = append(neighborIDs, r.SourceID)
				}
			}
		}
		sort.Strings(neighborIDs)

		frontier = nil
		for _, id := range neighborIDs {
			if visited[id] {
				continue
			}
			if len(nodes) >= limit {
				break
			}
			visited[id] = true
			nodes = append(nodes, copyNode(s.nodes[id]))
			frontier = append(frontier, id)
		}
	}

	rels := make([]common.Relationship, 0)
	for _, r := range s.rels {
		if visited[r.SourceID] && visited[r.TargetID] {
			rels = append(rels, copyRel(r))
		}
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i].Key() < rels[j].Key() })

	return nodes, rels, nil
}

// Clear removes all nodes and relationships.
func (s *GraphStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make(map[string]common.Node)
	s.rels = make(map[string]common.Relationship)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *GraphStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for the in-memory store.
func (s *GraphStore) Close(ctx context.Context) error {
	return nil
}

func mergeProps(dst, src map[string]string) {
	for k, v := range src {
		if v != "" {
			dst[k] = v
		}
	}
}

func containsNode(nodes []common.Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func copyNode(n common.Node) common.Node {
	out := n
	out.Properties = make(map[string]string, len(n.Properties))
	for k, v := range n.Properties {
		out.Properties[k] = v
	}
	return out
}

func copyRel(r common.Relationship) common.Relationship {
	out := r
	out.Properties = make(map[string]string, len(r.Properties))
	for k, v := range r.Properties {
		out.Properties[k] = v
	}
	return out
}
