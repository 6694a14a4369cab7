package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/project-synapse/synapse/pkg/common"
)

const snapshotNodesCypher = `
MATCH (n:Entity)
RETURN n.id AS id, n.type AS type, n.label AS label, properties(n) AS props
ORDER BY n.id`

const snapshotRelsCypher = `
MATCH (a:Entity)-[r]->(b:Entity)
RETURN a.id AS source, b.id AS target, type(r) AS type, properties(r) AS props
ORDER BY a.id, type(r), b.id`

const searchNodesCypher = `
MATCH (n:Entity)
WHERE any(term IN $terms WHERE toLower(n.label) CONTAINS term
	OR toLower(coalesce(n.description, '')) CONTAINS term)
RETURN n.id AS id, n.type AS type, n.label AS label, properties(n) AS props
ORDER BY n.id
LIMIT $limit`

const nodesByIDsCypher = `
MATCH (n:Entity)
WHERE n.id IN $ids
RETURN n.id AS id, n.type AS type, n.label AS label, properties(n) AS props
ORDER BY n.id`

const neighborsCypher = `
MATCH (n:Entity)-[]-(m:Entity)
WHERE n.id IN $seeds
RETURN DISTINCT m.id AS id, m.type AS type, m.label AS label, properties(m) AS props
ORDER BY m.id`

const relsAmongCypher = `
MATCH (a:Entity)-[r]->(b:Entity)
WHERE a.id IN $ids AND b.id IN $ids
RETURN a.id AS source, b.id AS target, type(r) AS type, properties(r) AS props
ORDER BY a.id, type(r), b.id`

// Snapshot returns the full graph. Both slices are non-nil even when the
// graph is empty.
func (s *GraphStore) Snapshot(ctx context.Context) (common.GraphSnapshot, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		nodes, err := collectNodes(ctx, tx, snapshotNodesCypher, nil)
		if err != nil {
			return nil, err
		}
		rels, err := collectRels(ctx, tx, snapshotRelsCypher, nil)
		if err != nil {
			return nil, err
		}
		return common.GraphSnapshot{Nodes: nodes, Links: rels}, nil
	})
	if err != nil {
		return common.GraphSnapshot{}, fmt.Errorf("error reading graph snapshot: %w", err)
	}

	return result.(common.GraphSnapshot), nil
}

// SearchNodes returns up to limit nodes whose label or description contains
// any of the given lowercase terms.
func (s *GraphStore) SearchNodes(ctx context.Context, terms []string, limit int) ([]common.Node, error) {
	if len(terms) == 0 {
		return []common.Node{}, nil
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return collectNodes(ctx, tx, searchNodesCypher, map[string]any{
			"terms": terms,
			"limit": limit,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("error searching nodes: %w", err)
	}

	return result.([]common.Node), nil
}

// Neighborhood expands from the seed node ids by up to hops relationship
// steps, capped at limit nodes, and returns the visited nodes together with
// the relationships among them.
func (s *GraphStore) Neighborhood(
	ctx context.Context,
	seedIDs []string,
	hops int,
	limit int,
) ([]common.Node, []common.Relationship, error) {
	if len(seedIDs) == 0 {
		return []common.Node{}, []common.Relationship{}, nil
	}

	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	type neighborhood struct {
		nodes []common.Node
		rels  []common.Relationship
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		seeds, err := collectNodes(ctx, tx, nodesByIDsCypher, map[string]any{"ids": seedIDs})
		if err != nil {
			return nil, err
		}
		if len(seeds) > limit {
			seeds = seeds[:limit]
		}

		visited := make(map[string]bool, len(seeds))
		nodes := make([]common.Node, 0, len(seeds))
		var frontier []string
		for _, n := range seeds {
			visited[n.ID] = true
			nodes = append(nodes, n)
			frontier = append(frontier, n.ID)
		}

		for hop := 0; hop < hops && len(frontier) > 0 && len(nodes) < limit; hop++ {
			neighbors, err := collectNodes(ctx, tx, neighborsCypher, map[string]any{
				"seeds": frontier,
			})
			if err != nil {
				return nil, err
			}

			frontier = nil
			for _, n := range neighbors {
				if visited[n.ID] {
					continue
				}
				if len(nodes) >= limit {
					break
				}
				visited[n.ID] = true
				nodes = append(nodes, n)
				frontier = append(frontier, n.ID)
			}
		}

		ids := make([]string, 0, len(nodes))
		for _, n := range nodes {
			ids = append(ids, n.ID)
		}
		rels, err := collectRels(ctx, tx, relsAmongCypher, map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}

		return neighborhood{nodes: nodes, rels: rels}, nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("error expanding neighborhood: %w", err)
	}

	n := result.(neighborhood)
	return n.nodes, n.rels, nil
}

// Clear removes all nodes and relationships from the graph.
func (s *GraphStore) Clear(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("error clearing graph: %w", err)
	}

	return nil
}

func collectNodes(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	query string,
	params map[string]any,
) ([]common.Node, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make([]common.Node, 0, len(records))
	for _, record := range records {
		nodes = append(nodes, nodeFromRecord(record))
	}
	return nodes, nil
}

func collectRels(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	query string,
	params map[string]any,
) ([]common.Relationship, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, err
	}

	rels := make([]common.Relationship, 0, len(records))
	for _, record := range records {
		rels = append(rels, relFromRecord(record))
	}
	return rels, nil
}

func nodeFromRecord(record *neo4j.Record) common.Node {
	id, _ := record.Get("id")
	nodeType, _ := record.Get("type")
	label, _ := record.Get("label")
	props, _ := record.Get("props")

	return common.Node{
		ID:         stringOr(id, ""),
		Type:       stringOr(nodeType, ""),
		Label:      stringOr(label, ""),
		Properties: extraProps(props),
	}
}

func relFromRecord(record *neo4j.Record) common.Relationship {
	source, _ := record.Get("source")
	target, _ := record.Get("target")
	relType, _ := record.Get("type")
	props, _ := record.Get("props")

	return common.Relationship{
		SourceID:   stringOr(source, ""),
		TargetID:   stringOr(target, ""),
		Type:       stringOr(relType, ""),
		Properties: extraProps(props),
	}
}

// extraProps converts the raw property map, dropping the identity fields
// that already live on the struct and internal bookkeeping values.
func extraProps(v any) map[string]string {
	raw, ok := v.(map[string]any)
	if !ok {
		return map[string]string{}
	}

	props := make(map[string]string)
	for k, value := range raw {
		switch k {
		case "id", "type", "label", "created_at":
			continue
		}
		if s, ok := value.(string); ok {
			props[k] = s
		}
	}
	return props
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}
