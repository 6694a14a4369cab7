package neo4j

import (
	"context"
	"fmt"
	"regexp"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/project-synapse/synapse/pkg/common"
)

// Relationship types are spliced into the Cypher pattern because Neo4j does
// not support parameterized relationship types. Only this shape is accepted.
var validRelType = regexp.MustCompile(`^[A-Z0-9_]+$`)

const mergeNodeCypher = `
MERGE (n:Entity {id: $id})
ON CREATE SET n.created_at = timestamp(), n._new = true
SET n.type = $type, n.label = $label
SET n += $props
WITH n, coalesce(n._new, false) AS created
REMOVE n._new
RETURN created`

const mergeRelCypher = `
MATCH (a:Entity {id: $source})
MATCH (b:Entity {id: $target})
MERGE (a)-[r:%s]->(b)
ON CREATE SET r.created_at = timestamp(), r._new = true
SET r += $props
WITH r, coalesce(r._new, false) AS created
REMOVE r._new
RETURN created`

// MergeGraph upserts the given nodes and relationships in a single write
// transaction and returns how many of each were newly created. Replaying the
// same graph is a no-op with zero counts, and a failure rolls back the whole
// call.
func (s *GraphStore) MergeGraph(
	ctx context.Context,
	nodes []common.Node,
	rels []common.Relationship,
) (int, int, error) {
	for _, rel := range rels {
		if !validRelType.MatchString(rel.Type) {
			return 0, 0, fmt.Errorf("invalid relationship type %q", rel.Type)
		}
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	type counts struct {
		nodes int
		rels  int
	}

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		var c counts

		for _, node := range nodes {
			created, err := runMerge(ctx, tx, mergeNodeCypher, map[string]any{
				"id":    node.ID,
				"type":  node.Type,
				"label": node.Label,
				"props": nonEmptyProps(node.Properties),
			})
			if err != nil {
				return nil, fmt.Errorf("error merging node %s: %w", node.ID, err)
			}
			if created {
				c.nodes++
			}
		}

		for _, rel := range rels {
			query := fmt.Sprintf(mergeRelCypher, rel.Type)
			created, err := runMerge(ctx, tx, query, map[string]any{
				"source": rel.SourceID,
				"target": rel.TargetID,
				"props":  nonEmptyProps(rel.Properties),
			})
			if err != nil {
				return nil, fmt.Errorf("error merging relationship %s: %w", rel.Key(), err)
			}
			if created {
				c.rels++
			}
		}

		return c, nil
	})
	if err != nil {
		return 0, 0, err
	}

	c := result.(counts)
	return c.nodes, c.rels, nil
}

func runMerge(
	ctx context.Context,
	tx neo4j.ManagedTransaction,
	query string,
	params map[string]any,
) (bool, error) {
	res, err := tx.Run(ctx, query, params)
	if err != nil {
		return false, err
	}
	record, err := res.Single(ctx)
	if err != nil {
		return false, err
	}
	created, _ := record.Get("created")
	b, ok := created.(bool)
	return ok && b, nil
}

// nonEmptyProps drops empty values so an upsert never overwrites an existing
// property with a blank.
func nonEmptyProps(props map[string]string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v != "" {
			out[k] = v
		}
	}
	return out
}
