package graph

import (
	"regexp"

	"github.com/project-synapse/synapse/pkg/common"
)

var relTypeRe = regexp.MustCompile(`[^A-Z0-9_]`)

// sanitizeRelType maps a raw relationship type onto the controlled vocabulary
// form. The result is guaranteed to match [A-Z0-9_]+ so it can be spliced
// into a Cypher relationship pattern, which cannot be parameterized.
func sanitizeRelType(t string) string {
	t = common.NormalizeType(t)
	t = relTypeRe.ReplaceAllString(t, "")
	if t == "" {
		return "RELATED_TO"
	}
	return t
}

// canonicalize resolves raw extraction candidates into the canonical node and
// relationship set for one merge call. Node identity is derived from
// (type, normalized name); duplicate candidates fold into one node, with the
// last non-empty description winning. Edges referencing unknown entities or
// forming self-loops are dropped, and duplicate (source, target, type)
// triples fold into one edge.
func canonicalize(
	nodes []candidateNode,
	edges []candidateEdge,
	documentName string,
) ([]common.Node, []common.Relationship) {
	byID := make(map[string]*common.Node)
	idByName := make(map[string]string)
	order := make([]string, 0, len(nodes))

	for _, cand := range nodes {
		id := common.NodeID(cand.entityType, cand.name)
		if existing, ok := byID[id]; ok {
			if cand.description != "" {
				existing.Properties["description"] = cand.description
			}
			continue
		}
		node := &common.Node{
			ID:    id,
			Type:  common.NormalizeType(cand.entityType),
			Label: cand.name,
			Properties: map[string]string{
				"description": cand.description,
				"document":    documentName,
			},
		}
		byID[id] = node
		order = append(order, id)

		// The model refers to entities by name in relationships, so keep a
		// name-keyed lookup as well. First type seen for a name wins.
		norm := common.NormalizeName(cand.name)
		if _, ok := idByName[norm]; !ok {
			idByName[norm] = id
		}
	}

	byKey := make(map[string]*common.Relationship)
	edgeOrder := make([]string, 0, len(edges))

	for _, cand := range edges {
		sourceID, ok := idByName[common.NormalizeName(cand.source)]
		if !ok {
			continue
		}
		targetID, ok := idByName[common.NormalizeName(cand.target)]
		if !ok {
			continue
		}
		if sourceID == targetID {
			continue
		}

		rel := common.Relationship{
			SourceID: sourceID,
			TargetID: targetID,
			Type:     sanitizeRelType(cand.edgeType),
			Properties: map[string]string{
				"description": cand.description,
			},
		}

		key := rel.Key()
		if existing, ok := byKey[key]; ok {
			if cand.description != "" {
				existing.Properties["description"] = cand.description
			}
			continue
		}
		byKey[key] = &rel
		edgeOrder = append(edgeOrder, key)
	}

	finalNodes := make([]common.Node, 0, len(order))
	for _, id := range order {
		finalNodes = append(finalNodes, *byID[id])
	}
	finalEdges := make([]common.Relationship, 0, len(edgeOrder))
	for _, key := range edgeOrder {
		finalEdges = append(finalEdges, *byKey[key])
	}

	return finalNodes, finalEdges
}
