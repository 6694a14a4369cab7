package graph

import (
	"context"

	"github.com/project-synapse/synapse/pkg/ai"
)

type candidateNode struct {
	name        string
	entityType  string
	description string
}

type candidateEdge struct {
	source      string
	target      string
	edgeType    string
	description string
}

type extractEntity struct {
	Name        string `json:"name" jsonschema_description:"Name of the entity"`
	Type        string `json:"type" jsonschema_description:"One of the provided entity types"`
	Description string `json:"description" jsonschema_description:"Brief factual description of the entity, under 15 words"`
}

type extractRelationship struct {
	Source      string `json:"source" jsonschema_description:"Name of the source entity, as listed in entities"`
	Target      string `json:"target" jsonschema_description:"Name of the target entity, as listed in entities"`
	Type        string `json:"type" jsonschema_description:"One of the provided relationship types"`
	Description string `json:"description" jsonschema_description:"Brief description of how the entities are related"`
}

type extractResponse struct {
	Entities      []extractEntity       `json:"entities" jsonschema_description:"Entities identified in the text chunk"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships identified in the text chunk"`
}

// extractFromChunk prompts the model with one chunk and parses its structured
// output into raw candidates. Names are not canonicalized here; identity
// resolution happens in the merge step.
func extractFromChunk(
	ctx context.Context,
	c chunk,
	documentName string,
	theme ai.Theme,
	client ai.GraphAIClient,
) ([]candidateNode, []candidateEdge, error) {
	systemPrompt := ai.ExtractPrompt(theme, documentName)

	var res extractResponse
	err := client.GenerateCompletionWithFormat(
		ctx,
		"extract_entities_and_relationships",
		"Extract entities and relationships from a provided document chunk.",
		c.text,
		&res,
		ai.WithSystemPrompts(systemPrompt),
	)
	if err != nil {
		return nil, nil, err
	}

	nodes := make([]candidateNode, 0, len(res.Entities))
	for _, entity := range res.Entities {
		if entity.Name == "" {
			continue
		}
		nodes = append(nodes, candidateNode{
			name:        entity.Name,
			entityType:  entity.Type,
			description: entity.Description,
		})
	}

	edges := make([]candidateEdge, 0, len(res.Relationships))
	for _, rel := range res.Relationships {
		if rel.Source == "" || rel.Target == "" {
			continue
		}
		edges = append(edges, candidateEdge{
			source:      rel.Source,
			target:      rel.Target,
			edgeType:    rel.Type,
			description: rel.Description,
		})
	}

	return nodes, edges, nil
}
