package common

import (
	"fmt"
	"strings"
)

// Node represents a canonical entity in the knowledge graph. A node can be a
// person, organization, skill, or any other concept extracted from a document.
//
// The ID is derived deterministically from the type and the normalized label,
// so repeated extraction of the same entity resolves to the same node.
type Node struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Relationship represents a directed, typed edge between two nodes.
//
// A relationship is uniquely identified by (SourceID, TargetID, Type);
// merging the same fact twice never produces a duplicate edge.
type Relationship struct {
	SourceID   string            `json:"source"`
	TargetID   string            `json:"target"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// GraphSnapshot is a read-only view of the stored graph, shaped for the
// force-graph visualization on the frontend.
type GraphSnapshot struct {
	Nodes []Node         `json:"nodes"`
	Links []Relationship `json:"links"`
}

// Key returns the identity of a relationship within the graph.
func (r Relationship) Key() string {
	return r.SourceID + "|" + r.Type + "|" + r.TargetID
}

// NormalizeName lowercases a surface form and collapses internal whitespace.
// Two mentions that normalize to the same string are the same entity.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeType maps an entity or relationship type to the controlled
// vocabulary form: upper case, single underscores instead of spaces.
func NormalizeType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.Join(strings.Fields(t), "_")
	return strings.ToUpper(t)
}

// NodeID derives the stable identifier for an entity from its type and
// surface name. The derivation is the upsert key for all graph writes.
func NodeID(entityType string, name string) string {
	return fmt.Sprintf("%s:%s", NormalizeType(entityType), NormalizeName(name))
}
