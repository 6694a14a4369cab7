package graph

import (
	"testing"
)

func TestSanitizeRelType(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already canonical", in: "WORKED_AT", want: "WORKED_AT"},
		{name: "lowercase with spaces", in: "worked at", want: "WORKED_AT"},
		{name: "stray punctuation", in: "uses (tool)", want: "USES_TOOL"},
		{name: "digits survive", in: "version 2", want: "VERSION_2"},
		{name: "nothing usable", in: "!!!", want: "RELATED_TO"},
		{name: "empty", in: "", want: "RELATED_TO"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := sanitizeRelType(test.in); got != test.want {
				t.Errorf("sanitizeRelType(%q) = %q, want %q", test.in, got, test.want)
			}
		})
	}
}

func TestCanonicalizeFoldsDuplicateNodes(t *testing.T) {
	nodes := []candidateNode{
		{name: "Jane Doe", entityType: "Person", description: "A person"},
		{name: "jane  doe", entityType: "person", description: "A software engineer"},
		{name: "Jane Doe", entityType: "Person", description: ""},
		{name: "ACME Corp", entityType: "Organization", description: "An employer"},
	}

	gotNodes, _ := canonicalize(nodes, nil, "cv.pdf")

	if len(gotNodes) != 2 {
		t.Fatalf("canonicalize() = %d nodes, want 2", len(gotNodes))
	}
	jane := gotNodes[0]
	if jane.ID != "PERSON:jane doe" {
		t.Errorf("node id = %q, want %q", jane.ID, "PERSON:jane doe")
	}
	if jane.Type != "PERSON" {
		t.Errorf("node type = %q, want PERSON", jane.Type)
	}
	if jane.Label != "Jane Doe" {
		t.Errorf("node label = %q, want first seen spelling", jane.Label)
	}
	if jane.Properties["description"] != "A software engineer" {
		t.Errorf("description = %q, want the last non-empty one", jane.Properties["description"])
	}
	if jane.Properties["document"] != "cv.pdf" {
		t.Errorf("document property = %q, want cv.pdf", jane.Properties["document"])
	}
}

func TestCanonicalizeResolvesEdgesByName(t *testing.T) {
	nodes := []candidateNode{
		{name: "Jane Doe", entityType: "Person"},
		{name: "ACME Corp", entityType: "Organization"},
	}
	edges := []candidateEdge{
		{source: "jane doe", target: "Acme  Corp", edgeType: "worked at", description: "as engineer"},
		{source: "Jane Doe", target: "ACME Corp", edgeType: "WORKED_AT", description: "since 2020"},
		{source: "Jane Doe", target: "ACME Corp", edgeType: "WORKED_AT"},
		{source: "Jane Doe", target: "Unknown Entity", edgeType: "KNOWS"},
		{source: "Jane Doe", target: "Jane Doe", edgeType: "KNOWS"},
	}

	_, gotEdges := canonicalize(nodes, edges, "cv.pdf")

	if len(gotEdges) != 1 {
		t.Fatalf("canonicalize() = %d edges, want 1", len(gotEdges))
	}
	edge := gotEdges[0]
	if edge.SourceID != "PERSON:jane doe" || edge.TargetID != "ORGANIZATION:acme corp" {
		t.Errorf("edge endpoints = %q -> %q", edge.SourceID, edge.TargetID)
	}
	if edge.Type != "WORKED_AT" {
		t.Errorf("edge type = %q, want WORKED_AT", edge.Type)
	}
	if edge.Properties["description"] != "since 2020" {
		t.Errorf("edge description = %q, want the last non-empty one", edge.Properties["description"])
	}
}

func TestCanonicalizeDeterministicOrder(t *testing.T) {
	nodes := []candidateNode{
		{name: "B", entityType: "Skill"},
		{name: "A", entityType: "Skill"},
		{name: "B", entityType: "Skill"},
	}

	gotNodes, _ := canonicalize(nodes, nil, "doc.txt")

	if len(gotNodes) != 2 {
		t.Fatalf("canonicalize() = %d nodes, want 2", len(gotNodes))
	}
	if gotNodes[0].Label != "B" || gotNodes[1].Label != "A" {
		t.Errorf("node order = [%s %s], want first-seen order [B A]", gotNodes[0].Label, gotNodes[1].Label)
	}
}
