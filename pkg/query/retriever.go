// Package query implements subgraph retrieval and the grounded chat engine
// on top of it.
package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/project-synapse/synapse/pkg/common"
	"github.com/project-synapse/synapse/pkg/store"
)

// Words too common to seed a graph search.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"what": true, "who": true, "which": true, "where": true, "when": true,
	"how": true, "why": true, "does": true, "did": true, "has": true,
	"have": true, "can": true, "you": true, "about": true, "tell": true,
	"with": true, "this": true, "that": true, "his": true, "her": true,
	"their": true, "there": true, "from": true, "into": true, "list": true,
	"all": true, "any": true, "know": true, "show": true, "give": true,
}

// Retriever finds the subgraph relevant to a question: lexical seed search
// over node labels and descriptions, then a bounded hop expansion.
//
// A Retriever should be created using NewRetriever.
type Retriever struct {
	storage  store.GraphStorage
	hops     int
	maxNodes int
}

// NewRetrieverParams defines the configuration parameters for a Retriever.
type NewRetrieverParams struct {
	Storage  store.GraphStorage
	Hops     int
	MaxNodes int
}

// NewRetriever creates and returns a new Retriever.
func NewRetriever(params NewRetrieverParams) *Retriever {
	r := &Retriever{
		storage:  params.Storage,
		hops:     params.Hops,
		maxNodes: params.MaxNodes,
	}
	if r.hops <= 0 {
		r.hops = 1
	}
	if r.maxNodes <= 0 {
		r.maxNodes = 25
	}
	return r
}

// Retrieve returns the serialized subgraph context for the question, or an
// empty string when no seed node matches. The serialization is stable for a
// given graph state so answers stay reproducible.
func (r *Retriever) Retrieve(ctx context.Context, question string) (string, error) {
	terms := queryTerms(question)
	if len(terms) == 0 {
		return "", nil
	}

	seeds, err := r.storage.SearchNodes(ctx, terms, r.maxNodes)
	if err != nil {
		return "", fmt.Errorf("error searching seed nodes: %w", err)
	}
	if len(seeds) == 0 {
		return "", nil
	}

	seedIDs := make([]string, 0, len(seeds))
	for _, n := range seeds {
		seedIDs = append(seedIDs, n.ID)
	}

	nodes, rels, err := r.storage.Neighborhood(ctx, seedIDs, r.hops, r.maxNodes)
	if err != nil {
		return "", fmt.Errorf("error expanding neighborhood: %w", err)
	}

	return renderContext(nodes, rels), nil
}

// queryTerms lowercases the question and keeps the distinct words long
// enough and rare enough to be useful search seeds.
func queryTerms(question string) []string {
	fields := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	seen := make(map[string]bool)
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}

// renderContext serializes a subgraph into the textual form handed to the
// model. Nodes are ordered by id and each lists its outgoing and incoming
// relationships.
func renderContext(nodes []common.Node, rels []common.Relationship) string {
	if len(nodes) == 0 {
		return ""
	}

	sorted := append([]common.Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	labels := make(map[string]string, len(sorted))
	types := make(map[string]string, len(sorted))
	for _, n := range sorted {
		labels[n.ID] = n.Label
		types[n.ID] = n.Type
	}

	sortedRels := append([]common.Relationship(nil), rels...)
	sort.Slice(sortedRels, func(i, j int) bool { return sortedRels[i].Key() < sortedRels[j].Key() })

	var b strings.Builder
	for _, n := range sorted {
		fmt.Fprintf(&b, "Entity: %s (Type: %s)\n", n.Label, n.Type)
		if desc := n.Properties["description"]; desc != "" {
			fmt.Fprintf(&b, "  Description: %s\n", desc)
		}

		var lines []string
		for _, rel := range sortedRels {
			switch n.ID {
			case rel.SourceID:
				lines = append(lines, fmt.Sprintf("  -> %s -> %s (%s)", rel.Type, labels[rel.TargetID], types[rel.TargetID]))
			case rel.TargetID:
				lines = append(lines, fmt.Sprintf("  <- %s <- %s (%s)", rel.Type, labels[rel.SourceID], types[rel.SourceID]))
			}
		}
		if len(lines) > 0 {
			b.WriteString("  Relationships:\n")
			for _, line := range lines {
				b.WriteString("  " + line + "\n")
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
