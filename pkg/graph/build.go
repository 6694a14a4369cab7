package graph

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/project-synapse/synapse/internal/util"
	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/logger"
	"github.com/project-synapse/synapse/pkg/store"
)

// BuildResult summarizes one ingestion run.
type BuildResult struct {
	ChunksProcessed      int `json:"chunks_processed"`
	NodesCreated         int `json:"nodes_created"`
	RelationshipsCreated int `json:"relationships_created"`
}

// BuildGraph runs the full ingestion pipeline for one document: the text
// is chunked, each chunk goes through entity extraction, the candidates
// are folded into canonical nodes and relationships, and the result is
// merged into the graph store.
//
// Chunks whose extraction fails after retries are skipped with a warning.
// BuildGraph returns ErrAllChunksFailed when not a single chunk produced
// a usable extraction.
func (g *GraphClient) BuildGraph(
	ctx context.Context,
	text string,
	documentName string,
	themeHint string,
	aiClient ai.GraphAIClient,
	storage store.GraphStorage,
) (BuildResult, error) {
	theme := ai.ThemeSchema(themeHint)

	chunks, err := chunkText(text, g.tokenEncoder, g.maxChunkTokens)
	if err != nil {
		return BuildResult{}, fmt.Errorf("error chunking document %s: %w", documentName, err)
	}
	if len(chunks) == 0 {
		return BuildResult{}, fmt.Errorf("document %s: %w", documentName, ErrEmptyDocument)
	}
	if len(chunks) > g.maxChunks {
		logger.Warn(
			"document exceeds chunk cap, truncating",
			"document", documentName,
			"chunks", len(chunks),
			"cap", g.maxChunks,
		)
		chunks = chunks[:g.maxChunks]
	}

	logger.Info(
		"starting graph extraction",
		"document", documentName,
		"theme", theme.Name,
		"chunks", len(chunks),
	)

	var (
		mu        sync.Mutex
		nodes     []candidateNode
		edges     []candidateEdge
		succeeded int
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelAiRequests)

	for _, c := range chunks {
		eg.Go(func() error {
			chunkNodes, chunkEdges, err := util.Retry2WithContext(
				egCtx,
				g.maxRetries,
				func(ctx context.Context) ([]candidateNode, []candidateEdge, error) {
					return extractFromChunk(ctx, c, documentName, theme, aiClient)
				},
			)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				logger.Warn(
					"skipping chunk after failed extraction",
					"document", documentName,
					"chunk", c.index,
					"error", err,
				)
				return nil
			}

			mu.Lock()
			nodes = append(nodes, chunkNodes...)
			edges = append(edges, chunkEdges...)
			succeeded++
			mu.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return BuildResult{}, fmt.Errorf("error extracting graph from document %s: %w", documentName, err)
	}
	if succeeded == 0 {
		return BuildResult{}, fmt.Errorf("document %s: %w", documentName, ErrAllChunksFailed)
	}

	canonicalNodes, canonicalRels := canonicalize(nodes, edges, documentName)

	createdNodes, createdRels, err := storage.MergeGraph(ctx, canonicalNodes, canonicalRels)
	if err != nil {
		return BuildResult{}, fmt.Errorf("error merging graph for document %s: %w", documentName, err)
	}

	logger.Info(
		"graph extraction finished",
		"document", documentName,
		"chunks", succeeded,
		"nodes_created", createdNodes,
		"relationships_created", createdRels,
	)

	return BuildResult{
		ChunksProcessed:      succeeded,
		NodesCreated:         createdNodes,
		RelationshipsCreated: createdRels,
	}, nil
}
