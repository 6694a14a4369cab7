package graph

import (
	"errors"
)

// ErrAllChunksFailed reports a document where no chunk produced a valid
// extraction. Individual chunk failures are absorbed; only a fully failed
// document surfaces to the caller.
var ErrAllChunksFailed = errors.New("extraction failed for every chunk of the document")

// ErrEmptyDocument reports an upload that decoded to no usable text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// GraphClient drives the document-to-graph pipeline: chunking, per-chunk
// entity extraction, canonicalization, and the merge into the graph store.
//
// A GraphClient should be created using NewGraphClient.
type GraphClient struct {
	tokenEncoder       string
	maxChunkTokens     int
	maxChunks          int
	parallelAiRequests int
	maxRetries         int
}

// NewGraphClientParams defines the configuration parameters for creating
// a new GraphClient.
//
// TokenEncoder names the tiktoken encoding used for chunk budgets.
// MaxChunkTokens bounds the size of one extraction prompt.
// MaxChunks caps how much of a single document is processed.
// ParallelAiRequests controls how many chunks are extracted concurrently.
type NewGraphClientParams struct {
	TokenEncoder       string
	MaxChunkTokens     int
	MaxChunks          int
	ParallelAiRequests int
	MaxRetries         int
}

// NewGraphClient creates and returns a new GraphClient configured with
// the provided parameters.
//
// Example:
//
//	client, err := graph.NewGraphClient(graph.NewGraphClientParams{
//		TokenEncoder:       "o200k_base",
//		MaxChunkTokens:     600,
//		ParallelAiRequests: 5,
//	})
func NewGraphClient(params NewGraphClientParams) (*GraphClient, error) {
	g := &GraphClient{
		tokenEncoder:       params.TokenEncoder,
		maxChunkTokens:     params.MaxChunkTokens,
		maxChunks:          params.MaxChunks,
		parallelAiRequests: params.ParallelAiRequests,
		maxRetries:         params.MaxRetries,
	}
	if g.tokenEncoder == "" {
		g.tokenEncoder = "o200k_base"
	}
	if g.maxChunkTokens <= 0 {
		g.maxChunkTokens = 600
	}
	if g.maxChunks <= 0 {
		g.maxChunks = 15
	}
	if g.parallelAiRequests <= 0 {
		g.parallelAiRequests = 5
	}
	if g.maxRetries <= 0 {
		g.maxRetries = 3
	}

	return g, nil
}
