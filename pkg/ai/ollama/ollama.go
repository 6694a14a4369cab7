package ollama

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/project-synapse/synapse/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// GraphOllamaClient implements ai.GraphAIClient against a locally-hosted
// Ollama server. A weighted semaphore caps concurrent requests so parallel
// chunk extraction does not overload the local model.
type GraphOllamaClient struct {
	chatModel       string
	extractionModel string

	reqLock *semaphore.Weighted

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *api.Client
}

// NewGraphOllamaClientParams contains configuration options for creating a
// new GraphOllamaClient.
type NewGraphOllamaClientParams struct {
	ChatModel       string
	ExtractionModel string

	BaseURL string

	MaxConcurrentRequests int64
}

// NewGraphOllamaClient creates a new client for the Ollama server at BaseURL.
func NewGraphOllamaClient(params NewGraphOllamaClientParams) (*GraphOllamaClient, error) {
	baseURL, err := url.Parse(params.BaseURL)
	if err != nil {
		return nil, err
	}

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	return &GraphOllamaClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,
		reqLock:         semaphore.NewWeighted(maxConcurrent),
		Client:          api.NewClient(baseURL, http.DefaultClient),
	}, nil
}

// ResetMetrics zeroes the accumulated model metrics.
func (c *GraphOllamaClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *GraphOllamaClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *GraphOllamaClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}
