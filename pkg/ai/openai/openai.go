package openai

import (
	"sync"

	"github.com/project-synapse/synapse/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// GraphOpenAIClient implements ai.GraphAIClient against any OpenAI-compatible
// chat completion endpoint.
//
// A GraphOpenAIClient should be created using NewGraphOpenAIClient.
type GraphOpenAIClient struct {
	chatModel       string
	extractionModel string

	baseURL string
	apiKey  string

	metricsLock sync.Mutex
	metrics     ai.ModelMetrics

	Client *openai.Client
}

// NewGraphOpenAIClientParams defines the configuration parameters for creating
// a new GraphOpenAIClient.
//
// ChatModel is used for grounded answers; ExtractionModel for structured
// entity extraction. BaseURL may point at any OpenAI-compatible server;
// leave it empty for the public API.
type NewGraphOpenAIClientParams struct {
	ChatModel       string
	ExtractionModel string

	BaseURL string
	APIKey  string
}

// NewGraphOpenAIClient creates and returns a new GraphOpenAIClient configured
// with the provided parameters.
//
// Example:
//
//	client := openai.NewGraphOpenAIClient(openai.NewGraphOpenAIClientParams{
//		ChatModel:       "gpt-4o-mini",
//		ExtractionModel: "gpt-4o-mini",
//		APIKey:          os.Getenv("OPENAI_API_KEY"),
//	})
func NewGraphOpenAIClient(params NewGraphOpenAIClientParams) *GraphOpenAIClient {
	options := []option.RequestOption{
		option.WithAPIKey(params.APIKey),
	}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	client := openai.NewClient(options...)

	return &GraphOpenAIClient{
		chatModel:       params.ChatModel,
		extractionModel: params.ExtractionModel,
		baseURL:         params.BaseURL,
		apiKey:          params.APIKey,
		Client:          &client,
	}
}

// ResetMetrics zeroes the accumulated model metrics.
func (c *GraphOpenAIClient) ResetMetrics() {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics = ai.ModelMetrics{}
}

// GetMetrics returns the metrics accumulated since the last reset.
func (c *GraphOpenAIClient) GetMetrics() ai.ModelMetrics {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	return c.metrics
}

func (c *GraphOpenAIClient) modifyMetrics(m ai.ModelMetrics) {
	c.metricsLock.Lock()
	defer c.metricsLock.Unlock()
	c.metrics.InputTokens += m.InputTokens
	c.metrics.OutputTokens += m.OutputTokens
	c.metrics.TotalTokens += m.TotalTokens
	c.metrics.DurationMs += m.DurationMs
}
