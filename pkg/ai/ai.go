package ai

import (
	"context"
)

// ChatMessage represents a single message in a chat conversation.
//
// Role must be one of:
//   - "user"      - a user-provided message
//   - "assistant" - a message from the AI assistant
type ChatMessage struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// GenerateOptions holds configuration for AI generation requests.
type GenerateOptions struct {
	Model         string   // Model identifier to use for generation
	SystemPrompts []string // System prompts prepended to the request
	Temperature   float64  // Sampling temperature (0.0-2.0)
}

// ModelMetrics contains accumulated performance metrics from AI model calls.
type ModelMetrics struct {
	InputTokens  int   `json:"input_tokens"`
	OutputTokens int   `json:"output_tokens"`
	TotalTokens  int   `json:"total_tokens"`
	DurationMs   int64 `json:"duration_ms"`
}

// StreamEvent represents an event in a streaming response.
//
// Type is one of:
//   - "step"    - a pipeline progress marker (Step names the stage)
//   - "content" - a text fragment of the generated answer
//   - "error"   - a terminal failure; the stream closes after this event
type StreamEvent struct {
	Type    string
	Step    string
	Content string
}

// GenerateOption is a functional option for configuring AI generation requests.
type GenerateOption func(*GenerateOptions)

// WithModel returns a GenerateOption that sets the model to use for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts returns a GenerateOption that sets the system prompts
// to prepend to the generation request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature returns a GenerateOption that sets the sampling temperature.
// Higher values (e.g., 1.0) produce more random outputs, while lower values
// (e.g., 0.2) make outputs more focused and deterministic.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// GraphAIClient defines the interface for AI operations used in graph
// construction and grounded chat. Implementations handle plain completions,
// schema-constrained structured output, and token streaming.
type GraphAIClient interface {
	GenerateCompletion(
		ctx context.Context,
		prompt string,
		opts ...GenerateOption,
	) (string, error)
	GenerateCompletionWithFormat(
		ctx context.Context,
		name string,
		description string,
		prompt string,
		out any,
		opts ...GenerateOption,
	) error

	GenerateChat(
		ctx context.Context,
		messages []ChatMessage,
		opts ...GenerateOption,
	) (string, error)
	GenerateChatStream(
		ctx context.Context,
		messages []ChatMessage,
		opts ...GenerateOption,
	) (<-chan StreamEvent, error)

	ResetMetrics()
	GetMetrics() ModelMetrics
}
