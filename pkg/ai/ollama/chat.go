package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/project-synapse/synapse/pkg/ai"

	"github.com/ollama/ollama/api"
)

func (c *GraphOllamaClient) buildMessages(options ai.GenerateOptions, messages []ai.ChatMessage) []api.Message {
	msgs := make([]api.Message, 0, len(options.SystemPrompts)+len(messages))
	for _, sys := range options.SystemPrompts {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, api.Message{Role: role, Content: m.Message})
	}
	return msgs
}

func (c *GraphOllamaClient) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.reqLock.Release(1)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  final.Metrics.PromptEvalCount,
		OutputTokens: final.Metrics.EvalCount,
		TotalTokens:  final.Metrics.PromptEvalCount + final.Metrics.EvalCount,
		DurationMs:   final.Metrics.TotalDuration.Milliseconds(),
	})

	return final.Message.Content, nil
}

// GenerateCompletion sends a single-turn prompt and returns assistant text.
func (c *GraphOllamaClient) GenerateCompletion(
	ctx context.Context,
	prompt string,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.3,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: c.buildMessages(options, []ai.ChatMessage{{Role: "user", Message: prompt}}),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	return c.chat(ctx, req)
}

// GenerateCompletionWithFormat enforces a JSON schema derived from out's type
// and unmarshals the response into out. The name and description parameters
// exist for interface parity; Ollama's format field carries the schema alone.
func (c *GraphOllamaClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	if out == nil {
		return errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("out must be a non-nil pointer")
	}

	formatBytes, err := json.Marshal(ai.GenerateSchema(out))
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: c.buildMessages(options, []ai.ChatMessage{{Role: "user", Message: prompt}}),
		Stream:   &stream,
		Format:   json.RawMessage(formatBytes),
		Options:  map[string]any{"temperature": options.Temperature},
	}

	content, err := c.chat(ctx, req)
	if err != nil {
		return err
	}
	return ai.UnmarshalFlexible(content, out)
}

// GenerateChat sends a multi-turn conversation and returns assistant text.
func (c *GraphOllamaClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (string, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: c.buildMessages(options, messages),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	return c.chat(ctx, req)
}

// GenerateChatStream streams the assistant reply incrementally. The channel
// closes when generation completes or the context is canceled; an upstream
// failure mid-stream yields a single terminal "error" event.
func (c *GraphOllamaClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := ai.GenerateOptions{
		Model:       c.chatModel,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	stream := true
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: c.buildMessages(options, messages),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	out := make(chan ai.StreamEvent, 16)

	go func() {
		defer close(out)
		defer c.reqLock.Release(1)

		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			if s := cr.Message.Content; s != "" {
				select {
				case out <- ai.StreamEvent{Type: "content", Content: s}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if cr.Done {
				c.modifyMetrics(ai.ModelMetrics{
					InputTokens:  cr.Metrics.PromptEvalCount,
					OutputTokens: cr.Metrics.EvalCount,
					TotalTokens:  cr.Metrics.PromptEvalCount + cr.Metrics.EvalCount,
					DurationMs:   cr.TotalDuration.Milliseconds(),
				})
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			select {
			case out <- ai.StreamEvent{Type: "error", Content: err.Error()}:
			case <-ctx.Done():
			}
		}
	}()

	return out, nil
}
