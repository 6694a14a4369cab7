package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/project-synapse/synapse/pkg/ai"

	"github.com/openai/openai-go/v3"
)

// GenerateCompletion sends a single-turn prompt to the chat model and
// returns the generated completion as plain text.
func (c *GraphOpenAIClient) GenerateCompletion(
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

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}

// GenerateCompletionWithFormat sends a prompt to the chat model and
// unmarshals the response into out, using a JSON schema derived from out's
// type to enforce structure. Non-conforming output is an error for the
// caller to absorb or retry.
func (c *GraphOpenAIClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	schema := ai.GenerateSchema(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	options := ai.GenerateOptions{
		Model:       c.extractionModel,
		Temperature: 0.1,
	}
	for _, o := range opts {
		o(&options)
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+1)
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	msgs = append(msgs, openai.UserMessage(prompt))

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		return err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return ai.UnmarshalFlexible(message, out)
}

// GenerateChat sends a multi-turn chat conversation to the model and
// returns the assistant's reply as plain text.
func (c *GraphOpenAIClient) GenerateChat(
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

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+len(messages))
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	for _, message := range messages {
		switch message.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(message.Message))
		default:
			msgs = append(msgs, openai.UserMessage(message.Message))
		}
	}

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.Client.Chat.Completions.New(ctx, body)
	if err != nil {
		return "", err
	}

	c.modifyMetrics(ai.ModelMetrics{
		InputTokens:  int(response.Usage.PromptTokens),
		OutputTokens: int(response.Usage.CompletionTokens),
		TotalTokens:  int(response.Usage.TotalTokens),
		DurationMs:   time.Since(start).Milliseconds(),
	})

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices in response from model")
	}
	return response.Choices[0].Message.Content, nil
}

// GenerateChatStream sends a multi-turn chat conversation to the model and
// returns a channel streaming the assistant's reply incrementally.
//
// Fragments are emitted in generation order. The channel closes when the
// model signals completion or the context is canceled; an upstream failure
// mid-stream produces a single terminal "error" event before closing.
func (c *GraphOpenAIClient) GenerateChatStream(
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

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(options.SystemPrompts)+len(messages))
	for _, sp := range options.SystemPrompts {
		msgs = append(msgs, openai.SystemMessage(sp))
	}
	for _, message := range messages {
		switch message.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(message.Message))
		default:
			msgs = append(msgs, openai.UserMessage(message.Message))
		}
	}

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    msgs,
		Temperature: openai.Float(options.Temperature),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	start := time.Now()
	stream := c.Client.Chat.Completions.NewStreaming(ctx, body)
	contentChan := make(chan ai.StreamEvent, 10)

	go func() {
		defer close(contentChan)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}

			select {
			case contentChan <- ai.StreamEvent{Type: "content", Content: chunk.Choices[0].Delta.Content}:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case contentChan <- ai.StreamEvent{Type: "error", Content: err.Error()}:
			case <-ctx.Done():
			}
			return
		}

		c.modifyMetrics(ai.ModelMetrics{
			InputTokens:  int(acc.Usage.PromptTokens),
			OutputTokens: int(acc.Usage.CompletionTokens),
			TotalTokens:  int(acc.Usage.TotalTokens),
			DurationMs:   time.Since(start).Milliseconds(),
		})
	}()

	return contentChan, nil
}
