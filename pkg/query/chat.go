package query

import (
	"context"
	"fmt"

	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/logger"
)

// ChatEngine answers questions grounded in the graph. It retrieves the
// relevant subgraph, picks the matching system prompt and streams the model
// response through.
//
// A ChatEngine should be created using NewChatEngine.
type ChatEngine struct {
	retriever *Retriever
	aiClient  ai.GraphAIClient
}

// NewChatEngineParams defines the configuration parameters for a ChatEngine.
type NewChatEngineParams struct {
	Retriever *Retriever
	AIClient  ai.GraphAIClient
}

// NewChatEngine creates and returns a new ChatEngine.
func NewChatEngine(params NewChatEngineParams) *ChatEngine {
	return &ChatEngine{
		retriever: params.Retriever,
		aiClient:  params.AIClient,
	}
}

// AnswerStream answers the question in the last user message as a stream of
// events: step markers while retrieval runs, then content fragments of the
// answer. Earlier messages are passed through as conversation history. When
// retrieval finds nothing, the model is instructed to say so instead of
// inventing graph content.
func (e *ChatEngine) AnswerStream(
	ctx context.Context,
	messages []ai.ChatMessage,
) (<-chan ai.StreamEvent, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat requires at least one message")
	}
	question := messages[len(messages)-1].Message

	out := make(chan ai.StreamEvent)

	go func() {
		defer close(out)

		if !emit(ctx, out, ai.StreamEvent{Type: "step", Step: "Searching knowledge graph"}) {
			return
		}

		graphContext, err := e.retriever.Retrieve(ctx, question)
		if err != nil {
			logger.Error("graph retrieval failed", "error", err)
			emit(ctx, out, ai.StreamEvent{Type: "error", Content: "The knowledge graph could not be queried."})
			return
		}

		systemPrompt := ai.NoDataPrompt
		step := "No graph context found, answering directly"
		if graphContext != "" {
			systemPrompt = fmt.Sprintf(ai.QueryPrompt, graphContext)
			step = "Generating grounded answer"
		}
		if !emit(ctx, out, ai.StreamEvent{Type: "step", Step: step}) {
			return
		}

		stream, err := e.aiClient.GenerateChatStream(
			ctx,
			messages,
			ai.WithSystemPrompts(systemPrompt),
		)
		if err != nil {
			logger.Error("chat stream failed to start", "error", err)
			emit(ctx, out, ai.StreamEvent{Type: "error", Content: "The language model is unavailable."})
			return
		}

		for event := range stream {
			if !emit(ctx, out, event) {
				return
			}
		}
	}()

	return out, nil
}

// emit forwards one event unless the context is already canceled. It reports
// whether streaming should continue.
func emit(ctx context.Context, out chan<- ai.StreamEvent, event ai.StreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
