package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/project-synapse/synapse/pkg/ai"
	"github.com/project-synapse/synapse/pkg/common"
	"github.com/project-synapse/synapse/pkg/store/memory"
)

// stubAIClient scripts the streaming fragments and records the system
// prompts it was called with.
type stubAIClient struct {
	fragments     []string
	streamErr     error
	systemPrompts []string
}

func (s *stubAIClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return strings.Join(s.fragments, ""), nil
}

func (s *stubAIClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	return nil
}

func (s *stubAIClient) GenerateChat(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (string, error) {
	return strings.Join(s.fragments, ""), nil
}

func (s *stubAIClient) GenerateChatStream(ctx context.Context, messages []ai.ChatMessage, opts ...ai.GenerateOption) (<-chan ai.StreamEvent, error) {
	options := ai.GenerateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	s.systemPrompts = options.SystemPrompts

	if s.streamErr != nil {
		return nil, s.streamErr
	}

	out := make(chan ai.StreamEvent)
	go func() {
		defer close(out)
		for _, f := range s.fragments {
			select {
			case out <- ai.StreamEvent{Type: "content", Content: f}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *stubAIClient) ResetMetrics() {}

func (s *stubAIClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func seededStore(t *testing.T) *memory.GraphStore {
	t.Helper()
	store := memory.New()

	nodes := []common.Node{
		{
			ID:         "PERSON:jane doe",
			Type:       "PERSON",
			Label:      "Jane Doe",
			Properties: map[string]string{"description": "A software engineer"},
		},
		{
			ID:         "ORGANIZATION:acme corp",
			Type:       "ORGANIZATION",
			Label:      "ACME Corp",
			Properties: map[string]string{"description": "An employer"},
		},
		{
			ID:         "SKILL:go",
			Type:       "SKILL",
			Label:      "Go",
			Properties: map[string]string{},
		},
	}
	rels := []common.Relationship{
		{
			SourceID:   "PERSON:jane doe",
			TargetID:   "ORGANIZATION:acme corp",
			Type:       "WORKED_AT",
			Properties: map[string]string{},
		},
	}
	if _, _, err := store.MergeGraph(context.Background(), nodes, rels); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return store
}

func TestQueryTerms(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []string
	}{
		{
			name:     "stopwords and short words dropped",
			question: "Who did Jane work for?",
			want:     []string{"jane", "work"},
		},
		{
			name:     "duplicates folded",
			question: "Jane, Jane and JANE",
			want:     []string{"jane"},
		},
		{
			name:     "only stopwords",
			question: "What is the...",
			want:     nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := queryTerms(test.question)
			if len(got) != len(test.want) {
				t.Fatalf("queryTerms(%q) = %v, want %v", test.question, got, test.want)
			}
			for i := range got {
				if got[i] != test.want[i] {
					t.Errorf("queryTerms(%q) = %v, want %v", test.question, got, test.want)
				}
			}
		})
	}
}

func TestRetrieveRendersStableContext(t *testing.T) {
	retriever := NewRetriever(NewRetrieverParams{Storage: seededStore(t)})

	first, err := retriever.Retrieve(context.Background(), "Where did Jane Doe work?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	second, err := retriever.Retrieve(context.Background(), "Where did Jane Doe work?")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}

	if first != second {
		t.Error("Retrieve() is not stable across identical calls")
	}
	if !strings.Contains(first, "Entity: Jane Doe (Type: PERSON)") {
		t.Errorf("context misses the seed entity:\n%s", first)
	}
	if !strings.Contains(first, "Entity: ACME Corp (Type: ORGANIZATION)") {
		t.Errorf("context misses the one hop neighbor:\n%s", first)
	}
	if !strings.Contains(first, "-> WORKED_AT -> ACME Corp (ORGANIZATION)") {
		t.Errorf("context misses the relationship line:\n%s", first)
	}
	if strings.Contains(first, "Entity: Go") {
		t.Errorf("context contains an unconnected entity:\n%s", first)
	}
}

func TestRetrieveEmptyOnNoMatch(t *testing.T) {
	retriever := NewRetriever(NewRetrieverParams{Storage: seededStore(t)})

	got, err := retriever.Retrieve(context.Background(), "Tell me about quantum physics")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != "" {
		t.Errorf("Retrieve() = %q, want empty context", got)
	}
}

func TestAnswerStreamGrounded(t *testing.T) {
	aiClient := &stubAIClient{fragments: []string{"Hel", "lo", " world"}}
	engine := NewChatEngine(NewChatEngineParams{
		Retriever: NewRetriever(NewRetrieverParams{Storage: seededStore(t)}),
		AIClient:  aiClient,
	})

	stream, err := engine.AnswerStream(context.Background(), []ai.ChatMessage{
		{Role: "user", Message: "Where did Jane Doe work?"},
	})
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}

	var steps []string
	var answer strings.Builder
	for event := range stream {
		switch event.Type {
		case "step":
			steps = append(steps, event.Step)
		case "content":
			answer.WriteString(event.Content)
		case "error":
			t.Fatalf("unexpected error event: %s", event.Content)
		}
	}

	if answer.String() != "Hello world" {
		t.Errorf("answer = %q, want %q", answer.String(), "Hello world")
	}
	if len(steps) != 2 {
		t.Fatalf("got %d step events, want 2: %v", len(steps), steps)
	}
	if len(aiClient.systemPrompts) != 1 || !strings.Contains(aiClient.systemPrompts[0], "Jane Doe") {
		t.Error("system prompt does not carry the graph context")
	}
}

func TestAnswerStreamNoContext(t *testing.T) {
	aiClient := &stubAIClient{fragments: []string{"No data."}}
	engine := NewChatEngine(NewChatEngineParams{
		Retriever: NewRetriever(NewRetrieverParams{Storage: memory.New()}),
		AIClient:  aiClient,
	})

	stream, err := engine.AnswerStream(context.Background(), []ai.ChatMessage{
		{Role: "user", Message: "Where did Jane Doe work?"},
	})
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}
	for range stream {
	}

	if len(aiClient.systemPrompts) != 1 {
		t.Fatal("model was not called with a system prompt")
	}
	if !strings.Contains(aiClient.systemPrompts[0], "No knowledge graph context was found") {
		t.Errorf("empty retrieval did not use the no data prompt: %q", aiClient.systemPrompts[0])
	}
}

func TestAnswerStreamModelError(t *testing.T) {
	aiClient := &stubAIClient{streamErr: errors.New("model offline")}
	engine := NewChatEngine(NewChatEngineParams{
		Retriever: NewRetriever(NewRetrieverParams{Storage: seededStore(t)}),
		AIClient:  aiClient,
	})

	stream, err := engine.AnswerStream(context.Background(), []ai.ChatMessage{
		{Role: "user", Message: "Where did Jane Doe work?"},
	})
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}

	var last ai.StreamEvent
	for event := range stream {
		last = event
	}
	if last.Type != "error" {
		t.Errorf("last event type = %q, want error", last.Type)
	}
}

func TestAnswerStreamCancellation(t *testing.T) {
	fragments := make([]string, 1000)
	for i := range fragments {
		fragments[i] = "x"
	}
	aiClient := &stubAIClient{fragments: fragments}
	engine := NewChatEngine(NewChatEngineParams{
		Retriever: NewRetriever(NewRetrieverParams{Storage: seededStore(t)}),
		AIClient:  aiClient,
	})

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := engine.AnswerStream(ctx, []ai.ChatMessage{
		{Role: "user", Message: "Where did Jane Doe work?"},
	})
	if err != nil {
		t.Fatalf("AnswerStream() error = %v", err)
	}

	received := 0
	for event := range stream {
		if event.Type == "content" {
			received++
			if received == 3 {
				cancel()
			}
		}
	}
	cancel()

	if received >= len(fragments) {
		t.Error("stream ran to completion despite cancellation")
	}
}

func TestAnswerStreamRequiresMessages(t *testing.T) {
	engine := NewChatEngine(NewChatEngineParams{
		Retriever: NewRetriever(NewRetrieverParams{Storage: memory.New()}),
		AIClient:  &stubAIClient{},
	})

	if _, err := engine.AnswerStream(context.Background(), nil); err == nil {
		t.Error("AnswerStream() accepted an empty message list")
	}
}
