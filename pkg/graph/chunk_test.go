package graph

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitIntoSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "simple sentences",
			text: "First sentence. Second sentence! Third sentence?",
			want: []string{"First sentence.", "Second sentence!", "Third sentence?"},
		},
		{
			name: "soft wrapped paragraph",
			text: "A sentence that\nwraps over two lines.",
			want: []string{"A sentence that wraps over two lines."},
		},
		{
			name: "blank line ends sentence",
			text: "A heading without punctuation\n\nBody text follows.",
			want: []string{"A heading without punctuation", "Body text follows."},
		},
		{
			name: "numeric listing marker",
			text: "1. First item\n2. Second item",
			want: []string{"1. First item 2. Second item"},
		},
		{
			name: "trailing closers stay attached",
			text: `He said "stop." Then he left.`,
			want: []string{`He said "stop."`, "Then he left."},
		},
		{
			name: "ellipsis stays together",
			text: "Wait... there is more.",
			want: []string{"Wait...", "there is more."},
		},
		{
			name: "empty input",
			text: "   \n\n  ",
			want: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := splitIntoSentences(test.text)
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("splitIntoSentences() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("This is a filler sentence for the chunker. ", 40)

	chunks, err := chunkText(text, "o200k_base", 50)
	if err != nil {
		t.Fatalf("chunkText() error = %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("chunkText() produced %d chunks, want at least 2", len(chunks))
	}

	for i, c := range chunks {
		if c.index != i {
			t.Errorf("chunk %d has index %d", i, c.index)
		}
		if c.id == "" {
			t.Errorf("chunk %d has empty id", i)
		}
		if !strings.HasSuffix(c.text, ".") {
			t.Errorf("chunk %d ends mid-sentence: %q", i, c.text)
		}
	}
}

func TestChunkTextEmpty(t *testing.T) {
	chunks, err := chunkText("", "o200k_base", 50)
	if err != nil {
		t.Fatalf("chunkText() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("chunkText() = %d chunks, want 0", len(chunks))
	}
}

func TestChunkTextOversizedSentence(t *testing.T) {
	long := "word " + strings.Repeat("word ", 200) + "word."

	chunks, err := chunkText(long, "o200k_base", 50)
	if err != nil {
		t.Fatalf("chunkText() error = %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("chunkText() = %d chunks, want 1 for a single oversized sentence", len(chunks))
	}
}
