package graph

import (
	"strings"
	"unicode"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"
)

type chunk struct {
	id    string
	index int
	text  string
}

// chunkText splits document text into token-bounded chunks. Sentences are
// the packing unit, so a chunk never ends mid-sentence; a single sentence
// over the budget becomes its own chunk.
func chunkText(text string, encoder string, maxTokens int) ([]chunk, error) {
	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, err
	}

	sentences := splitIntoSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	tokenCounts := make([]int, len(sentences))
	for i, s := range sentences {
		tokenCounts[i] = len(enc.Encode(s, nil, nil))
	}

	var chunks []chunk
	var current []string
	currentTokens := 0

	flush := func() error {
		if len(current) == 0 {
			return nil
		}
		id, err := gonanoid.New()
		if err != nil {
			return err
		}
		chunks = append(chunks, chunk{
			id:    id,
			index: len(chunks),
			text:  strings.Join(current, " "),
		})
		current = nil
		currentTokens = 0
		return nil
	}

	for i, s := range sentences {
		if currentTokens+tokenCounts[i] > maxTokens && len(current) > 0 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		current = append(current, s)
		currentTokens += tokenCounts[i]
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return chunks, nil
}

// splitIntoSentences breaks text into sentences. Blank lines always end the
// current sentence; single newlines inside a paragraph are treated as soft
// wraps. Numeric listings ("1. First item") do not end a sentence.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}

		for _, sentence := range splitLineIntoSentences(trimmed) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(sentence)

			switch sentence[len(sentence)-1] {
			case '.', '!', '?':
				flush()
			}
		}
	}
	flush()

	return sentences
}

func splitLineIntoSentences(line string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(line); i++ {
		current.WriteByte(line[i])

		if line[i] != '.' && line[i] != '!' && line[i] != '?' {
			continue
		}

		// "1. First item" is a listing marker, not a sentence end.
		if i > 0 && line[i] == '.' && unicode.IsDigit(rune(line[i-1])) &&
			i+1 < len(line) && line[i+1] == ' ' {
			continue
		}

		j := i + 1
		for j < len(line) && (line[j] == '.' || line[j] == '!' || line[j] == '?') {
			current.WriteByte(line[j])
			j++
		}
		for j < len(line) && (line[j] == '"' || line[j] == '\'' || line[j] == ')' ||
			line[j] == ']' || line[j] == '}') {
			current.WriteByte(line[j])
			j++
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
		i = j - 1
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
