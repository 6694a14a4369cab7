package ai

import (
	"strings"
	"testing"
)

type testPayload struct {
	Entities []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"entities"`
}

func TestUnmarshalFlexible(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{
			name:    "plain json",
			input:   `{"entities":[{"name":"Ada","type":"PERSON"}]}`,
			wantLen: 1,
		},
		{
			name:    "markdown fenced",
			input:   "```json\n{\"entities\":[{\"name\":\"Ada\",\"type\":\"PERSON\"}]}\n```",
			wantLen: 1,
		},
		{
			name:    "double encoded",
			input:   `"{\"entities\":[{\"name\":\"Ada\",\"type\":\"PERSON\"}]}"`,
			wantLen: 1,
		},
		{
			name:    "malformed repaired",
			input:   `{entities: [{name: "Ada", type: "PERSON"}]}`,
			wantLen: 1,
		},
		{
			name:    "trailing comma repaired",
			input:   `{"entities":[{"name":"Ada","type":"PERSON"},]}`,
			wantLen: 1,
		},
		{
			name:    "prose is rejected",
			input:   "I could not find any entities in this text.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out testPayload
			err := UnmarshalFlexible(tt.input, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(out.Entities) != tt.wantLen {
				t.Errorf("got %d entities, want %d", len(out.Entities), tt.wantLen)
			}
		})
	}
}

func TestThemeSchema(t *testing.T) {
	cv := ThemeSchema(ThemeCV)
	if cv.Name != ThemeCV {
		t.Errorf("got theme %q, want %q", cv.Name, ThemeCV)
	}

	unknown := ThemeSchema("Shopping List")
	if unknown.Name != ThemeGeneric {
		t.Errorf("unknown hint should fall back to generic, got %q", unknown.Name)
	}

	if len(cv.Entities) == 0 || len(cv.Relationships) == 0 {
		t.Error("theme schema must enumerate entity and relationship types")
	}
}

func TestExtractPrompt(t *testing.T) {
	cv := ExtractPrompt(ThemeSchema(ThemeCV), "resume.pdf")
	if !strings.Contains(cv, "resume.pdf") {
		t.Error("prompt should name the source document")
	}
	if !strings.Contains(cv, "HAS_SKILL") {
		t.Error("prompt should enumerate the theme relationship types")
	}
	if !strings.Contains(cv, "CV SPECIFIC") {
		t.Error("CV theme should carry the CV-specific instructions")
	}

	generic := ExtractPrompt(ThemeSchema(ThemeGeneric), "notes.txt")
	if strings.Contains(generic, "CV SPECIFIC") {
		t.Error("generic theme must not carry CV-specific instructions")
	}
}
