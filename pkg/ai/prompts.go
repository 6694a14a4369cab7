package ai

import (
	"fmt"
	"strings"
)

const extractPromptTemplate = `
# Task Context
You are a knowledge graph extraction expert. Extract all meaningful entities and relationships from a chunk of a "%s" document (source file: %s).

# Detailed Task Description & Rules
1. ONLY use these entity types: %s
2. ONLY use these relationship types: %s
3. If extracting a person from pronouns ("He", "She", "The candidate", "I"), infer their full name from the document context if known.
4. CANONICAL NAMES: standardize technology and concept names (e.g. "AWS" instead of "Amazon Web Services", "React" instead of "React.js", "PostgreSQL" instead of "Postgres").
5. Merge duplicate entities by using strictly consistent naming.
6. Extract at least 5-8 distinct, meaningful entities per chunk if available.
7. Keep descriptions concise (under 15 words) and factual.
8. Every relationship must connect two entities identified in rule 1.%s
`

const cvExtraInstructions = `
9. CV SPECIFIC: extract highly granular skills and technologies. Instead of generic terms like "Data Science", extract "Python", "Pandas", "React", "Docker" as individual SKILL or TOOL entities.
10. CV SPECIFIC: always link the main PERSON directly to their skills using HAS_SKILL or USES_TOOL.
11. CV SPECIFIC: capture all universities and companies as UNIVERSITY and COMPANY, linked to the PERSON via STUDIED_AT and WORKED_AT.`

// ExtractPrompt builds the system prompt for entity extraction, biased
// by the theme of the uploaded document.
func ExtractPrompt(theme Theme, documentName string) string {
	extra := ""
	if theme.Name == ThemeCV {
		extra = cvExtraInstructions
	}
	return fmt.Sprintf(
		extractPromptTemplate,
		theme.Name,
		documentName,
		strings.Join(theme.Entities, ", "),
		strings.Join(theme.Relationships, ", "),
		extra,
	)
}

// QueryPrompt is the system prompt for grounded answers. The placeholder
// receives the serialized subgraph context.
const QueryPrompt = `
# Task Context
You are a helpful AI assistant for a knowledge graph explorer.
You answer questions based ONLY on the provided knowledge graph context.

# Background Data
Knowledge Graph Context:
%s

# Detailed Task Description & Rules
- Ground your answer in the provided entities and relationships.
- Reference specific entities when relevant.
- Be concise but thorough.
- If information is not in the context, clearly state that.
`

// NoDataPrompt is the system prompt used when retrieval produced no
// context. The model is steered to acknowledge the gap instead of
// fabricating graph content.
const NoDataPrompt = `
# Task Context
You are a helpful AI assistant for a knowledge graph explorer.
No knowledge graph context was found for the user's question.

# Detailed Task Description & Rules
- Tell the user that the knowledge graph contains no information relevant to their question.
- Do NOT invent entities, relationships, or facts.
- Suggest uploading a document or rephrasing the question.
- Keep the answer to two or three sentences.
`
