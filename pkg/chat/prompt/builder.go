package prompt

import (
	"strings"

	"rag-gateway-be/pkg/chat/session"
	"rag-gateway-be/pkg/llm"
	"rag-gateway-be/pkg/retrieval"
)

const ragInstruction = "You are a helpful assistant. Try to use the information from the documents below together with your knowledge to answer the question. Do not try to combine all documents — only use the ones that are clearly relevant to the question."

// BuildPlain maps a transcript verbatim into the model-input message list.
// Order is load-bearing: it is the conversation replayed to the backend.
func BuildPlain(transcript []session.Turn) []llm.Message {
	messages := make([]llm.Message, len(transcript))
	for i, turn := range transcript {
		messages[i] = llm.Message{
			Role:    turn.Role,
			Content: turn.Content,
		}
	}
	return messages
}

// BuildRAG synthesizes the single system message of a grounded prompt: the
// instruction, the snippet texts as a bullet list in retrieval order, and
// the query restated. Prior transcript turns are deliberately not replayed;
// the system message already carries the question, and retrieved context is
// query-specific.
//
// With zero snippets the bullet list is empty but the template is still
// emitted; whether to answer without grounding is the backend's call.
func BuildRAG(query string, snippets []retrieval.Snippet) []llm.Message {
	var b strings.Builder

	b.WriteString(ragInstruction)
	b.WriteString("\n\n### Documents:\n")
	for i, s := range snippets {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(s.Text)
	}
	b.WriteString("\n\n### Question:\n")
	b.WriteString(query)
	b.WriteString("\n\n### Answer:")

	return []llm.Message{
		{Role: session.RoleSystem, Content: b.String()},
	}
}
