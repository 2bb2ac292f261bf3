// Package prompt builds the grounded prompt sent to the generation backend.
// Assembly is pure string concatenation: no retrieval, no network, and
// byte-identical output for identical input.
package prompt

import (
	"strings"

	"github.com/paperchat/paperchat/internal/domain"
)

const separator = "\n----------------\n"

// Turn is one prior conversation turn
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Assemble composes the prompt from the system instruction, the history
// window (oldest first), the retrieved passages (most similar first), and the
// raw user input, in that order.
func Assemble(systemInstruction string, history []Turn, passages []domain.Passage, userInput string) string {
	var b strings.Builder

	b.WriteString(systemInstruction)
	b.WriteString(separator)

	b.WriteString("\nPREVIOUS CONVERSATION:\n")
	for _, turn := range history {
		if turn.Role == domain.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString(separator)

	b.WriteString("\nCONTEXT:\n")
	for i, passage := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(passage.Text)
	}
	b.WriteString("\n\nUSER INPUT: ")
	b.WriteString(userInput)

	return b.String()
}
