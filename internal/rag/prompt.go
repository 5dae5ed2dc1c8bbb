package rag

import (
	"fmt"
	"strings"

	"support-chat-service/internal/models"
)

const personaPrompt = `You are a helpful, friendly, and professional AI customer support assistant.

Your key behaviors:
- Be concise but thorough in your responses
- If you don't know something, admit it and offer to connect with a human agent
- Always be polite and empathetic
- Use clear, simple language
- Format responses with markdown when helpful (lists, bold for emphasis, etc.)
- If the user seems frustrated, acknowledge their feelings first
`

// Composer builds the grounding system prompt from retrieved context and
// FAQs. Composition is pure: absent inputs simply omit their section.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

func (c *Composer) BuildSystemPrompt(contextText string, faqs []*models.FAQ) string {
	var sb strings.Builder
	sb.WriteString(personaPrompt)

	if contextText != "" {
		sb.WriteString("\n### Company Knowledge Base:\n")
		sb.WriteString(contextText)
		sb.WriteString("\n\n")
		sb.WriteString("Use the above context to answer questions accurately. If the answer is in the context, use it. If not, say you'll need to check with the team.\n")
	}

	if len(faqs) > 0 {
		sb.WriteString("\n### Frequently Asked Questions:\n")
		for i, faq := range faqs {
			fmt.Fprintf(&sb, "\nQ%d: %s\nA%d: %s\n", i+1, faq.Question, i+1, faq.Answer)
		}
		sb.WriteString("\nUse these FAQs to answer common questions directly.\n")
	}

	return sb.String()
}
