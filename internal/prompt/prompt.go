// Package prompt assembles the grounding prompt sent to the language model.
package prompt

import (
	"strings"

	"github.com/hyperjump/medqa/internal/models"
)

// Fallback is the phrase the model is told to answer with when the context is insufficient.
const Fallback = "I don't know."

const header = "Use the information in the context below to answer the question.\n" +
	"If unsure, say \"" + Fallback + "\"\n\n"

// Build renders chunks (in rank order, one block each) and question into the fixed template.
// The output depends only on its inputs.
func Build(chunks []*models.Chunk, question string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("Context:\n")
	for i, ch := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(ch.Text)
	}
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}
