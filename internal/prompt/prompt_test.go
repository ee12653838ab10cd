package prompt

import (
	"strings"
	"testing"

	"github.com/hyperjump/medqa/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	chunks := []*models.Chunk{
		{Text: "Aspirin reduces fever."},
		{Text: "Ibuprofen reduces inflammation."},
	}
	got := Build(chunks, "What reduces fever?")
	want := `Use the information in the context below to answer the question.
If unsure, say "I don't know."

Context:
Aspirin reduces fever.

Ibuprofen reduces inflammation.

Question:
What reduces fever?

Answer:`
	assert.Equal(t, want, got)
}

func TestBuild_alwaysHasFallbackAndQuestion(t *testing.T) {
	questions := []string{"", "x", "Does \"I don't know\" appear twice?", "multi\nline question", "Question: nested marker"}
	chunkSets := [][]*models.Chunk{nil, {{Text: ""}}, {{Text: "one"}, {Text: "two"}, {Text: "three"}}}
	for _, q := range questions {
		for _, cs := range chunkSets {
			p := Build(cs, q)
			assert.Contains(t, p, "I don't know")
			assert.True(t, strings.Contains(p, "Question:\n"+q+"\n\nAnswer:"), "question not verbatim after marker: %q", p)
			assert.True(t, strings.HasSuffix(p, "Answer:"))
		}
	}
}

func TestBuild_preservesRankOrder(t *testing.T) {
	p := Build([]*models.Chunk{{Text: "second best"}, {Text: "best"}}, "q")
	assert.Less(t, strings.Index(p, "second best"), strings.Index(p, "\n\nbest"))
}

func TestBuild_deterministic(t *testing.T) {
	chunks := []*models.Chunk{{Text: "a"}, {Text: "b"}}
	assert.Equal(t, Build(chunks, "q"), Build(chunks, "q"))
}
