package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"github.com/hyperjump/medqa/pkg/utils"
)

// HashingEmbedder is a model-free embedder: each lowercased word contributes itself and its
// character trigrams as features, hashed (FNV-1a) into a fixed number of count buckets.
// Trigrams let truncated words at chunk edges ("feve") still match whole query words ("fever").
type HashingEmbedder struct {
	dimensions int
}

// NewHashingEmbedder returns a feature-hashing embedder with the given number of buckets.
func NewHashingEmbedder(dimensions int) *HashingEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashingEmbedder{dimensions: dimensions}
}

// Embed returns the normalized bucket counts of text's features. Text without letters or
// digits embeds to the zero vector.
func (e *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)
	h := fnv.New32a()
	for _, f := range features(text) {
		h.Reset()
		_, _ = h.Write([]byte(f))
		vec[h.Sum32()%uint32(e.dimensions)]++
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, texts, e.Embed)
}

// Dimensions returns the embedding dimension.
func (e *HashingEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashingEmbedder.
func (e *HashingEmbedder) Close() error {
	return nil
}

// features returns "w:<word>" for every word and "g:<trigram>" for each trigram of words
// with at least three characters.
func features(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(words)*4)
	for _, w := range words {
		out = append(out, "w:"+w)
		r := []rune(w)
		for i := 0; i+3 <= len(r); i++ {
			out = append(out, "g:"+string(r[i:i+3]))
		}
	}
	return out
}
