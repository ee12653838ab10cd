package embedding

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// BERT special token IDs shared by the uncased vocabularies.
const (
	tokenUNK int64 = 100
	tokenCLS int64 = 101
	tokenSEP int64 = 102
)

// Tokenizer produces token IDs for BERT-style models (input_ids, attention_mask, token_type_ids).
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer is a word-split tokenizer with hash-based token IDs. It keeps the ONNX
// path runnable without a vocabulary file; embeddings from it are not semantically meaningful.
type SimpleTokenizer struct{}

// Tokenize splits text into words and produces padded token IDs up to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	words := SplitWords(text)
	ids := make([]int64, 0, len(words))
	for _, w := range words {
		ids = append(ids, int64(HashString(w)%30000))
	}
	return frame(ids, maxTokens)
}

// WordPieceTokenizer implements BERT uncased tokenization: lowercase, split on whitespace and
// punctuation, then greedy longest-match-first word pieces with "##" continuation prefixes.
type WordPieceTokenizer struct {
	vocab           map[string]int64
	maxCharsPerWord int
}

// NewWordPieceTokenizer builds a tokenizer whose token IDs are the positions in tokens.
func NewWordPieceTokenizer(tokens []string) *WordPieceTokenizer {
	vocab := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		vocab[tok] = int64(i)
	}
	return &WordPieceTokenizer{vocab: vocab, maxCharsPerWord: 100}
}

// LoadWordPieceVocab reads a vocab.txt file (one token per line).
func LoadWordPieceVocab(path string) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()
	var tokens []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		tokens = append(tokens, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read vocab: %w", err)
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("vocab %s is empty", path)
	}
	return NewWordPieceTokenizer(tokens), nil
}

// Tokenize returns [CLS] pieces... [SEP], truncated and padded to maxTokens.
func (t *WordPieceTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	var ids []int64
	for _, word := range basicTokens(text) {
		ids = append(ids, t.pieces(word)...)
	}
	return frame(ids, maxTokens)
}

func (t *WordPieceTokenizer) pieces(word string) []int64 {
	runes := []rune(word)
	if len(runes) > t.maxCharsPerWord {
		return []int64{t.unk()}
	}
	var out []int64
	for start := 0; start < len(runes); {
		end := len(runes)
		found := int64(-1)
		for end > start {
			sub := string(runes[start:end])
			if start > 0 {
				sub = "##" + sub
			}
			if id, ok := t.vocab[sub]; ok {
				found = id
				break
			}
			end--
		}
		if found < 0 {
			return []int64{t.unk()}
		}
		out = append(out, found)
		start = end
	}
	return out
}

func (t *WordPieceTokenizer) unk() int64 {
	if id, ok := t.vocab["[UNK]"]; ok {
		return id
	}
	return tokenUNK
}

// basicTokens lowercases text and splits it on whitespace, emitting punctuation as separate tokens.
func basicTokens(text string) []string {
	var tokens []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			tokens = append(tokens, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flush()
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			flush()
			tokens = append(tokens, string(r))
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return tokens
}

// frame wraps ids in [CLS] ... [SEP], truncating to fit maxTokens; the rest is zero padding.
func frame(ids []int64, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens < 2 {
		maxTokens = 256
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	if len(ids) > maxTokens-2 {
		ids = ids[:maxTokens-2]
	}
	inputIDs[0] = tokenCLS
	attentionMask[0] = 1
	for i, id := range ids {
		inputIDs[i+1] = id
		attentionMask[i+1] = 1
	}
	inputIDs[len(ids)+1] = tokenSEP
	attentionMask[len(ids)+1] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords splits text on whitespace and returns non-empty words.
func SplitWords(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString returns a deterministic non-negative hash for use as a simple token ID.
func HashString(s string) int {
	h := 0
	for _, c := range s {
		h = 31*h + int(c)
	}
	if h < 0 {
		h = -h
	}
	return h
}
