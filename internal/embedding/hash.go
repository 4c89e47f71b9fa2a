package embedding

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tmc/langchaingo/embeddings"
)

const defaultHashDimension = 512

var _ embeddings.Embedder = (*HashEmbedder)(nil)

// HashEmbedder is a local bag-of-words embedder using the hashing trick.
// It needs no model or network and is stable across runs, which makes it
// usable offline and in tests. Quality is lexical only.
type HashEmbedder struct {
	dimension    int
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashEmbedder{
		dimension:    dimension,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

func (e *HashEmbedder) Dimension() int { return e.dimension }

func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	for _, tok := range e.tokenize(text) {
		h := xxhash.Sum64String(tok)
		idx := h % uint64(e.dimension)
		// the top bit picks the sign so collisions tend to cancel out
		if h>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	// L2 normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// vector stores reject zero vectors
		vec[0] = 1
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *HashEmbedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "into", "about", "such", "shall", "will", "any", "all", "its", "their", "so", "than",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
