package embedding

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashEmbedder is a deterministic, dependency-free embedder: tokens are
// hashed into a fixed number of buckets and the resulting term-count
// vector is L2-normalized. Identical texts always produce identical
// vectors, which makes it the offline default and the test provider.
// It captures lexical overlap only, not meaning.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &HashEmbedder{dimension: dimension}
}

// Embed generates one vector per input text.
func (e *HashEmbedder) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	v := make([]float32, e.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		v[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm > 0 {
		inv := 1.0 / math.Sqrt(norm)
		for i := range v {
			v[i] = float32(float64(v[i]) * inv)
		}
	}
	return v
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Dimension returns the embedding vector dimension.
func (e *HashEmbedder) Dimension() int { return e.dimension }

// ModelName returns the name of the embedding model.
func (e *HashEmbedder) ModelName() string { return "hash" }
