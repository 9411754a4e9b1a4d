package usecase

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"docqa/internal/domain"
	"docqa/internal/port"
)

// DefaultSnippetMax bounds the text returned per result, in runes.
const DefaultSnippetMax = 2000

// Text returned for a hit whose raw document cannot be read. The hit
// still appears in results instead of being silently dropped.
const unreadableText = "(document text unavailable)"

// RetrieveUseCase answers similarity queries with an exact linear scan
// over the vector store. Read-only; safe to run concurrently with
// itself.
type RetrieveUseCase struct {
	vectors    port.VectorStore
	index      port.DocumentIndex
	blobs      port.BlobStore
	embedder   port.Embedder
	snippetMax int
	logger     *zap.Logger
}

// NewRetrieveUseCase wires the retriever. snippetMax <= 0 selects
// DefaultSnippetMax.
func NewRetrieveUseCase(
	vectors port.VectorStore,
	index port.DocumentIndex,
	blobs port.BlobStore,
	embedder port.Embedder,
	snippetMax int,
	logger *zap.Logger,
) *RetrieveUseCase {
	if snippetMax <= 0 {
		snippetMax = DefaultSnippetMax
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		vectors:    vectors,
		index:      index,
		blobs:      blobs,
		embedder:   embedder,
		snippetMax: snippetMax,
		logger:     logger,
	}
}

// Retrieve embeds the query and returns the top k chunks by cosine
// similarity. A store that was never built yields a single placeholder
// result, distinguishing "not indexed" from "indexed but no match".
func (u *RetrieveUseCase) Retrieve(query string, k int) ([]domain.RetrievedChunk, error) {
	ready, err := u.vectors.Ready()
	if err != nil {
		return nil, fmt.Errorf("check vector store: %w", err)
	}
	if !ready {
		return []domain.RetrievedChunk{{
			ID:   "none",
			Text: "No documents have been indexed yet. Ingest a document to enable retrieval.",
		}}, nil
	}

	if u.embedder == nil {
		return nil, domain.ErrEmbedderUnavailable
	}
	embedded, err := u.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(embedded) == 0 {
		return nil, fmt.Errorf("embed query: provider returned no vector")
	}

	return u.RetrieveByVector(embedded[0], k)
}

// RetrieveByVector ranks all stored chunks against an already-embedded
// query vector.
func (u *RetrieveUseCase) RetrieveByVector(query []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	all, err := u.vectors.All()
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	type scored struct {
		key   domain.ChunkKey
		score float64
	}
	scores := make([]scored, 0, len(all))
	for _, cv := range all {
		scores = append(scores, scored{key: cv.Key, score: cosineSimilarity(query, cv.Vector)})
	}

	// Stable sort keeps the original scan order as the tie-break.
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]domain.RetrievedChunk, 0, k)
	for _, s := range scores[:k] {
		results = append(results, domain.RetrievedChunk{
			ID:       s.key.String(),
			Document: s.key.Doc,
			Score:    s.score,
			Text:     u.snippet(s.key.Doc),
		})
	}
	return results, nil
}

// snippet returns a bounded prefix of the owning document's raw text.
func (u *RetrieveUseCase) snippet(doc string) string {
	text, err := u.blobs.Read(doc)
	if err != nil {
		u.logger.Warn("failed to read document text", zap.String("document", doc), zap.Error(err))
		return unreadableText
	}
	runes := []rune(text)
	if len(runes) > u.snippetMax {
		return string(runes[:u.snippetMax])
	}
	return text
}

// cosineSimilarity is the normalized dot product of a and b. Unequal
// lengths and zero-norm inputs are degenerate comparisons scored 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
