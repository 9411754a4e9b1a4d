package domain

import (
	"fmt"
	"time"
)

// Document is the index entry for one ingested source text.
type Document struct {
	Name          string
	StoragePath   string
	ChunkCount    int
	ContentLength int
	CreatedAt     time.Time
}

// ChunkKey identifies one chunk as (owner document, ordinal position).
// The owner is carried explicitly so ownership never has to be inferred
// from a string prefix, even when document names contain the separator.
type ChunkKey struct {
	Doc     string
	Ordinal int
}

// String renders the key as the stable chunk identifier used in
// persisted artifacts and query results.
func (k ChunkKey) String() string {
	return fmt.Sprintf("%s#%d", k.Doc, k.Ordinal)
}

// ChunkVector pairs a chunk key with its embedding.
type ChunkVector struct {
	Key    ChunkKey
	Vector []float32
}

// RetrievedChunk is one ranked retrieval result. Text holds a bounded
// prefix of the owning document's raw content.
type RetrievedChunk struct {
	ID       string  `json:"id"`
	Document string  `json:"document"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	Document string `json:"document"`
	Chunks   int    `json:"chunks"`
	Embedded int    `json:"embedded"`
}

// DeleteResult reports which of a document's three artifacts were
// actually removed. Deletion is best-effort per artifact, so callers
// can observe partial outcomes.
type DeleteResult struct {
	Document       string `json:"document"`
	BlobRemoved    bool   `json:"blob_removed"`
	VectorsRemoved int    `json:"vectors_removed"`
	IndexRemoved   bool   `json:"index_removed"`
}
