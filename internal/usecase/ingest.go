package usecase

import (
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"docqa/internal/adapter/chunker"
	"docqa/internal/domain"
	"docqa/internal/port"
)

// IngestUseCase owns the document lifecycle: it is the only writer that
// creates chunks and the only remover. The stores are read-modify-write
// with no internal locking, so callers must keep a single mutation in
// flight at a time.
type IngestUseCase struct {
	blobs    port.BlobStore
	vectors  port.VectorStore
	index    port.DocumentIndex
	embedder port.Embedder
	chunker  *chunker.WindowChunker
	logger   *zap.Logger
	now      func() time.Time
}

// NewIngestUseCase wires the ingestion and deletion pipelines. embedder
// may be nil when no provider is configured; ingestion then fails with
// domain.ErrEmbedderUnavailable after the raw text has been saved.
func NewIngestUseCase(
	blobs port.BlobStore,
	vectors port.VectorStore,
	index port.DocumentIndex,
	embedder port.Embedder,
	chk *chunker.WindowChunker,
	logger *zap.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUseCase{
		blobs:    blobs,
		vectors:  vectors,
		index:    index,
		embedder: embedder,
		chunker:  chk,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest adds or replaces one document. The raw text is persisted
// first and is not rolled back on later failure; vectors and the index
// entry are only written after every chunk embedded successfully.
// Re-ingesting a name removes all of its prior chunks before the new
// set is inserted, so no stale ordinals survive a shrinking document.
func (u *IngestUseCase) Ingest(name, content string) (*domain.IngestResult, error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return nil, err
	}

	if err := u.blobs.Save(name, content); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	chunks := u.chunker.Chunk(content)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, name)
	}

	if u.embedder == nil {
		return nil, domain.ErrEmbedderUnavailable
	}

	// Embed in order, all-or-nothing: the first failure aborts the
	// whole ingestion before any store mutation.
	entries := make([]domain.ChunkVector, len(chunks))
	for i, text := range chunks {
		vectors, err := u.embedder.Embed([]string{text})
		if err != nil {
			return nil, &domain.EmbedError{ChunkIndex: i, Err: err}
		}
		if len(vectors) == 0 {
			return nil, &domain.EmbedError{ChunkIndex: i, Err: fmt.Errorf("provider returned no vector")}
		}
		entries[i] = domain.ChunkVector{
			Key:    domain.ChunkKey{Doc: name, Ordinal: i},
			Vector: vectors[0],
		}
	}

	stale, err := u.vectors.DeleteOwner(name)
	if err != nil {
		return nil, fmt.Errorf("remove prior chunks: %w", err)
	}
	if stale > 0 {
		u.logger.Debug("replaced prior chunks", zap.String("document", name), zap.Int("stale", stale))
	}
	if err := u.vectors.Put(entries); err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}

	doc := domain.Document{
		Name:          name,
		StoragePath:   u.blobs.Path(name),
		ChunkCount:    len(chunks),
		ContentLength: utf8.RuneCountInString(content),
		CreatedAt:     u.now(),
	}
	if err := u.index.Upsert(doc); err != nil {
		return nil, fmt.Errorf("update document index: %w", err)
	}

	u.logger.Info("document ingested",
		zap.String("document", name),
		zap.Int("chunks", len(chunks)),
		zap.Int("content_length", doc.ContentLength))

	return &domain.IngestResult{
		Document: name,
		Chunks:   len(chunks),
		Embedded: len(entries),
	}, nil
}

// Delete removes a document's raw text, vectors, and index entry.
// Each removal is independently best-effort; the result records which
// of the three succeeded. Only an invalid name is an error.
func (u *IngestUseCase) Delete(name string) (*domain.DeleteResult, error) {
	if err := domain.ValidateDocumentName(name); err != nil {
		return nil, err
	}

	res := &domain.DeleteResult{Document: name}

	if err := u.blobs.Delete(name); err != nil {
		u.logger.Warn("failed to remove document text", zap.String("document", name), zap.Error(err))
	} else {
		res.BlobRemoved = true
	}

	if removed, err := u.vectors.DeleteOwner(name); err != nil {
		u.logger.Warn("failed to remove document vectors", zap.String("document", name), zap.Error(err))
	} else {
		res.VectorsRemoved = removed
	}

	if err := u.index.Remove(name); err != nil {
		u.logger.Warn("failed to remove index entry", zap.String("document", name), zap.Error(err))
	} else {
		res.IndexRemoved = true
	}

	u.logger.Info("document deleted",
		zap.String("document", name),
		zap.Bool("blob_removed", res.BlobRemoved),
		zap.Int("vectors_removed", res.VectorsRemoved),
		zap.Bool("index_removed", res.IndexRemoved))

	return res, nil
}

// List enumerates all indexed documents sorted by name.
func (u *IngestUseCase) List() ([]domain.Document, error) {
	return u.index.List()
}
