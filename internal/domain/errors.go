package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent engine-level failures, distinct from
// infrastructure errors returned by the storage backends.
var (
	// ErrEmptyDocument indicates chunking produced no chunks.
	ErrEmptyDocument = errors.New("document is empty after chunking")

	// ErrEmbedderUnavailable indicates no embedding provider is configured.
	ErrEmbedderUnavailable = errors.New("embedding provider unavailable")

	// ErrInvalidDocumentName indicates a document name that could escape
	// the storage directory (path separators, ".", "..").
	ErrInvalidDocumentName = errors.New("invalid document name")

	// ErrDocumentNotFound indicates the document has no index entry.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNotIndexed indicates no document has ever been ingested.
	ErrNotIndexed = errors.New("no documents indexed")
)

// EmbedError reports which chunk failed to embed. Ingestion is
// all-or-nothing at the embedding stage, so the first failure aborts
// the whole operation with no store mutation.
type EmbedError struct {
	ChunkIndex int
	Err        error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("failed to embed chunk %d: %v", e.ChunkIndex, e.Err)
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// ValidateDocumentName rejects names that could resolve outside the
// storage root. Checked before any filesystem access on both ingestion
// and deletion paths.
func ValidateDocumentName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
	}
	for _, r := range name {
		if r == '/' || r == '\\' || r == 0 {
			return fmt.Errorf("%w: %q", ErrInvalidDocumentName, name)
		}
	}
	return nil
}
