package port

import "docqa/internal/domain"

// VectorStore persists the mapping from chunk key to embedding vector.
// Backends load the full mapping for search; there is no approximate
// index, retrieval is an exact linear scan over All.
type VectorStore interface {
	// All returns every stored chunk vector.
	All() ([]domain.ChunkVector, error)

	// Put inserts or overwrites a batch of chunk vectors.
	Put(entries []domain.ChunkVector) error

	// DeleteOwner removes every vector owned by the named document and
	// returns how many were removed.
	DeleteOwner(doc string) (int, error)

	// Count returns the number of stored vectors.
	Count() (int, error)

	// Ready reports whether the store has ever been built. A store that
	// was never written is distinct from one that is merely empty.
	Ready() (bool, error)
}

// DocumentIndex persists per-document metadata.
type DocumentIndex interface {
	// Get returns the entry for name, or domain.ErrDocumentNotFound.
	Get(name string) (domain.Document, error)

	// Upsert inserts or overwrites one entry.
	Upsert(doc domain.Document) error

	// Remove deletes the entry for name. Absence is not an error.
	Remove(name string) error

	// List returns all entries sorted by name.
	List() ([]domain.Document, error)
}

// BlobStore persists the raw text of each ingested document.
type BlobStore interface {
	// Save writes the document's raw content.
	Save(name, content string) error

	// Read returns the document's raw content.
	Read(name string) (string, error)

	// Delete removes the document's content. Absence is not an error.
	Delete(name string) error

	// Path returns the storage location for name without touching disk.
	Path(name string) string
}
