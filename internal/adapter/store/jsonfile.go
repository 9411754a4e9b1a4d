package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"docqa/internal/domain"
)

// JSONVectorStore keeps every chunk vector in a single JSON artifact.
// Each call loads the full mapping, mutates it in memory, and writes it
// back. Writes go through a temp file and rename so readers never see
// a half-written artifact. A corrupt artifact is treated as empty: the
// store logs a warning and proceeds, it does not fail the caller.
type JSONVectorStore struct {
	path   string
	logger *zap.Logger
}

type storedVector struct {
	Doc     string    `json:"doc"`
	Ordinal int       `json:"ordinal"`
	Vector  []float32 `json:"vector"`
}

// NewJSONVectorStore creates a store backed by the artifact at path.
// The artifact is created lazily on the first Put.
func NewJSONVectorStore(path string, logger *zap.Logger) *JSONVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONVectorStore{path: path, logger: logger}
}

func (s *JSONVectorStore) load() (map[string]storedVector, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]storedVector{}, nil
		}
		return nil, fmt.Errorf("read vector store: %w", err)
	}

	entries := map[string]storedVector{}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("vector store artifact is corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return map[string]storedVector{}, nil
	}
	return entries, nil
}

func (s *JSONVectorStore) save(entries map[string]storedVector) error {
	return writeJSONAtomic(s.path, entries)
}

// All returns every stored chunk vector.
func (s *JSONVectorStore) All() ([]domain.ChunkVector, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.ChunkVector, 0, len(entries))
	for _, k := range keys {
		e := entries[k]
		out = append(out, domain.ChunkVector{
			Key:    domain.ChunkKey{Doc: e.Doc, Ordinal: e.Ordinal},
			Vector: e.Vector,
		})
	}
	return out, nil
}

// Put inserts or overwrites a batch of chunk vectors.
func (s *JSONVectorStore) Put(batch []domain.ChunkVector) error {
	entries, err := s.load()
	if err != nil {
		return err
	}
	for _, cv := range batch {
		entries[cv.Key.String()] = storedVector{
			Doc:     cv.Key.Doc,
			Ordinal: cv.Key.Ordinal,
			Vector:  cv.Vector,
		}
	}
	return s.save(entries)
}

// DeleteOwner removes every vector owned by doc. Ownership is matched
// on the stored owner field, not by key prefix.
func (s *JSONVectorStore) DeleteOwner(doc string) (int, error) {
	entries, err := s.load()
	if err != nil {
		return 0, err
	}
	removed := 0
	for k, e := range entries {
		if e.Doc == doc {
			delete(entries, k)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.save(entries)
}

// Count returns the number of stored vectors.
func (s *JSONVectorStore) Count() (int, error) {
	entries, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Ready reports whether the artifact has ever been written.
func (s *JSONVectorStore) Ready() (bool, error) {
	_, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// JSONDocumentIndex keeps document metadata in a single JSON artifact
// with the same load/save discipline as JSONVectorStore.
type JSONDocumentIndex struct {
	path   string
	logger *zap.Logger
}

type storedDocument struct {
	Path          string `json:"path"`
	Chunks        int    `json:"chunks"`
	ContentLength int    `json:"content_length"`
	CreatedAt     int64  `json:"created_at"`
}

// NewJSONDocumentIndex creates an index backed by the artifact at path.
func NewJSONDocumentIndex(path string, logger *zap.Logger) *JSONDocumentIndex {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONDocumentIndex{path: path, logger: logger}
}

func (s *JSONDocumentIndex) load() (map[string]storedDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]storedDocument{}, nil
		}
		return nil, fmt.Errorf("read document index: %w", err)
	}

	entries := map[string]storedDocument{}
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("document index artifact is corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		return map[string]storedDocument{}, nil
	}
	return entries, nil
}

// Get returns the entry for name, or domain.ErrDocumentNotFound.
func (s *JSONDocumentIndex) Get(name string) (domain.Document, error) {
	entries, err := s.load()
	if err != nil {
		return domain.Document{}, err
	}
	e, ok := entries[name]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
	}
	return toDocument(name, e), nil
}

// Upsert inserts or overwrites one entry.
func (s *JSONDocumentIndex) Upsert(doc domain.Document) error {
	entries, err := s.load()
	if err != nil {
		return err
	}
	entries[doc.Name] = storedDocument{
		Path:          doc.StoragePath,
		Chunks:        doc.ChunkCount,
		ContentLength: doc.ContentLength,
		CreatedAt:     doc.CreatedAt.Unix(),
	}
	return writeJSONAtomic(s.path, entries)
}

// Remove deletes the entry for name. Absence is not an error.
func (s *JSONDocumentIndex) Remove(name string) error {
	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[name]; !ok {
		return nil
	}
	delete(entries, name)
	return writeJSONAtomic(s.path, entries)
}

// List returns all entries sorted by name.
func (s *JSONDocumentIndex) List() ([]domain.Document, error) {
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	docs := make([]domain.Document, 0, len(entries))
	for _, name := range names {
		docs = append(docs, toDocument(name, entries[name]))
	}
	return docs, nil
}

func toDocument(name string, e storedDocument) domain.Document {
	return domain.Document{
		Name:          name,
		StoragePath:   e.Path,
		ChunkCount:    e.Chunks,
		ContentLength: e.ContentLength,
		CreatedAt:     time.Unix(e.CreatedAt, 0),
	}
}

// writeJSONAtomic marshals v and replaces path in one rename, so a
// concurrent reader sees either the old artifact or the new one.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}
