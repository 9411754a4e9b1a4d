package store

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

var (
	bucketVectors   = []byte("vectors")
	bucketDocuments = []byte("documents")
)

// BoltStore implements both VectorStore and DocumentIndex on a single
// bbolt database. Records are JSON-marshalled per key; corrupt records
// are skipped during iteration rather than failing the scan, matching
// the JSON backend's recovery policy.
type BoltStore struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string, logger *zap.Logger) (*BoltStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketVectors, bucketDocuments} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// All returns every stored chunk vector.
func (s *BoltStore) All() ([]domain.ChunkVector, error) {
	var out []domain.ChunkVector
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketVectors).ForEach(func(k, v []byte) error {
			var rec storedVector
			if err := json.Unmarshal(v, &rec); err != nil {
				s.logger.Warn("skipping corrupt vector record", zap.ByteString("key", k))
				return nil
			}
			out = append(out, domain.ChunkVector{
				Key:    domain.ChunkKey{Doc: rec.Doc, Ordinal: rec.Ordinal},
				Vector: rec.Vector,
			})
			return nil
		})
	})
	return out, err
}

// Put inserts or overwrites a batch of chunk vectors in one transaction.
func (s *BoltStore) Put(batch []domain.ChunkVector) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)
		for _, cv := range batch {
			data, err := json.Marshal(storedVector{
				Doc:     cv.Key.Doc,
				Ordinal: cv.Key.Ordinal,
				Vector:  cv.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(cv.Key.String()), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteOwner removes every vector owned by doc.
func (s *BoltStore) DeleteOwner(doc string) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketVectors)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec storedVector
			if err := json.Unmarshal(v, &rec); err != nil {
				return nil
			}
			if rec.Doc == doc {
				key := make([]byte, len(k))
				copy(key, k)
				stale = append(stale, key)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// Count returns the number of stored vectors.
func (s *BoltStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(bucketVectors).Stats().KeyN
		return nil
	})
	return count, err
}

// Ready reports whether any document has ever been indexed.
func (s *BoltStore) Ready() (bool, error) {
	ready := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		ready = tx.Bucket(bucketVectors).Stats().KeyN > 0 ||
			tx.Bucket(bucketDocuments).Stats().KeyN > 0
		return nil
	})
	return ready, err
}

// Get returns the entry for name, or domain.ErrDocumentNotFound.
func (s *BoltStore) Get(name string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocuments).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
		}
		var rec storedDocument
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, name)
		}
		doc = toDocument(name, rec)
		return nil
	})
	return doc, err
}

// Upsert inserts or overwrites one document entry.
func (s *BoltStore) Upsert(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(storedDocument{
			Path:          doc.StoragePath,
			Chunks:        doc.ChunkCount,
			ContentLength: doc.ContentLength,
			CreatedAt:     doc.CreatedAt.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocuments).Put([]byte(doc.Name), data)
	})
}

// Remove deletes the entry for name.
func (s *BoltStore) Remove(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).Delete([]byte(name))
	})
}

// List returns all document entries sorted by name.
func (s *BoltStore) List() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			var rec storedDocument
			if err := json.Unmarshal(v, &rec); err != nil {
				s.logger.Warn("skipping corrupt document record", zap.ByteString("key", k))
				return nil
			}
			docs = append(docs, toDocument(string(k), rec))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })
	return docs, nil
}
