package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docqa/internal/domain"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltVectorsRoundTrip(t *testing.T) {
	s := newTestBoltStore(t)

	ready, err := s.Ready()
	if err != nil {
		t.Fatal(err)
	}
	if ready {
		t.Error("fresh store should not be ready")
	}

	if err := s.Put([]domain.ChunkVector{
		vec("a.txt", 0, 1, 2),
		vec("a.txt", 1, 3, 4),
		vec("b.txt", 0, 5, 6),
	}); err != nil {
		t.Fatal(err)
	}

	count, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("expected 3 vectors, got %d", count)
	}

	removed, err := s.DeleteOwner("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	all, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || all[0].Key.Doc != "b.txt" {
		t.Errorf("expected only b.txt to remain, got %v", all)
	}
}

func TestBoltDocumentsRoundTrip(t *testing.T) {
	s := newTestBoltStore(t)

	doc := domain.Document{
		Name:          "a.txt",
		StoragePath:   "/data/docs/a.txt",
		ChunkCount:    2,
		ContentLength: 900,
		CreatedAt:     time.Unix(1700000000, 0),
	}
	if err := s.Upsert(doc); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got != doc {
		t.Errorf("round trip mismatch: got %+v want %+v", got, doc)
	}

	if _, err := s.Get("missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}

	if err := s.Remove("a.txt"); err != nil {
		t.Fatal(err)
	}
	docs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty list after remove, got %d", len(docs))
	}
}

func TestBoltListSorted(t *testing.T) {
	s := newTestBoltStore(t)

	for _, name := range []string{"c.txt", "a.txt", "b.txt"} {
		if err := s.Upsert(domain.Document{Name: name, CreatedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	docs, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a.txt", "b.txt", "c.txt"}
	for i, doc := range docs {
		if doc.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], doc.Name)
		}
	}
}
