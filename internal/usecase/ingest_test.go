package usecase

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/port"
)

type engine struct {
	ingest   *IngestUseCase
	retrieve *RetrieveUseCase
	vectors  port.VectorStore
	index    port.DocumentIndex
	blobs    port.BlobStore
}

func newTestEngine(t *testing.T, embedder port.Embedder) *engine {
	t.Helper()
	dir := t.TempDir()

	vectors := store.NewJSONVectorStore(filepath.Join(dir, "embeddings.json"), nil)
	index := store.NewJSONDocumentIndex(filepath.Join(dir, "index.json"), nil)
	blobs := store.NewDocDir(filepath.Join(dir, "docs"))

	chk, err := chunker.NewWindowChunker(chunker.DefaultWindow, chunker.DefaultOverlap)
	if err != nil {
		t.Fatal(err)
	}

	return &engine{
		ingest:   NewIngestUseCase(blobs, vectors, index, embedder, chk, nil),
		retrieve: NewRetrieveUseCase(vectors, index, blobs, embedder, 0, nil),
		vectors:  vectors,
		index:    index,
		blobs:    blobs,
	}
}

func ownerCount(t *testing.T, vectors port.VectorStore, doc string) int {
	t.Helper()
	all, err := vectors.All()
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, cv := range all {
		if cv.Key.Doc == doc {
			n++
		}
	}
	return n
}

func TestIngestCreatesChunksAndIndexEntry(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	text := strings.Repeat("the quick brown fox ", 60) // 1200 chars
	res, err := e.ingest.Ingest("a.txt", text)
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 3 {
		t.Errorf("expected 3 chunks for 1200 chars, got %d", res.Chunks)
	}
	if res.Embedded != res.Chunks {
		t.Errorf("embedded count %d != chunk count %d", res.Embedded, res.Chunks)
	}

	doc, err := e.index.Get("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ChunkCount != 3 {
		t.Errorf("index reports %d chunks, expected 3", doc.ChunkCount)
	}
	if doc.ContentLength != len(text) {
		t.Errorf("index reports content length %d, expected %d", doc.ContentLength, len(text))
	}
	if got := ownerCount(t, e.vectors, "a.txt"); got != 3 {
		t.Errorf("vector store holds %d chunks for a.txt, expected 3", got)
	}

	content, err := e.blobs.Read("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if content != text {
		t.Error("stored document text does not match input")
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	_, err := e.ingest.Ingest("empty.txt", "")
	if !errors.Is(err, domain.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
	if got := ownerCount(t, e.vectors, "empty.txt"); got != 0 {
		t.Errorf("empty ingest must not write vectors, found %d", got)
	}
	if _, err := e.index.Get("empty.txt"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("empty ingest must not write an index entry, got %v", err)
	}
}

func TestIngestWithoutEmbedder(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.ingest.Ingest("a.txt", "some content")
	if !errors.Is(err, domain.ErrEmbedderUnavailable) {
		t.Fatalf("expected ErrEmbedderUnavailable, got %v", err)
	}
	if got := ownerCount(t, e.vectors, "a.txt"); got != 0 {
		t.Errorf("expected no vectors, found %d", got)
	}

	// The raw text is saved before embedding and intentionally not
	// rolled back.
	if _, err := e.blobs.Read("a.txt"); err != nil {
		t.Errorf("raw text should have been saved before the failure: %v", err)
	}
}

// failAfterEmbedder embeds the first n texts and then fails.
type failAfterEmbedder struct {
	inner port.Embedder
	n     int
	calls int
}

func (f *failAfterEmbedder) Embed(texts []string) ([][]float32, error) {
	if f.calls >= f.n {
		return nil, fmt.Errorf("provider exploded")
	}
	f.calls++
	return f.inner.Embed(texts)
}

func (f *failAfterEmbedder) Dimension() int    { return f.inner.Dimension() }
func (f *failAfterEmbedder) ModelName() string { return "failing" }

func TestIngestEmbeddingFailureIsAllOrNothing(t *testing.T) {
	e := newTestEngine(t, &failAfterEmbedder{inner: embedding.NewHashEmbedder(64), n: 2})

	text := strings.Repeat("x", 1200) // 3 chunks; the third embed fails
	_, err := e.ingest.Ingest("a.txt", text)

	var embedErr *domain.EmbedError
	if !errors.As(err, &embedErr) {
		t.Fatalf("expected EmbedError, got %v", err)
	}
	if embedErr.ChunkIndex != 2 {
		t.Errorf("expected failure at chunk 2, got %d", embedErr.ChunkIndex)
	}

	// No partial vector set, no index entry.
	if got := ownerCount(t, e.vectors, "a.txt"); got != 0 {
		t.Errorf("expected no vectors after aborted ingest, found %d", got)
	}
	if _, err := e.index.Get("a.txt"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected no index entry after aborted ingest, got %v", err)
	}
}

func TestIngestRejectsTraversalNames(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	for _, name := range []string{"../escape", "a/b.txt", `..\..\evil`, "", ".."} {
		if _, err := e.ingest.Ingest(name, "content"); !errors.Is(err, domain.ErrInvalidDocumentName) {
			t.Errorf("Ingest(%q): expected ErrInvalidDocumentName, got %v", name, err)
		}
	}
}

func TestReingestSmallerReplacesAllChunks(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	if _, err := e.ingest.Ingest("a.txt", strings.Repeat("long ", 300)); err != nil { // 1500 chars, 4 chunks
		t.Fatal(err)
	}
	before := ownerCount(t, e.vectors, "a.txt")
	if before < 2 {
		t.Fatalf("setup: expected multiple chunks, got %d", before)
	}

	res, err := e.ingest.Ingest("a.txt", "tiny")
	if err != nil {
		t.Fatal(err)
	}
	if res.Chunks != 1 {
		t.Fatalf("expected 1 chunk for tiny text, got %d", res.Chunks)
	}

	// No stale higher-ordinal chunks survive.
	if got := ownerCount(t, e.vectors, "a.txt"); got != 1 {
		t.Errorf("expected exactly 1 chunk after re-ingest, found %d", got)
	}
	doc, err := e.index.Get("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ChunkCount != 1 {
		t.Errorf("index chunk count %d, expected 1", doc.ChunkCount)
	}
}

func TestDeleteRemovesEverything(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	if _, err := e.ingest.Ingest("a.txt", strings.Repeat("word ", 240)); err != nil {
		t.Fatal(err)
	}
	if _, err := e.ingest.Ingest("b.txt", "other document"); err != nil {
		t.Fatal(err)
	}

	res, err := e.ingest.Delete("a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !res.BlobRemoved {
		t.Error("blob should have been removed")
	}
	if res.VectorsRemoved == 0 {
		t.Error("vectors should have been removed")
	}
	if !res.IndexRemoved {
		t.Error("index entry should have been removed")
	}

	if got := ownerCount(t, e.vectors, "a.txt"); got != 0 {
		t.Errorf("vector store still holds %d chunks for a.txt", got)
	}
	if _, err := e.index.Get("a.txt"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("index still has a.txt: %v", err)
	}

	// The other document is untouched.
	if got := ownerCount(t, e.vectors, "b.txt"); got == 0 {
		t.Error("b.txt chunks should be untouched")
	}
}

func TestDeleteAbsentDocument(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	res, err := e.ingest.Delete("missing.txt")
	if err != nil {
		t.Fatal(err)
	}
	if !res.BlobRemoved || !res.IndexRemoved {
		t.Error("removing an absent document is not an error")
	}
	if res.VectorsRemoved != 0 {
		t.Errorf("expected 0 vectors removed, got %d", res.VectorsRemoved)
	}
}

func TestDeleteRejectsTraversalNames(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	if _, err := e.ingest.Delete("../escape"); !errors.Is(err, domain.ErrInvalidDocumentName) {
		t.Errorf("expected ErrInvalidDocumentName, got %v", err)
	}
}

func TestListDocuments(t *testing.T) {
	e := newTestEngine(t, embedding.NewHashEmbedder(64))

	for _, name := range []string{"b.txt", "a.txt"} {
		if _, err := e.ingest.Ingest(name, "content of "+name); err != nil {
			t.Fatal(err)
		}
	}

	docs, err := e.ingest.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Name != "a.txt" || docs[1].Name != "b.txt" {
		t.Errorf("documents not sorted by name: %s, %s", docs[0].Name, docs[1].Name)
	}
}
