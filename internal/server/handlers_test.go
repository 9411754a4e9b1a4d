package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/store"
	"docqa/internal/domain"
	"docqa/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	vectors := store.NewJSONVectorStore(filepath.Join(dir, "embeddings.json"), nil)
	index := store.NewJSONDocumentIndex(filepath.Join(dir, "index.json"), nil)
	blobs := store.NewDocDir(filepath.Join(dir, "docs"))
	embedder := embedding.NewHashEmbedder(64)

	chk, err := chunker.NewWindowChunker(500, 50)
	if err != nil {
		t.Fatal(err)
	}

	ingest := usecase.NewIngestUseCase(blobs, vectors, index, embedder, chk, nil)
	retrieve := usecase.NewRetrieveUseCase(vectors, index, blobs, embedder, 0, nil)
	return New(ingest, retrieve, llm.StubAnswerer{}, 3, nil)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t).Router()
	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestIngestAndSearch(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/documents",
		ingestRequest{Name: "a.txt", Content: "the quick brown fox"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("ingest: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var ingested domain.IngestResult
	if err := json.NewDecoder(rec.Body).Decode(&ingested); err != nil {
		t.Fatal(err)
	}
	if ingested.Chunks != 1 {
		t.Errorf("expected 1 chunk, got %d", ingested.Chunks)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/search",
		searchRequest{Query: "quick fox", TopK: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}
	var results []domain.RetrievedChunk
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Document != "a.txt" {
		t.Errorf("expected a.txt as the only result, got %v", results)
	}
}

func TestIngestRejectsBadNames(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/documents",
		ingestRequest{Name: "../escape", Content: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for traversal name, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/v1/documents",
		ingestRequest{Name: "empty.txt", Content: ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty document, got %d", rec.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	doJSON(t, router, http.MethodPost, "/api/v1/documents",
		ingestRequest{Name: "a.txt", Content: "content"})

	rec := doJSON(t, router, http.MethodDelete, "/api/v1/documents/a.txt", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	var res domain.DeleteResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if !res.BlobRemoved || res.VectorsRemoved == 0 || !res.IndexRemoved {
		t.Errorf("expected all artifacts removed, got %+v", res)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/v1/documents", nil)
	var docs []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty document list, got %d entries", len(docs))
	}
}

func TestQAEndpoint(t *testing.T) {
	router := newTestServer(t).Router()

	doJSON(t, router, http.MethodPost, "/api/v1/documents",
		ingestRequest{Name: "a.txt", Content: "The quick brown fox jumps over the lazy dog."})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/qa",
		qaRequest{Question: "quick brown fox", TopK: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("qa: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res qaResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.RAGAnswer == "" || res.BaselineAnswer == "" {
		t.Error("expected both answers to be populated")
	}
	if len(res.Sources) == 0 {
		t.Error("expected at least one source")
	}
	if res.Sources[0].Document != "a.txt" {
		t.Errorf("expected a.txt as top source, got %s", res.Sources[0].Document)
	}
}

func TestQAMissingQuestion(t *testing.T) {
	router := newTestServer(t).Router()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/qa", qaRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing question, got %d", rec.Code)
	}
}

func TestSearchBeforeIngestReturnsPlaceholder(t *testing.T) {
	router := newTestServer(t).Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/search",
		searchRequest{Query: "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var results []domain.RetrievedChunk
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != "none" {
		t.Errorf("expected the not-indexed placeholder, got %v", results)
	}
}
