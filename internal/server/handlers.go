package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"docqa/internal/domain"
)

type ingestRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type qaRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type qaResponse struct {
	Question       string                  `json:"question"`
	RAGAnswer      string                  `json:"rag_answer"`
	BaselineAnswer string                  `json:"baseline_answer"`
	Sources        []domain.RetrievedChunk `json:"sources"`
	Timings        qaTimings               `json:"timings"`
}

type qaTimings struct {
	RetrievalMS float64 `json:"retrieval_ms"`
	AnswerMS    float64 `json:"answer_ms"`
	BaselineMS  float64 `json:"baseline_ms"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	res, err := s.ingest.Ingest(req.Name, req.Content)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("ingestion failed", zap.String("document", req.Name), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.ingest.List()
	if err != nil {
		s.logger.Error("list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type docSummary struct {
		Name          string `json:"name"`
		Chunks        int    `json:"chunks"`
		ContentLength int    `json:"content_length"`
		CreatedAt     int64  `json:"created_at"`
	}
	out := make([]docSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, docSummary{
			Name:          d.Name,
			Chunks:        d.ChunkCount,
			ContentLength: d.ContentLength,
			CreatedAt:     d.CreatedAt.Unix(),
		})
	}
	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	res, err := s.ingest.Delete(name)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("deletion failed", zap.String("document", name), zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, err := s.retrieve.Retrieve(req.Query, topK)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleQA(w http.ResponseWriter, r *http.Request) {
	var req qaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		s.respondError(w, http.StatusBadRequest, "missing question")
		return
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	t0 := time.Now()
	sources, err := s.retrieve.Retrieve(req.Question, topK)
	retrievalMS := msSince(t0)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		s.respondError(w, statusFor(err), err.Error())
		return
	}

	contexts := make([]string, 0, len(sources))
	for _, src := range sources {
		contexts = append(contexts, src.Text)
	}

	t1 := time.Now()
	ragAnswer, err := s.answerer.Answer(req.Question, contexts)
	answerMS := msSince(t1)
	if err != nil {
		s.logger.Error("answer generation failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	t2 := time.Now()
	baseline, err := s.answerer.Answer(req.Question, nil)
	baselineMS := msSince(t2)
	if err != nil {
		s.logger.Error("baseline answer failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.respondJSON(w, http.StatusOK, qaResponse{
		Question:       req.Question,
		RAGAnswer:      ragAnswer,
		BaselineAnswer: baseline,
		Sources:        sources,
		Timings: qaTimings{
			RetrievalMS: retrievalMS,
			AnswerMS:    answerMS,
			BaselineMS:  baselineMS,
		},
	})
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDocumentName),
		errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmbedderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
