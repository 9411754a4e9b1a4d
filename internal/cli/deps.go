package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"docqa/config"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/store"
	"docqa/internal/port"
	"docqa/internal/usecase"
)

// engine bundles the wired pipelines behind a single close handle.
type engine struct {
	ingest   *usecase.IngestUseCase
	retrieve *usecase.RetrieveUseCase
	answerer port.Answerer
	closer   func() error
}

func (e *engine) Close() error {
	if e.closer != nil {
		return e.closer()
	}
	return nil
}

// buildEngine assembles stores, providers, and pipelines from config.
// All dependencies are constructed here and injected explicitly; there
// are no lazily built globals.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*engine, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	var (
		vectors port.VectorStore
		index   port.DocumentIndex
		closer  func() error
	)
	switch cfg.Storage.Backend {
	case "", "json":
		vectors = store.NewJSONVectorStore(cfg.VectorsPath(), logger)
		index = store.NewJSONDocumentIndex(cfg.IndexPath(), logger)
	case "bolt":
		bs, err := store.NewBoltStore(cfg.BoltPath(), logger)
		if err != nil {
			return nil, err
		}
		vectors = bs
		index = bs
		closer = bs.Close
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	blobs := store.NewDocDir(cfg.DocsDir())

	chk, err := chunker.NewWindowChunker(cfg.Chunking.Window, cfg.Chunking.Overlap)
	if err != nil {
		if closer != nil {
			closer()
		}
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	embedder, err := newEmbedder(cfg.Embedding)
	if err != nil {
		if closer != nil {
			closer()
		}
		return nil, err
	}

	return &engine{
		ingest:   usecase.NewIngestUseCase(blobs, vectors, index, embedder, chk, logger),
		retrieve: usecase.NewRetrieveUseCase(vectors, index, blobs, embedder, cfg.Retrieve.SnippetMax, logger),
		answerer: newAnswerer(cfg.Answer, logger),
		closer:   closer,
	}, nil
}

func newEmbedder(cfg config.EmbeddingConfig) (port.Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return embedding.NewHashEmbedder(cfg.Dimension), nil
	case "openai":
		e, err := embedding.NewOpenAIEmbedder(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Dimension)
		if err != nil {
			return nil, err
		}
		return embedding.NewCachingEmbedder(e, 0), nil
	case "ollama":
		return embedding.NewCachingEmbedder(embedding.NewOllamaEmbedder(cfg.Model, cfg.BaseURL, cfg.Dimension), 0), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// newAnswerer falls back to the stub when the configured provider
// cannot be constructed: the QA surface degrades to retrieval-only
// instead of failing startup.
func newAnswerer(cfg config.AnswerConfig, logger *zap.Logger) port.Answerer {
	switch cfg.Provider {
	case "openai":
		a, err := llm.NewOpenAIAnswerer(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL)
		if err != nil {
			logger.Warn("answer provider unavailable, using stub", zap.Error(err))
			return llm.StubAnswerer{}
		}
		return a
	default:
		return llm.StubAnswerer{}
	}
}
