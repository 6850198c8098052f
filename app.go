// Package localrag wires the storage, index, AI and orchestration layers
// into a runnable application.
package localrag

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chelorope/local-llm-rag/ai"
	"github.com/chelorope/local-llm-rag/ai/openai"
	"github.com/chelorope/local-llm-rag/assistant"
	"github.com/chelorope/local-llm-rag/chunker"
	"github.com/chelorope/local-llm-rag/config"
	"github.com/chelorope/local-llm-rag/filestore"
	"github.com/chelorope/local-llm-rag/ingestion"
	"github.com/chelorope/local-llm-rag/pdf"
	"github.com/chelorope/local-llm-rag/storage"
	"github.com/chelorope/local-llm-rag/storage/badger"
	"github.com/chelorope/local-llm-rag/vectorstore"
	"github.com/chelorope/local-llm-rag/vectorstore/embedded"
	"github.com/chelorope/local-llm-rag/vectorstore/qdrant"
)

// App holds the wired application: repositories, vector store, AI provider,
// ingestion pipeline and assistant.
type App struct {
	cfg *config.AppConfig

	backend       *badger.Backend
	documents     storage.DocumentRepository
	conversations storage.ConversationRepository
	provider      ai.Provider
	batchEmbedder *vectorstore.BatchEmbedder
	index         vectorstore.Store
	pipeline      *ingestion.Pipeline
	assistant     *assistant.Assistant
	logger        *slog.Logger
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	provider ai.Provider
	logger   *slog.Logger
}

// WithProvider substitutes the AI provider, used in tests.
func WithProvider(provider ai.Provider) AppOption {
	return func(o *appOptions) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewApp wires an application from its configuration. Callers own the
// returned App and must Close it.
func NewApp(cfg *config.AppConfig, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &appOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	// AI provider
	provider := options.provider
	if provider == nil {
		aiConfig := ai.NewConfig(
			ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
			ai.WithGenerationHost(cfg.AI.GenerationHost),
			ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
			ai.WithGenerationModel(cfg.AI.GenerationModel),
		)
		var err error
		provider, err = openai.NewProvider(aiConfig)
		if err != nil {
			return nil, err
		}
	}

	app := &App{cfg: cfg, provider: provider, logger: logger}

	// Durable storage
	backend, err := badger.OpenBackend(cfg.Storage.Path, false)
	if err != nil {
		app.closePartial()
		return nil, err
	}
	app.backend = backend

	app.documents, err = badger.NewDocumentRepository(backend, cfg.Storage.DocumentCollection)
	if err != nil {
		app.closePartial()
		return nil, err
	}
	app.conversations, err = badger.NewConversationRepository(backend, cfg.Storage.ConversationCollection)
	if err != nil {
		app.closePartial()
		return nil, err
	}

	// Embedding index
	app.batchEmbedder, err = vectorstore.NewBatchEmbedder(provider.Embedder(), vectorstore.WithLogger(logger))
	if err != nil {
		app.closePartial()
		return nil, err
	}
	app.index, err = newVectorStore(cfg, app.batchEmbedder)
	if err != nil {
		app.closePartial()
		return nil, err
	}

	// Pipeline and assistant
	files, err := filestore.New(cfg.DocumentsDir)
	if err != nil {
		app.closePartial()
		return nil, err
	}
	app.pipeline, err = ingestion.NewPipeline(app.documents, app.index, files, pdf.NewTextExtractor(),
		ingestion.WithChunker(chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)),
		ingestion.WithLogger(logger))
	if err != nil {
		app.closePartial()
		return nil, err
	}
	app.assistant, err = assistant.New(app.index, app.conversations, provider.Generator(),
		assistant.WithTopK(cfg.Retrieval.TopK),
		assistant.WithLogger(logger))
	if err != nil {
		app.closePartial()
		return nil, err
	}

	return app, nil
}

// newVectorStore selects the index variant from configuration.
func newVectorStore(cfg *config.AppConfig, batch *vectorstore.BatchEmbedder) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case config.VectorStoreEmbedded:
		if cfg.VectorStore.Embedded == nil {
			return nil, fmt.Errorf("embedded vector store configuration is missing")
		}
		return embedded.New(cfg.VectorStore.Embedded.Path, false, batch,
			embedded.WithCollection(cfg.VectorStore.Embedded.Collection))
	case config.VectorStoreQdrant:
		return qdrant.New(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		}, batch)
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
}

// Pipeline returns the ingestion pipeline.
func (a *App) Pipeline() *ingestion.Pipeline {
	return a.pipeline
}

// Assistant returns the question answering orchestrator.
func (a *App) Assistant() *assistant.Assistant {
	return a.assistant
}

// DocumentRepository returns the document catalog.
func (a *App) DocumentRepository() storage.DocumentRepository {
	return a.documents
}

// ConversationRepository returns the conversation store.
func (a *App) ConversationRepository() storage.ConversationRepository {
	return a.conversations
}

// closePartial tears down whatever NewApp managed to construct.
func (a *App) closePartial() {
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Error("error closing vector store", "err", err)
		}
	}
	if a.batchEmbedder != nil {
		a.batchEmbedder.Release()
	}
	if a.conversations != nil {
		a.conversations.Close()
	}
	if a.documents != nil {
		a.documents.Close()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("error closing backend storage", "err", err)
		}
	}
	if a.provider != nil {
		if err := a.provider.Close(); err != nil {
			a.logger.Error("error closing AI provider", "err", err)
		}
	}
}

// Close releases every resource the App owns.
func (a *App) Close() error {
	var firstErr error
	if err := a.index.Close(); err != nil {
		a.logger.Error("error closing vector store", "err", err)
		firstErr = err
	}
	a.batchEmbedder.Release()
	if err := a.conversations.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.documents.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("error closing backend storage", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if err := a.provider.Close(); err != nil {
		a.logger.Error("error closing AI provider", "err", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
