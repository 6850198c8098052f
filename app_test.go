package localrag

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chelorope/local-llm-rag/ai/mock"
	"github.com/chelorope/local-llm-rag/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()

	dir := t.TempDir()
	return &config.AppConfig{
		Server:       config.ServerConfig{Addr: ":0"},
		DocumentsDir: filepath.Join(dir, "documents"),
		Storage: config.StorageConfig{
			Path:                   filepath.Join(dir, "storage"),
			DocumentCollection:     "documents",
			ConversationCollection: "conversations",
		},
		VectorStore: config.VectorStoreConfig{
			Type:     config.VectorStoreEmbedded,
			Embedded: &config.EmbeddedConfig{Path: filepath.Join(dir, "index"), Collection: "chunks"},
		},
		AI: config.AIConfig{
			EmbeddingHost:   "http://localhost:11434",
			GenerationHost:  "http://localhost:11434",
			EmbeddingModel:  "nomic-embed-text",
			GenerationModel: "llama3.2",
		},
		Chunking:  config.ChunkingConfig{Size: 1000, Overlap: 200},
		Retrieval: config.RetrievalConfig{TopK: 4},
	}
}

func TestNewAppEndToEnd(t *testing.T) {
	app, err := NewApp(testConfig(t), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	session := "session-1"

	result, err := app.Pipeline().Upload(ctx, session, "manual.pdf",
		[]byte("The gearbox requires synthetic oil, replaced every 500 hours of operation."))
	require.NoError(t, err)
	assert.Greater(t, result.ChunkCount, 0)

	turn, err := app.Assistant().Ask(ctx, session, "What oil does the gearbox need?")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.Content)

	turns, err := app.Assistant().Messages(ctx, session)
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	count, err := app.Pipeline().DeleteSession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorStore.Type = "pinecone"

	_, err := NewApp(cfg, WithProvider(mock.NewMockProvider()))
	require.Error(t, err)
}

func TestNewAppQdrantVariantWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.VectorStore.Type = config.VectorStoreQdrant
	cfg.VectorStore.Qdrant = &config.QdrantConfig{URL: "http://localhost:6333", Collection: "chunks"}

	// Construction must succeed without a reachable server; the client
	// is lazy.
	app, err := NewApp(cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, app.Close())
}
