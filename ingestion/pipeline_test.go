package ingestion

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chelorope/local-llm-rag/ai/mock"
	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/filestore"
	"github.com/chelorope/local-llm-rag/pdf"
	"github.com/chelorope/local-llm-rag/storage"
	"github.com/chelorope/local-llm-rag/storage/badger"
	"github.com/chelorope/local-llm-rag/vectorstore"
	"github.com/chelorope/local-llm-rag/vectorstore/embedded"
)

type testEnv struct {
	pipeline  *Pipeline
	documents storage.DocumentRepository
	index     vectorstore.Store
	files     *filestore.Store
	dir       string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	documentRepo, conversationRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	})

	batch, err := vectorstore.NewBatchEmbedder(mock.NewMockEmbedder(), vectorstore.WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(batch.Release)

	index, err := embedded.New("", true, batch)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	dir := t.TempDir()
	files, err := filestore.New(dir)
	require.NoError(t, err)

	pipeline, err := NewPipeline(documentRepo, index, files, pdf.NewTextExtractor())
	require.NoError(t, err)

	return &testEnv{
		pipeline:  pipeline,
		documents: documentRepo,
		index:     index,
		files:     files,
		dir:       dir,
	}
}

func storedFileCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

// The extractor falls back to printable-text extraction for non-PDF bytes,
// so plain text stands in for document content throughout these tests.
var sampleContent = []byte("The quick brown fox jumps over the lazy dog. " +
	"Go is a statically typed, compiled programming language designed at Google.")

func TestUploadAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.pipeline.Upload(ctx, "session-1", "notes.pdf", sampleContent)
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, "notes.pdf", result.Filename)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, 1, storedFileCount(t, env.dir))

	records, err := env.pipeline.ListDocuments(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.DocumentID, records[0].ID)
	assert.Len(t, records[0].ChunkIDs, result.ChunkCount)

	names, err := env.pipeline.DocumentNames(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.pdf"}, names)

	// The indexed chunks are searchable under the session.
	scope := "session-1"
	results, err := env.index.Search(ctx, "programming language", 5, &scope)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.pipeline.Upload(ctx, "session-1", "notes.txt", sampleContent)
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = env.pipeline.Upload(ctx, "bad:session", "notes.pdf", sampleContent)
	require.ErrorIs(t, err, core.ErrValidation)

	// Rejected uploads leave nothing behind.
	assert.Equal(t, 0, storedFileCount(t, env.dir))
}

func TestUploadEmptyDocument(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No extractable text is "no content", not an error.
	result, err := env.pipeline.Upload(ctx, "session-1", "blank.pdf", []byte{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ChunkCount)

	records, err := env.pipeline.ListDocuments(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].ChunkIDs)
}

type fakeIndex struct {
	insertErr error
	inserted  [][]core.Chunk
	deleted   [][]string
}

func (f *fakeIndex) Insert(ctx context.Context, chunks []core.Chunk) ([]string, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, chunks)
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = fmt.Sprintf("chunk-%d-%d", len(f.inserted), i)
	}
	return ids, nil
}

func (f *fakeIndex) Delete(ctx context.Context, chunkIDs []string) error {
	f.deleted = append(f.deleted, chunkIDs)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, topK int, scope *string) ([]core.ScoredChunk, error) {
	return nil, nil
}

func (f *fakeIndex) Close() error { return nil }

type failingDocumentRepo struct {
	storage.DocumentRepository
}

func (r *failingDocumentRepo) Record(ctx context.Context, filePath, filename string, chunkIDs []string, sessionID string) (string, error) {
	return "", fmt.Errorf("%w: catalog unavailable", core.ErrStorage)
}

func TestUploadRollbackOnIndexFailure(t *testing.T) {
	env := newTestEnv(t)
	index := &fakeIndex{insertErr: fmt.Errorf("%w: embedding service down", core.ErrIndexing)}

	pipeline, err := NewPipeline(env.documents, index, env.files, pdf.NewTextExtractor())
	require.NoError(t, err)

	_, err = pipeline.Upload(context.Background(), "session-1", "notes.pdf", sampleContent)
	require.ErrorIs(t, err, core.ErrIndexing)

	// The stored file was rolled back and no record was written.
	assert.Equal(t, 0, storedFileCount(t, env.dir))
	records, err := env.documents.ListBySession(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadRollbackOnCatalogFailure(t *testing.T) {
	env := newTestEnv(t)
	index := &fakeIndex{}
	documents := &failingDocumentRepo{DocumentRepository: env.documents}

	pipeline, err := NewPipeline(documents, index, env.files, pdf.NewTextExtractor())
	require.NoError(t, err)

	_, err = pipeline.Upload(context.Background(), "session-1", "notes.pdf", sampleContent)
	require.ErrorIs(t, err, core.ErrStorage)

	// The indexed chunks and the stored file were rolled back.
	require.Len(t, index.deleted, 1)
	assert.Equal(t, 0, storedFileCount(t, env.dir))
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.pipeline.Upload(ctx, "session-1", "a.pdf", sampleContent)
	require.NoError(t, err)
	_, err = env.pipeline.Upload(ctx, "session-1", "b.pdf", sampleContent)
	require.NoError(t, err)
	_, err = env.pipeline.Upload(ctx, "session-2", "c.pdf", sampleContent)
	require.NoError(t, err)

	count, err := env.pipeline.DeleteSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Catalog, index and file store no longer hold session-1 data.
	records, err := env.pipeline.ListDocuments(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, records)

	scope := "session-1"
	results, err := env.index.Search(ctx, "quick brown fox", 5, &scope)
	require.NoError(t, err)
	assert.Empty(t, results)

	assert.Equal(t, 1, storedFileCount(t, env.dir))

	// The other session is untouched.
	records, err = env.pipeline.ListDocuments(ctx, "session-2")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Deleting again is a no-op.
	count, err = env.pipeline.DeleteSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
