package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chelorope/local-llm-rag/chunker"
	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/filestore"
	"github.com/chelorope/local-llm-rag/pdf"
	"github.com/chelorope/local-llm-rag/storage"
	"github.com/chelorope/local-llm-rag/vectorstore"
)

// Pipeline orchestrates document ingestion and session deletion across the
// file store, the vector store and the document catalog.
type Pipeline struct {
	documents storage.DocumentRepository
	index     vectorstore.Store
	files     *filestore.Store
	extractor pdf.Extractor
	chunker   *chunker.Chunker
	logger    *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithChunker overrides the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	index vectorstore.Store,
	files *filestore.Store,
	extractor pdf.Extractor,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if index == nil {
		return nil, ErrVectorStoreRequired
	}
	if files == nil {
		return nil, ErrFileStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	p := &Pipeline{
		documents: documents,
		index:     index,
		files:     files,
		extractor: extractor,
		chunker:   chunker.New(chunker.DefaultChunkSize, chunker.DefaultChunkOverlap),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// UploadResult describes a completed upload.
type UploadResult struct {
	DocumentID string
	Filename   string
	PageCount  int
	ChunkCount int
}

// Upload stores and indexes one PDF document for the session. The catalog
// record is written last, after the file and every chunk are in place; on
// failure anything already produced is rolled back best-effort, so a failed
// upload leaves no trace a later retry would collide with. A document with
// no extractable text is recorded with zero chunks rather than rejected.
func (p *Pipeline) Upload(ctx context.Context, sessionID, filename string, content []byte) (*UploadResult, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := core.ValidateFilename(filename); err != nil {
		return nil, err
	}

	path, err := p.files.Save(content, core.SupportedFileExtension)
	if err != nil {
		return nil, fmt.Errorf("%w: save file: %w", core.ErrStorage, err)
	}

	pages, err := p.extractor.ExtractPages(ctx, path)
	if err != nil {
		p.discardFile(path)
		return nil, fmt.Errorf("%w: extract pages: %w", core.ErrIndexing, err)
	}

	chunks, err := p.chunker.Chunk(pages, sessionID, path)
	if err != nil {
		p.discardFile(path)
		return nil, fmt.Errorf("%w: chunk pages: %w", core.ErrIndexing, err)
	}

	chunkIDs, err := p.index.Insert(ctx, chunks)
	if err != nil {
		p.discardFile(path)
		return nil, err
	}

	documentID, err := p.documents.Record(ctx, path, filename, chunkIDs, sessionID)
	if err != nil {
		if delErr := p.index.Delete(ctx, chunkIDs); delErr != nil {
			p.logger.Error("rollback of indexed chunks failed", "err", delErr, "session_id", sessionID)
		}
		p.discardFile(path)
		return nil, err
	}

	p.logger.Info("document ingested",
		"session_id", sessionID,
		"document_id", documentID,
		"filename", filename,
		"pages", len(pages),
		"chunks", len(chunkIDs))

	return &UploadResult{
		DocumentID: documentID,
		Filename:   filename,
		PageCount:  len(pages),
		ChunkCount: len(chunkIDs),
	}, nil
}

func (p *Pipeline) discardFile(path string) {
	if _, err := p.files.Delete(path); err != nil {
		p.logger.Error("rollback of stored file failed", "err", err, "path", path)
	}
}

// ListDocuments returns the session's catalog records, oldest first.
func (p *Pipeline) ListDocuments(ctx context.Context, sessionID string) ([]*core.DocumentRecord, error) {
	return p.documents.ListBySession(ctx, sessionID)
}

// DocumentNames returns the original filenames of the session's documents.
func (p *Pipeline) DocumentNames(ctx context.Context, sessionID string) ([]string, error) {
	records, err := p.documents.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(records))
	for i, record := range records {
		names[i] = record.Filename
	}
	return names, nil
}

// DeleteSession removes every document the session owns and reports how
// many were removed. Per document the order is file, then index entries;
// catalog records go last, so an interrupted deletion can leave an orphaned
// catalog entry but never an index entry pointing at a deleted document.
func (p *Pipeline) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	records, err := p.documents.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	for _, record := range records {
		if _, err := p.files.Delete(record.FilePath); err != nil {
			return 0, fmt.Errorf("%w: delete file %s: %w", core.ErrStorage, record.FilePath, err)
		}
		if err := p.index.Delete(ctx, record.ChunkIDs); err != nil {
			return 0, err
		}
	}

	count, err := p.documents.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	p.logger.Info("session documents deleted", "session_id", sessionID, "count", count)
	return count, nil
}
