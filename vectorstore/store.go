package vectorstore

import (
	"context"

	"github.com/chelorope/local-llm-rag/core"
)

// Store indexes text chunks with their embeddings and serves similarity
// search over them.
type Store interface {
	// Insert embeds and indexes the chunks, assigning each a fresh id,
	// and returns the ids in input order. Insertion is all-or-nothing: if
	// any chunk cannot be embedded or stored, no chunk from the call
	// remains in the index. Inserting an empty batch is a no-op.
	Insert(ctx context.Context, chunks []core.Chunk) ([]string, error)

	// Delete removes the chunks with the given ids. Unknown ids are
	// ignored, so deletion is idempotent.
	Delete(ctx context.Context, chunkIDs []string) error

	// Search embeds the query and returns up to topK chunks by descending
	// similarity. A non-nil scope restricts results to chunks whose
	// session id equals *scope, including the empty string; a nil scope
	// searches the whole index and is reserved for trusted internal
	// callers. Fewer than topK results, or none, is not an error.
	Search(ctx context.Context, query string, topK int, scope *string) ([]core.ScoredChunk, error)

	// Close releases resources held by the store.
	Close() error
}
