package vectorstore

import (
	"fmt"

	"github.com/chelorope/local-llm-rag/core"
)

var (
	// ErrEmbedderRequired is returned when a store or batch embedder is
	// constructed without an embedder.
	ErrEmbedderRequired = fmt.Errorf("embedder is required")

	// ErrDimensionMismatch is returned when an embedding's dimension does
	// not match the rest of the index.
	ErrDimensionMismatch = fmt.Errorf("%w: embedding dimension mismatch", core.ErrIndexing)

	// ErrInvalidTopK is returned when a search is requested with a
	// non-positive result limit.
	ErrInvalidTopK = fmt.Errorf("%w: top-k must be positive", core.ErrValidation)
)
