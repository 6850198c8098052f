package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/chelorope/local-llm-rag/ai"
)

const defaultEmbedBatchSize = 32

// BatchEmbedder embeds chunk texts concurrently over a worker pool. A batch
// either yields a vector for every text or fails as a whole; partial results
// are never returned.
type BatchEmbedder struct {
	embedder  ai.Embedder
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) BatchOption {
	return func(b *BatchEmbedder) error {
		if size < 1 {
			size = 1
		}
		if b.pool != nil {
			b.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithBatchSize sets how many texts are embedded per worker call.
func WithBatchSize(size int) BatchOption {
	return func(b *BatchEmbedder) error {
		if size < 1 {
			size = defaultEmbedBatchSize
		}
		b.batchSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchEmbedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBatchEmbedder creates a BatchEmbedder over the given embedder.
func NewBatchEmbedder(embedder ai.Embedder, opts ...BatchOption) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	b := &BatchEmbedder{
		embedder:  embedder,
		pool:      pool,
		batchSize: defaultEmbedBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(b); optErr != nil {
			b.Release()
			return nil, optErr
		}
	}
	return b, nil
}

// EmbedAll returns one vector per input text, in input order. On any
// failure the whole call fails and no vectors are returned. All vectors are
// verified to share one dimension.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		start, end := start, end

		wg.Add(1)
		err := b.pool.Submit(func() {
			defer wg.Done()
			batch, err := b.embedder.EmbedTexts(ctx, texts[start:end])
			if err != nil {
				setErr(err)
				return
			}
			if len(batch) != end-start {
				setErr(fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start))
				return
			}
			copy(vectors[start:end], batch)
		})
		if err != nil {
			wg.Done()
			setErr(err)
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	dim := len(vectors[0])
	for _, vector := range vectors {
		if len(vector) != dim {
			return nil, ErrDimensionMismatch
		}
	}
	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (b *BatchEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return b.embedder.EmbedText(ctx, query)
}

// Release releases the worker pool. The embedder should not be used after
// calling Release.
func (b *BatchEmbedder) Release() {
	if b.pool != nil {
		b.pool.Release()
	}
}
