package embedded

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/chelorope/local-llm-rag/core"
	storagebadger "github.com/chelorope/local-llm-rag/storage/badger"
	"github.com/chelorope/local-llm-rag/vectorstore"
)

// DefaultCollection is the key-prefix namespace used for indexed chunks
// unless overridden.
const DefaultCollection = "chunks"

// Store implements vectorstore.Store on a local BadgerDB instance. The
// store owns its backend; the batch embedder is owned by the caller.
//
// Key layout, mirroring the storage repositories:
//
//	<collection>:v:<session>:<chunkID>  chunk record with its vector
//	<collection>:i:<chunkID>            chunk id -> record key
//	<collection>:m:dim                  index dimension (big-endian uint64)
type Store struct {
	backend    *storagebadger.Backend
	collection string
	embed      *vectorstore.BatchEmbedder
	logger     *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithCollection overrides the collection name.
func WithCollection(name string) Option {
	return func(s *Store) error {
		if name == "" || strings.Contains(name, ":") {
			return fmt.Errorf("invalid collection name %q", name)
		}
		s.collection = name
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// New opens an embedded vector store at path. An empty path with inMemory
// set opens a transient in-memory index, used in tests.
func New(path string, inMemory bool, embed *vectorstore.BatchEmbedder, opts ...Option) (*Store, error) {
	if embed == nil {
		return nil, vectorstore.ErrEmbedderRequired
	}

	backend, err := storagebadger.OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend:    backend,
		collection: DefaultCollection,
		embed:      embed,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			backend.Close()
			return nil, optErr
		}
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) chunkKey(sessionID, chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:v:%s:%s", s.collection, sessionID, chunkID))
}

func (s *Store) scanPrefix(scope *string) []byte {
	if scope == nil {
		return []byte(fmt.Sprintf("%s:v:", s.collection))
	}
	return []byte(fmt.Sprintf("%s:v:%s:", s.collection, *scope))
}

func (s *Store) idKey(chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:i:%s", s.collection, chunkID))
}

func (s *Store) dimKey() []byte {
	return []byte(fmt.Sprintf("%s:m:dim", s.collection))
}

// Insert embeds and indexes the chunks in a single transaction, so either
// every chunk from the batch becomes visible or none does.
func (s *Store) Insert(ctx context.Context, chunks []core.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	for _, chunk := range chunks {
		if err := core.ValidateSessionID(chunk.SessionID); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embed.EmbedAll(ctx, texts)
	if err != nil {
		if errors.Is(err, core.ErrIndexing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embed chunks: %w", core.ErrIndexing, err)
	}

	ids := make([]string, len(chunks))
	write := func(tx *badger.Txn) error {
		if err := s.checkDimension(tx, len(vectors[0])); err != nil {
			return err
		}

		for i := range chunks {
			record := &chunkRecord{Chunk: chunks[i], Vector: vectors[i]}
			record.Chunk.ID = uuid.NewString()

			key := s.chunkKey(record.Chunk.SessionID, record.Chunk.ID)
			if err := tx.Set(key, marshalChunkRecord(record)); err != nil {
				return err
			}
			if err := tx.Set(s.idKey(record.Chunk.ID), key); err != nil {
				return err
			}
			ids[i] = record.Chunk.ID
		}
		return tx.Commit()
	}
	// Concurrent first inserts race on the dimension marker; the losing
	// commit conflicts and is retried against the now-pinned dimension.
	for {
		err = s.backend.WithTx(write, true)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, core.ErrIndexing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: index chunks: %w", core.ErrIndexing, err)
	}
	return ids, nil
}

// checkDimension pins the index to the dimension of its first insert.
func (s *Store) checkDimension(tx *badger.Txn, dim int) error {
	item, err := tx.Get(s.dimKey())
	if errors.Is(err, badger.ErrKeyNotFound) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(dim))
		return tx.Set(s.dimKey(), buf[:])
	}
	if err != nil {
		return err
	}

	var existing uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("dimension marker has %d bytes, want 8", len(val))
		}
		existing = binary.BigEndian.Uint64(val)
		return nil
	})
	if err != nil {
		return err
	}
	if existing != uint64(dim) {
		return fmt.Errorf("%w: index has dimension %d, got %d", vectorstore.ErrDimensionMismatch, existing, dim)
	}
	return nil
}

// Delete removes the chunks with the given ids. Unknown ids are skipped.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunkID := range chunkIDs {
			item, err := tx.Get(s.idKey(chunkID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			key, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(s.idKey(chunkID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: delete chunks: %w", core.ErrStorage, err)
	}
	return nil
}

// Search embeds the query and scans the scope's chunks, scoring each with
// cosine similarity.
func (s *Store) Search(ctx context.Context, query string, topK int, scope *string) ([]core.ScoredChunk, error) {
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}
	if err := core.ValidateQuestion(query); err != nil {
		return nil, err
	}
	if scope != nil && *scope != "" {
		if err := core.ValidateSessionID(*scope); err != nil {
			return nil, err
		}
	}

	queryVector, err := s.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", core.ErrRetrieval, err)
	}

	var results []core.ScoredChunk
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = s.scanPrefix(scope)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := unmarshalChunkRecord(val)
				if err != nil {
					return err
				}
				score := cosineSimilarity(queryVector, record.Vector)
				results = append(results, core.ScoredChunk{
					Chunk: record.Chunk,
					Score: score,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: scan index: %w", core.ErrRetrieval, err)
	}

	slices.SortFunc(results, func(a, b core.ScoredChunk) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.Chunk.ID, b.Chunk.ID)
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors, or
// zero when either vector is degenerate.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
