package badger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend    *Backend
	collection string
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository over the named
// collection.
func NewDocumentRepository(backend *Backend, collection string) (*DocumentRepository, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return &DocumentRepository{
		backend:    backend,
		collection: collection,
	}, nil
}

// Close implements storage.DocumentRepository. The shared backend is owned
// by the caller, so there is nothing to release here.
func (r *DocumentRepository) Close() error {
	return nil
}

// Record registers an indexed document and returns its generated id.
func (r *DocumentRepository) Record(ctx context.Context, filePath, filename string, chunkIDs []string, sessionID string) (string, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	if filePath == "" {
		return "", fmt.Errorf("%w: file path must not be empty", core.ErrValidation)
	}

	record := &core.DocumentRecord{
		ID:        uuid.NewString(),
		FilePath:  filePath,
		Filename:  filename,
		ChunkIDs:  slices.Clone(chunkIDs),
		SessionID: sessionID,
		CreatedAt: time.Now().UTC(),
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(r.collection, sessionID, record.ID)
		if err := tx.Set(key, storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", fmt.Errorf("%w: record document: %w", core.ErrStorage, err)
	}
	return record.ID, nil
}

// ListBySession returns the session's document records, oldest first.
func (r *DocumentRepository) ListBySession(ctx context.Context, sessionID string) ([]*core.DocumentRecord, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	records := []*core.DocumentRecord{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(r.collection, sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalDocumentRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %w", core.ErrStorage, err)
	}

	// Keys are ordered by random document id, so restore insertion order.
	slices.SortFunc(records, func(a, b *core.DocumentRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return records, nil
}

// DeleteBySession removes all of the session's records and reports how many
// were removed.
func (r *DocumentRepository) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDocumentPrefix(r.collection, sessionID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var keys [][]byte
		for iter.Rewind(); iter.Valid(); iter.Next() {
			keys = append(keys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for _, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		count = len(keys)
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, fmt.Errorf("%w: delete documents: %w", core.ErrStorage, err)
	}
	return count, nil
}
