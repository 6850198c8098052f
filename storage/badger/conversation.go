package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/storage"
)

// ConversationRepository implements storage.ConversationRepository for
// BadgerDB. The sequence counter is read and advanced inside the same write
// transaction as the turn itself, under a repository-wide mutex, so appends
// within a session are totally ordered even under concurrent callers.
type ConversationRepository struct {
	backend    *Backend
	collection string

	mu sync.Mutex
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository over the
// named collection.
func NewConversationRepository(backend *Backend, collection string) (*ConversationRepository, error) {
	if err := validateCollection(collection); err != nil {
		return nil, err
	}
	return &ConversationRepository{
		backend:    backend,
		collection: collection,
	}, nil
}

// Close implements storage.ConversationRepository. The shared backend is
// owned by the caller.
func (r *ConversationRepository) Close() error {
	return nil
}

// Append validates and stores a turn with the session's next sequence number.
func (r *ConversationRepository) Append(ctx context.Context, sessionID string, role core.Role, content string) (*core.ConversationTurn, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := core.ValidateRole(role); err != nil {
		return nil, err
	}
	if err := core.ValidateTurnContent(content); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var turn *core.ConversationTurn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seq, err := r.nextSequence(tx, sessionID)
		if err != nil {
			return err
		}

		turn = &core.ConversationTurn{
			SessionID: sessionID,
			Role:      role,
			Content:   content,
			Sequence:  seq,
			CreatedAt: time.Now().UTC(),
		}

		key := makeTurnKey(r.collection, sessionID, seq)
		if err := tx.Set(key, storage.MarshalConversationTurn(turn)); err != nil {
			return err
		}

		var seqBuf [8]byte
		binary.BigEndian.PutUint64(seqBuf[:], seq)
		if err := tx.Set(makeTurnSeqKey(r.collection, sessionID), seqBuf[:]); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, fmt.Errorf("%w: append turn: %w", core.ErrStorage, err)
	}
	return turn, nil
}

// nextSequence returns the session's next sequence number, starting at 1.
func (r *ConversationRepository) nextSequence(tx *badger.Txn, sessionID string) (uint64, error) {
	item, err := tx.Get(makeTurnSeqKey(r.collection, sessionID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	var current uint64
	err = item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("sequence counter has %d bytes, want 8", len(val))
		}
		current = binary.BigEndian.Uint64(val)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

// List returns the session's turns in append order.
func (r *ConversationRepository) List(ctx context.Context, sessionID string) ([]*core.ConversationTurn, error) {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}

	turns := []*core.ConversationTurn{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTurnPrefix(r.collection, sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Keys embed the big-endian sequence, so iteration order is
		// append order.
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				turn, err := storage.UnmarshalConversationTurn(val)
				if err != nil {
					return err
				}
				turns = append(turns, turn)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("%w: list turns: %w", core.ErrStorage, err)
	}
	return turns, nil
}

// Clear removes the session's turns and its sequence counter.
func (r *ConversationRepository) Clear(ctx context.Context, sessionID string) error {
	if err := core.ValidateSessionID(sessionID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTurnPrefix(r.collection, sessionID)
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
		if err := tx.Delete(makeTurnSeqKey(r.collection, sessionID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return fmt.Errorf("%w: clear turns: %w", core.ErrStorage, err)
	}
	return nil
}
