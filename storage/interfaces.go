package storage

import (
	"context"

	"github.com/chelorope/local-llm-rag/core"
)

// DocumentRepository manages the catalog of indexed documents. Records are
// scoped to a session and are only ever listed or removed through their
// session.
type DocumentRepository interface {
	// Record registers an indexed document and returns its generated id.
	// It is the last step of an ingestion: a record only exists for a
	// document whose file and chunks are already in place.
	Record(ctx context.Context, filePath, filename string, chunkIDs []string, sessionID string) (string, error)

	// ListBySession returns all document records for the session, oldest
	// first. An unknown session yields an empty slice, not an error.
	ListBySession(ctx context.Context, sessionID string) ([]*core.DocumentRecord, error)

	// DeleteBySession removes every record for the session and returns
	// the number of records removed. Deleting an unknown session is not
	// an error and reports zero.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ConversationRepository persists per-session conversation history.
type ConversationRepository interface {
	// Append validates and stores a turn, assigning it the next sequence
	// number for the session. Appends within a session are totally
	// ordered, including under concurrent callers.
	Append(ctx context.Context, sessionID string, role core.Role, content string) (*core.ConversationTurn, error)

	// List returns the session's turns in append order. An unknown
	// session yields an empty slice.
	List(ctx context.Context, sessionID string) ([]*core.ConversationTurn, error)

	// Clear removes all turns for the session. Clearing an unknown
	// session is a no-op.
	Clear(ctx context.Context, sessionID string) error

	// Close releases resources held by the repository.
	Close() error
}
