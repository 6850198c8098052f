package core

import "time"

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human asking questions.
	RoleUser Role = iota + 1
	// RoleAssistant represents the generated answers.
	RoleAssistant
)

// String returns the wire/storage name of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Page is a single page of text extracted from a source document.
type Page struct {
	Text  string
	Index int
}

// Chunk is a bounded text segment derived from a source document.
// It is the unit of embedding and retrieval. Chunks are immutable once
// created and are owned by the vector store after insertion.
//
// SessionID scopes the chunk to one caller session; the empty string is the
// distinct global scope, not a wildcard. A chunk is never re-associated with
// a different session.
type Chunk struct {
	ID        string
	Text      string
	SessionID string
	// SourcePath is the stored file the chunk was derived from.
	SourcePath string
	// PageIndex is the zero-based page the chunk starts on.
	PageIndex int
	// Position is a zero-based sequential counter over all chunks emitted
	// for one document. It is stable for reproducibility and not reused
	// across documents.
	Position int
}

// DocumentRecord maps an uploaded file to its generated chunk ids and owning
// session. A record is created only after every chunk for the file has been
// indexed, and deleted only together with its chunks and backing file.
type DocumentRecord struct {
	ID        string
	FilePath  string
	Filename  string
	ChunkIDs  []string
	SessionID string
	CreatedAt time.Time
}

// ConversationTurn is one message in a session's chat history.
// Turns are append-only; Sequence is monotonic per session and defines the
// total order of the conversation.
type ConversationTurn struct {
	SessionID string
	Role      Role
	Content   string
	Sequence  uint64
	CreatedAt time.Time
}

// ScoredChunk is a retrieval result: a chunk with its similarity score.
type ScoredChunk struct {
	Chunk Chunk
	Score float32
}
