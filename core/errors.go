package core

import "errors"

// Error taxonomy. Every failure surfaced by a component wraps exactly one of
// these so callers can map it to a user-visible category without inspecting
// messages.
var (
	// ErrValidation indicates bad input, rejected before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrIndexing indicates an embedding or vector store failure during
	// upload. No catalog record is created for the failed document.
	ErrIndexing = errors.New("indexing failed")

	// ErrRetrieval indicates the search backend was unavailable. Chat
	// degrades to answering without grounding rather than failing.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrGeneration indicates the generation call failed or timed out.
	// The user turn remains recorded; no assistant turn is appended.
	ErrGeneration = errors.New("generation failed")

	// ErrStorage indicates the catalog or conversation backend failed.
	ErrStorage = errors.New("storage failed")
)

// Domain validation errors, wrapped under ErrValidation.
var (
	// ErrEmptyQuestion indicates a chat request with no question text.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrInvalidSessionID indicates a session id with unsupported characters.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrUnsupportedFile indicates an upload with an unsupported filename.
	ErrUnsupportedFile = errors.New("unsupported file type")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyContent indicates a conversation turn with no content.
	ErrEmptyContent = errors.New("content cannot be empty")
)
