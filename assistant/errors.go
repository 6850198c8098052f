package assistant

import "errors"

var (
	// ErrVectorStoreRequired is returned when an assistant is constructed
	// without a vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrConversationRepositoryRequired is returned when an assistant is
	// constructed without a conversation repository.
	ErrConversationRepositoryRequired = errors.New("conversation repository is required")

	// ErrGeneratorRequired is returned when an assistant is constructed
	// without a generator.
	ErrGeneratorRequired = errors.New("generator is required")
)
