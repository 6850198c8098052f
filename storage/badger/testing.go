package badger

import "github.com/chelorope/local-llm-rag/storage"

// NewMemoryRepositories creates in-memory document and conversation
// repositories for testing. Returns documentRepo, conversationRepo, backend,
// and error. Caller must close both repos and backend when done.
func NewMemoryRepositories() (storage.DocumentRepository, storage.ConversationRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}

	documentRepo, err := NewDocumentRepository(backend, DefaultDocumentCollection)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}

	conversationRepo, err := NewConversationRepository(backend, DefaultConversationCollection)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, nil, nil, err
	}

	return documentRepo, conversationRepo, backend, nil
}
