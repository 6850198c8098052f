package ingestion

import "errors"

var (
	// ErrDocumentRepositoryRequired is returned when a pipeline is
	// constructed without a document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository is required")

	// ErrVectorStoreRequired is returned when a pipeline is constructed
	// without a vector store.
	ErrVectorStoreRequired = errors.New("vector store is required")

	// ErrFileStoreRequired is returned when a pipeline is constructed
	// without a file store.
	ErrFileStoreRequired = errors.New("file store is required")

	// ErrExtractorRequired is returned when a pipeline is constructed
	// without a page extractor.
	ErrExtractorRequired = errors.New("extractor is required")
)
