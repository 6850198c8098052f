// Package storage provides the storage abstraction layer for the document
// catalog and the conversation store.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages follow a strict "return
// interface" pattern to enforce abstraction:
//
//	repo, err := badger.NewDocumentRepository(backend, collection)
//
// # Collections and Session Scoping
//
// Each repository owns one named collection, a key-prefix namespace inside
// the backing store. All records for a session live under a single
// session-equality prefix, so a session's records are always selectable by
// one prefix scan and can never be observed through another session's scan.
// Session ids are validated at the domain boundary to a charset that cannot
// contain the key delimiter.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Conversation appends are totally ordered
// per session.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
