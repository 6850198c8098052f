// Package vectorstore defines the embedding index abstraction: chunk
// insertion with all-or-nothing semantics, idempotent deletion by id, and
// session-scoped similarity search.
//
// Two implementations exist. vectorstore/embedded keeps vectors in the local
// BadgerDB instance and searches them with brute-force cosine similarity;
// vectorstore/qdrant talks to a Qdrant server over its REST API. Both are
// constructed through the application wiring, which picks the variant from
// configuration, so the rest of the system only ever sees the Store
// interface.
//
// BatchEmbedder is shared by the implementations: it fans a batch of chunk
// texts out over a worker pool and either returns a vector for every text or
// fails the whole batch.
package vectorstore
