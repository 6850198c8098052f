// Package ai provides abstractions for the AI services the RAG pipeline
// depends on: text embeddings and answer generation.
//
// The core domain and business logic depend on these interfaces, never on a
// concrete client. Two implementation sub-packages exist:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, OpenAI itself) via langchaingo
//   - ai/mock: deterministic test doubles for unit testing without external
//     services
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; mock constructors return concrete types so tests can inject
// behavior and assert call counts.
package ai
