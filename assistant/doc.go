// Package assistant implements the conversational question answering flow:
// retrieve context for the session, assemble the prompt, generate an answer
// and persist both turns of the exchange.
//
// The flow degrades rather than fails when retrieval comes up empty: a
// session with no indexed documents, or a transient search failure, produces
// an answer grounded in the explicit "no documents" context. Generation
// failure is the only step that fails a turn; by then the user's question is
// already persisted, and no assistant turn is written.
package assistant
