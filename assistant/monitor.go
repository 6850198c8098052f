package assistant

import "github.com/chelorope/local-llm-rag/core"

// AskMonitor provides hooks to observe the question answering flow.
// All methods are called synchronously; implementations should be fast.
type AskMonitor interface {
	// Start is called with the validated question.
	Start(question string)
	// AfterRetrieval is called with the retrieved chunks, which may be
	// empty.
	AfterRetrieval(results []core.ScoredChunk)
	// RetrievalDegraded is called when retrieval failed and the
	// no-documents context was substituted.
	RetrievalDegraded(err error)
	// AfterGeneration is called with the generated answer.
	AfterGeneration(answer string)
	// Finish is called with the persisted assistant turn.
	Finish(turn *core.ConversationTurn)
}

// noopMonitor is a no-op implementation of AskMonitor
// used when no monitor is provided.
type noopMonitor struct{}

var _ AskMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterRetrieval(_ []core.ScoredChunk) {}
func (n *noopMonitor) RetrievalDegraded(_ error)           {}
func (n *noopMonitor) AfterGeneration(_ string)            {}
func (n *noopMonitor) Finish(_ *core.ConversationTurn)     {}
