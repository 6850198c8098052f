package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chelorope/local-llm-rag/ai"
	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/storage"
	"github.com/chelorope/local-llm-rag/vectorstore"
)

// DefaultTopK is how many chunks are retrieved per question unless
// overridden.
const DefaultTopK = 4

// Assistant answers questions grounded in the session's indexed documents
// and keeps the conversation history.
type Assistant struct {
	index         vectorstore.Store
	conversations storage.ConversationRepository
	generator     ai.Generator
	topK          int
	logger        *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant) error

// WithTopK sets how many chunks are retrieved per question.
// Default is DefaultTopK.
func WithTopK(k int) Option {
	return func(a *Assistant) error {
		if k < 1 {
			k = DefaultTopK
		}
		a.topK = k
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// New creates an Assistant.
func New(
	index vectorstore.Store,
	conversations storage.ConversationRepository,
	generator ai.Generator,
	opts ...Option,
) (*Assistant, error) {
	if index == nil {
		return nil, ErrVectorStoreRequired
	}
	if conversations == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Assistant{
		index:         index,
		conversations: conversations,
		generator:     generator,
		topK:          DefaultTopK,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Ask answers the question under the session and returns the persisted
// assistant turn.
func (a *Assistant) Ask(ctx context.Context, sessionID, question string) (*core.ConversationTurn, error) {
	return a.AskWithMonitor(ctx, sessionID, question, nil)
}

// AskWithMonitor answers the question with observation hooks. The question
// is persisted before retrieval, so a failed turn still shows up in the
// history; the assistant turn is only written once generation succeeded.
// Retrieval never fails the turn: search errors and empty sessions both
// degrade to the no-documents context.
func (a *Assistant) AskWithMonitor(ctx context.Context, sessionID, question string, monitor AskMonitor) (*core.ConversationTurn, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	if err := core.ValidateQuestion(question); err != nil {
		return nil, err
	}
	monitor.Start(question)

	if _, err := a.conversations.Append(ctx, sessionID, core.RoleUser, question); err != nil {
		return nil, err
	}

	results, err := a.index.Search(ctx, question, a.topK, &sessionID)
	if err != nil {
		// The turn must still be answerable, so fall back to the
		// no-documents context instead of surfacing the failure.
		a.logger.Error("retrieval failed, answering without context", "err", err, "session_id", sessionID)
		monitor.RetrievalDegraded(err)
		results = nil
	}
	monitor.AfterRetrieval(results)

	prompt := buildPrompt(buildContext(results), question)
	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, core.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrGeneration, err)
	}
	monitor.AfterGeneration(answer)

	turn, err := a.conversations.Append(ctx, sessionID, core.RoleAssistant, answer)
	if err != nil {
		return nil, err
	}
	monitor.Finish(turn)

	a.logger.Info("question answered",
		"session_id", sessionID,
		"retrieved_chunks", len(results),
		"sequence", turn.Sequence)
	return turn, nil
}

// Messages returns the session's conversation history in order.
func (a *Assistant) Messages(ctx context.Context, sessionID string) ([]*core.ConversationTurn, error) {
	return a.conversations.List(ctx, sessionID)
}

// ClearMessages removes the session's conversation history.
func (a *Assistant) ClearMessages(ctx context.Context, sessionID string) error {
	return a.conversations.Clear(ctx, sessionID)
}
