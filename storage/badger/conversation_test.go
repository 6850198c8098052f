package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/chelorope/local-llm-rag/core"
)

func TestConversationAppendAndList(t *testing.T) {
	documentRepo, conversationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	first, err := conversationRepo.Append(ctx, "session-1", core.RoleUser, "What is Go?")
	if err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	if first.Sequence != 1 {
		t.Fatalf("Expected sequence 1, got %d", first.Sequence)
	}

	second, err := conversationRepo.Append(ctx, "session-1", core.RoleAssistant, "A programming language.")
	if err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	if second.Sequence != 2 {
		t.Fatalf("Expected sequence 2, got %d", second.Sequence)
	}

	turns, err := conversationRepo.List(ctx, "session-1")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != core.RoleUser || turns[0].Content != "What is Go?" {
		t.Errorf("Unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != core.RoleAssistant {
		t.Errorf("Unexpected second turn: %+v", turns[1])
	}
}

func TestConversationAppendValidation(t *testing.T) {
	documentRepo, conversationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	if _, err := conversationRepo.Append(ctx, "session-1", core.Role(99), "hello"); err == nil {
		t.Error("Expected error for unknown role")
	} else if !errors.Is(err, core.ErrInvalidRole) {
		t.Errorf("Expected invalid role error, got %v", err)
	}

	if _, err := conversationRepo.Append(ctx, "session-1", core.RoleUser, "   "); err == nil {
		t.Error("Expected error for blank content")
	} else if !errors.Is(err, core.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}

	// Nothing should have been stored.
	turns, err := conversationRepo.List(ctx, "session-1")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Expected no turns, got %d", len(turns))
	}
}

func TestConversationConcurrentAppend(t *testing.T) {
	documentRepo, conversationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	const writers = 8
	const perWriter = 5

	var wg sync.WaitGroup
	errs := make(chan error, writers*perWriter)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				content := fmt.Sprintf("writer %d message %d", i, j)
				if _, err := conversationRepo.Append(ctx, "session-1", core.RoleUser, content); err != nil {
					errs <- err
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Concurrent append failed: %v", err)
	}

	turns, err := conversationRepo.List(ctx, "session-1")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != writers*perWriter {
		t.Fatalf("Expected %d turns, got %d", writers*perWriter, len(turns))
	}

	// Sequences are dense, unique and returned in order.
	for i, turn := range turns {
		if turn.Sequence != uint64(i+1) {
			t.Fatalf("Expected sequence %d at position %d, got %d", i+1, i, turn.Sequence)
		}
	}
}

func TestConversationSessionIsolation(t *testing.T) {
	documentRepo, conversationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	if _, err := conversationRepo.Append(ctx, "session-a", core.RoleUser, "hello a"); err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	if _, err := conversationRepo.Append(ctx, "session-b", core.RoleUser, "hello b"); err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}

	turns, err := conversationRepo.List(ctx, "session-a")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "hello a" {
		t.Fatalf("Expected only session-a's turn, got %+v", turns)
	}

	// Sequences are independent per session.
	turn, err := conversationRepo.Append(ctx, "session-b", core.RoleAssistant, "hi")
	if err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	if turn.Sequence != 2 {
		t.Fatalf("Expected sequence 2 for session-b, got %d", turn.Sequence)
	}
}

func TestConversationClear(t *testing.T) {
	documentRepo, conversationRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	if _, err := conversationRepo.Append(ctx, "session-1", core.RoleUser, "hello"); err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}
	if _, err := conversationRepo.Append(ctx, "session-2", core.RoleUser, "other"); err != nil {
		t.Fatalf("Failed to append turn: %v", err)
	}

	if err := conversationRepo.Clear(ctx, "session-1"); err != nil {
		t.Fatalf("Failed to clear turns: %v", err)
	}

	turns, err := conversationRepo.List(ctx, "session-1")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("Expected no turns after clear, got %d", len(turns))
	}

	turns, err = conversationRepo.List(ctx, "session-2")
	if err != nil {
		t.Fatalf("Failed to list turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("Expected session-2 to keep its turn, got %d", len(turns))
	}

	// Clearing an unknown session is a no-op.
	if err := conversationRepo.Clear(ctx, "never-seen"); err != nil {
		t.Fatalf("Failed to clear unknown session: %v", err)
	}
}
