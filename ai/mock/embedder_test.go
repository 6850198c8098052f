package mock

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedderDeterministic(t *testing.T) {
	embedder := NewMockEmbedder()

	first, err := embedder.EmbedText(context.Background(), "same text")
	require.NoError(t, err)
	second, err := embedder.EmbedText(context.Background(), "same text")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := embedder.EmbedText(context.Background(), "other text")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMockEmbedderConcurrentUse(t *testing.T) {
	embedder := NewMockEmbedder()

	// Batch embedding fans calls out over pool workers, so the mock must
	// tolerate concurrent callers.
	const callers = 16
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := embedder.EmbedTexts(context.Background(), []string{fmt.Sprintf("text %d", i)}); err != nil {
				t.Errorf("EmbedTexts failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, callers, embedder.CallCount())
}
