package chunker

import (
	"strings"
	"testing"

	"github.com/chelorope/local-llm-rag/core"
)

func TestChunkEmptyDocument(t *testing.T) {
	c := New(1000, 200)

	chunks, err := c.Chunk(nil, "s1", "/tmp/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}

	chunks, err = c.Chunk([]core.Page{{Text: "   \n\t ", Index: 0}}, "s1", "/tmp/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace page, got %d", len(chunks))
	}
}

func TestChunkMetadata(t *testing.T) {
	c := New(1000, 200)

	pages := []core.Page{
		{Text: strings.Repeat("First page sentence. ", 40), Index: 0},
		{Text: strings.Repeat("Second page sentence. ", 40), Index: 1},
	}

	chunks, err := c.Chunk(pages, "s1", "/data/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if chunk.SessionID != "s1" {
			t.Fatalf("chunk %d: expected session 's1', got %q", i, chunk.SessionID)
		}
		if chunk.SourcePath != "/data/doc.pdf" {
			t.Fatalf("chunk %d: unexpected source path %q", i, chunk.SourcePath)
		}
		if chunk.Position != i {
			t.Fatalf("chunk %d: expected position %d, got %d", i, i, chunk.Position)
		}
		if chunk.ID != "" {
			t.Fatalf("chunk %d: expected empty id before indexing", i)
		}
	}

	// Chunks from the second page must carry its page index.
	last := chunks[len(chunks)-1]
	if last.PageIndex != 1 {
		t.Fatalf("expected last chunk on page 1, got %d", last.PageIndex)
	}
}

func TestChunkSizeBound(t *testing.T) {
	c := New(100, 20)

	pages := []core.Page{{Text: strings.Repeat("Lorem ipsum dolor sit amet. ", 50), Index: 0}}
	chunks, err := c.Chunk(pages, "", "/data/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 100 {
			t.Fatalf("chunk %d exceeds max size: %d characters", i, len(chunk.Text))
		}
	}
}

func TestChunkShorterThanOverlap(t *testing.T) {
	c := New(1000, 200)

	// A page far shorter than the overlap still yields exactly one chunk
	// bounded by its own length.
	pages := []core.Page{{Text: "Tiny page.", Index: 3}}
	chunks, err := c.Chunk(pages, "s1", "/data/doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Tiny page." {
		t.Fatalf("unexpected chunk text %q", chunks[0].Text)
	}
	if chunks[0].PageIndex != 3 {
		t.Fatalf("expected page index 3, got %d", chunks[0].PageIndex)
	}
}

func TestChunkCoversAllText(t *testing.T) {
	c := New(200, 40)

	text := strings.Repeat("All work and no play makes for dull documents. ", 30)
	chunks, err := c.Chunk([]core.Page{{Text: text, Index: 0}}, "s1", "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every sentence of the source must appear in at least one chunk.
	var joined strings.Builder
	for _, chunk := range chunks {
		joined.WriteString(chunk.Text)
		joined.WriteString(" ")
	}
	if !strings.Contains(joined.String(), "dull documents") {
		t.Fatal("chunk text lost source content")
	}
}

func TestNewClampsArguments(t *testing.T) {
	c := New(0, -1)
	if c.MaxSize() != DefaultChunkSize {
		t.Fatalf("expected default size, got %d", c.MaxSize())
	}
	if c.Overlap() != DefaultChunkOverlap {
		t.Fatalf("expected default overlap, got %d", c.Overlap())
	}

	// Overlap must stay below the chunk size.
	c = New(100, 150)
	if c.Overlap() >= c.MaxSize() {
		t.Fatalf("overlap %d not clamped below size %d", c.Overlap(), c.MaxSize())
	}
}
