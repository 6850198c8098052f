package chunker

import (
	"strings"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of characters repeated between
	// consecutive chunks.
	DefaultChunkOverlap = 200
)

// Chunker splits extracted document pages into overlapping segments tagged
// with session and provenance metadata. It is a pure transformation with no
// storage or network side effects.
//
// Splitting breaks preferentially at paragraph and sentence boundaries and
// falls back to a hard cut when none is present within the size limit.
type Chunker struct {
	maxSize  int
	overlap  int
	splitter textsplitter.RecursiveCharacter
}

// New creates a Chunker producing segments of at most maxSize characters,
// with overlap characters repeated between consecutive segments.
// Non-positive arguments fall back to the defaults.
func New(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultChunkOverlap
		if overlap >= maxSize {
			overlap = maxSize / 4
		}
	}
	return &Chunker{
		maxSize: maxSize,
		overlap: overlap,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(maxSize),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

// Chunk splits the document pages into chunks carrying sessionID, sourcePath
// and the originating page index. Position is a zero-based counter over all
// chunks emitted for this document.
//
// An empty document yields an empty chunk sequence, not an error; the caller
// must treat that as "no content". Chunk IDs are left empty and assigned by
// the vector store at insertion.
func (c *Chunker) Chunk(pages []core.Page, sessionID, sourcePath string) ([]core.Chunk, error) {
	var chunks []core.Chunk
	position := 0

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		segments, err := c.splitter.SplitText(page.Text)
		if err != nil {
			return nil, err
		}

		for _, segment := range segments {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			chunks = append(chunks, core.Chunk{
				Text:       segment,
				SessionID:  sessionID,
				SourcePath: sourcePath,
				PageIndex:  page.Index,
				Position:   position,
			})
			position++
		}
	}

	return chunks, nil
}

// MaxSize returns the configured maximum chunk length.
func (c *Chunker) MaxSize() int { return c.maxSize }

// Overlap returns the configured overlap length.
func (c *Chunker) Overlap() int { return c.overlap }
