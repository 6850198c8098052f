package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/ledongthuc/pdf"
)

// Extractor produces page-wise plain text from PDF files.
// Implementations may produce an empty page sequence for image-only PDFs;
// callers must treat that as "no content", not an error.
type Extractor interface {
	// ExtractPages returns the text of each page in order. Page indexes are
	// zero-based.
	ExtractPages(ctx context.Context, path string) ([]core.Page, error)
}

// TextExtractor implements Extractor using a pure-Go PDF reader with a
// printable-text fallback for files the reader cannot parse.
type TextExtractor struct {
	logger *slog.Logger
}

var _ Extractor = (*TextExtractor)(nil)

// NewTextExtractor creates a new PDF text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		logger: slog.Default().With("component", "pdf-extractor"),
	}
}

// ExtractPages reads the file and extracts plain text page by page.
func (e *TextExtractor) ExtractPages(ctx context.Context, path string) ([]core.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return e.extract(ctx, data)
}

func (e *TextExtractor) extract(ctx context.Context, data []byte) ([]core.Page, error) {
	if len(data) == 0 {
		return nil, nil
	}

	pages, err := e.readPages(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		// Not parseable as PDF structure; salvage printable text as a
		// single page.
		e.logger.Warn("pdf reader failed, falling back to printable text", "err", err)
		return fallbackPages(data), nil
	}
	return pages, nil
}

// readPages walks the PDF page tree. The reader panics on some malformed
// files, so the panic is converted to an error and the fallback takes over.
func (e *TextExtractor) readPages(ctx context.Context, data []byte) (pages []core.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	for num := 1; num <= reader.NumPage(); num++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(num)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("failed to extract page text", "page", num, "err", err)
			continue
		}
		pages = append(pages, core.Page{Text: text, Index: num - 1})
	}

	return pages, nil
}

func fallbackPages(data []byte) []core.Page {
	text := extractPrintableText(data)
	if len(bytes.TrimSpace(text)) == 0 {
		return nil
	}
	return []core.Page{{Text: string(text), Index: 0}}
}

// extractPrintableText keeps printable runes and common whitespace, dropping
// binary content.
func extractPrintableText(in []byte) []byte {
	var out bytes.Buffer
	for len(in) > 0 {
		r, size := utf8.DecodeRune(in)
		if r == utf8.RuneError && size == 1 {
			b := in[0]
			if isPrintableASCII(b) {
				out.WriteByte(b)
			}
			in = in[1:]
			continue
		}
		in = in[size:]
		if isPrintableRune(r) {
			out.WriteRune(r)
		}
	}
	return out.Bytes()
}

func isPrintableASCII(b byte) bool {
	return b == '\n' || b == '\r' || b == '\t' || (b >= 32 && b < 127)
}

func isPrintableRune(r rune) bool {
	if r == '\n' || r == '\r' || r == '\t' {
		return true
	}
	return r >= 32
}
