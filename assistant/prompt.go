package assistant

import (
	"fmt"
	"strings"

	"github.com/chelorope/local-llm-rag/core"
)

// NoDocumentsContext is the context substituted when the session has no
// retrievable documents. The model answers from it directly, which is how an
// empty session still yields a helpful assistant turn.
const NoDocumentsContext = "No documents found in your current session. Please upload relevant PDF documents first."

const promptInstruction = "You are an assistant for question-answering tasks. " +
	"Use the following pieces of retrieved context to answer the question. " +
	"If you don't know the answer, just say that you don't know. " +
	"Use three sentences maximum and keep the answer concise."

// buildContext joins retrieved chunks into the prompt's context block.
func buildContext(results []core.ScoredChunk) string {
	if len(results) == 0 {
		return NoDocumentsContext
	}
	parts := make([]string, len(results))
	for i, result := range results {
		parts[i] = result.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

// buildPrompt assembles the final generation prompt.
func buildPrompt(contextBlock, question string) string {
	return fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion: %s\n\nAnswer:", promptInstruction, contextBlock, question)
}
