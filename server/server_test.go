package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chelorope/local-llm-rag/ai/mock"
	"github.com/chelorope/local-llm-rag/assistant"
	"github.com/chelorope/local-llm-rag/filestore"
	"github.com/chelorope/local-llm-rag/ingestion"
	"github.com/chelorope/local-llm-rag/pdf"
	"github.com/chelorope/local-llm-rag/storage/badger"
	"github.com/chelorope/local-llm-rag/vectorstore"
	"github.com/chelorope/local-llm-rag/vectorstore/embedded"
)

func newTestServer(t *testing.T) (*httptest.Server, *mock.MockGenerator, string) {
	t.Helper()

	documentRepo, conversationRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		conversationRepo.Close()
		documentRepo.Close()
		backend.Close()
	})

	batch, err := vectorstore.NewBatchEmbedder(mock.NewMockEmbedder(), vectorstore.WithPoolSize(1))
	require.NoError(t, err)
	t.Cleanup(batch.Release)

	index, err := embedded.New("", true, batch)
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	dir := t.TempDir()
	files, err := filestore.New(dir)
	require.NoError(t, err)

	pipeline, err := ingestion.NewPipeline(documentRepo, index, files, pdf.NewTextExtractor())
	require.NoError(t, err)

	generator := mock.NewMockGenerator()
	asst, err := assistant.New(index, conversationRepo, generator)
	require.NoError(t, err)

	srv, err := New(pipeline, asst, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, generator, dir
}

func uploadRequest(t *testing.T, url, session, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url+"/documents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	return req
}

func doJSON(t *testing.T, method, url, session string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	decoded := map[string]json.RawMessage{}
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func TestUploadAndListDocuments(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "session-1", "notes.pdf",
		[]byte("Plain text standing in for PDF content in these tests.")))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var uploaded uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&uploaded))
	assert.NotEmpty(t, uploaded.DocumentID)
	assert.Equal(t, "notes.pdf", uploaded.Filename)

	listResp, body := doJSON(t, http.MethodGet, ts.URL+"/documents", "session-1", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var names []string
	require.NoError(t, json.Unmarshal(body["documents"], &names))
	assert.Equal(t, []string{"notes.pdf"}, names)

	// Another session sees nothing.
	otherResp, body := doJSON(t, http.MethodGet, ts.URL+"/documents", "session-2", nil)
	require.Equal(t, http.StatusOK, otherResp.StatusCode)
	require.NoError(t, json.Unmarshal(body["documents"], &names))
	assert.Empty(t, names)
}

func TestUploadRejectsNonPDF(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "session-1", "notes.txt", []byte("text")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatFlow(t *testing.T) {
	ts, generator, _ := newTestServer(t)

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "session-1", "doc.pdf",
		[]byte("The warehouse inventory system runs nightly reconciliation.")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "It reconciles nightly.", nil
	}

	chatResp, body := doJSON(t, http.MethodPost, ts.URL+"/chat", "session-1",
		map[string]string{"question": "When does reconciliation run?"})
	require.Equal(t, http.StatusOK, chatResp.StatusCode)
	var answer string
	require.NoError(t, json.Unmarshal(body["answer"], &answer))
	assert.Equal(t, "It reconciles nightly.", answer)
	assert.Contains(t, generator.LastPrompt, "warehouse inventory")

	// History shows both turns.
	msgResp, body := doJSON(t, http.MethodGet, ts.URL+"/messages", "session-1", nil)
	require.Equal(t, http.StatusOK, msgResp.StatusCode)
	var messages []messageResponse
	require.NoError(t, json.Unmarshal(body["messages"], &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)

	// Clearing empties the history.
	clearResp, _ := doJSON(t, http.MethodDelete, ts.URL+"/messages", "session-1", nil)
	require.Equal(t, http.StatusNoContent, clearResp.StatusCode)

	msgResp, body = doJSON(t, http.MethodGet, ts.URL+"/messages", "session-1", nil)
	require.Equal(t, http.StatusOK, msgResp.StatusCode)
	require.NoError(t, json.Unmarshal(body["messages"], &messages))
	assert.Empty(t, messages)
}

func TestChatValidationAndGenerationErrors(t *testing.T) {
	ts, generator, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/chat", "session-1", map[string]string{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body["error"]), "question")

	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("model down")
	}
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/chat", "session-1", map[string]string{"question": "hello?"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestErrorResponsesOmitInternalDetail(t *testing.T) {
	ts, generator, dir := newTestServer(t)

	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "session-1", "doc.pdf", []byte("some document text")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Replace the stored file with a non-empty directory so its removal
	// fails with an error that embeds the absolute path.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	stored := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.Remove(stored))
	require.NoError(t, os.MkdirAll(filepath.Join(stored, "child"), 0o755))

	delResp, body := doJSON(t, http.MethodDelete, ts.URL+"/documents", "session-1", nil)
	require.Equal(t, http.StatusInternalServerError, delResp.StatusCode)
	var message string
	require.NoError(t, json.Unmarshal(body["error"], &message))
	assert.Equal(t, "storage failed", message)
	assert.NotContains(t, message, dir)

	// The 502 path carries only the category, never the endpoint the
	// generation client was talking to.
	generator.GenerateFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", fmt.Errorf("Post %q: connection refused", "http://internal-host:11434/v1/chat/completions")
	}
	chatResp, body := doJSON(t, http.MethodPost, ts.URL+"/chat", "session-1", map[string]string{"question": "hello?"})
	require.Equal(t, http.StatusBadGateway, chatResp.StatusCode)
	require.NoError(t, json.Unmarshal(body["error"], &message))
	assert.Equal(t, "generation failed", message)
}

func TestDeleteDocuments(t *testing.T) {
	ts, _, _ := newTestServer(t)

	for _, name := range []string{"a.pdf", "b.pdf"} {
		resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "session-1", name, []byte("some document text")))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodDelete, ts.URL+"/documents", "session-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted int
	require.NoError(t, json.Unmarshal(body["deleted"], &deleted))
	assert.Equal(t, 2, deleted)
}

func TestMissingSessionHeaderIsGlobalScope(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// No Session-Id header at all: the request lands in the global scope
	// and succeeds.
	resp, err := http.DefaultClient.Do(uploadRequest(t, ts.URL, "", "global.pdf", []byte("globally visible text")))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	listResp, body := doJSON(t, http.MethodGet, ts.URL+"/documents", "", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var names []string
	require.NoError(t, json.Unmarshal(body["documents"], &names))
	assert.Equal(t, []string{"global.pdf"}, names)

	// The global scope is its own session, invisible to named sessions.
	listResp, body = doJSON(t, http.MethodGet, ts.URL+"/documents", "session-1", nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	require.NoError(t, json.Unmarshal(body["documents"], &names))
	assert.Empty(t, names)
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", strings.TrimSpace(body["status"]))
}
