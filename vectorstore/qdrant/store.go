package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/vectorstore"
)

const defaultTimeout = 15 * time.Second

// Store is a minimal REST client to Qdrant implementing vectorstore.Store.
// It assumes cosine distance and creates the collection if missing. The
// batch embedder is owned by the caller.
type Store struct {
	url        string
	apiKey     string
	collection string
	embed      *vectorstore.BatchEmbedder
	client     *http.Client

	mu          sync.Mutex
	initialized bool
}

var _ vectorstore.Store = (*Store)(nil)

// Config holds the connection settings for a Qdrant server.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// New creates a Store for the given server. No connection is made until the
// first operation.
func New(cfg Config, embed *vectorstore.BatchEmbedder) (*Store, error) {
	if embed == nil {
		return nil, vectorstore.ErrEmbedderRequired
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Store{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		embed:      embed,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Close releases the store's idle connections.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// ensureCollection creates the collection on first use. Qdrant returns 200
// if the collection already exists with the same schema.
func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Insert embeds the chunks and upserts them as one batch. Qdrant applies an
// upsert atomically, so a failed call leaves no partial batch behind.
func (s *Store) Insert(ctx context.Context, chunks []core.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	for _, chunk := range chunks {
		if err := core.ValidateSessionID(chunk.SessionID); err != nil {
			return nil, err
		}
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embed.EmbedAll(ctx, texts)
	if err != nil {
		if errors.Is(err, core.ErrIndexing) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embed chunks: %w", core.ErrIndexing, err)
	}

	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return nil, fmt.Errorf("%w: init collection: %w", core.ErrIndexing, err)
	}

	ids := make([]string, len(chunks))
	points := make([]map[string]any, len(chunks))
	for i := range chunks {
		ids[i] = uuid.NewString()
		points[i] = map[string]any{
			"id":     ids[i],
			"vector": vectors[i],
			"payload": map[string]any{
				"session_id":  chunks[i].SessionID,
				"text":        chunks[i].Text,
				"source_path": chunks[i].SourcePath,
				"page_index":  chunks[i].PageIndex,
				"position":    chunks[i].Position,
			},
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	if err := s.putJSON(ctx, url, body); err != nil {
		return nil, fmt.Errorf("%w: upsert points: %w", core.ErrIndexing, err)
	}
	return ids, nil
}

// Delete removes points by id. Qdrant ignores unknown ids, so deletion is
// idempotent.
func (s *Store) Delete(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	body := map[string]any{"points": chunkIDs}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	if err := s.postJSON(ctx, url, body, nil); err != nil {
		return fmt.Errorf("%w: delete points: %w", core.ErrStorage, err)
	}
	return nil
}

// Search embeds the query and runs a scored point search, filtered to the
// scope's session when one is given.
func (s *Store) Search(ctx context.Context, query string, topK int, scope *string) ([]core.ScoredChunk, error) {
	if topK <= 0 {
		return nil, vectorstore.ErrInvalidTopK
	}
	if err := core.ValidateQuestion(query); err != nil {
		return nil, err
	}
	if scope != nil && *scope != "" {
		if err := core.ValidateSessionID(*scope); err != nil {
			return nil, err
		}
	}

	queryVector, err := s.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", core.ErrRetrieval, err)
	}

	req := map[string]any{
		"vector":       queryVector,
		"limit":        topK,
		"with_payload": true,
	}
	if scope != nil {
		req["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key":   "session_id",
					"match": map[string]any{"value": *scope},
				},
			},
		}
	}

	var resp struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: search points: %w", core.ErrRetrieval, err)
	}

	results := make([]core.ScoredChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := core.Chunk{}
		if v, ok := r.ID.(string); ok {
			chunk.ID = v
		}
		if v, ok := r.Payload["session_id"].(string); ok {
			chunk.SessionID = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			chunk.Text = v
		}
		if v, ok := r.Payload["source_path"].(string); ok {
			chunk.SourcePath = v
		}
		if v, ok := r.Payload["page_index"].(float64); ok {
			chunk.PageIndex = int(v)
		}
		if v, ok := r.Payload["position"].(float64); ok {
			chunk.Position = int(v)
		}
		results = append(results, core.ScoredChunk{Chunk: chunk, Score: r.Score})
	}
	return results, nil
}

func (s *Store) putJSON(ctx context.Context, url string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
