package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/chelorope/local-llm-rag/assistant"
	"github.com/chelorope/local-llm-rag/core"
	"github.com/chelorope/local-llm-rag/ingestion"
)

// SessionHeader carries the caller's session id. Requests without it operate
// on the global scope.
const SessionHeader = "Session-Id"

// maxUploadBytes bounds multipart uploads.
const maxUploadBytes = 64 << 20

// Server exposes the pipeline and the assistant over HTTP.
type Server struct {
	pipeline  *ingestion.Pipeline
	assistant *assistant.Assistant
	logger    *slog.Logger
}

// New creates a Server.
func New(pipeline *ingestion.Pipeline, asst *assistant.Assistant, logger *slog.Logger) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if asst == nil {
		return nil, fmt.Errorf("assistant is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline:  pipeline,
		assistant: asst,
		logger:    logger,
	}, nil
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /documents", s.handleUpload)
	mux.HandleFunc("GET /documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /documents", s.handleDeleteDocuments)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /messages", s.handleListMessages)
	mux.HandleFunc("DELETE /messages", s.handleClearMessages)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func sessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}

type uploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
	Chunks     int    `json:"chunks"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: missing file field: %w", core.ErrValidation, err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: read upload: %w", core.ErrValidation, err))
		return
	}

	result, err := s.pipeline.Upload(r.Context(), sessionID(r), header.Filename, content)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, uploadResponse{
		DocumentID: result.DocumentID,
		Filename:   result.Filename,
		Pages:      result.PageCount,
		Chunks:     result.ChunkCount,
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.pipeline.DocumentNames(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"documents": names})
}

func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	count, err := s.pipeline.DeleteSession(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"deleted": count})
}

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Answer   string `json:"answer"`
	Sequence uint64 `json:"sequence"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: decode request: %w", core.ErrValidation, err))
		return
	}

	turn, err := s.assistant.Ask(r.Context(), sessionID(r), req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{Answer: turn.Content, Sequence: turn.Sequence})
}

type messageResponse struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	turns, err := s.assistant.Messages(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	messages := make([]messageResponse, len(turns))
	for i, turn := range turns {
		messages[i] = messageResponse{
			Role:      turn.Role.String(),
			Content:   turn.Content,
			Sequence:  turn.Sequence,
			CreatedAt: turn.CreatedAt,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string][]messageResponse{"messages": messages})
}

func (s *Server) handleClearMessages(w http.ResponseWriter, r *http.Request) {
	if err := s.assistant.ClearMessages(r.Context(), sessionID(r)); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("encode response failed", "err", err)
	}
}

// writeError maps the failure category to a status code. The full error is
// logged; the response carries only a fixed category message, since wrapped
// errors hold internal paths and endpoint URLs that must not reach clients.
// Validation errors describe the caller's own input and are returned as-is.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, core.ErrGeneration):
		status = http.StatusBadGateway
		message = "generation failed"
	case errors.Is(err, core.ErrIndexing):
		message = "indexing failed"
	case errors.Is(err, core.ErrRetrieval):
		message = "retrieval failed"
	case errors.Is(err, core.ErrStorage):
		message = "storage failed"
	}
	if status != http.StatusBadRequest {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": message})
}
