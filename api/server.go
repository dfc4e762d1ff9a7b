// Package api exposes the newsletter workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/contentflow/contentflow/workflow"
)

const version = "1.0.0"

type Config struct {
	Addr    string
	Service *workflow.Service
}

type Server struct {
	cfg  Config
	mux  *http.ServeMux
	http *http.Server
	once sync.Once
}

func NewServer(cfg Config) *Server {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = ":8000"
	}
	s := &Server{
		cfg: cfg,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	s.http = &http.Server{Addr: cfg.Addr, Handler: s.mux}
	return s
}

func (s *Server) Handler() http.Handler {
	if s == nil {
		return http.NotFoundHandler()
	}
	return s.mux
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("server is nil")
	}
	errCh := make(chan error, 1)
	go func() {
		err := s.http.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received, gracefully stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
		log.Println("server stopped")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	var outErr error
	s.once.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		outErr = s.http.Shutdown(shutdownCtx)
	})
	return outErr
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/generate-newsletter", s.handleGenerate)
	s.mux.HandleFunc("/workflow/visualize/graph", s.handleVisualize)
	s.mux.HandleFunc("/workflow/", s.handleWorkflowResult)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/", s.handleRoot)
}

type generateRequest struct {
	Topic          string `json:"topic"`
	RecipientEmail string `json:"recipient_email"`
	// Async switches the surface to the submit-then-poll contract.
	Async bool `json:"async,omitempty"`
}

type generateResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Data     map[string]any `json:"data,omitempty"`
	ThreadID string         `json:"thread_id,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if r.URL.Query().Get("async") == "1" {
		req.Async = true
	}

	if req.Async {
		threadID, err := s.cfg.Service.Submit(r.Context(), req.Topic, req.RecipientEmail)
		if err != nil {
			writeValidationError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, generateResponse{
			Success:  true,
			Message:  "Newsletter generation accepted",
			ThreadID: threadID,
		})
		return
	}

	final, err := s.cfg.Service.Generate(r.Context(), req.Topic, req.RecipientEmail)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if final.Status.Failed() {
		writeJSON(w, http.StatusOK, generateResponse{
			Success:  false,
			Message:  "Failed to generate newsletter",
			ThreadID: final.ThreadID,
			Error:    final.Error,
		})
		return
	}

	preview := final.FullArticle
	if len(preview) > 200 {
		preview = preview[:200] + "..."
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Success:  true,
		Message:  "Newsletter generated successfully",
		ThreadID: final.ThreadID,
		Data: map[string]any{
			"article_title":       final.ArticleTitle,
			"article_preview":     preview,
			"email_subject":       final.EmailSubject,
			"performance_metrics": final.Metrics,
		},
	})
}

func (s *Server) handleWorkflowResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	parts := splitPath(strings.TrimPrefix(r.URL.Path, "/workflow"))
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, fmt.Errorf("workflow result not found"))
		return
	}
	threadID := parts[0]

	state, err := s.cfg.Service.Fetch(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("workflow result not found"))
			return
		}
		if errors.Is(err, workflow.ErrValidation) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": threadID,
		"data":      state,
	})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"diagram": workflow.MermaidDiagram(s.cfg.Service.StageNames()),
		"format":  "mermaid",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "ContentFlow API",
		"health":  "/health",
	})
}

func writeValidationError(w http.ResponseWriter, err error) {
	if errors.Is(err, workflow.ErrValidation) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, map[string]any{"error": msg})
}
