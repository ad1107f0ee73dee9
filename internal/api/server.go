package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/parrot/internal/chatlog"
	"github.com/MikeSquared-Agency/parrot/internal/export"
	"github.com/MikeSquared-Agency/parrot/internal/store"
)

// maxBodyBytes caps uploaded chat exports.
const maxBodyBytes = 32 << 20

// ConversationStore is the subset of the store the API reads from.
type ConversationStore interface {
	GetConversation(ctx context.Context, id uuid.UUID) (*store.Conversation, error)
	ListConversations(ctx context.Context, limit int) ([]store.ConversationSummary, error)
	DeleteConversation(ctx context.Context, id uuid.UUID) error
}

type Options struct {
	// Store backs the conversation routes. Nil disables them with 503.
	Store         ConversationStore
	SystemPrompt  string
	CollapseTurns bool
	Logger        *slog.Logger
}

type Server struct {
	router *chi.Mux
	port   int
	http   *http.Server
	opts   Options
	logger *slog.Logger
}

// ParseResponse is the body of a successful parse request.
type ParseResponse struct {
	MainSubject string          `json:"main_subject"`
	Subjects    []string        `json:"subjects"`
	Entries     []chatlog.Entry `json:"entries"`
	RawMessages int             `json:"raw_messages"`
	Dropped     int             `json:"dropped"`
}

func NewServer(port int, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		opts:   opts,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/parrot", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Post("/parse", s.parse)
		r.Post("/export/{format}", s.exportUpload)
		r.Get("/conversations", s.listConversations)
		r.Get("/conversations/{id}", s.getConversation)
		r.Delete("/conversations/{id}", s.deleteConversation)
		r.Get("/conversations/{id}/export/{format}", s.exportStored)
	})

	return s
}

func (s *Server) Start() error {
	s.logger.Info("API server starting", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "parrot",
		"status":  "ready",
	})
}

// parse handles POST /api/v1/parrot/parse
func (s *Server) parse(w http.ResponseWriter, r *http.Request) {
	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	main, _ := p.MainSubject()
	writeJSON(w, http.StatusOK, ParseResponse{
		MainSubject: main,
		Subjects:    p.Subjects(),
		Entries:     p.Entries(),
		RawMessages: len(p.RawMessages()),
		Dropped:     p.Dropped(),
	})
}

// exportUpload handles POST /api/v1/parrot/export/{format}
func (s *Server) exportUpload(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, ok := s.parseBody(w, r)
	if !ok {
		return
	}

	if name := r.URL.Query().Get("main_subject"); name != "" {
		if err := p.SetMainSubject(name); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
	}

	main, _ := p.MainSubject()
	s.writeExport(w, f, p.Entries(), main)
}

// listConversations handles GET /api/v1/parrot/conversations?limit=
func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	convs, err := s.opts.Store.ListConversations(r.Context(), limit)
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list conversations failed")
		return
	}
	if convs == nil {
		convs = []store.ConversationSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": convs,
		"count":         len(convs),
	})
}

// getConversation handles GET /api/v1/parrot/conversations/{id}
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	conv, ok := s.loadConversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           conv.ID,
		"source_path":  conv.SourcePath,
		"main_subject": conv.MainSubject,
		"subjects":     conv.Subjects,
		"entries":      conv.Entries,
		"raw_messages": conv.RawMessages,
		"dropped":      conv.Dropped,
		"created_at":   conv.CreatedAt,
	})
}

// deleteConversation handles DELETE /api/v1/parrot/conversations/{id}
func (s *Server) deleteConversation(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	if err := s.opts.Store.DeleteConversation(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		s.logger.Error("delete conversation failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "delete conversation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exportStored handles GET /api/v1/parrot/conversations/{id}/export/{format}
func (s *Server) exportStored(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, ok := s.loadConversation(w, r)
	if !ok {
		return
	}
	s.writeExport(w, f, conv.Entries, conv.MainSubject)
}

func (s *Server) loadConversation(w http.ResponseWriter, r *http.Request) (*store.Conversation, bool) {
	if !s.requireStore(w) {
		return nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return nil, false
	}

	conv, err := s.opts.Store.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return nil, false
		}
		s.logger.Error("get conversation failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get conversation failed")
		return nil, false
	}
	return conv, true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "no store configured")
		return false
	}
	return true
}

// parseBody parses the request body as a chat export, writing an error
// response and returning false on failure.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request) (*chatlog.Parser, bool) {
	collapse := s.opts.CollapseTurns
	if v := r.URL.Query().Get("collapse"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid collapse value %q", v))
			return nil, false
		}
		collapse = b
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}

	p, err := chatlog.ParseBytes(body,
		chatlog.WithTurnCollapsing(collapse),
		chatlog.WithLogger(s.logger),
	)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return nil, false
	}
	return p, true
}

func (s *Server) writeExport(w http.ResponseWriter, f export.Format, entries []chatlog.Entry, mainSubject string) {
	var buf bytes.Buffer
	opts := export.Options{SystemPrompt: s.opts.SystemPrompt, MainSubject: mainSubject}
	if err := export.Write(&buf, f, entries, opts); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chatlog.ErrEmptyState):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chatlog.ErrUnknownSender), errors.Is(err, chatlog.ErrInvalidEncoding):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
