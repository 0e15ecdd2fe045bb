package todoapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"todosync/internal/service"
)

// maxBody caps request bodies.
const maxBody = 64 << 10

// Options configures a Server.
type Options struct {
	Store Store

	// JWTSecret enables bearer authentication when non-empty.
	JWTSecret []byte

	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string

	Logger *slog.Logger
}

// Server serves the /todos collection.
type Server struct {
	store     Store
	secret    []byte
	logger    *slog.Logger
	validator *validator
	handler   http.Handler
}

// New builds a Server.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("todoapi: store is required")
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		store:     opts.Store,
		secret:    opts.JWTSecret,
		logger:    logger.With("component", "todoapi"),
		validator: v,
	}

	todos := http.NewServeMux()
	todos.HandleFunc("GET /todos", s.list)
	todos.HandleFunc("POST /todos", s.create)
	todos.HandleFunc("PATCH /todos/{id}", s.update)
	todos.HandleFunc("DELETE /todos/{id}", s.remove)

	var protected http.Handler = todos
	if len(s.secret) > 0 {
		protected = s.requireToken(todos)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/todos", protected)
	mux.Handle("/todos/", protected)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = s.logRequests(c.Handler(mux))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.storeError(w, "list", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := validate(s.validator.create, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var task service.Task
	if err := json.Unmarshal(body, &task); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	created, err := s.store.Create(r.Context(), task)
	if err != nil {
		s.storeError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := validate(s.validator.patch, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := decodePatch(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := s.store.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.storeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.storeError(w, "delete", err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return body, true
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("store failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodePatch reads a validated patch body. Keys other than title and
// completed are kept as extension fields.
func decodePatch(body []byte) (service.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return service.Patch{}, err
	}
	var p service.Patch
	if v, ok := raw["title"]; ok {
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return service.Patch{}, err
		}
		p.Title = &title
		delete(raw, "title")
	}
	if v, ok := raw["completed"]; ok {
		var completed bool
		if err := json.Unmarshal(v, &completed); err != nil {
			return service.Patch{}, err
		}
		p.Completed = &completed
		delete(raw, "completed")
	}
	if len(raw) > 0 {
		p.Extra = raw
	}
	return p, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
