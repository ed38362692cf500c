// Package server exposes the layout engine over HTTP.
//
// Every document gets its own engine, guarded by a per-document mutex so
// requests against one document are serialized while different documents
// proceed in parallel. Committed plans are persisted to the configured
// snapshot store.
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/pageflow/pkg/buildinfo"
	"github.com/matzehuels/pageflow/pkg/core/engine"
	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/observability"
	"github.com/matzehuels/pageflow/pkg/store"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// Config configures a Server.
type Config struct {
	// Params are the defaults; a document's own params override them.
	Params layout.Params
	// Store persists committed plans. Nil disables persistence.
	Store  store.Store
	Logger *log.Logger
	// Counters receives every hook event and backs /metrics.
	Counters *observability.Counters
	// Debug verifies every plan.
	Debug bool
}

// Server holds the live documents.
type Server struct {
	cfg    Config
	logger *log.Logger

	mu   sync.RWMutex
	docs map[string]*session
}

// session is one live document.
type session struct {
	mu      sync.Mutex
	id      string
	engine  *engine.Engine
	created time.Time
}

// New returns a server with no documents.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Counters == nil {
		cfg.Counters = observability.NewCounters()
	}
	cfg.Params.SetDefaults()
	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		docs:   map[string]*session{},
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
	})
	r.Get("/metrics", s.handleMetrics)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.withSession(s.handleGet))
			r.Delete("/", s.handleDelete)
			r.Put("/components", s.withSession(s.handleComponents))
			r.Put("/template", s.withSession(s.handleTemplate))
			r.Put("/data-sources", s.withSession(s.handleDataSources))
			r.Put("/page-variables", s.withSession(s.handlePageVariables))
			r.Put("/region-height", s.withSession(s.handleRegionHeight))
			r.Post("/measurements", s.withSession(s.handleMeasurements))
			r.Post("/recalculate", s.withSession(s.handleRecalculate))
			r.Post("/commit", s.withSession(s.handleCommit))
			r.Get("/keys", s.withSession(s.handleKeys))
			r.Get("/routes.svg", s.withSession(s.handleRoutesSVG))
			r.Get("/routes.dot", s.withSession(s.handleRoutesDOT))
			r.Get("/snapshots", s.handleSnapshots)
		})
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// newSession creates and registers an engine for doc.
func (s *Server) newSession(doc *document.Document) (*session, error) {
	params := document.Merge(s.cfg.Params, doc.Params)
	id := uuid.NewString()
	e, err := engine.New(engine.Config{
		Params:      params,
		Kinds:       doc.Kinds,
		Logger:      s.logger.With("doc", id),
		Hooks:       s.cfg.Counters,
		LayoutHooks: s.cfg.Counters,
		Debug:       s.cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	e.Dispatch(engine.Initialize{
		Instances:     doc.Components,
		Template:      doc.Template,
		DataSources:   doc.DataSources,
		PageVariables: doc.PageVariables,
		RegionHeight:  doc.RegionHeight,
		At:            time.Now(),
	})
	if len(doc.Measurements) > 0 {
		e.SubmitMeasurements(doc.Measurements)
	}

	sess := &session{id: id, engine: e, created: time.Now()}
	s.mu.Lock()
	s.docs[id] = sess
	s.mu.Unlock()
	return sess, nil
}

func (s *Server) lookup(id string) (*session, error) {
	if err := errors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	s.mu.RLock()
	sess, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	return sess, nil
}

func (s *Server) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.docs[id]
	delete(s.docs, id)
	return ok
}

// Len returns the number of live documents.
func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// sessionHandler handles a request against a locked session.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session)

// withSession resolves the {id} parameter and holds the document's lock for
// the duration of the handler.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.lookup(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		h(w, r, sess)
	}
}

// observe reports requests and responses to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		s.cfg.Counters.OnRequest(r.Context(), r.Method, r.URL.Path)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)
		s.cfg.Counters.OnResponse(r.Context(), r.Method, r.URL.Path, status, d)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", d,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
