// Package http exposes a hosted flow machine over HTTP. Each session is
// rebuilt from its snapshot per request, so any number of server instances
// can share one snapshot store.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/julescmay/machina"
	"github.com/julescmay/machina/internal/logging"
	"github.com/julescmay/machina/pkg/flow"
	"github.com/julescmay/machina/pkg/session"
)

// HTTP-facing machines get a hop bound: a cyclic table must surface as a
// request error, not a hung handler.
const serverMaxRedirects = 32

// Server serves one flow definition and its sessions.
type Server struct {
	def      *flow.Definition
	sessions *session.Manager
	logger   *slog.Logger
	flowOpts []flow.Option
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithFlowOptions adds options applied to every machine the server builds,
// e.g. metrics hooks.
func WithFlowOptions(opts ...flow.Option) Option {
	return func(s *Server) {
		s.flowOpts = append(s.flowOpts, opts...)
	}
}

// NewServer creates a Server over a definition and a session manager.
func NewServer(def *flow.Definition, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		def:      def,
		sessions: sessions,
		logger:   logging.NewNop(),
		flowOpts: []flow.Option{flow.WithMaxRedirects(serverMaxRedirects)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the chi router for the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	r.Get("/flow", s.getFlow)
	r.Get("/sessions", s.listSessions)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.getSession)
		r.Post("/choose", s.choose)
		r.Post("/goto", s.gotoState)
		r.Delete("/", s.deleteSession)
	})

	return r
}

// StateView is the wire representation of a session's current state.
type StateView struct {
	Session   string            `json:"session"`
	State     string            `json:"state"`
	Title     string            `json:"title,omitempty"`
	Text      string            `json:"text,omitempty"`
	Choices   map[string]string `json:"choices,omitempty"`
	Terminal  bool              `json:"terminal"`
	Synthetic bool              `json:"synthetic,omitempty"`
}

// FlowView describes the hosted definition.
type FlowView struct {
	Name   string   `json:"name"`
	Start  string   `json:"start"`
	States []string `json:"states"`
}

type chooseRequest struct {
	Input string `json:"input"`
}

type gotoRequest struct {
	Target string `json:"target"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "flow": s.def.Name})
}

func (s *Server) getFlow(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.def.States))
	for name := range s.def.States {
		names = append(names, name)
	}
	sort.Strings(names)

	s.writeJSON(w, http.StatusOK, FlowView{
		Name:   s.def.Name,
		Start:  s.def.Start,
		States: names,
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.withMachine(w, r, func(*flow.Machine) error { return nil })
}

func (s *Server) choose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.withMachine(w, r, func(m *flow.Machine) error {
		return m.Choose(req.Input)
	})
}

func (s *Server) gotoState(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Target == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("target is required"))
		return
	}
	s.withMachine(w, r, func(m *flow.Machine) error {
		return m.Goto(req.Target)
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withMachine rebuilds the session's machine under its lock, applies fn,
// persists the new position and responds with the resulting view. The
// load-mutate-save sequence holds the lock throughout, so concurrent
// requests to one session serialize.
func (s *Server) withMachine(w http.ResponseWriter, r *http.Request, fn func(*flow.Machine) error) {
	id := chi.URLParam(r, "sessionID")
	store := s.sessions.Store()

	var view StateView
	err := s.sessions.WithLock(r.Context(), id, func(ctx context.Context) error {
		var m *flow.Machine

		snap, err := store.Load(ctx, id)
		switch {
		case err == nil:
			if m, err = flow.Restore(s.def, snap, s.flowOpts...); err != nil {
				return err
			}
		case errors.Is(err, flow.ErrSnapshotNotFound):
			if m, err = flow.Build(s.def, s.flowOpts...); err != nil {
				return err
			}
		default:
			return err
		}

		if err := fn(m); err != nil {
			return err
		}
		if err := store.Save(ctx, id, m.Snapshot()); err != nil {
			return err
		}

		view = viewOf(id, m)
		return nil
	})
	if err != nil {
		s.writeError(w, statusOf(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, view)
}

func viewOf(id string, m *flow.Machine) StateView {
	st := m.State()
	return StateView{
		Session:   id,
		State:     m.Current(),
		Title:     st.Title,
		Text:      st.Text,
		Choices:   st.Choices,
		Terminal:  st.Terminal,
		Synthetic: st.Synthetic(),
	}
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, flow.ErrUnknownChoice):
		return http.StatusUnprocessableEntity
	case errors.Is(err, machina.ErrRedirectLoop), errors.Is(err, flow.ErrFlowMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed", "status", status, "error", err)
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
