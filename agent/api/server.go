// Package api exposes the orchestrator over HTTP and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	orchestratorx "github.com/tanpawarit/chative-commerce-orchestrator/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

// TurnHandler runs one conversational turn; *orchestrator.Orchestrator satisfies it.
type TurnHandler interface {
	HandleTurn(ctx context.Context, utterance string, st *statex.ConversationState, meta contractx.TurnMeta) (orchestratorx.TurnResult, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChatRequest carries one user message. A client-supplied State is
// authoritative: it replaces whatever is stored under State.ID. The API has
// no per-session ownership, so callers that share a deployment must treat
// session ids as secrets. SessionID alone resumes the stored state.
type ChatRequest struct {
	Message   string                    `json:"message"`
	State     *statex.ConversationState `json:"state,omitempty"`
	SessionID string                    `json:"session_id,omitempty"`
	UserID    string                    `json:"user_id,omitempty"`
}

type ChatResponse struct {
	Reply string                    `json:"reply"`
	State *statex.ConversationState `json:"state"`
}

type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON to w. Encoding errors mean the client went
// away and are only logged.
func writeJSON(w http.ResponseWriter, status int, v any, logger *zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug().Err(err).Msg("failed to write JSON response")
	}
}

type Server struct {
	addr   string
	turns  TurnHandler
	store  statex.Store
	health Pinger
	logger zerolog.Logger

	locks    *sessionLocks
	upgrader websocket.Upgrader
	server   *http.Server
}

type Option func(*Server)

// WithHealthCheck adds a dependency probe to GET /health.
func WithHealthCheck(p Pinger) Option {
	return func(s *Server) {
		s.health = p
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithCheckOrigin overrides the WebSocket origin policy.
func WithCheckOrigin(check func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = check
	}
}

func NewServer(addr string, turns TurnHandler, store statex.Store, opts ...Option) *Server {
	if store == nil {
		store = statex.NewMemoryStore()
	}
	s := &Server{
		addr:   addr,
		turns:  turns,
		store:  store,
		logger: zerolog.Nop(),
		locks:  newSessionLocks(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleSessionGet)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /health", s.handleHealth)

	return s.withLogging(mux)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
	}

	s.logger.Info().Str("addr", s.addr).Msg("starting API server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		r = r.WithContext(s.logger.WithContext(r.Context()))
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg}, &s.logger)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, status, err := s.chat(r.Context(), req)
	if err != nil {
		s.errorResponse(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp, &s.logger)
}

// chatError is a message safe to show to the client.
type chatError string

func (e chatError) Error() string { return string(e) }

const (
	errEmptyMessage  = chatError("message is required")
	errTurnFailed    = chatError("failed to process message")
	errSessionLookup = chatError("failed to load session")
	errSessionClash  = chatError("session_id does not match state.id")
)

// chat resolves the session state, runs the turn under the session lock and
// persists the result.
func (s *Server) chat(ctx context.Context, req ChatRequest) (ChatResponse, int, error) {
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, http.StatusBadRequest, errEmptyMessage
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if req.State != nil && req.State.ID != "" {
		if sessionID != "" && sessionID != req.State.ID {
			return ChatResponse{}, http.StatusBadRequest, errSessionClash
		}
		sessionID = req.State.ID
	}
	logger := zerolog.Ctx(ctx)

	if sessionID != "" {
		unlock := s.locks.lock(sessionID)
		defer unlock()
	}

	st := req.State
	if st == nil && sessionID != "" {
		loaded, err := s.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			st = loaded
		case errors.Is(err, statex.ErrStateNotFound):
			st = statex.NewConversationState(time.Now())
			st.ID = sessionID
		default:
			logger.Error().Err(err).Str("session_id", sessionID).Msg("load session failed")
			return ChatResponse{}, http.StatusInternalServerError, errSessionLookup
		}
	}

	res, err := s.turns.HandleTurn(ctx, req.Message, st, contractx.TurnMeta{UserID: req.UserID})
	if err != nil {
		if errors.Is(err, orchestratorx.ErrInvalidMessage) {
			return ChatResponse{}, http.StatusBadRequest, errEmptyMessage
		}
		logger.Error().Err(err).Str("session_id", sessionID).Msg("turn failed")
		return ChatResponse{}, http.StatusInternalServerError, errTurnFailed
	}

	// The client also receives the state, so a failed save is not fatal.
	if err := s.store.Save(ctx, res.State); err != nil {
		logger.Error().Err(err).Str("session_id", res.State.ID).Msg("save session failed")
	}

	return ChatResponse{Reply: res.Reply, State: res.State}, http.StatusOK, nil
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, statex.ErrStateNotFound) || errors.Is(err, statex.ErrInvalidSession) {
			s.errorResponse(w, http.StatusNotFound, "session not found")
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Str("session_id", id).Msg("load session failed")
		s.errorResponse(w, http.StatusInternalServerError, string(errSessionLookup))
		return
	}
	writeJSON(w, http.StatusOK, st, &s.logger)
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	unlock := s.locks.lock(id)
	defer unlock()

	if err := s.store.Delete(r.Context(), id); err != nil && !errors.Is(err, statex.ErrStateNotFound) {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("session_id", id).Msg("delete session failed")
		s.errorResponse(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWebSocket serves one ChatRequest per text frame and answers each
// with a ChatResponse or an error body.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	for {
		var req ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				if writeErr := conn.WriteJSON(errorBody{Error: "invalid request body"}); writeErr != nil {
					return
				}
				continue
			}
			logger.Debug().Err(err).Msg("websocket read failed")
			return
		}

		var out any
		resp, _, err := s.chat(ctx, req)
		if err != nil {
			out = errorBody{Error: err.Error()}
		} else {
			out = resp
		}
		if err := conn.WriteJSON(out); err != nil {
			logger.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}

type healthBody struct {
	Status string `json:"status"`
	MCP    string `json:"mcp,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{Status: "ok"}
	status := http.StatusOK

	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("mcp health check failed")
			body.Status = "degraded"
			body.MCP = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			body.MCP = "ok"
		}
	}
	writeJSON(w, status, body, &s.logger)
}

// sessionLocks serializes turns per session id. Entries are dropped once no
// request holds or waits on them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
