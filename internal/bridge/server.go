package bridge

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/widget"
	"github.com/rs/zerolog/log"
)

//go:embed static/index.html
var indexHTML string

var pageTemplate = template.Must(template.New("index").Parse(indexHTML))

// PageOptions configures the host page
type PageOptions struct {
	ScriptURL   string
	ContainerID string
	AgentID     string
}

// Server serves the host page, its websocket, and the JSON API
type Server struct {
	host     *Host
	runtime  *RemoteRuntime
	page     []byte
	router   *mux.Router
	upgrader websocket.Upgrader
}

// NewServer wires host and runtime behind an HTTP router
func NewServer(host *Host, runtime *RemoteRuntime, opts PageOptions) (*Server, error) {
	if opts.ContainerID == "" {
		opts.ContainerID = widget.DefaultContainerID
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = internal.DefaultScriptURL
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, opts); err != nil {
		return nil, err
	}

	s := &Server{
		host:    host,
		runtime: runtime,
		page:    buf.Bytes(),
		router:  mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	s.routes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close disconnects the attached page
func (s *Server) Close() {
	s.runtime.close()
}

func (s *Server) routes() {
	s.router.Use(requestLogger)

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/agents", s.handleAgents).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/call/end", s.handleEndCall).Methods(http.MethodPost)
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/snippet", s.handleSnippet).Methods(http.MethodGet)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(s.page)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("component", "bridge").Msg("websocket upgrade failed")
		return
	}
	s.runtime.Attach(conn)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"page_attached": s.runtime.Attached(),
	})
}

type agentView struct {
	ID    string  `json:"agent_id"`
	Name  *string `json:"agent_name"`
	Label string  `json:"label"`
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") != ""
	agents, err := s.host.Agents(r.Context(), refresh)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}

	views := make([]agentView, 0, len(agents))
	for _, a := range agents {
		views = append(views, agentView{ID: a.ID, Name: a.DisplayName, Label: a.Label()})
	}
	writeJSON(w, http.StatusOK, views)
}

type createSessionRequest struct {
	AgentID string `json:"agent_id"`
}

type sessionView struct {
	CallID  string       `json:"call_id"`
	AgentID string       `json:"agent_id"`
	State   widget.State `json:"state"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	session, err := s.host.Launch(r.Context(), req.AgentID)
	if err != nil {
		writeError(w, launchStatus(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionView{
		CallID:  session.CallID,
		AgentID: session.AgentID,
		State:   s.host.State(),
	})
}

func launchStatus(err error) int {
	var provErr *internal.ProvisioningError
	switch {
	case errors.Is(err, ErrNoAgentSelected):
		return http.StatusBadRequest
	case errors.As(err, &provErr):
		if errors.Is(err, internal.ErrEmptyAgentID) {
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	case errors.Is(err, ErrNoHostAttached), errors.Is(err, widget.ErrDisposed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleEndCall(w http.ResponseWriter, r *http.Request) {
	if err := s.host.End(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, s.host.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.host.State())
}

func (s *Server) handleSnippet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(s.host.Snippet()))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Str("component", "bridge").Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("component", "bridge").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
