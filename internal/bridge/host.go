package bridge

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/snippet"
	"github.com/iksnae/agent-webcall/internal/widget"
	"github.com/rs/zerolog/log"
)

// ErrNoAgentSelected is returned by Launch when no agent id is given
var ErrNoAgentSelected = errors.New("no agent selected")

// SessionProvisioner creates call sessions
type SessionProvisioner interface {
	CreateSession(ctx context.Context, agentID string) (*internal.Session, error)
}

// AgentSource lists the agents an operator can call
type AgentSource interface {
	Agents(ctx context.Context, refresh bool) ([]internal.Agent, bool, error)
}

// Host is the view that owns a widget controller: it provisions sessions on
// request, hands them to the controller, and renders the embed snippet for
// the current session.
type Host struct {
	provisioner SessionProvisioner
	agents      AgentSource
	controller  *widget.Controller
	renderer    snippet.Renderer

	launchMu sync.Mutex

	mu       sync.RWMutex
	session  *internal.Session
	disposed bool
}

// NewHost builds a host around controller
func NewHost(provisioner SessionProvisioner, agents AgentSource, controller *widget.Controller, renderer snippet.Renderer) *Host {
	return &Host{
		provisioner: provisioner,
		agents:      agents,
		controller:  controller,
		renderer:    renderer,
	}
}

// Launch provisions a session for agentID and starts a widget for it. When
// provisioning fails the previous session and widget are left untouched. The
// new session only becomes current once its widget was created.
func (h *Host) Launch(ctx context.Context, agentID string) (*internal.Session, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return nil, ErrNoAgentSelected
	}

	h.launchMu.Lock()
	defer h.launchMu.Unlock()

	if h.isDisposed() {
		return nil, widget.ErrDisposed
	}

	logger := log.With().Str("component", "host").Str("agent_id", agentID).Logger()

	session, err := h.provisioner.CreateSession(ctx, agentID)
	if err != nil {
		logger.Error().Err(err).Msg("error creating web call")
		return nil, err
	}

	if err := h.controller.Start(session); err != nil {
		logger.Error().Err(err).Msg("error initializing call")
		return nil, err
	}

	h.mu.Lock()
	h.session = session
	h.mu.Unlock()
	logger.Info().Str("call_id", session.CallID).Msg("web call created")
	return session, nil
}

// End tears down the current call
func (h *Host) End() error {
	return h.controller.End()
}

// State returns the controller snapshot
func (h *Host) State() widget.State {
	return h.controller.State()
}

// Session returns a copy of the current session, or nil
func (h *Host) Session() *internal.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.session == nil {
		return nil
	}
	s := *h.session
	return &s
}

// Snippet renders the embed code for the current session's token
func (h *Host) Snippet() string {
	h.mu.RLock()
	token := ""
	if h.session != nil {
		token = h.session.AccessToken
	}
	h.mu.RUnlock()
	return h.renderer.Render(token)
}

// Agents lists selectable agents
func (h *Host) Agents(ctx context.Context, refresh bool) ([]internal.Agent, error) {
	agents, _, err := h.agents.Agents(ctx, refresh)
	return agents, err
}

// Dispose destroys any live widget and forgets the current session
func (h *Host) Dispose() error {
	h.launchMu.Lock()
	defer h.launchMu.Unlock()

	h.mu.Lock()
	h.session = nil
	h.disposed = true
	h.mu.Unlock()

	return h.controller.Dispose()
}

func (h *Host) isDisposed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.disposed
}
