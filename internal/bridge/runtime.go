// Package bridge connects the widget controller to the browser page that runs
// the real widget runtime, and serves that page together with a small JSON API.
package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/iksnae/agent-webcall/internal/widget"
	"github.com/rs/zerolog/log"
)

// ErrNoHostAttached is returned when no page is connected to run the widget
var ErrNoHostAttached = errors.New("no host page attached")

// HostDetachedReason is reported to widgets whose page went away mid-call
const HostDetachedReason = "host page disconnected"

const writeWait = 10 * time.Second

// pageCommand is sent from the server to the page
type pageCommand struct {
	Type     string        `json:"type"`
	WidgetID string        `json:"widgetId,omitempty"`
	Config   *pageConfig   `json:"config,omitempty"`
	State    *widget.State `json:"state,omitempty"`
}

type pageConfig struct {
	ContainerID  string               `json:"containerId"`
	AccessToken  string               `json:"accessToken"`
	RenderButton bool                 `json:"renderButton"`
	ButtonConfig *widget.ButtonConfig `json:"buttonConfig,omitempty"`
}

// pageEvent is sent from the page to the server
type pageEvent struct {
	Type     string `json:"type"`
	WidgetID string `json:"widgetId"`
	Message  string `json:"message,omitempty"`
}

type remoteWidget struct {
	cfg  widget.Config
	conn *websocket.Conn
}

// RemoteRuntime implements widget.Runtime by driving the widget runtime inside
// an attached browser page. Only the most recently attached page is used.
type RemoteRuntime struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	widgets map[string]*remoteWidget
}

// NewRemoteRuntime returns a runtime with no page attached
func NewRemoteRuntime() *RemoteRuntime {
	return &RemoteRuntime{widgets: map[string]*remoteWidget{}}
}

// Attached reports whether a page is connected
func (r *RemoteRuntime) Attached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// CreateWidget asks the attached page to mount a widget for cfg
func (r *RemoteRuntime) CreateWidget(cfg widget.Config) (widget.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil, ErrNoHostAttached
	}

	id := uuid.NewString()
	cmd := pageCommand{
		Type:     "create",
		WidgetID: id,
		Config: &pageConfig{
			ContainerID:  cfg.ContainerID,
			AccessToken:  cfg.AccessToken,
			RenderButton: cfg.RenderButton,
			ButtonConfig: cfg.Button,
		},
	}
	if err := r.writeLocked(r.conn, cmd); err != nil {
		return nil, fmt.Errorf("failed to send create command: %w", err)
	}

	r.widgets[id] = &remoteWidget{cfg: cfg, conn: r.conn}
	return &remoteHandle{runtime: r, id: id}, nil
}

// SendState pushes a state snapshot to the attached page, if any
func (r *RemoteRuntime) SendState(state widget.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return
	}
	if err := r.writeLocked(r.conn, pageCommand{Type: "state", State: &state}); err != nil {
		log.Warn().Err(err).Str("component", "bridge").Msg("failed to push state to page")
	}
}

// Notify forwards controller transitions to the page so it can show the
// End Call control only while a call is active.
func (r *RemoteRuntime) Notify(n widget.Notification) {
	r.SendState(n.State)
}

// Attach makes conn the active page and reads its events until the
// connection closes. A previously attached page is disconnected.
func (r *RemoteRuntime) Attach(conn *websocket.Conn) {
	logger := log.With().Str("component", "bridge").Str("remote", conn.RemoteAddr().String()).Logger()

	r.mu.Lock()
	prev := r.conn
	r.conn = conn
	r.mu.Unlock()

	if prev != nil {
		logger.Info().Msg("newer host page attached, closing previous connection")
		_ = prev.Close()
	}
	logger.Info().Msg("host page attached")

	defer r.detach(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("host page read failed")
			}
			return
		}

		var ev pageEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn().Err(err).Msg("ignoring malformed page event")
			continue
		}
		r.dispatch(ev)
	}
}

// detach drops conn and fails every widget that lived on it
func (r *RemoteRuntime) detach(conn *websocket.Conn) {
	r.mu.Lock()
	if r.conn == conn {
		r.conn = nil
	}
	var orphaned []widget.Config
	for id, w := range r.widgets {
		if w.conn == conn {
			orphaned = append(orphaned, w.cfg)
			delete(r.widgets, id)
		}
	}
	r.mu.Unlock()

	_ = conn.Close()
	log.Info().Str("component", "bridge").Int("orphaned", len(orphaned)).Msg("host page detached")

	for _, cfg := range orphaned {
		if cfg.OnError != nil {
			cfg.OnError(HostDetachedReason)
		}
	}
}

func (r *RemoteRuntime) dispatch(ev pageEvent) {
	r.mu.Lock()
	w, ok := r.widgets[ev.WidgetID]
	r.mu.Unlock()

	logger := log.With().Str("component", "bridge").Str("widget_id", ev.WidgetID).Logger()
	if !ok {
		logger.Debug().Str("type", ev.Type).Msg("event for unknown widget")
		return
	}

	switch ev.Type {
	case "started":
		if w.cfg.OnStarted != nil {
			w.cfg.OnStarted()
		}
	case "ended":
		if w.cfg.OnEnded != nil {
			w.cfg.OnEnded()
		}
	case "error":
		if w.cfg.OnError != nil {
			w.cfg.OnError(ev.Message)
		}
	default:
		logger.Debug().Str("type", ev.Type).Msg("ignoring page event")
	}
}

func (r *RemoteRuntime) writeLocked(conn *websocket.Conn, cmd pageCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// close disconnects the active page
func (r *RemoteRuntime) close() {
	r.mu.Lock()
	conn := r.conn
	r.conn = nil
	r.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

type remoteHandle struct {
	runtime *RemoteRuntime
	id      string
}

// Destroy unmounts the widget on its page. Repeated calls are no-ops.
func (h *remoteHandle) Destroy() error {
	r := h.runtime
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.widgets[h.id]
	if !ok {
		return nil
	}
	delete(r.widgets, h.id)

	if w.conn != r.conn {
		// the page that held it is already gone
		return nil
	}
	if err := r.writeLocked(w.conn, pageCommand{Type: "destroy", WidgetID: h.id}); err != nil {
		return fmt.Errorf("failed to send destroy command: %w", err)
	}
	return nil
}
