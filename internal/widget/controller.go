package widget

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options configures a Controller
type Options struct {
	ContainerID string
	Button      *ButtonConfig
	Observers   []Observer
}

// Controller owns at most one live widget handle and runs the call state
// machine. All state lives on a single goroutine fed by a mailbox; the public
// methods and the widget callbacks only post messages to it.
type Controller struct {
	runtime     Runtime
	containerID string
	button      ButtonConfig

	inbox *mailbox
	done  chan struct{}

	snapMu sync.RWMutex
	snap   State

	obsMu     sync.Mutex
	observers []subscription
	nextObs   int

	log zerolog.Logger

	// loop-owned
	state    State
	live     *liveHandle
	disposed bool
}

type subscription struct {
	id       int
	observer Observer
}

type liveHandle struct {
	id     string
	handle Handle
}

type message interface{}

type startMsg struct {
	session internal.Session
	reply   chan error
}

type endMsg struct {
	reply chan error
}

type disposeMsg struct {
	reply chan error
}

type widgetEventKind int

const (
	widgetStarted widgetEventKind = iota
	widgetEnded
	widgetFailed
)

type widgetEvent struct {
	handleID string
	kind     widgetEventKind
	reason   string
}

// NewController starts a controller bound to runtime
func NewController(runtime Runtime, opts Options) *Controller {
	containerID := opts.ContainerID
	if containerID == "" {
		containerID = DefaultContainerID
	}
	button := DefaultButton()
	if opts.Button != nil {
		button = *opts.Button
		if button.Icon == "" {
			button.Icon = DefaultButtonIcon
		}
	}

	c := &Controller{
		runtime:     runtime,
		containerID: containerID,
		button:      button,
		inbox:       newMailbox(),
		done:        make(chan struct{}),
		log:         log.With().Str("component", "widget").Logger(),
	}
	for _, o := range opts.Observers {
		c.Subscribe(o)
	}
	go c.run()
	return c
}

// State returns the current snapshot
func (c *Controller) State() State {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// Subscribe registers an observer and returns a function that removes it
func (c *Controller) Subscribe(o Observer) (unsubscribe func()) {
	c.obsMu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers = append(c.observers, subscription{id: id, observer: o})
	c.obsMu.Unlock()

	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		for i, sub := range c.observers {
			if sub.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// Start replaces any live widget with a new one bound to session. It returns
// once the widget is instantiated; the call itself connects asynchronously.
func (c *Controller) Start(session *internal.Session) error {
	if session == nil || session.AccessToken == "" {
		return ErrInvalidSession
	}
	reply := make(chan error, 1)
	if !c.inbox.post(startMsg{session: *session, reply: reply}) {
		return ErrDisposed
	}
	return <-reply
}

// End tears down the current call and returns to Idle. It is a no-op when
// nothing is running.
func (c *Controller) End() error {
	reply := make(chan error, 1)
	if !c.inbox.post(endMsg{reply: reply}) {
		return ErrDisposed
	}
	return <-reply
}

// Dispose destroys any live widget and stops the controller. The controller
// cannot be used afterwards; calling Dispose again is a no-op.
func (c *Controller) Dispose() error {
	reply := make(chan error, 1)
	if !c.inbox.post(disposeMsg{reply: reply}) {
		<-c.done
		return nil
	}
	err := <-reply
	<-c.done
	return err
}

// Done is closed once the controller has been disposed
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) run() {
	defer close(c.done)
	for range c.inbox.ready {
		for _, msg := range c.inbox.drain() {
			c.dispatch(msg)
		}
		if c.disposed {
			for _, msg := range c.inbox.close() {
				c.dispatch(msg)
			}
			return
		}
	}
}

func (c *Controller) dispatch(msg message) {
	if c.disposed {
		rejectAfterDispose(msg)
		return
	}
	switch m := msg.(type) {
	case startMsg:
		m.reply <- c.handleStart(m.session)
	case endMsg:
		c.handleEnd()
		m.reply <- nil
	case disposeMsg:
		c.handleDispose()
		m.reply <- nil
	case widgetEvent:
		c.handleWidgetEvent(m)
	}
}

func rejectAfterDispose(msg message) {
	switch m := msg.(type) {
	case startMsg:
		m.reply <- ErrDisposed
	case endMsg:
		m.reply <- ErrDisposed
	case disposeMsg:
		m.reply <- nil
	}
}

func (c *Controller) handleStart(session internal.Session) error {
	logger := c.log

	var destroyErr *DestroyError
	if c.live != nil {
		logger.Debug().Str("handle_id", c.live.id).Msg("replacing live widget")
		destroyErr = c.destroyLive()
	}

	id := uuid.NewString()
	button := c.button
	cfg := Config{
		ContainerID:  c.containerID,
		AccessToken:  session.AccessToken,
		RenderButton: true,
		Button:       &button,
		OnStarted:    func() { c.postEvent(widgetEvent{handleID: id, kind: widgetStarted}) },
		OnEnded:      func() { c.postEvent(widgetEvent{handleID: id, kind: widgetEnded}) },
		OnError:      func(reason string) { c.postEvent(widgetEvent{handleID: id, kind: widgetFailed, reason: reason}) },
	}

	handle, err := c.createWidget(cfg)
	if err == nil && handle == nil {
		err = errors.New("runtime returned no widget handle")
	}
	if err != nil {
		instErr := &InstantiationError{HandleID: id, Err: err}
		logger.Error().Err(err).Object("session", session).Msg("failed to initialize widget")
		c.setState(State{Phase: Idle})
		c.reportDestroyFailure(destroyErr)
		c.notify(Notification{Kind: NotifyError, State: c.state, Reason: err.Error(), Err: instErr})
		return instErr
	}

	c.live = &liveHandle{id: id, handle: handle}
	c.setState(State{Phase: Starting, CallID: session.CallID, AgentID: session.AgentID, HandleID: id})
	logger.Info().Str("handle_id", id).Object("session", session).Msg("widget initialized")
	c.reportDestroyFailure(destroyErr)
	c.notify(Notification{Kind: NotifyStarting, State: c.state})
	return nil
}

func (c *Controller) handleEnd() {
	if c.live == nil && c.state.Phase == Idle {
		return
	}
	var destroyErr *DestroyError
	if c.live != nil {
		destroyErr = c.destroyLive()
	}
	c.setState(State{Phase: Idle})
	c.log.Info().Msg("call ended by operator")
	c.reportDestroyFailure(destroyErr)
	c.notify(Notification{Kind: NotifyEnded, State: c.state})
}

func (c *Controller) handleDispose() {
	var destroyErr *DestroyError
	if c.live != nil {
		destroyErr = c.destroyLive()
	}
	c.setState(State{Phase: Idle})
	c.disposed = true
	c.log.Debug().Msg("controller disposed")
	c.reportDestroyFailure(destroyErr)
}

func (c *Controller) handleWidgetEvent(ev widgetEvent) {
	logger := c.log.With().Str("handle_id", ev.handleID).Logger()

	if c.live == nil || c.live.id != ev.handleID {
		logger.Debug().Int("event", int(ev.kind)).Msg("discarding callback from stale widget")
		return
	}

	prev := c.state
	switch ev.kind {
	case widgetStarted:
		if prev.Phase != Starting {
			logger.Debug().Stringer("phase", prev.Phase).Msg("ignoring duplicate started callback")
			return
		}
		c.setState(State{Phase: Active, CallID: prev.CallID, AgentID: prev.AgentID, HandleID: prev.HandleID})
		logger.Info().Msg("call started")
		c.notify(Notification{Kind: NotifyStarted, State: c.state})

	case widgetEnded:
		destroyErr := c.destroyLive()
		c.setState(State{Phase: Ended, CallID: prev.CallID, AgentID: prev.AgentID})
		logger.Info().Msg("call ended")
		c.reportDestroyFailure(destroyErr)
		c.notify(Notification{Kind: NotifyEnded, State: c.state})

	case widgetFailed:
		reason := ev.reason
		if reason == "" {
			reason = DefaultErrorReason
		}
		destroyErr := c.destroyLive()
		c.setState(State{Phase: Error, Reason: reason, CallID: prev.CallID, AgentID: prev.AgentID})
		logger.Error().Str("reason", reason).Msg("call error")
		c.reportDestroyFailure(destroyErr)
		c.notify(Notification{
			Kind:   NotifyError,
			State:  c.state,
			Reason: reason,
			Err:    &RuntimeError{HandleID: ev.handleID, Reason: reason},
		})
	}
}

// destroyLive releases the live handle. The reference is dropped even when
// Destroy fails so a failed teardown never blocks the next Start.
func (c *Controller) destroyLive() *DestroyError {
	live := c.live
	c.live = nil
	if err := safeDestroy(live.handle); err != nil {
		c.log.Warn().Err(err).Str("handle_id", live.id).Msg("error cleaning up widget")
		return &DestroyError{HandleID: live.id, Err: err}
	}
	return nil
}

// reportDestroyFailure notifies observers of a failed teardown. It runs after
// the transition so the notification carries the new state.
func (c *Controller) reportDestroyFailure(dErr *DestroyError) {
	if dErr == nil {
		return
	}
	c.notify(Notification{Kind: NotifyDestroyFailed, State: c.state, Reason: dErr.Err.Error(), Err: dErr})
}

func (c *Controller) postEvent(ev widgetEvent) {
	if !c.inbox.post(ev) {
		c.log.Debug().Str("handle_id", ev.handleID).Msg("dropping widget callback after dispose")
	}
}

func (c *Controller) createWidget(cfg Config) (h Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return c.runtime.CreateWidget(cfg)
}

func safeDestroy(h Handle) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("destroy panic: %v", r)
		}
	}()
	return h.Destroy()
}

func (c *Controller) setState(s State) {
	c.state = s
	c.snapMu.Lock()
	c.snap = s
	c.snapMu.Unlock()
}

func (c *Controller) notify(n Notification) {
	c.obsMu.Lock()
	subs := append([]subscription(nil), c.observers...)
	c.obsMu.Unlock()

	for _, sub := range subs {
		sub.observer.Notify(n)
	}
}
