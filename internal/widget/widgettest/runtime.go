// Package widgettest provides an in-memory widget runtime for tests.
package widgettest

import (
	"errors"
	"sync"

	"github.com/iksnae/agent-webcall/internal/widget"
)

// ErrDestroy is returned by handles when DestroyErr is enabled
var ErrDestroy = errors.New("widgettest: destroy failed")

// Runtime records every widget it creates
type Runtime struct {
	mu      sync.Mutex
	handles []*Handle

	// CreateErr, when set, is returned by the next CreateWidget calls
	CreateErr error
	// OnCreate runs inside CreateWidget after the handle is recorded
	OnCreate func(h *Handle)
	// FailDestroy makes Destroy return ErrDestroy
	FailDestroy bool
	// PanicDestroy makes Destroy panic
	PanicDestroy bool
}

// Handle is a fake widget instance
type Handle struct {
	rt  *Runtime
	cfg widget.Config

	mu        sync.Mutex
	destroyed int
}

// New returns an empty runtime
func New() *Runtime {
	return &Runtime{}
}

// CreateWidget implements widget.Runtime
func (r *Runtime) CreateWidget(cfg widget.Config) (widget.Handle, error) {
	r.mu.Lock()
	if r.CreateErr != nil {
		err := r.CreateErr
		r.mu.Unlock()
		return nil, err
	}
	h := &Handle{rt: r, cfg: cfg}
	r.handles = append(r.handles, h)
	hook := r.OnCreate
	r.mu.Unlock()

	if hook != nil {
		hook(h)
	}
	return h, nil
}

// Handles returns every handle created so far, oldest first
func (r *Runtime) Handles() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles...)
}

// Last returns the newest handle, or nil
func (r *Runtime) Last() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.handles) == 0 {
		return nil
	}
	return r.handles[len(r.handles)-1]
}

// LiveCount is the number of created handles not yet destroyed
func (r *Runtime) LiveCount() int {
	n := 0
	for _, h := range r.Handles() {
		if !h.Destroyed() {
			n++
		}
	}
	return n
}

// Config returns the config the handle was created with
func (h *Handle) Config() widget.Config {
	return h.cfg
}

// Token returns the access token the handle was bound to
func (h *Handle) Token() string {
	return h.cfg.AccessToken
}

// Destroy implements widget.Handle. The handle counts as destroyed even when
// the call fails.
func (h *Handle) Destroy() error {
	h.mu.Lock()
	h.destroyed++
	h.mu.Unlock()

	h.rt.mu.Lock()
	fail, panics := h.rt.FailDestroy, h.rt.PanicDestroy
	h.rt.mu.Unlock()

	if panics {
		panic("widgettest: destroy panic")
	}
	if fail {
		return ErrDestroy
	}
	return nil
}

// Destroyed reports whether Destroy was called
func (h *Handle) Destroyed() bool {
	return h.DestroyCount() > 0
}

// DestroyCount is how many times Destroy was called
func (h *Handle) DestroyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// FireStarted invokes the handle's started callback
func (h *Handle) FireStarted() {
	if h.cfg.OnStarted != nil {
		h.cfg.OnStarted()
	}
}

// FireEnded invokes the handle's ended callback
func (h *Handle) FireEnded() {
	if h.cfg.OnEnded != nil {
		h.cfg.OnEnded()
	}
}

// FireError invokes the handle's error callback
func (h *Handle) FireError(reason string) {
	if h.cfg.OnError != nil {
		h.cfg.OnError(reason)
	}
}

// SetFailDestroy toggles Destroy failures
func (r *Runtime) SetFailDestroy(fail bool) {
	r.mu.Lock()
	r.FailDestroy = fail
	r.mu.Unlock()
}

// SetCreateErr sets the error returned by CreateWidget
func (r *Runtime) SetCreateErr(err error) {
	r.mu.Lock()
	r.CreateErr = err
	r.mu.Unlock()
}
