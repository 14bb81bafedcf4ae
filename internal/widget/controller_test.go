package widget_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/widget"
	"github.com/iksnae/agent-webcall/internal/widget/widgettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type recorder struct {
	mu    sync.Mutex
	notes []widget.Notification
}

func (r *recorder) Notify(n widget.Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

func (r *recorder) kinds() []widget.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]widget.NotificationKind, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Kind)
	}
	return out
}

func (r *recorder) last() widget.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return widget.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

func session(callID, token string) *internal.Session {
	return &internal.Session{CallID: callID, AccessToken: token, AgentID: "agent_1", CreatedAt: time.Now()}
}

func newController(t *testing.T) (*widget.Controller, *widgettest.Runtime, *recorder) {
	t.Helper()
	rt := widgettest.New()
	rec := &recorder{}
	c := widget.NewController(rt, widget.Options{Observers: []widget.Observer{rec}})
	t.Cleanup(func() { _ = c.Dispose() })
	return c, rt, rec
}

func waitPhase(t *testing.T, c *widget.Controller, want widget.Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return c.State().Phase == want }, waitFor, tick,
		"phase never reached %s, last %s", want, c.State().Phase)
}

func TestController_InitialState(t *testing.T) {
	c, rt, _ := newController(t)

	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.False(t, c.State().Live())
	assert.Empty(t, rt.Handles())
}

func TestController_FullCallLifecycle(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))

	st := c.State()
	assert.Equal(t, widget.Starting, st.Phase)
	assert.Equal(t, "c1", st.CallID)
	assert.True(t, st.Live())

	h := rt.Last()
	require.NotNil(t, h)
	assert.Equal(t, "t1", h.Token())
	assert.True(t, h.Config().RenderButton)
	assert.Equal(t, widget.DefaultContainerID, h.Config().ContainerID)
	require.NotNil(t, h.Config().Button)
	assert.Equal(t, "Start Call", h.Config().Button.Text)

	h.FireStarted()
	waitPhase(t, c, widget.Active)

	h.FireEnded()
	waitPhase(t, c, widget.Ended)

	assert.Equal(t, "c1", c.State().CallID)
	assert.False(t, c.State().Live())
	assert.Equal(t, 1, h.DestroyCount())
	assert.Equal(t, 0, rt.LiveCount())

	require.Eventually(t, func() bool { return len(rec.kinds()) == 3 }, waitFor, tick)
	assert.Equal(t, []widget.NotificationKind{widget.NotifyStarting, widget.NotifyStarted, widget.NotifyEnded}, rec.kinds())
}

func TestController_StartRejectsSessionWithoutToken(t *testing.T) {
	c, rt, _ := newController(t)

	assert.ErrorIs(t, c.Start(nil), widget.ErrInvalidSession)
	assert.ErrorIs(t, c.Start(session("c1", "")), widget.ErrInvalidSession)
	assert.Empty(t, rt.Handles())
	assert.Equal(t, widget.Idle, c.State().Phase)
}

func TestController_AtMostOneLiveHandle(t *testing.T) {
	c, rt, _ := newController(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, c.Start(session(fmt.Sprintf("c%d", i), fmt.Sprintf("t%d", i))))
		assert.Equal(t, 1, rt.LiveCount())
	}

	handles := rt.Handles()
	require.Len(t, handles, 5)
	for i, h := range handles {
		assert.Equal(t, fmt.Sprintf("t%d", i+1), h.Token())
		if i < len(handles)-1 {
			assert.Equal(t, 1, h.DestroyCount(), "handle %d should be destroyed once", i)
		}
	}
	assert.False(t, handles[4].Destroyed())
	assert.Equal(t, "c5", c.State().CallID)
}

func TestController_ReplacementDestroysBeforeCreate(t *testing.T) {
	c, rt, _ := newController(t)

	require.NoError(t, c.Start(session("a", "tA")))
	first := rt.Last()

	var destroyedBeforeCreate bool
	rt.OnCreate = func(h *widgettest.Handle) {
		if h != first {
			destroyedBeforeCreate = first.Destroyed()
		}
	}
	require.NoError(t, c.Start(session("b", "tB")))

	assert.True(t, destroyedBeforeCreate)
	assert.Equal(t, "tB", rt.Last().Token())
	assert.Equal(t, widget.Starting, c.State().Phase)
	assert.Equal(t, "b", c.State().CallID)
}

func TestController_StaleCallbacksAreIgnored(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("a", "tA")))
	stale := rt.Last()
	require.NoError(t, c.Start(session("b", "tB")))
	current := rt.Last()

	stale.FireStarted()
	stale.FireError("boom")
	stale.FireEnded()

	current.FireStarted()
	waitPhase(t, c, widget.Active)

	assert.Equal(t, "b", c.State().CallID)
	assert.Equal(t, 1, rt.LiveCount())
	assert.False(t, current.Destroyed())
	assert.NotContains(t, rec.kinds(), widget.NotifyError)
}

func TestController_RuntimeErrorMovesToError(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	h := rt.Last()
	h.FireStarted()
	waitPhase(t, c, widget.Active)

	h.FireError("microphone denied")
	waitPhase(t, c, widget.Error)

	assert.Equal(t, "microphone denied", c.State().Reason)
	assert.True(t, h.Destroyed())
	assert.False(t, c.State().Live())

	require.Eventually(t, func() bool { return rec.last().Kind == widget.NotifyError }, waitFor, tick)
	var rtErr *widget.RuntimeError
	require.ErrorAs(t, rec.last().Err, &rtErr)
	assert.Equal(t, "microphone denied", rtErr.Reason)
}

func TestController_EmptyErrorReasonUsesDefault(t *testing.T) {
	c, rt, _ := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	rt.Last().FireError("")
	waitPhase(t, c, widget.Error)

	assert.Equal(t, widget.DefaultErrorReason, c.State().Reason)
}

func TestController_EndedWhileStarting(t *testing.T) {
	c, rt, _ := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	rt.Last().FireEnded()
	waitPhase(t, c, widget.Ended)
	assert.Equal(t, 0, rt.LiveCount())
}

func TestController_DuplicateStartedIgnored(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	h := rt.Last()
	h.FireStarted()
	waitPhase(t, c, widget.Active)
	h.FireStarted()

	require.NoError(t, c.End())
	assert.Equal(t, []widget.NotificationKind{widget.NotifyStarting, widget.NotifyStarted, widget.NotifyEnded}, rec.kinds())
}

func TestController_EndOnIdleIsNoop(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.End())
	require.NoError(t, c.End())

	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.Empty(t, rec.kinds())
	assert.Empty(t, rt.Handles())
}

func TestController_EndActiveCall(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	h := rt.Last()
	h.FireStarted()
	waitPhase(t, c, widget.Active)

	require.NoError(t, c.End())

	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.Empty(t, c.State().CallID)
	assert.Equal(t, 1, h.DestroyCount())
	assert.Equal(t, widget.NotifyEnded, rec.last().Kind)
}

func TestController_EndWhileStarting(t *testing.T) {
	c, rt, _ := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	require.NoError(t, c.End())

	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.Equal(t, 0, rt.LiveCount())
}

func TestController_EndFromErrorReturnsToIdle(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("c1", "t1")))
	h := rt.Last()
	h.FireError("boom")
	waitPhase(t, c, widget.Error)

	require.NoError(t, c.End())
	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.Empty(t, c.State().Reason)
	assert.Equal(t, 1, h.DestroyCount())
	assert.Equal(t, widget.NotifyEnded, rec.last().Kind)
}

func TestController_InstantiationErrorReturnsToIdle(t *testing.T) {
	c, rt, rec := newController(t)
	rt.SetCreateErr(errors.New("invalid token"))

	err := c.Start(session("c1", "t1"))
	require.Error(t, err)

	var instErr *widget.InstantiationError
	require.ErrorAs(t, err, &instErr)
	assert.Contains(t, err.Error(), "invalid token")
	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.False(t, c.State().Live())
	assert.Equal(t, widget.NotifyError, rec.last().Kind)

	rt.SetCreateErr(nil)
	require.NoError(t, c.Start(session("c2", "t2")))
	assert.Equal(t, widget.Starting, c.State().Phase)
}

type panicRuntime struct{}

func (panicRuntime) CreateWidget(widget.Config) (widget.Handle, error) {
	panic("script not loaded")
}

type nilRuntime struct{}

func (nilRuntime) CreateWidget(widget.Config) (widget.Handle, error) {
	return nil, nil
}

func TestController_RuntimeMisbehaviour(t *testing.T) {
	for name, rt := range map[string]widget.Runtime{
		"panic":      panicRuntime{},
		"nil handle": nilRuntime{},
	} {
		t.Run(name, func(t *testing.T) {
			c := widget.NewController(rt, widget.Options{})
			defer c.Dispose()

			err := c.Start(session("c1", "t1"))
			var instErr *widget.InstantiationError
			require.ErrorAs(t, err, &instErr)
			assert.Equal(t, widget.Idle, c.State().Phase)
		})
	}
}

func TestController_SynchronousCallbackInsideCreate(t *testing.T) {
	c, rt, _ := newController(t)
	rt.OnCreate = func(h *widgettest.Handle) { h.FireStarted() }

	done := make(chan error, 1)
	go func() { done <- c.Start(session("c1", "t1")) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Start deadlocked on a synchronous callback")
	}
	waitPhase(t, c, widget.Active)
}

func TestController_DestroyFailureIsReportedNotReturned(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("a", "tA")))
	rt.SetFailDestroy(true)

	require.NoError(t, c.Start(session("b", "tB")))
	assert.Equal(t, "b", c.State().CallID)
	assert.Contains(t, rec.kinds(), widget.NotifyDestroyFailed)

	require.NoError(t, c.End())
	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.False(t, c.State().Live())

	var dErr *widget.DestroyError
	for _, n := range rec.notes {
		if n.Kind == widget.NotifyDestroyFailed {
			require.ErrorAs(t, n.Err, &dErr)
			assert.ErrorIs(t, n.Err, widgettest.ErrDestroy)
		}
	}
}

func (r *recorder) destroyFailures() []widget.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []widget.Notification
	for _, n := range r.notes {
		if n.Kind == widget.NotifyDestroyFailed {
			out = append(out, n)
		}
	}
	return out
}

func TestController_DestroyFailureCarriesNewState(t *testing.T) {
	c, rt, rec := newController(t)

	require.NoError(t, c.Start(session("a", "tA")))
	rt.SetFailDestroy(true)

	require.NoError(t, c.Start(session("b", "tB")))
	failures := rec.destroyFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, widget.Starting, failures[0].State.Phase)
	assert.Equal(t, "b", failures[0].State.CallID)
	assert.Equal(t, widget.NotifyStarting, rec.last().Kind)

	rt.Last().FireStarted()
	waitPhase(t, c, widget.Active)

	require.NoError(t, c.End())
	failures = rec.destroyFailures()
	require.Len(t, failures, 2)
	assert.Equal(t, widget.Idle, failures[1].State.Phase)
	assert.False(t, failures[1].State.Live())
	assert.Equal(t, widget.NotifyEnded, rec.last().Kind)
}

func TestController_DestroyPanicIsContained(t *testing.T) {
	c, rt, _ := newController(t)

	require.NoError(t, c.Start(session("a", "tA")))
	rt.PanicDestroy = true

	require.NoError(t, c.End())
	assert.Equal(t, widget.Idle, c.State().Phase)
	assert.False(t, c.State().Live())
}

func TestController_Dispose(t *testing.T) {
	rt := widgettest.New()
	c := widget.NewController(rt, widget.Options{})

	require.NoError(t, c.Start(session("c1", "t1")))
	h := rt.Last()

	require.NoError(t, c.Dispose())
	assert.True(t, h.Destroyed())
	assert.Equal(t, widget.Idle, c.State().Phase)

	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed after Dispose")
	}

	assert.ErrorIs(t, c.Start(session("c2", "t2")), widget.ErrDisposed)
	assert.ErrorIs(t, c.End(), widget.ErrDisposed)
	assert.NoError(t, c.Dispose())
	assert.Len(t, rt.Handles(), 1)

	// callbacks from the released handle are dropped
	h.FireStarted()
	assert.Equal(t, widget.Idle, c.State().Phase)
}

func TestController_DisposeWithFailingDestroy(t *testing.T) {
	rt := widgettest.New()
	rec := &recorder{}
	c := widget.NewController(rt, widget.Options{Observers: []widget.Observer{rec}})

	require.NoError(t, c.Start(session("c1", "t1")))
	rt.SetFailDestroy(true)

	require.NoError(t, c.Dispose())
	assert.Equal(t, widget.NotifyDestroyFailed, rec.last().Kind)
	assert.False(t, c.State().Live())
}

func TestController_Unsubscribe(t *testing.T) {
	c, _, _ := newController(t)

	extra := &recorder{}
	unsubscribe := c.Subscribe(extra)

	require.NoError(t, c.Start(session("c1", "t1")))
	unsubscribe()
	require.NoError(t, c.End())

	assert.Equal(t, []widget.NotificationKind{widget.NotifyStarting}, extra.kinds())
}

func TestController_CustomButton(t *testing.T) {
	rt := widgettest.New()
	c := widget.NewController(rt, widget.Options{
		ContainerID: "call-here",
		Button:      &widget.ButtonConfig{Text: "Talk to us"},
	})
	defer c.Dispose()

	require.NoError(t, c.Start(session("c1", "t1")))
	cfg := rt.Last().Config()
	assert.Equal(t, "call-here", cfg.ContainerID)
	assert.Equal(t, "Talk to us", cfg.Button.Text)
	assert.Equal(t, widget.DefaultButtonIcon, cfg.Button.Icon)
}

func TestController_ConcurrentStarts(t *testing.T) {
	c, rt, _ := newController(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.Start(session(fmt.Sprintf("c%d", i), fmt.Sprintf("t%d", i))))
		}(i)
	}
	wg.Wait()

	assert.Len(t, rt.Handles(), 20)
	assert.Equal(t, 1, rt.LiveCount())
	assert.Equal(t, rt.Last().Token(), "t"+c.State().CallID[1:])
}
