package widget

import (
	"encoding/json"
	"fmt"
)

// Phase is the coarse call state
type Phase int

const (
	Idle Phase = iota
	Starting
	Active
	Ended
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Ended:
		return "ended"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the phase by name
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON parses a phase name written by MarshalJSON
func (p *Phase) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for candidate := Idle; candidate <= Error; candidate++ {
		if candidate.String() == name {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", name)
}

// State is a snapshot of the controller. Reason is only set in the Error
// phase; HandleID is only set while a widget instance is live.
type State struct {
	Phase    Phase  `json:"phase"`
	Reason   string `json:"reason,omitempty"`
	CallID   string `json:"call_id,omitempty"`
	AgentID  string `json:"agent_id,omitempty"`
	HandleID string `json:"handle_id,omitempty"`
}

// Live reports whether a widget instance is currently held
func (s State) Live() bool {
	return s.HandleID != ""
}

// NotificationKind names what happened
type NotificationKind string

const (
	NotifyStarting      NotificationKind = "starting"
	NotifyStarted       NotificationKind = "started"
	NotifyEnded         NotificationKind = "ended"
	NotifyError         NotificationKind = "error"
	NotifyDestroyFailed NotificationKind = "destroy_failed"
)

// Notification is delivered to observers after every transition. State is the
// snapshot after the transition.
type Notification struct {
	Kind   NotificationKind `json:"kind"`
	State  State            `json:"state"`
	Reason string           `json:"reason,omitempty"`
	Err    error            `json:"-"`
}

// Observer receives notifications on the controller goroutine. Implementations
// must not call back into the controller synchronously.
type Observer interface {
	Notify(n Notification)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(n Notification)

// Notify calls f(n)
func (f ObserverFunc) Notify(n Notification) {
	f(n)
}
