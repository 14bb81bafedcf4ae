package widget

import (
	"errors"
	"fmt"
)

var (
	// ErrDisposed is returned by a controller that has been disposed.
	ErrDisposed = errors.New("widget controller disposed")
	// ErrInvalidSession is returned when Start is given no session or no token.
	ErrInvalidSession = errors.New("session has no access token")
)

// DefaultErrorReason is used when the runtime reports an error without a message.
const DefaultErrorReason = "An error occurred during the call"

// InstantiationError represents the runtime rejecting a widget config
type InstantiationError struct {
	HandleID string
	Err      error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("widget instantiation error [%s]: %v", e.HandleID, e.Err)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// RuntimeError represents a failure the widget reported mid-call
type RuntimeError struct {
	HandleID string
	Reason   string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("widget runtime error [%s]: %s", e.HandleID, e.Reason)
}

// DestroyError represents a failure to release a widget instance. It is
// reported to observers and never returned.
type DestroyError struct {
	HandleID string
	Err      error
}

func (e *DestroyError) Error() string {
	return fmt.Sprintf("widget destroy error [%s]: %v", e.HandleID, e.Err)
}

func (e *DestroyError) Unwrap() error {
	return e.Err
}
