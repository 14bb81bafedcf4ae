package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAgentID is returned when a session is requested without an agent.
	ErrEmptyAgentID = errors.New("agent id is required")
	// ErrMissingCallID is returned when the gateway response has no call id.
	ErrMissingCallID = errors.New("invalid response from server: missing call_id")
	// ErrMissingAccessToken is returned when the gateway response has no access token.
	ErrMissingAccessToken = errors.New("invalid response from server: missing access_token")
	// ErrMissingAPIKey is returned when the directory does not hand out an API key.
	ErrMissingAPIKey = errors.New("failed to fetch API key")
)

// GatewayError represents a non-2xx reply from the call gateway
type GatewayError struct {
	Action     string // "getApiKey", "listAgents", "createWebCall"
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gateway error [%s]: unexpected status %d", e.Action, e.StatusCode)
	}
	return fmt.Sprintf("gateway error [%s]: unexpected status %d: %s", e.Action, e.StatusCode, e.Body)
}

// ProvisioningError represents a failed attempt to create a call session
type ProvisioningError struct {
	AgentID string
	Op      string // "validate", "request", "decode"
	Err     error
}

func (e *ProvisioningError) Error() string {
	if e.AgentID == "" {
		return fmt.Sprintf("provisioning error: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provisioning error [%s] %s: %v", e.AgentID, e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// DirectoryError represents errors fetching the agent directory
type DirectoryError struct {
	Op  string // "getApiKey", "listAgents", "cache"
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory error: %s: %v", e.Op, e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the local agent cache
type StorageError struct {
	Path string
	Op   string // "open", "migrate", "read", "write"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ConfigError represents an invalid or unreadable configuration
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error [%s] %s: %v", e.Path, e.Field, e.Err)
	}
	return fmt.Sprintf("config error [%s]: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
