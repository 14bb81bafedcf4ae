package internal

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Agent represents a voice agent from the directory service
type Agent struct {
	ID          string  `json:"agent_id" yaml:"agent_id"`
	DisplayName *string `json:"agent_name" yaml:"agent_name,omitempty"`
}

// Label returns the display name, falling back to the agent id
func (a Agent) Label() string {
	if a.DisplayName != nil && *a.DisplayName != "" {
		return *a.DisplayName
	}
	return a.ID
}

// NewAgent builds an Agent; an empty name is stored as null
func NewAgent(id, name string) Agent {
	a := Agent{ID: id}
	if name != "" {
		a.DisplayName = &name
	}
	return a
}

// Session is a provisioned call session. The access token authorizes a single
// widget connection and must never be logged or persisted.
type Session struct {
	CallID      string    `json:"call_id" yaml:"call_id"`
	AccessToken string    `json:"-" yaml:"-"`
	AgentID     string    `json:"agent_id" yaml:"agent_id"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// String renders the session without its access token
func (s Session) String() string {
	return fmt.Sprintf("Session{call_id=%s agent_id=%s}", s.CallID, s.AgentID)
}

// MarshalZerologObject logs the session without its access token
func (s Session) MarshalZerologObject(e *zerolog.Event) {
	e.Str("call_id", s.CallID).Str("agent_id", s.AgentID)
}

// gatewayRequest is the body posted to the call gateway function
type gatewayRequest struct {
	Action  string `json:"action"`
	AgentID string `json:"agent_id,omitempty"`
}

// apiKeyResponse is the gateway reply to the getApiKey action
type apiKeyResponse struct {
	APIKey string `json:"RETELL_API_KEY"`
}

// WebCallResponse is the gateway reply to the createWebCall action
type WebCallResponse struct {
	CallID      string `json:"call_id"`
	AccessToken string `json:"access_token"`
}
