package internal

import (
	"context"
	"strings"
	"time"
)

// WebCallCreator is the provisioning side of the call gateway
type WebCallCreator interface {
	CreateWebCall(ctx context.Context, agentID string) (*WebCallResponse, error)
}

// Provisioner obtains fresh call sessions for an agent. It keeps no state
// between calls and never retries.
type Provisioner struct {
	creator WebCallCreator
	now     func() time.Time
}

// NewProvisioner creates a provisioner backed by creator
func NewProvisioner(creator WebCallCreator) *Provisioner {
	return &Provisioner{creator: creator, now: time.Now}
}

// CreateSession provisions a new session for agentID
func (p *Provisioner) CreateSession(ctx context.Context, agentID string) (*Session, error) {
	if strings.TrimSpace(agentID) == "" {
		return nil, &ProvisioningError{Op: "validate", Err: ErrEmptyAgentID}
	}

	resp, err := p.creator.CreateWebCall(ctx, agentID)
	if err != nil {
		return nil, &ProvisioningError{AgentID: agentID, Op: "request", Err: err}
	}
	if resp == nil || resp.CallID == "" {
		return nil, &ProvisioningError{AgentID: agentID, Op: "decode", Err: ErrMissingCallID}
	}
	if resp.AccessToken == "" {
		return nil, &ProvisioningError{AgentID: agentID, Op: "decode", Err: ErrMissingAccessToken}
	}

	session := &Session{
		CallID:      resp.CallID,
		AccessToken: resp.AccessToken,
		AgentID:     agentID,
		CreatedAt:   p.now(),
	}
	logger := Component("provisioner")
	logger.Info().Object("session", session).Msg("web call created")
	return session, nil
}
