package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	actionGetAPIKey     = "getApiKey"
	actionListAgents    = "listAgents"
	actionCreateWebCall = "createWebCall"

	maxErrorBody = 4 << 10
)

// Gateway calls the backend function that fronts the agent directory and the
// call provisioning service. Every action is a POST of {"action": ...} to the
// same function endpoint.
type Gateway struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

// NewGateway creates a gateway client from config
func NewGateway(cfg GatewayConfig) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultGatewayTimeout
	}
	function := cfg.Function
	if function == "" {
		function = DefaultGatewayFunction
	}
	return &Gateway{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/functions/v1/" + function,
		key:        cfg.Key,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (g *Gateway) WithHTTPClient(c *http.Client) *Gateway {
	g.httpClient = c
	return g
}

// Endpoint returns the function URL the gateway posts to
func (g *Gateway) Endpoint() string {
	return g.endpoint
}

func (g *Gateway) addAuthHeaders(req *http.Request) {
	if g.key != "" {
		req.Header.Set("Authorization", "Bearer "+g.key)
		req.Header.Set("apikey", g.key)
	}
}

// GetAPIKey fetches the provider API key; an absent key is an error
func (g *Gateway) GetAPIKey(ctx context.Context) (string, error) {
	var resp apiKeyResponse
	if err := g.invoke(ctx, gatewayRequest{Action: actionGetAPIKey}, &resp); err != nil {
		return "", err
	}
	if resp.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	return resp.APIKey, nil
}

// ListAgents fetches the configured voice agents
func (g *Gateway) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	if err := g.invoke(ctx, gatewayRequest{Action: actionListAgents}, &agents); err != nil {
		return nil, err
	}
	if agents == nil {
		agents = []Agent{}
	}
	return agents, nil
}

// CreateWebCall asks the provisioning service for a new web call. The
// response is returned as decoded; required fields are checked by the caller.
func (g *Gateway) CreateWebCall(ctx context.Context, agentID string) (*WebCallResponse, error) {
	var resp WebCallResponse
	if err := g.invoke(ctx, gatewayRequest{Action: actionCreateWebCall, AgentID: agentID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the gateway endpoint answers at all
func (g *Gateway) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, g.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	g.addAuthHeaders(req)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach gateway: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= 500 {
		return 0, &GatewayError{Action: "ping", StatusCode: resp.StatusCode}
	}
	return time.Since(start), nil
}

func (g *Gateway) invoke(ctx context.Context, body gatewayRequest, out interface{}) error {
	logger := Component("gateway")

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	g.addAuthHeaders(req)

	logger.Debug().Str("action", body.Action).Str("agent_id", body.AgentID).Msg("invoking gateway")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &GatewayError{Action: body.Action, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", body.Action, err)
	}
	return nil
}
