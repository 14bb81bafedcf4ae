package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// StubResponse is a canned gateway reply for one action
type StubResponse struct {
	Status int
	Body   string
}

// GatewayStub is an httptest server that mimics the call gateway function
type GatewayStub struct {
	Server *httptest.Server

	mu          sync.Mutex
	responses   map[string]StubResponse
	calls       map[string]int
	agentIDs    []string
	authHeaders []string
}

// NewGatewayStub starts a stub gateway; it is closed when the test ends
func NewGatewayStub(t *testing.T) *GatewayStub {
	t.Helper()
	s := &GatewayStub{
		responses: map[string]StubResponse{},
		calls:     map[string]int{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	return s
}

// On registers the reply for an action
func (s *GatewayStub) On(action string, status int, body string) *GatewayStub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[action] = StubResponse{Status: status, Body: body}
	return s
}

// URL returns the stub base URL
func (s *GatewayStub) URL() string {
	return s.Server.URL
}

// Calls returns how many times an action was invoked
func (s *GatewayStub) Calls(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[action]
}

// AgentIDs returns the agent ids sent with createWebCall, in order
func (s *GatewayStub) AgentIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.agentIDs...)
}

// AuthHeaders returns every Authorization header received
func (s *GatewayStub) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

func (s *GatewayStub) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/functions/v1/") {
		http.NotFound(w, r)
		return
	}

	var body struct {
		Action  string `json:"action"`
		AgentID string `json:"agent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[body.Action]++
	s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
	if body.Action == "createWebCall" {
		s.agentIDs = append(s.agentIDs, body.AgentID)
	}
	resp, ok := s.responses[body.Action]
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":"unknown action"}`, http.StatusBadRequest)
		return
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp.Body))
}
