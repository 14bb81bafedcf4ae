package testutil

import "testing"

// Canned gateway payloads shared by tests
const (
	APIKeyJSON = `{"RETELL_API_KEY":"key_test_123"}`

	AgentsJSON = `[
		{"agent_id":"agent_1","agent_name":"Support Line"},
		{"agent_id":"agent_2","agent_name":null},
		{"agent_id":"agent_3","agent_name":"Sales"}
	]`

	WebCallJSON = `{"call_id":"c1","access_token":"t1"}`

	WebCallMissingTokenJSON = `{"call_id":"c1"}`
)

// NewDirectoryStub returns a gateway stub that answers getApiKey, listAgents
// and createWebCall with the canned payloads above
func NewDirectoryStub(t *testing.T) *GatewayStub {
	t.Helper()
	return NewGatewayStub(t).
		On("getApiKey", 200, APIKeyJSON).
		On("listAgents", 200, AgentsJSON).
		On("createWebCall", 200, WebCallJSON)
}
