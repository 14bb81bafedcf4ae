package internal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iksnae/agent-webcall/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_FetchesKeyThenAgents(t *testing.T) {
	stub := testutil.NewDirectoryStub(t)
	gw := NewGateway(GatewayConfig{URL: stub.URL()})
	dir := NewDirectory(gw, nil, gw.Endpoint(), time.Minute)

	agents, fromCache, err := dir.Agents(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, fromCache)
	require.Len(t, agents, 3)
	assert.Equal(t, "Support Line", agents[0].Label())
	assert.Equal(t, "agent_2", agents[1].Label())
	assert.Equal(t, 1, stub.Calls("getApiKey"))
	assert.Equal(t, 1, stub.Calls("listAgents"))
}

func TestDirectory_MissingAPIKey(t *testing.T) {
	stub := testutil.NewGatewayStub(t).
		On("getApiKey", 200, `{}`).
		On("listAgents", 200, testutil.AgentsJSON)
	gw := NewGateway(GatewayConfig{URL: stub.URL()})

	_, _, err := NewDirectory(gw, nil, gw.Endpoint(), time.Minute).Agents(context.Background(), false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, 0, stub.Calls("listAgents"), "agents are not listed without a key")
}

func TestDirectory_ListFailure(t *testing.T) {
	stub := testutil.NewGatewayStub(t).
		On("getApiKey", 200, testutil.APIKeyJSON).
		On("listAgents", 500, `oops`)
	gw := NewGateway(GatewayConfig{URL: stub.URL()})

	_, _, err := NewDirectory(gw, nil, gw.Endpoint(), time.Minute).Agents(context.Background(), false)
	var dirErr *DirectoryError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, "listAgents", dirErr.Op)
}

func TestDirectory_UsesCache(t *testing.T) {
	stub := testutil.NewDirectoryStub(t)
	gw := NewGateway(GatewayConfig{URL: stub.URL()})
	store := openTestStore(t)
	dir := NewDirectory(gw, store, gw.Endpoint(), time.Minute)

	_, fromCache, err := dir.Agents(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, fromCache)

	agents, fromCache, err := dir.Agents(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Len(t, agents, 3)
	assert.Equal(t, 1, stub.Calls("listAgents"))

	_, fromCache, err = dir.Agents(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, fromCache, "refresh bypasses the cache")
	assert.Equal(t, 2, stub.Calls("listAgents"))
}

func TestDirectory_Lookup(t *testing.T) {
	stub := testutil.NewDirectoryStub(t)
	gw := NewGateway(GatewayConfig{URL: stub.URL()})
	dir := NewDirectory(gw, nil, gw.Endpoint(), time.Minute)

	agent, err := dir.Lookup(context.Background(), "agent_3")
	require.NoError(t, err)
	assert.Equal(t, "Sales", agent.Label())

	agent, err = dir.Lookup(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, "unknown", agent.Label())
}
