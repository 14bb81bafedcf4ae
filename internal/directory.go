package internal

import (
	"context"
	"time"
)

// AgentLister is the directory side of the call gateway
type AgentLister interface {
	GetAPIKey(ctx context.Context) (string, error)
	ListAgents(ctx context.Context) ([]Agent, error)
}

// Directory lists agents, serving from the local cache while it is fresh
type Directory struct {
	lister AgentLister
	store  *AgentStore
	source string
	ttl    time.Duration
}

// NewDirectory creates a directory. store may be nil to disable caching;
// source identifies the gateway so a cache built for another gateway is ignored.
func NewDirectory(lister AgentLister, store *AgentStore, source string, ttl time.Duration) *Directory {
	return &Directory{lister: lister, store: store, source: source, ttl: ttl}
}

// Agents returns the agent list. fromCache reports whether the gateway was skipped.
func (d *Directory) Agents(ctx context.Context, refresh bool) (agents []Agent, fromCache bool, err error) {
	if d.store != nil && !refresh {
		cached, ok, err := d.store.LoadAgents(d.source, d.ttl)
		if err != nil {
			LogWarn("Failed to load agent cache: %v, loading from gateway...", err)
		} else if ok {
			LogDebug("Loaded %d agent(s) from cache", len(cached))
			return cached, true, nil
		}
	}

	// the directory refuses to list agents for a gateway with no provider key
	if _, err := d.lister.GetAPIKey(ctx); err != nil {
		return nil, false, &DirectoryError{Op: "getApiKey", Err: err}
	}

	agents, err = d.lister.ListAgents(ctx)
	if err != nil {
		return nil, false, &DirectoryError{Op: "listAgents", Err: err}
	}

	if d.store != nil {
		if err := d.store.SaveAgents(d.source, agents); err != nil {
			LogWarn("Failed to save agent cache: %v", err)
		}
	}
	return agents, false, nil
}

// Lookup finds an agent by id, returning a bare Agent when it is not listed
func (d *Directory) Lookup(ctx context.Context, agentID string) (Agent, error) {
	agents, _, err := d.Agents(ctx, false)
	if err != nil {
		return Agent{}, err
	}
	for _, a := range agents {
		if a.ID == agentID {
			return a, nil
		}
	}
	return Agent{ID: agentID}, nil
}
