package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var agentStoreSchema = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		agent_id   TEXT PRIMARY KEY,
		agent_name TEXT,
		position   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cache_meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

const (
	metaSource    = "source"
	metaFetchedAt = "fetched_at"
)

// AgentStore caches the agent directory in a local SQLite database.
// Only agent ids and names are stored; sessions never touch it.
type AgentStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// OpenAgentStore opens (and creates if needed) the cache database at path.
// ":memory:" gives a private in-memory store.
func OpenAgentStore(path string) (*AgentStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, &StorageError{Path: path, Op: "open", Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StorageError{Path: path, Op: "open", Err: err}
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StorageError{Path: path, Op: "open", Err: fmt.Errorf("database ping failed: %w", err)}
	}
	for _, stmt := range agentStoreSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, &StorageError{Path: path, Op: "migrate", Err: err}
		}
	}

	return &AgentStore{db: db, path: path, now: time.Now}, nil
}

// Path returns the database location
func (s *AgentStore) Path() string {
	return s.path
}

// Close closes the underlying database
func (s *AgentStore) Close() error {
	return s.db.Close()
}

// SaveAgents replaces the cached directory with agents fetched from source
func (s *AgentStore) SaveAgents(source string, agents []Agent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM agents"); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	for i, a := range agents {
		var name sql.NullString
		if a.DisplayName != nil {
			name = sql.NullString{String: *a.DisplayName, Valid: true}
		}
		if _, err := tx.Exec("INSERT OR REPLACE INTO agents (agent_id, agent_name, position) VALUES (?, ?, ?)", a.ID, name, i); err != nil {
			return &StorageError{Path: s.path, Op: "write", Err: err}
		}
	}
	meta := map[string]string{
		metaSource:    source,
		metaFetchedAt: s.now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO cache_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return &StorageError{Path: s.path, Op: "write", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Path: s.path, Op: "write", Err: err}
	}
	return nil
}

// LoadAgents returns the cached agents when they were fetched from source
// within maxAge. ok is false on a cache miss.
func (s *AgentStore) LoadAgents(source string, maxAge time.Duration) (agents []Agent, ok bool, err error) {
	cachedSource, err := s.meta(metaSource)
	if err != nil || cachedSource == "" || cachedSource != source {
		return nil, false, err
	}
	fetchedRaw, err := s.meta(metaFetchedAt)
	if err != nil || fetchedRaw == "" {
		return nil, false, err
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedRaw)
	if err != nil {
		return nil, false, nil
	}
	if maxAge > 0 && s.now().Sub(fetchedAt) > maxAge {
		return nil, false, nil
	}

	rows, err := s.db.Query("SELECT agent_id, agent_name FROM agents ORDER BY position")
	if err != nil {
		return nil, false, &StorageError{Path: s.path, Op: "read", Err: err}
	}
	defer rows.Close()

	agents = []Agent{}
	for rows.Next() {
		var id string
		var name sql.NullString
		if err := rows.Scan(&id, &name); err != nil {
			return nil, false, &StorageError{Path: s.path, Op: "read", Err: fmt.Errorf("scan failed: %w", err)}
		}
		a := Agent{ID: id}
		if name.Valid {
			n := name.String
			a.DisplayName = &n
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, &StorageError{Path: s.path, Op: "read", Err: fmt.Errorf("rows iteration error: %w", err)}
	}

	return agents, true, nil
}

// Clear drops every cached agent and the cache metadata
func (s *AgentStore) Clear() error {
	for _, table := range []string{"agents", "cache_meta"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return &StorageError{Path: s.path, Op: "write", Err: err}
		}
	}
	return nil
}

func (s *AgentStore) meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM cache_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &StorageError{Path: s.path, Op: "read", Err: err}
	}
	return value, nil
}
