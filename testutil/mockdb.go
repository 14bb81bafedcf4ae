package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// CreateCorruptDBFile writes a file that is not a SQLite database
func CreateCorruptDBFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	// larger than one page so SQLite reads and rejects the header
	data := bytes.Repeat([]byte("not a sqlite database\n"), 1024)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write corrupt db fixture: %v", err)
	}
}
