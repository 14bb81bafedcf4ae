package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/agent-webcall/internal"
)

// JSONLExporter exports in JSONL format (one record per line)
type JSONLExporter struct{}

// ExportAgents writes one agent per line
func (e *JSONLExporter) ExportAgents(agents []internal.Agent, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, rec := range toRecords(agents) {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode agent: %w", err)
		}
	}

	return nil
}

// ExportSession writes the session as a single line
func (e *JSONLExporter) ExportSession(session *internal.Session, w io.Writer) error {
	if err := json.NewEncoder(w).Encode(session); err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
