package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/agent-webcall/internal"
)

// JSONExporter exports in JSON format (pretty-printed)
type JSONExporter struct{}

// ExportAgents writes the agent list as a JSON array
func (e *JSONExporter) ExportAgents(agents []internal.Agent, w io.Writer) error {
	return e.encode(w, toRecords(agents))
}

// ExportSession writes the session as a JSON object. The access token is
// never included.
func (e *JSONExporter) ExportSession(session *internal.Session, w io.Writer) error {
	return e.encode(w, session)
}

func (e *JSONExporter) encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
