package export

import (
	"io"

	"github.com/iksnae/agent-webcall/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports in YAML format
type YAMLExporter struct{}

// ExportAgents writes the agent list as a YAML sequence
func (e *YAMLExporter) ExportAgents(agents []internal.Agent, w io.Writer) error {
	return e.encode(w, toRecords(agents))
}

// ExportSession writes the session as a YAML mapping
func (e *YAMLExporter) ExportSession(session *internal.Session, w io.Writer) error {
	return e.encode(w, session)
}

func (e *YAMLExporter) encode(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(v)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
