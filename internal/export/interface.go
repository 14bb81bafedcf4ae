package export

import (
	"fmt"
	"io"

	"github.com/iksnae/agent-webcall/internal"
)

// Exporter defines the interface for all output formats
type Exporter interface {
	ExportAgents(agents []internal.Agent, w io.Writer) error
	ExportSession(session *internal.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// agentRecord is the exported shape of an agent. Label is included so
// consumers do not need to repeat the name fallback.
type agentRecord struct {
	AgentID   string  `json:"agent_id" yaml:"agent_id"`
	AgentName *string `json:"agent_name" yaml:"agent_name"`
	Label     string  `json:"label" yaml:"label"`
}

func toRecords(agents []internal.Agent) []agentRecord {
	records := make([]agentRecord, 0, len(agents))
	for _, a := range agents {
		records = append(records, agentRecord{AgentID: a.ID, AgentName: a.DisplayName, Label: a.Label()})
	}
	return records
}
