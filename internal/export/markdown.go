package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/agent-webcall/internal"
)

// MarkdownExporter exports in Markdown format
type MarkdownExporter struct{}

// ExportAgents writes the agent list as a Markdown table
func (e *MarkdownExporter) ExportAgents(agents []internal.Agent, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Agents\n\n")
	_, _ = fmt.Fprintf(w, "**Total:** %d\n\n", len(agents))

	if len(agents) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(w, "| Agent ID | Name |\n")
	_, _ = fmt.Fprintf(w, "|---|---|\n")
	for _, a := range agents {
		_, _ = fmt.Fprintf(w, "| `%s` | %s |\n", a.ID, escapeCell(a.Label()))
	}

	return nil
}

// ExportSession writes a short summary of the session
func (e *MarkdownExporter) ExportSession(session *internal.Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Web Call %s\n\n", session.CallID)
	_, _ = fmt.Fprintf(w, "**Agent:** %s  \n", session.AgentID)
	if !session.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Created:** %s\n", session.CreatedAt.Format(time.RFC3339))
	}

	return nil
}

// escapeCell escapes characters that would break a table row
func escapeCell(text string) string {
	text = strings.ReplaceAll(text, "|", "\\|")
	text = strings.ReplaceAll(text, "\n", " ")
	return text
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
