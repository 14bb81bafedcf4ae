package export

import (
	"fmt"
	"testing"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		want    Exporter
		wantExt string
	}{
		{format: "json", want: &JSONExporter{}, wantExt: "json"},
		{format: "jsonl", want: &JSONLExporter{}, wantExt: "jsonl"},
		{format: "yaml", want: &YAMLExporter{}, wantExt: "yaml"},
		{format: "md", want: &MarkdownExporter{}, wantExt: "md"},
		{format: "markdown", want: &MarkdownExporter{}, wantExt: "md"},
		{format: "table"},
		{format: "xml"},
		{format: ""},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if tt.want == nil {
				if err == nil {
					t.Errorf("NewExporter(%q) should fail, got %T", tt.format, exporter)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExporter(%q) failed: %v", tt.format, err)
			}
			if got, want := fmt.Sprintf("%T", exporter), fmt.Sprintf("%T", tt.want); got != want {
				t.Errorf("NewExporter(%q) = %s, want %s", tt.format, got, want)
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}
		})
	}
}

func TestToRecords(t *testing.T) {
	records := toRecords(testAgents())
	if len(records) != 3 {
		t.Fatalf("toRecords() returned %d records, want 3", len(records))
	}
	if records[0].Label != "Support Line" || records[1].Label != "agent_2" {
		t.Errorf("unexpected labels: %q, %q", records[0].Label, records[1].Label)
	}
	if got := toRecords(nil); got == nil || len(got) != 0 {
		t.Errorf("toRecords(nil) = %#v, want empty slice", got)
	}
}
