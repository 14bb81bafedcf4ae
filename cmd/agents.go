package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/export"
	"github.com/spf13/cobra"
)

var (
	agentsRefresh bool
	agentsOutput  string
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// agentsCmd represents the agents command
var agentsCmd = &cobra.Command{
	Use:     "agents",
	Aliases: []string{"list"},
	Short:   "List available agents",
	Long: `List the voice agents the call gateway exposes.

Results are cached locally; use --refresh to bypass the cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGatewayConfig()
		if err != nil {
			return err
		}

		var exporter export.Exporter
		if agentsOutput != "" && agentsOutput != "table" {
			exporter, err = export.NewExporter(agentsOutput)
			if err != nil {
				return err
			}
		}

		agents, fromCache, err := fetchAgents(cmd.Context(), cfg, agentsRefresh)
		if err != nil {
			return fmt.Errorf("error fetching agents: %w", err)
		}
		if fromCache {
			internal.LogInfo("Loaded %d agent(s) from cache", len(agents))
		}

		out := cmd.OutOrStdout()
		if exporter != nil {
			return exporter.ExportAgents(agents, out)
		}
		displayAgents(out, agents)
		return nil
	},
}

func fetchAgents(ctx context.Context, cfg *internal.Config, refresh bool) ([]internal.Agent, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	gw := internal.NewGateway(cfg.Gateway)
	dir, closeDir := openDirectory(cfg, gw)
	defer closeDir()

	var (
		agents    []internal.Agent
		fromCache bool
	)
	err := internal.ShowProgress(ctx, "Loading agents...", func() error {
		var err error
		agents, fromCache, err = dir.Agents(ctx, refresh)
		return err
	})
	return agents, fromCache, err
}

func displayAgents(w io.Writer, agents []internal.Agent) {
	if len(agents) == 0 {
		_, _ = fmt.Fprintln(w, headerStyle.Render("No agents found"))
		return
	}

	_, _ = fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Found %d agent(s)", len(agents))))
	_, _ = fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("#")+"\t"+titleStyle.Render("Agent ID")+"\t"+titleStyle.Render("Name")+"\t")
	_, _ = fmt.Fprintln(tw, strings.Repeat("─", 72))

	for i, agent := range agents {
		name := dimStyle.Render("(unnamed)")
		if agent.DisplayName != nil && *agent.DisplayName != "" {
			label := agent.Label()
			if len(label) > 40 {
				label = label[:37] + "..."
			}
			name = nameStyle.Render(label)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t\n", i+1, idStyle.Render(agent.ID), name)
	}

	_ = tw.Flush()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, dimStyle.Render("Tip: start a call with ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render("webcall create "+agents[0].ID))
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.Flags().BoolVar(&agentsRefresh, "refresh", false, "Bypass the agent cache")
	agentsCmd.Flags().StringVarP(&agentsOutput, "output", "o", "table", "Output format: table, json, jsonl, yaml, md")
}
