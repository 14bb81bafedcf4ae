package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetail bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that webcall can reach the call gateway",
	Long: `Check the health of webcall by verifying:
  • Configuration
  • Gateway reachability
  • API key availability
  • Agent listing
  • Local agent cache

This command is useful for debugging gateway and credential issues.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runHealthcheck(ctx, cmd.OutOrStdout())
	},
}

func runHealthcheck(ctx context.Context, w io.Writer) error {
	line := func(a ...interface{}) { _, _ = fmt.Fprintln(w, a...) }
	detail := func(format string, args ...interface{}) {
		if healthcheckDetail {
			_, _ = fmt.Fprintf(w, "   "+format+"\n", args...)
		}
	}

	line(sectionStyle.Render("Web Call Health Check"))
	line()

	// Step 1: configuration
	line(infoStyle.Render("Step 1: Loading configuration..."))
	cfg, err := loadConfig()
	if err != nil {
		line(errorStyle.Render("❌ Failed to load configuration:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		line(errorStyle.Render("❌ Invalid configuration:"), err)
		return fmt.Errorf("health check failed: %w", err)
	}
	line(successStyle.Render("✅ Configuration valid"))
	detail("Gateway: %s", cfg.Gateway.URL)
	detail("Function: %s", cfg.Gateway.Function)
	if cfg.Gateway.Key == "" {
		line(warningStyle.Render("⚠️  No gateway key configured (WEBCALL_GATEWAY_KEY)"))
	}
	line()

	gw := internal.NewGateway(cfg.Gateway)
	var agents []internal.Agent

	steps := []internal.ProgressStep{
		{
			Message: "Contacting gateway",
			Fn: func() error {
				line(infoStyle.Render("Step 2: Contacting gateway..."))
				latency, err := gw.Ping(ctx)
				if err != nil {
					line(errorStyle.Render("❌ Gateway unreachable:"), err)
					return err
				}
				line(successStyle.Render("✅ Gateway reachable"))
				detail("Endpoint: %s", gw.Endpoint())
				detail("Latency: %s", latency)
				line()
				return nil
			},
		},
		{
			Message: "Fetching API key",
			Fn: func() error {
				line(infoStyle.Render("Step 3: Fetching API key..."))
				if _, err := gw.GetAPIKey(ctx); err != nil {
					line(errorStyle.Render("❌ Failed to fetch API key:"), err)
					return err
				}
				line(successStyle.Render("✅ API key available"))
				line()
				return nil
			},
		},
		{
			Message: "Listing agents",
			Fn: func() error {
				line(infoStyle.Render("Step 4: Listing agents..."))
				var err error
				agents, err = gw.ListAgents(ctx)
				if err != nil {
					line(errorStyle.Render("❌ Failed to list agents:"), err)
					return err
				}
				if len(agents) == 0 {
					line(warningStyle.Render("⚠️  No agents configured"))
				} else {
					line(successStyle.Render(fmt.Sprintf("✅ Found %d agent(s)", len(agents))))
					for i, a := range agents {
						if i == 5 {
							detail("... and %d more", len(agents)-5)
							break
						}
						detail("[%d] %s (ID: %s)", i+1, a.Label(), a.ID)
					}
				}
				line()
				return nil
			},
		},
		{
			// cache problems only degrade to uncached listing
			Message: "Checking agent cache",
			Fn: func() error {
				line(infoStyle.Render("Step 5: Checking agent cache..."))
				switch {
				case cfg.Cache.Disabled || cfg.Cache.Path == "":
					line(warningStyle.Render("⚠️  Agent cache disabled"))
				default:
					store, err := internal.OpenAgentStore(cfg.Cache.Path)
					if err != nil {
						line(warningStyle.Render("⚠️  Agent cache unavailable:"), err)
					} else {
						_ = store.Close()
						line(successStyle.Render("✅ Agent cache ready"))
						detail("Path: %s", cfg.Cache.Path)
					}
				}
				line()
				return nil
			},
		},
	}

	if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	line(sectionStyle.Render("Summary"))
	line()
	line(successStyle.Render("✅ Health check passed!"))
	line(successStyle.Render(fmt.Sprintf("   • Agents: %d found", len(agents))))
	return nil
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckDetail, "detail", "d", false, "Show detailed diagnostic information")
}
