package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/agent-webcall/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	gatewayURL string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "webcall",
	Short: "Start browser voice calls with your configured agents",
	Long: `A CLI tool to provision web calls against a voice agent and run them in
the browser.

webcall talks to your call gateway to list agents and create short-lived call
sessions, hosts a local page that mounts the calling widget for a session, and
prints the embed snippet so the same widget can be added to any site.

Quick Start:
  webcall agents                   # List configured agents
  webcall create <agent-id>        # Create a web call and print its snippet
  webcall serve                    # Open the local call page
  webcall snippet                  # Print the embed snippet with a placeholder token

Configuration is read from ~/.config/webcall/config.yaml and the
WEBCALL_GATEWAY_URL / WEBCALL_GATEWAY_KEY environment variables.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment, then applies flag overrides
func loadConfig() (*internal.Config, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if gatewayURL != "" {
		cfg.Gateway.URL = gatewayURL
	}
	return cfg, nil
}

// loadGatewayConfig is loadConfig for commands that need to reach the gateway
func loadGatewayConfig() (*internal.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openDirectory builds the agent directory over gw. The returned close
// function releases the cache and is always safe to call.
func openDirectory(cfg *internal.Config, gw *internal.Gateway) (*internal.Directory, func()) {
	if cfg.Cache.Disabled || cfg.Cache.Path == "" {
		return internal.NewDirectory(gw, nil, gw.Endpoint(), 0), func() {}
	}

	store, err := internal.OpenAgentStore(cfg.Cache.Path)
	if err != nil {
		internal.LogWarn("Agent cache unavailable, continuing without it: %v", err)
		return internal.NewDirectory(gw, nil, gw.Endpoint(), 0), func() {}
	}
	return internal.NewDirectory(gw, store, gw.Endpoint(), cfg.Cache.TTL), func() {
		if err := store.Close(); err != nil {
			internal.LogWarn("Failed to close agent cache: %v", err)
		}
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.config/webcall/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "Call gateway base URL (overrides config and WEBCALL_GATEWAY_URL)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
