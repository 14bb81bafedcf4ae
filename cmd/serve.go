package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/bridge"
	"github.com/iksnae/agent-webcall/internal/snippet"
	"github.com/iksnae/agent-webcall/internal/widget"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	serveAgent  string
	serveListen string
)

var phaseStyles = map[widget.Phase]lipgloss.Style{
	widget.Idle:     lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
	widget.Starting: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	widget.Active:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	widget.Ended:    lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true),
	widget.Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
}

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local call page",
	Long: `Serve a local page that lets you pick an agent, create a web call and talk
to the agent from the browser.

The page runs the widget runtime; this process provisions sessions, owns the
widget lifecycle and tears the widget down when the call ends or the server
stops.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGatewayConfig()
		if err != nil {
			return err
		}
		if serveListen != "" {
			cfg.Server.Listen = serveListen
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		gw := internal.NewGateway(cfg.Gateway)
		dir, closeDir := openDirectory(cfg, gw)
		defer closeDir()

		runtime := bridge.NewRemoteRuntime()
		controller := widget.NewController(runtime, widget.Options{
			ContainerID: cfg.Widget.ContainerID,
			Button:      &widget.ButtonConfig{Text: cfg.Widget.ButtonText},
			Observers:   []widget.Observer{runtime, stateReporter(cmd.ErrOrStderr())},
		})
		host := bridge.NewHost(internal.NewProvisioner(gw), dir, controller, snippet.Renderer{
			ScriptURL:   cfg.Widget.ScriptURL,
			ContainerID: cfg.Widget.ContainerID,
			ButtonText:  cfg.Widget.ButtonText,
		})
		defer func() {
			if err := host.Dispose(); err != nil {
				internal.LogWarn("Failed to dispose widget: %v", err)
			}
		}()

		server, err := bridge.NewServer(host, runtime, bridge.PageOptions{
			ScriptURL:   cfg.Widget.ScriptURL,
			ContainerID: cfg.Widget.ContainerID,
			AgentID:     serveAgent,
		})
		if err != nil {
			return fmt.Errorf("failed to build host page: %w", err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, headerStyle.Render("webcall is running"))
		_, _ = fmt.Fprintf(out, "Open %s in your browser (Ctrl+C to stop)\n\n",
			callIDStyle.Render("http://"+cfg.Server.Listen))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.ListenAndServe(gctx, cfg.Server.Listen)
		})
		if serveAgent != "" {
			g.Go(func() error {
				agent, err := dir.Lookup(gctx, serveAgent)
				if err != nil {
					internal.LogWarn("Could not resolve agent %s: %v", serveAgent, err)
					return nil
				}
				internal.LogInfo("Using pre-selected agent %s", agent.Label())
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		internal.LogInfo("Server stopped")
		return nil
	},
}

// stateReporter prints a line for every call transition
func stateReporter(w io.Writer) widget.Observer {
	return widget.ObserverFunc(func(n widget.Notification) {
		_, _ = fmt.Fprintln(w, formatNotification(n))
	})
}

func formatNotification(n widget.Notification) string {
	style, ok := phaseStyles[n.State.Phase]
	if !ok {
		style = dimStyle
	}

	line := style.Render("● " + n.State.Phase.String())
	switch {
	case n.Kind == widget.NotifyDestroyFailed:
		line = warningLine("widget cleanup failed: " + n.Reason)
	case n.State.Phase == widget.Error:
		line += " " + n.State.Reason
	case n.Kind == widget.NotifyError:
		line += " failed to start the call: " + n.Reason
	case n.State.CallID != "":
		line += " call " + n.State.CallID
	}
	return line
}

func warningLine(msg string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("⚠ " + msg)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAgent, "agent", "", "Pre-select an agent and skip the agent list")
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "Address to listen on (default from config, 127.0.0.1:8787)")
}
