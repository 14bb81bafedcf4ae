package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/agent-webcall/internal"
	"github.com/iksnae/agent-webcall/internal/export"
	"github.com/iksnae/agent-webcall/internal/snippet"
	"github.com/spf13/cobra"
)

var (
	createCopy   bool
	createOutput string
)

var (
	callIDStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

var errNoAgentChosen = errors.New("no agent selected")

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create [agent-id]",
	Short: "Create a web call for an agent",
	Long: `Create a new web call session for an agent and print the embed snippet
bound to its access token.

When no agent id is given the available agents are listed and you are asked
to choose one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGatewayConfig()
		if err != nil {
			return err
		}

		var exporter export.Exporter
		if createOutput != "" && createOutput != "text" {
			exporter, err = export.NewExporter(createOutput)
			if err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		out := cmd.OutOrStdout()

		agentID := ""
		if len(args) == 1 {
			agentID = strings.TrimSpace(args[0])
		}
		if agentID == "" {
			agents, _, err := fetchAgents(ctx, cfg, false)
			if err != nil {
				return fmt.Errorf("error fetching agents: %w", err)
			}
			agentID, err = promptAgent(cmd.InOrStdin(), out, agents)
			if err != nil {
				return err
			}
		}

		session, err := createSession(ctx, cfg, agentID)
		if err != nil {
			return fmt.Errorf("error creating web call: %w", err)
		}

		code := snippet.Renderer{
			ScriptURL:   cfg.Widget.ScriptURL,
			ContainerID: cfg.Widget.ContainerID,
			ButtonText:  cfg.Widget.ButtonText,
		}.Render(session.AccessToken)

		if exporter != nil {
			if err := exporter.ExportSession(session, out); err != nil {
				return err
			}
		} else {
			printSession(out, session, code)
		}

		if createCopy {
			copySnippet(code)
		}
		return nil
	},
}

func createSession(ctx context.Context, cfg *internal.Config, agentID string) (*internal.Session, error) {
	provisioner := internal.NewProvisioner(internal.NewGateway(cfg.Gateway))

	var session *internal.Session
	err := internal.ShowProgress(ctx, "Creating web call...", func() error {
		var err error
		session, err = provisioner.CreateSession(ctx, agentID)
		return err
	})
	return session, err
}

func printSession(w io.Writer, session *internal.Session, code string) {
	_, _ = fmt.Fprintln(w, headerStyle.Render("Web call created successfully"))
	_, _ = fmt.Fprintf(w, "Call ID: %s\n", callIDStyle.Render(session.CallID))
	_, _ = fmt.Fprintf(w, "Agent:   %s\n\n", idStyle.Render(session.AgentID))
	_, _ = fmt.Fprintln(w, titleStyle.Render("Code Snippet"))
	if internal.IsTerminal() {
		_, _ = fmt.Fprintln(w, codeStyle.Render(code))
	} else {
		_, _ = fmt.Fprintln(w, code)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, dimStyle.Render("Use this code snippet to integrate the web call widget into your website."))
}

// promptAgent lists agents on out and reads a choice (number or id) from in
func promptAgent(in io.Reader, out io.Writer, agents []internal.Agent) (string, error) {
	if len(agents) == 0 {
		return "", fmt.Errorf("%w: no agents available", errNoAgentChosen)
	}

	displayAgents(out, agents)
	_, _ = fmt.Fprintf(out, "Select an agent [1-%d]: ", len(agents))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read selection: %w", err)
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		return "", errNoAgentChosen
	}

	if n, err := strconv.Atoi(choice); err == nil {
		if n < 1 || n > len(agents) {
			return "", fmt.Errorf("%w: %d is out of range", errNoAgentChosen, n)
		}
		return agents[n-1].ID, nil
	}
	for _, a := range agents {
		if a.ID == choice {
			return a.ID, nil
		}
	}
	return "", fmt.Errorf("%w: unknown agent %q", errNoAgentChosen, choice)
}

func copySnippet(code string) {
	if err := clipboard.WriteAll(code); err != nil {
		internal.PrintWarning(fmt.Sprintf("Failed to copy. Please try copying the code manually (%v)", err))
		return
	}
	internal.PrintSuccess("Code copied: the code snippet has been copied to your clipboard")
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVar(&createCopy, "copy", false, "Copy the embed snippet to the clipboard")
	createCmd.Flags().StringVarP(&createOutput, "output", "o", "text", "Output format: text, json, jsonl, yaml, md")
}
