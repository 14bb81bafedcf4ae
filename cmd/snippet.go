package cmd

import (
	"fmt"

	"github.com/iksnae/agent-webcall/internal/snippet"
	"github.com/spf13/cobra"
)

var (
	snippetToken string
	snippetCopy  bool
)

// snippetCmd represents the snippet command
var snippetCmd = &cobra.Command{
	Use:   "snippet",
	Short: "Print the widget embed snippet",
	Long: `Print the HTML snippet that embeds the call widget on a web page.

Without --token the snippet carries the YOUR_ACCESS_TOKEN placeholder.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		code := snippet.Renderer{
			ScriptURL:   cfg.Widget.ScriptURL,
			ContainerID: cfg.Widget.ContainerID,
			ButtonText:  cfg.Widget.ButtonText,
		}.Render(snippetToken)

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), code)
		if snippetCopy {
			copySnippet(code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snippetCmd)
	snippetCmd.Flags().StringVar(&snippetToken, "token", "", "Access token to embed")
	snippetCmd.Flags().BoolVar(&snippetCopy, "copy", false, "Copy the snippet to the clipboard")
}
