package client

import (
	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the kbagent command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "kbagent",
		Short: "kbagent CLI - ask questions about your PDFs",
		Long: `kbagent talks to a running kbagentd server.

Environment variables:
  KBAGENT_API_URL   API base URL (default: http://localhost:8080)`,
		Version:      version,
		SilenceUsage: true,
	}

	root.PersistentFlags().Bool("output", false, "Output as JSON")
	root.PersistentFlags().String("api-url", "", "API base URL (overrides env)")
	cli.AddHelpJSONFlag(root)

	root.AddCommand(UploadCmd())
	root.AddCommand(AskCmd())
	root.AddCommand(StatusCmd())

	return root
}
