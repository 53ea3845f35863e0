package daemon

import (
	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the kbagentd command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kbagentd",
		Short: "kbagent daemon",
		Long: `kbagentd indexes PDFs and answers questions about them.

Configuration comes from flags, then KBAGENT_* (or un-prefixed) environment
variables, then a .env file in the working directory.`,
		SilenceUsage: true,
	}

	AddConfigFlags(root)
	cli.AddHelpJSONFlag(root)

	root.AddCommand(ServeCmd())
	root.AddCommand(IngestCmd())
	root.AddCommand(AskCmd())
	root.AddCommand(HistoryCmd())

	return root
}
