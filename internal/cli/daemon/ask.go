package daemon

import (
	"encoding/json"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/spf13/cobra"
)

// AskCmd answers one question against the indexed documents.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question",
		Long:  "Retrieve the closest chunks, compose a prompt and print the model's answer.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			showSources, _ := cmd.Flags().GetBool("sources")

			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			session, err := env.app.QA.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			if outputJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(session)
			}
			cli.PrintSession(cmd.OutOrStdout(), session, showSources)
			return nil
		},
	}

	cmd.Flags().Bool("output", false, "Output as JSON")
	cmd.Flags().Bool("sources", false, "Print the retrieved chunks")

	return cmd
}
