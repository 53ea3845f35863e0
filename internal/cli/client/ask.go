package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/spf13/cobra"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Query string `json:"query"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	var showSources bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)

			resp, err := api.Post(cmd.Context(), "/api/ask", AskRequest{Query: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				_, err := fmt.Fprintln(out, string(resp.Data))
				return err
			}

			var session domain.Session
			if err := json.Unmarshal(resp.Data, &session); err != nil {
				return fmt.Errorf("failed to parse answer: %w", err)
			}
			cli.PrintSession(out, &session, showSources)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSources, "sources", false, "Print the retrieved chunks")

	return cmd
}
