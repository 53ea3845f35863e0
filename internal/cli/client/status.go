package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// StatusCmd reports whether the server is up and how many chunks it holds.
func StatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)

			resp, err := api.Get(cmd.Context(), "/health")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				_, err := fmt.Fprintln(out, string(resp.Data))
				return err
			}

			var health healthResponse
			if err := json.Unmarshal(resp.Data, &health); err != nil {
				return fmt.Errorf("failed to parse health: %w", err)
			}
			fmt.Fprintf(out, "%s: %s, %d records indexed\n", api.BaseURL(), health.Status, health.Records)
			return nil
		},
	}
}
