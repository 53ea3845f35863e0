package client

import (
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/cloo-solutions/kbagent/internal/domain"
	"github.com/spf13/cobra"
)

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <pdf>",
		Short: "Upload and index a PDF",
		Long:  "Sends a PDF to the server, which extracts, chunks and indexes it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api := NewAPIClientWithCmd(cmd)

			resp, err := api.UploadPDF(cmd.Context(), "/api/documents", args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				_, err := fmt.Fprintln(out, string(resp.Data))
				return err
			}

			var doc domain.Document
			if err := json.Unmarshal(resp.Data, &doc); err != nil {
				return fmt.Errorf("failed to parse document: %w", err)
			}
			cli.PrintDocument(out, &doc)
			return nil
		},
	}
}
