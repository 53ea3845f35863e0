package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/kbagent/internal/cli"
	"github.com/spf13/cobra"
)

// IngestCmd indexes a PDF from the local filesystem.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <pdf>",
		Short: "Index a PDF",
		Long:  "Extract, chunk and embed a PDF into the configured vector store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			doc, err := env.app.QA.Ingest(cmd.Context(), filepath.Base(args[0]), data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				return json.NewEncoder(out).Encode(doc)
			}
			cli.PrintDocument(out, doc)
			return nil
		},
	}

	cmd.Flags().Bool("output", false, "Output as JSON")

	return cmd
}
