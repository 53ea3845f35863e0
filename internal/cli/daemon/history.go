package daemon

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// HistoryCmd prints the most recent questions from the Postgres question log.
func HistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent questions",
		Long:  "List recent questions and answers. Requires LOG_STORE=postgres.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(cmd)
			if err != nil {
				return err
			}
			defer env.close()

			if env.app.QALog == nil {
				return errors.New("history requires LOG_STORE=postgres")
			}

			entries, err := env.app.QALog.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No questions logged yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s\n    %s\n", e.Timestamp.Format(time.RFC3339), e.Query, e.Answer)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")

	return cmd
}
