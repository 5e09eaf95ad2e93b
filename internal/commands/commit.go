package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/commit"
)

func newCommitCommand(configPath *string) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "commit [rows.json]",
		Short: "Commit confirmed draft rows to the ledger",
		Long: "Reads a commit request (the edited preview output) from the " +
			"given file or stdin and persists it as one import batch. The " +
			"whole batch succeeds or fails together.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, st, log, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var in io.Reader = cmd.InOrStdin()
			if len(args) > 0 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			var req commit.Request
			if err := json.NewDecoder(in).Decode(&req); err != nil {
				return fmt.Errorf("parsing commit request: %w", err)
			}
			if note != "" {
				req.Note = note
			}

			result, err := commit.New(st, log).Commit(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "note recorded on the import batch")

	return cmd
}
