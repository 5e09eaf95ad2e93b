package commands

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/preview"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/suggest"
)

func newPreviewCommand(configPath *string) *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "preview <file.xlsx> [file.xlsx...]",
		Short: "Parse statement files and print the draft rows as JSON",
		Long: "Parses the given bank statement exports against the account's " +
			"configured format, annotates each row with category, subscription " +
			"and transfer suggestions, and prints the draft as JSON. Nothing is " +
			"written to the ledger.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, st, log, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer db.Close()

			var req preview.Request
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				req.Files = append(req.Files, preview.FileUpload{
					Filename:  filepath.Base(path),
					AccountID: accountID,
					Content:   base64.StdEncoding.EncodeToString(data),
				})
			}

			svc := preview.New(st, suggest.New(cfg.Keywords, log), log)
			resp, err := svc.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account the files belong to (required)")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}
