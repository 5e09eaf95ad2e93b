package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/config"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/id"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/model"
	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/store"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ftrack project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			return runInit(cmd.Context(), absDir)
		},
	}
	return cmd
}

func runInit(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfgPath := filepath.Join(dir, config.Filename)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Create the database file with its schema, and the offset account
	// so the first commit does not have to.
	db, err := store.Open(filepath.Join(dir, cfg.Database.Path))
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	st := store.NewSQLite(db, cfg.Ledger.OffsetAccount)
	if _, err := st.Accounts().Offset(ctx); err != nil {
		return fmt.Errorf("creating offset account: %w", err)
	}
	if err := seedCategories(ctx, st, cfg); err != nil {
		return fmt.Errorf("seeding categories: %w", err)
	}

	fmt.Printf("Initialized ftrack project at %s\n", dir)
	return nil
}

// seedCategories creates one category per distinct name in the default
// keyword table, so keyword suggestions resolve to real category ids.
func seedCategories(ctx context.Context, st store.Store, cfg *config.Config) error {
	seen := make(map[string]bool)
	for _, kw := range cfg.Keywords {
		lower := strings.ToLower(kw.Category)
		if kw.Category == "" || seen[lower] {
			continue
		}
		seen[lower] = true
		if _, err := st.Categories().GetByName(ctx, lower); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		c := model.Category{ID: id.New(), Name: kw.Category, Active: true}
		if err := st.Categories().Create(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
