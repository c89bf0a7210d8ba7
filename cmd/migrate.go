package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/matchrate/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <config>",
	Short: "Create the coverage summary table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}
		if cfg.Store.Driver == "none" {
			return eris.New("migrate: store.driver is none")
		}

		sink, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck

		if err := sink.Migrate(ctx); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s (%s)\n", cfg.Store.Table, cfg.Store.Driver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
