package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history <config>",
	Short: "Show past coverage summaries, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		country, _ := cmd.Flags().GetString("country")
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("format")
		if err := checkSummaryFormat(format); err != nil {
			return err
		}
		if country != "" {
			var err error
			if country, err = config.NormalizeCountryCode(country); err != nil {
				return err
			}
		}

		cfg, err := loadConfig(args[0])
		if err != nil {
			return err
		}

		sink, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer sink.Close() //nolint:errcheck

		records, err := sink.History(ctx, country, limit)
		if err != nil {
			return eris.Wrap(err, "history")
		}
		return renderSummaries(cmd.OutOrStdout(), records, format)
	},
}

func init() {
	historyCmd.Flags().String("country", "", "only show this country code")
	historyCmd.Flags().Int("limit", 50, "max number of rows")
	historyCmd.Flags().String("format", "table", "output format (table, json, yaml)")

	rootCmd.AddCommand(historyCmd)
}
