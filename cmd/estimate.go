package main

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/export"
	"github.com/sells-group/matchrate/internal/kvstore"
	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/internal/store"
	"github.com/sells-group/matchrate/internal/waterfall"
	"github.com/sells-group/matchrate/internal/waterfall/provider"
)

// estimateOptions carries the positional arguments and flags of estimate.
type estimateOptions struct {
	ConfigPath    string
	NumbersPath   string
	OutputPath    string
	CountryCode   string
	Waterfall     string
	Concurrency   int
	NoSink        bool
	SummaryFormat string
	ShowStages    bool
}

var estimateOpts estimateOptions

var estimateCmd = &cobra.Command{
	Use:   "estimate <config> <numbers-file> <output-file> <country-code>",
	Short: "Estimate per-vendor match rates for a list of phone numbers",
	Long: `Reads newline-delimited phone numbers, queries every configured source in
order, writes the merged per-number table to the output file and appends one
summary row per source to the coverage table.

The output format follows the file extension: .csv, .tsv, .xlsx, .json, or
.db/.sqlite/.pkl for a SQLite snapshot. An existing output file is never
overwritten.

Examples:
  matchrate estimate config.yaml numbers.txt results.csv US
  matchrate estimate config.yaml numbers.txt results.xlsx GB --waterfall off
  matchrate estimate config.yaml numbers.txt results.db US --no-sink --summary-format json`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := estimateOpts
		opts.ConfigPath, opts.NumbersPath, opts.OutputPath, opts.CountryCode = args[0], args[1], args[2], args[3]
		return runEstimate(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&estimateOpts.Waterfall, "waterfall", "", `"on" or "off"; overrides the config file`)
	f.IntVar(&estimateOpts.Concurrency, "concurrency", 0, "max in-flight lookups per source; overrides the config file")
	f.BoolVar(&estimateOpts.NoSink, "no-sink", false, "skip appending summaries to the coverage table")
	f.StringVar(&estimateOpts.SummaryFormat, "summary-format", "table", "summary output format (table, json, yaml)")
	f.BoolVar(&estimateOpts.ShowStages, "stages", false, "print the per-source pass report to stderr")

	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(ctx context.Context, opts estimateOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Preconditions: nothing below may call a vendor if any of these fail.
	country, err := config.NormalizeCountryCode(opts.CountryCode)
	if err != nil {
		return err
	}
	if err := export.CheckTarget(opts.OutputPath); err != nil {
		return err
	}
	if err := checkSummaryFormat(opts.SummaryFormat); err != nil {
		return err
	}
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	modeLiteral := cfg.Waterfall
	if opts.Waterfall != "" {
		modeLiteral = opts.Waterfall
	}
	mode, err := waterfall.ParseMode(modeLiteral)
	if err != nil {
		return err
	}

	concurrency := cfg.Engine.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	numbers, err := model.ReadNumbersFile(opts.NumbersPath)
	if err != nil {
		return err
	}

	var kv kvstore.Store
	if cfg.NeedsKVStore() {
		kv, err = kvstore.Open(ctx, cfg.KVStore, cfg.AWS)
		if err != nil {
			return err
		}
		defer kv.Close() //nolint:errcheck
	}

	reg, err := provider.Build(cfg, provider.Deps{KV: kv})
	if err != nil {
		return err
	}
	providers, err := reg.Select(cfg.Sources)
	if err != nil {
		return err
	}

	metrics := waterfall.NewMetrics()
	exec := waterfall.NewExecutor(providers, mode,
		waterfall.WithConcurrency(concurrency),
		waterfall.WithMetrics(metrics),
	)

	res, err := exec.Run(ctx, numbers)
	if err != nil {
		return eris.Wrap(err, "estimate: run")
	}

	if err := export.Write(opts.OutputPath, res.Table); err != nil {
		return err
	}

	for _, src := range cfg.Sources {
		mean := res.Latency.Mean(src)
		if math.IsNaN(mean) {
			zap.L().Info("estimate: latency", zap.String("source", src), zap.String("mean", "n/a"))
			continue
		}
		zap.L().Info("estimate: latency", zap.String("source", src), zap.Float64("mean_secs", mean))
	}

	records := waterfall.Summarize(res.Table, cfg.Sources, country, time.Now().UTC(), res.RunID)

	if opts.NoSink {
		zap.L().Info("estimate: summary sink skipped")
	} else if err := appendSummaries(ctx, cfg.Store, records); err != nil {
		return err
	}

	if cfg.Metrics.PushgatewayURL != "" {
		grouping := map[string]string{"country_code": country, "waterfall": string(mode)}
		if err := metrics.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, grouping); err != nil {
			zap.L().Warn("estimate: metrics push failed", zap.Error(err))
		}
	}

	if opts.ShowStages {
		if err := renderStages(stderr, res.Stages); err != nil {
			return err
		}
	}
	return renderSummaries(stdout, records, opts.SummaryFormat)
}

func appendSummaries(ctx context.Context, cfg config.StoreConfig, records []model.SummaryRecord) error {
	sink, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer sink.Close() //nolint:errcheck

	if _, err := sink.AppendSummaries(ctx, records); err != nil {
		return eris.Wrap(err, "estimate: append summaries")
	}
	return nil
}
