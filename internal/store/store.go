// Package store persists per-source summary records to the coverage table.
package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/model"
)

// summaryColumns is the column order used for inserts and reads.
var summaryColumns = []string{"run_id", "country_code", "created_on", "source", "matches", "records_in_run"}

// SummarySink appends summary records. Rows are never updated or deleted.
type SummarySink interface {
	Migrate(ctx context.Context) error
	AppendSummaries(ctx context.Context, records []model.SummaryRecord) (int64, error)
	// History returns the newest records first, optionally for one country.
	History(ctx context.Context, countryCode string, limit int) ([]model.SummaryRecord, error)
	Close() error
}

// Open connects the sink selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (SummarySink, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.Table, cfg.MaxConns)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL, cfg.Table)
	case "none", "":
		return NoopSink{}, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func summaryRows(records []model.SummaryRecord) [][]any {
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.RunID, r.CountryCode, r.CreatedOn.UTC(), r.Source, r.MatchedCount, r.TotalRecords}
	}
	return rows
}

// NoopSink discards records.
type NoopSink struct{}

func (NoopSink) Migrate(context.Context) error { return nil }

func (NoopSink) AppendSummaries(_ context.Context, records []model.SummaryRecord) (int64, error) {
	zap.L().Info("store: sink disabled, summaries not persisted", zap.Int("records", len(records)))
	return 0, nil
}

func (NoopSink) History(context.Context, string, int) ([]model.SummaryRecord, error) {
	return nil, nil
}

func (NoopSink) Close() error { return nil }
