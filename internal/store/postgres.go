package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/matchrate/internal/db"
	"github.com/sells-group/matchrate/internal/model"
)

// PostgresSink appends summaries with COPY.
type PostgresSink struct {
	pool  db.Pool
	table pgx.Identifier
	name  string
}

// NewPostgres creates a PostgresSink with its own connection pool.
func NewPostgres(ctx context.Context, connString, table string, maxConns int32) (*PostgresSink, error) {
	ident, err := db.ParseIdentifier(table)
	if err != nil {
		return nil, err
	}

	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if maxConns <= 0 {
		maxConns = 4
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresSink{pool: pool, table: ident, name: table}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS %s (
	id             BIGSERIAL PRIMARY KEY,
	run_id         TEXT NOT NULL,
	country_code   VARCHAR(2) NOT NULL,
	created_on     TIMESTAMPTZ NOT NULL,
	source         TEXT NOT NULL,
	matches        INTEGER NOT NULL,
	records_in_run INTEGER NOT NULL
)`

func (s *PostgresSink) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresMigration, s.table.Sanitize()))
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresSink) AppendSummaries(ctx context.Context, records []model.SummaryRecord) (int64, error) {
	n, err := db.CopyFrom(ctx, s.pool, s.name, summaryColumns, summaryRows(records))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: append summaries")
	}
	zap.L().Info("postgres: appended summaries", zap.String("table", s.name), zap.Int64("rows", n))
	return n, nil
}

func (s *PostgresSink) History(ctx context.Context, countryCode string, limit int) ([]model.SummaryRecord, error) {
	var (
		where string
		args  []any
	)
	if countryCode != "" {
		where = " WHERE country_code = $1"
		args = append(args, countryCode)
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_on DESC, id", strings.Join(summaryColumns, ", "), s.table.Sanitize(), where)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query history")
	}
	defer rows.Close()

	var out []model.SummaryRecord
	for rows.Next() {
		var r model.SummaryRecord
		if err := rows.Scan(&r.RunID, &r.CountryCode, &r.CreatedOn, &r.Source, &r.MatchedCount, &r.TotalRecords); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: history rows")
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}
