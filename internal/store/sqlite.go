package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/matchrate/internal/db"
	"github.com/sells-group/matchrate/internal/model"
)

// SQLiteSink appends summaries to a local SQLite database.
type SQLiteSink struct {
	db    *sql.DB
	table pgx.Identifier
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn, table string) (*SQLiteSink, error) {
	ident, err := db.ParseIdentifier(table)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSink{db: conn, table: ident}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS %s (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	country_code   TEXT NOT NULL,
	created_on     DATETIME NOT NULL,
	source         TEXT NOT NULL,
	matches        INTEGER NOT NULL,
	records_in_run INTEGER NOT NULL
)`

func (s *SQLiteSink) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteMigration, s.table.Sanitize()))
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteSink) AppendSummaries(ctx context.Context, records []model.SummaryRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?)",
		s.table.Sanitize(), strings.Join(summaryColumns, ", "))
	for _, row := range summaryRows(records) {
		if _, err := tx.ExecContext(ctx, q, row...); err != nil {
			return 0, eris.Wrap(err, "sqlite: insert summary")
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}

	zap.L().Info("sqlite: appended summaries", zap.Int("rows", len(records)))
	return int64(len(records)), nil
}

func (s *SQLiteSink) History(ctx context.Context, countryCode string, limit int) ([]model.SummaryRecord, error) {
	var (
		where string
		args  []any
	)
	if countryCode != "" {
		where = " WHERE country_code = ?"
		args = append(args, countryCode)
	}
	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_on DESC, id", strings.Join(summaryColumns, ", "), s.table.Sanitize(), where)
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query history")
	}
	defer rows.Close()

	var out []model.SummaryRecord
	for rows.Next() {
		var r model.SummaryRecord
		if err := rows.Scan(&r.RunID, &r.CountryCode, &r.CreatedOn, &r.Source, &r.MatchedCount, &r.TotalRecords); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: history rows")
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
