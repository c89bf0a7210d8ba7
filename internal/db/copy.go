// Package db provides shared PostgreSQL helpers for the summary sink.
package db

import (
	"context"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the sink uses. pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

var identPart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseIdentifier splits a possibly schema-qualified table name ("stats" or
// "analytics.stats") into a pgx.Identifier.
func ParseIdentifier(name string) (pgx.Identifier, error) {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, eris.Errorf("db: table name %q has too many parts", name)
	}
	for _, p := range parts {
		if !identPart.MatchString(p) {
			return nil, eris.Errorf("db: invalid table name %q", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// CopyFrom bulk-inserts rows using the COPY protocol. table may be schema
// qualified.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ident, err := ParseIdentifier(table)
	if err != nil {
		return 0, err
	}

	n, err := pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}
