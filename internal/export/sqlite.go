package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/matchrate/internal/waterfall"
)

// SnapshotTable is the table the binary snapshot stores rows in.
const SnapshotTable = "results"

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// writeSQLite stores the table in a fresh SQLite file, one TEXT column per
// header entry. Absent cells are NULL.
func writeSQLite(path string, t *waterfall.Table) error {
	// Claim the path first so an existing file is never opened as a database.
	f, err := createExclusive(path)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "sqlite: close placeholder")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "sqlite: open")
	}
	defer db.Close()

	ctx := context.Background()
	header := t.Header()

	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		cols[i] = quoteIdent(h) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(SnapshotTable), strings.Join(cols, ", "))
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return eris.Wrap(err, "sqlite: create table")
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)",
		quoteIdent(SnapshotTable), strings.Join(marks, ", ")))
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

	args := make([]any, len(header))
	for i, row := range t.Rows() {
		for j, c := range row {
			if c == nil {
				args[j] = nil
			} else {
				args[j] = *c
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "sqlite: insert row %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func readSQLite(path string) ([]string, [][]*string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, eris.Wrapf(err, "sqlite: stat %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: open")
	}
	defer db.Close()

	rs, err := db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(SnapshotTable)))
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: select")
	}
	defer rs.Close()

	header, err := rs.Columns()
	if err != nil {
		return nil, nil, eris.Wrap(err, "sqlite: columns")
	}

	var rows [][]*string
	for rs.Next() {
		vals := make([]sql.NullString, len(header))
		dest := make([]any, len(header))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rs.Scan(dest...); err != nil {
			return nil, nil, eris.Wrap(err, "sqlite: scan")
		}
		row := make([]*string, len(header))
		for i, v := range vals {
			if v.Valid {
				s := v.String
				row[i] = &s
			}
		}
		rows = append(rows, row)
	}
	return header, rows, eris.Wrap(rs.Err(), "sqlite: rows")
}
