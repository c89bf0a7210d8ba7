// Package export writes the merged result table to the output artifact and
// reads it back. The format is chosen by file extension.
package export

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/waterfall"
)

// Format is an output artifact encoding.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatTSV    Format = "tsv"
	FormatXLSX   Format = "xlsx"
	FormatSQLite Format = "sqlite"
	FormatJSON   Format = "json"
)

// FormatFor picks the encoding for path. Unknown extensions get CSV.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return FormatTSV
	case ".xlsx":
		return FormatXLSX
	case ".db", ".sqlite", ".sqlite3", ".pkl":
		return FormatSQLite
	case ".json":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// CheckTarget fails when path exists or its directory does not.
func CheckTarget(path string) error {
	if err := config.CheckOutputPath(path); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	info, err := os.Stat(dir)
	if err != nil {
		return eris.Wrapf(err, "export: output directory %s", dir)
	}
	if !info.IsDir() {
		return eris.Errorf("export: %s is not a directory", dir)
	}
	return nil
}

// Write encodes t to path. An existing file is never overwritten.
func Write(path string, t *waterfall.Table) error {
	if err := CheckTarget(path); err != nil {
		return err
	}

	format := FormatFor(path)
	var err error
	switch format {
	case FormatTSV:
		err = writeDelimited(path, '\t', t)
	case FormatXLSX:
		err = writeXLSX(path, t)
	case FormatSQLite:
		err = writeSQLite(path, t)
	case FormatJSON:
		err = writeJSON(path, t)
	default:
		err = writeDelimited(path, ',', t)
	}
	if err != nil {
		return err
	}

	zap.L().Info("export: wrote results",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Header())),
	)
	return nil
}

// Read decodes an artifact written by Write.
func Read(path string) (*waterfall.Table, error) {
	var (
		header []string
		rows   [][]*string
		err    error
	)
	switch FormatFor(path) {
	case FormatTSV:
		header, rows, err = readDelimited(path, '\t')
	case FormatXLSX:
		header, rows, err = readXLSX(path)
	case FormatSQLite:
		header, rows, err = readSQLite(path)
	case FormatJSON:
		header, rows, err = readJSON(path)
	default:
		header, rows, err = readDelimited(path, ',')
	}
	if err != nil {
		return nil, err
	}

	t, err := waterfall.FromRows(header, rows)
	if err != nil {
		return nil, eris.Wrapf(err, "export: decode %s", path)
	}
	return t, nil
}

// createExclusive opens path for writing, failing if it already exists.
func createExclusive(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, eris.Wrapf(config.ErrOutputExists, "export: %s", path)
		}
		return nil, eris.Wrapf(err, "export: create %s", path)
	}
	return f, nil
}

func cellString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps an empty cell back to an absent value.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
