package export

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/waterfall"
)

func writeDelimited(path string, comma rune, t *waterfall.Table) error {
	f, err := createExclusive(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = comma

	if err := w.Write(t.Header()); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	record := make([]string, len(t.Header()))
	for _, row := range t.Rows() {
		for i, c := range row {
			record[i] = cellString(c)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush")
	}
	return eris.Wrap(f.Close(), "export: close")
}

func readDelimited(path string, comma rune) ([]string, [][]*string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, eris.Errorf("export: %s is empty", path)
	}
	if err != nil {
		return nil, nil, eris.Wrap(err, "export: read header")
	}

	var rows [][]*string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "export: read row")
		}
		row := make([]*string, len(record))
		for i, v := range record {
			row[i] = nullable(v)
		}
		if len(row) > 0 && row[0] == nil {
			row[0] = new(string)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
