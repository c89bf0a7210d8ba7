package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/matchrate/internal/waterfall"
)

// SheetName is the worksheet holding the result table.
const SheetName = "results"

func writeXLSX(path string, t *waterfall.Table) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range t.Header() {
		hdr.AddCell().SetString(h)
	}
	for _, row := range t.Rows() {
		r := sheet.AddRow()
		for _, c := range row {
			cell := r.AddCell()
			if c != nil {
				cell.SetString(*c)
			}
		}
	}

	f, err := createExclusive(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := file.Write(f); err != nil {
		return eris.Wrap(err, "xlsx: write")
	}
	return eris.Wrap(f.Close(), "xlsx: close")
}

func readXLSX(path string) ([]string, [][]*string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, ok := f.Sheet[SheetName]
	if !ok {
		if len(f.Sheets) == 0 {
			return nil, nil, eris.Errorf("xlsx: %s has no sheets", path)
		}
		sheet = f.Sheets[0]
	}
	if len(sheet.Rows) == 0 {
		return nil, nil, eris.Errorf("xlsx: %s is empty", path)
	}

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, c := range sheet.Rows[0].Cells {
		header = append(header, c.String())
	}
	if len(header) == 0 {
		return nil, nil, eris.Errorf("xlsx: %s has no header", path)
	}

	rows := make([][]*string, 0, len(sheet.Rows)-1)
	for _, r := range sheet.Rows[1:] {
		// Trailing empty cells may be dropped by the writer.
		row := make([]*string, len(header))
		for j, c := range r.Cells {
			if j < len(row) {
				row[j] = nullable(c.String())
			}
		}
		if row[0] == nil {
			row[0] = new(string)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
