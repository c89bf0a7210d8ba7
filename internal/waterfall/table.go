package waterfall

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/model"
)

// NumberColumn is the key column of the merged table.
const NumberColumn = "number"

const (
	codeSuffix       = "_code"
	nameSuffix       = "_name"
	confidenceSuffix = "_confidence"
)

// SourceColumns describes the column group a source contributes.
type SourceColumns struct {
	Source     string
	Confidence bool
}

// Table is the merged result table: one row per input number, one column
// group per merged source. Rows are never added or removed after creation.
type Table struct {
	numbers []model.PhoneNumber
	index   map[model.PhoneNumber][]int
	groups  []SourceColumns
	cells   map[string][]*model.Outcome
}

// NewTable creates a table with one row per entry of numbers, in order.
// Duplicate numbers keep separate rows that share every merged outcome.
func NewTable(numbers []model.PhoneNumber) *Table {
	t := &Table{
		numbers: append([]model.PhoneNumber(nil), numbers...),
		index:   make(map[model.PhoneNumber][]int, len(numbers)),
		cells:   make(map[string][]*model.Outcome),
	}
	for i, n := range t.numbers {
		t.index[n] = append(t.index[n], i)
	}
	return t
}

// Merge left-joins outcomes for source onto the table. Rows without an
// outcome get absent values for the source. The table is left unchanged on
// error.
func (t *Table) Merge(source string, outcomes []model.Outcome, withConfidence bool) error {
	if _, dup := t.cells[source]; dup {
		return eris.Errorf("waterfall: source %s already merged", source)
	}

	col := make([]*model.Outcome, len(t.numbers))
	for i := range outcomes {
		o := outcomes[i]
		rows, ok := t.index[o.Number]
		if !ok {
			return eris.Errorf("waterfall: %s returned outcome for unknown number %q", source, o.Number)
		}
		for _, r := range rows {
			col[r] = &o
		}
	}

	t.groups = append(t.groups, SourceColumns{Source: source, Confidence: withConfidence})
	t.cells[source] = col
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.numbers) }

// Numbers returns the row keys in input order.
func (t *Table) Numbers() []model.PhoneNumber {
	return append([]model.PhoneNumber(nil), t.numbers...)
}

// Sources returns the merged sources in merge order.
func (t *Table) Sources() []string {
	out := make([]string, len(t.groups))
	for i, g := range t.groups {
		out[i] = g.Source
	}
	return out
}

// Groups returns the column groups in merge order.
func (t *Table) Groups() []SourceColumns {
	return append([]SourceColumns(nil), t.groups...)
}

// At returns the outcome for source at row, or nil when absent.
func (t *Table) At(source string, row int) *model.Outcome {
	col, ok := t.cells[source]
	if !ok || row < 0 || row >= len(col) {
		return nil
	}
	return col[row]
}

// Lookup returns the outcome source produced for number.
func (t *Table) Lookup(source string, number model.PhoneNumber) (model.Outcome, bool) {
	rows, ok := t.index[number]
	if !ok {
		return model.Outcome{}, false
	}
	o := t.At(source, rows[0])
	if o == nil {
		return model.Outcome{}, false
	}
	return *o, true
}

// CountCode returns how many rows carry code for source.
func (t *Table) CountCode(source string, code model.OutcomeCode) int {
	n := 0
	for _, o := range t.cells[source] {
		if o != nil && o.Code == code {
			n++
		}
	}
	return n
}

// Header returns the flat column names: number, then {source}_code,
// {source}_name and optionally {source}_confidence per source.
func (t *Table) Header() []string {
	h := []string{NumberColumn}
	for _, g := range t.groups {
		h = append(h, g.Source+codeSuffix, g.Source+nameSuffix)
		if g.Confidence {
			h = append(h, g.Source+confidenceSuffix)
		}
	}
	return h
}

// Rows returns the flat cell values aligned with Header. Absent values are nil.
func (t *Table) Rows() [][]*string {
	rows := make([][]*string, len(t.numbers))
	for i, n := range t.numbers {
		num := string(n)
		row := []*string{&num}
		for _, g := range t.groups {
			o := t.cells[g.Source][i]
			if o == nil {
				row = append(row, nil, nil)
				if g.Confidence {
					row = append(row, nil)
				}
				continue
			}
			code, name := string(o.Code), o.Name
			row = append(row, &code, &name)
			if g.Confidence {
				row = append(row, o.Confidence)
			}
		}
		rows[i] = row
	}
	return rows
}

// FromRows rebuilds a table from a Header/Rows pair, as read back from an
// output artifact. An empty or nil code cell means the source was absent.
func FromRows(header []string, rows [][]*string) (*Table, error) {
	if len(header) == 0 || header[0] != NumberColumn {
		return nil, eris.Errorf("waterfall: first column must be %q", NumberColumn)
	}

	type group struct {
		SourceColumns
		codeIdx, nameIdx, confIdx int
	}
	var groups []group
	for i := 1; i < len(header); {
		col := header[i]
		if !strings.HasSuffix(col, codeSuffix) {
			return nil, eris.Errorf("waterfall: expected a %s column at %d, got %q", codeSuffix, i, col)
		}
		src := strings.TrimSuffix(col, codeSuffix)
		if i+1 >= len(header) || header[i+1] != src+nameSuffix {
			return nil, eris.Errorf("waterfall: missing %s%s column", src, nameSuffix)
		}
		g := group{SourceColumns: SourceColumns{Source: src}, codeIdx: i, nameIdx: i + 1, confIdx: -1}
		i += 2
		if i < len(header) && header[i] == src+confidenceSuffix {
			g.Confidence = true
			g.confIdx = i
			i++
		}
		groups = append(groups, g)
	}

	numbers := make([]model.PhoneNumber, len(rows))
	for i, r := range rows {
		if len(r) != len(header) {
			return nil, eris.Errorf("waterfall: row %d has %d cells, want %d", i, len(r), len(header))
		}
		numbers[i] = model.PhoneNumber(str(r[0]))
	}

	t := NewTable(numbers)
	for _, g := range groups {
		col := make([]*model.Outcome, len(rows))
		for i, r := range rows {
			raw := str(r[g.codeIdx])
			if raw == "" {
				continue
			}
			code, err := model.ParseOutcomeCode(raw)
			if err != nil {
				return nil, eris.Wrapf(err, "waterfall: row %d %s", i, g.Source)
			}
			o := model.Outcome{Number: numbers[i], Code: code, Name: str(r[g.nameIdx])}
			if g.confIdx >= 0 && r[g.confIdx] != nil && *r[g.confIdx] != "" {
				c := *r[g.confIdx]
				o.Confidence = &c
			}
			col[i] = &o
		}
		if _, dup := t.cells[g.Source]; dup {
			return nil, eris.Errorf("waterfall: source %s appears twice", g.Source)
		}
		t.groups = append(t.groups, g.SourceColumns)
		t.cells[g.Source] = col
	}
	return t, nil
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
