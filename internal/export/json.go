package export

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/matchrate/internal/waterfall"
)

// orderedRow marshals as a JSON object whose keys follow the table header.
type orderedRow struct {
	keys []string
	vals []*string
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(path string, t *waterfall.Table) error {
	header := t.Header()
	rows := t.Rows()
	out := make([]orderedRow, len(rows))
	for i, r := range rows {
		out[i] = orderedRow{keys: header, vals: r}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "json: marshal")
	}

	f, err := createExclusive(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return eris.Wrap(err, "json: write")
	}
	return eris.Wrap(f.Close(), "json: close")
}

// readJSON takes the column order from the keys of the first object. An empty
// array decodes to a table with only the number column.
func readJSON(path string) ([]string, [][]*string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "json: read %s", path)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, eris.Wrap(err, "json: unmarshal")
	}
	if len(raw) == 0 {
		return []string{waterfall.NumberColumn}, nil, nil
	}

	header, err := objectKeys(raw[0])
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]*string, len(raw))
	for i, obj := range raw {
		var m map[string]*string
		if err := json.Unmarshal(obj, &m); err != nil {
			return nil, nil, eris.Wrapf(err, "json: row %d", i)
		}
		row := make([]*string, len(header))
		for j, k := range header {
			row[j] = m[k]
		}
		if row[0] == nil {
			row[0] = new(string)
		}
		rows[i] = row
	}
	return header, rows, nil
}

func objectKeys(obj json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(obj))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, eris.New("json: rows must be objects")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, eris.Wrap(err, "json: read key")
		}
		key, ok := tok.(string)
		if !ok {
			return nil, eris.New("json: expected object key")
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, eris.Wrapf(err, "json: read value of %s", key)
		}
	}
	if len(keys) == 0 {
		return nil, eris.New("json: first row has no columns")
	}
	return keys, nil
}
