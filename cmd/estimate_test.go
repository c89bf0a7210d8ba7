package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/export"
	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/internal/store"
	"github.com/sells-group/matchrate/internal/waterfall"
)

const (
	num1555 = "+15550001555"
	num1666 = "+15550001666"
)

// vendorFixture runs fake whitepages and navagis endpoints. Whitepages only
// knows num1555; navagis knows every number.
type vendorFixture struct {
	whitepages *httptest.Server
	navagis    *httptest.Server
	wpCalls    atomic.Int32
	navCalls   atomic.Int32
	navSeen    chan string
}

func newVendorFixture(t *testing.T) *vendorFixture {
	t.Helper()
	f := &vendorFixture{navSeen: make(chan string, 16)}

	f.whitepages = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.wpCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("phone") == num1555 {
			_, _ = w.Write([]byte(`{"belongs_to":[{"name":"Ann Lee"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"belongs_to":[]}`))
	}))
	t.Cleanup(f.whitepages.Close)

	f.navagis = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.navCalls.Add(1)
		f.navSeen <- r.URL.Query().Get("phone")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"OK","candidates":[{"name":"Place %s"}]}`, r.URL.Query().Get("phone"))
	}))
	t.Cleanup(f.navagis.Close)

	return f
}

func (f *vendorFixture) config(t *testing.T, dbPath string) string {
	t.Helper()
	body := fmt.Sprintf(`
sources: [whitepages, navagis]
waterfall: "on"
vendors:
  whitepages:
    url: "%s/?phone={number}&key={api_key}"
    api_key: wp
  navagis:
    url: "%s/?phone={number}&key={api_key}"
    api_key: nv
store:
  driver: sqlite
  database_url: %q
log:
  level: error
  format: console
`, f.whitepages.URL, f.navagis.URL, dbPath)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func writeNumbers(t *testing.T, numbers ...string) string {
	t.Helper()
	var buf bytes.Buffer
	for _, n := range numbers {
		buf.WriteString(n + "\n")
	}
	path := filepath.Join(t.TempDir(), "numbers.txt")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func migrateSQLite(t *testing.T, dbPath string) {
	t.Helper()
	s, err := store.NewSQLite(dbPath, "id_coverage_stats")
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
}

func TestRunEstimate_WaterfallOn(t *testing.T) {
	f := newVendorFixture(t)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "stats.db")
	migrateSQLite(t, dbPath)
	out := filepath.Join(dir, "results.csv")

	var stdout, stderr bytes.Buffer
	err := runEstimate(context.Background(), estimateOptions{
		ConfigPath:    f.config(t, dbPath),
		NumbersPath:   writeNumbers(t, num1555, num1666),
		OutputPath:    out,
		CountryCode:   "us",
		SummaryFormat: "json",
		ShowStages:    true,
	}, &stdout, &stderr)
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.wpCalls.Load())
	assert.Equal(t, int32(1), f.navCalls.Load())
	assert.Equal(t, num1666, <-f.navSeen)

	tbl, err := export.Read(out)
	require.NoError(t, err)
	o, ok := tbl.Lookup("whitepages", num1555)
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", o.Name)
	_, ok = tbl.Lookup("navagis", num1555)
	assert.False(t, ok)
	o, ok = tbl.Lookup("navagis", num1666)
	require.True(t, ok)
	assert.Equal(t, model.CodeMatched, o.Code)

	var printed []model.SummaryRecord
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &printed))
	require.Len(t, printed, 2)
	assert.Equal(t, "US", printed[0].CountryCode)
	assert.Equal(t, 1, printed[0].MatchedCount)
	assert.Equal(t, 1, printed[1].MatchedCount)
	assert.Equal(t, 2, printed[1].TotalRecords)
	assert.Contains(t, stderr.String(), "REMAINING")

	sink, err := store.NewSQLite(dbPath, "id_coverage_stats")
	require.NoError(t, err)
	defer sink.Close() //nolint:errcheck
	stored, err := sink.History(context.Background(), "US", 0)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	assert.Equal(t, printed[0].RunID, stored[0].RunID)
}

func TestRunEstimate_WaterfallOffFlag(t *testing.T) {
	f := newVendorFixture(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "results.json")

	var stdout bytes.Buffer
	err := runEstimate(context.Background(), estimateOptions{
		ConfigPath:    f.config(t, filepath.Join(dir, "unused.db")),
		NumbersPath:   writeNumbers(t, num1555, num1666),
		OutputPath:    out,
		CountryCode:   "GB",
		Waterfall:     "off",
		Concurrency:   2,
		NoSink:        true,
		SummaryFormat: "table",
	}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.navCalls.Load())
	assert.Contains(t, stdout.String(), "navagis")
	assert.Contains(t, stdout.String(), "100.0%")
	assert.NoFileExists(t, filepath.Join(dir, "unused.db"))
}

func TestRunEstimate_PreconditionsStopBeforeVendorCalls(t *testing.T) {
	f := newVendorFixture(t)
	dir := t.TempDir()
	cfgPath := f.config(t, filepath.Join(dir, "stats.db"))
	numbers := writeNumbers(t, num1555)

	existing := filepath.Join(dir, "old.csv")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0o644))

	tests := []struct {
		name    string
		opts    estimateOptions
		wantErr error
	}{
		{
			name:    "output exists",
			opts:    estimateOptions{OutputPath: existing, CountryCode: "US"},
			wantErr: config.ErrOutputExists,
		},
		{
			name:    "country code too long",
			opts:    estimateOptions{OutputPath: filepath.Join(dir, "a.csv"), CountryCode: "USA"},
			wantErr: config.ErrCountryCode,
		},
		{
			name:    "bad waterfall literal",
			opts:    estimateOptions{OutputPath: filepath.Join(dir, "b.csv"), CountryCode: "US", Waterfall: "yes"},
			wantErr: waterfall.ErrInvalidMode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.ConfigPath = cfgPath
			tt.opts.NumbersPath = numbers
			tt.opts.SummaryFormat = "table"

			err := runEstimate(context.Background(), tt.opts, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, eris.Is(err, tt.wantErr), "got %v", err)
		})
	}

	assert.Zero(t, f.wpCalls.Load())
	assert.Zero(t, f.navCalls.Load())

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestRunEstimate_UnknownSummaryFormat(t *testing.T) {
	err := runEstimate(context.Background(), estimateOptions{
		OutputPath:    filepath.Join(t.TempDir(), "x.csv"),
		CountryCode:   "US",
		SummaryFormat: "xml",
	}, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
