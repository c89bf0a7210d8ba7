package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/internal/waterfall"
)

// checkSummaryFormat rejects formats renderSummaries cannot produce.
func checkSummaryFormat(format string) error {
	switch format {
	case "table", "json", "yaml", "":
		return nil
	}
	return eris.Errorf("render: unknown format %q", format)
}

// renderSummaries writes records as a table, JSON or YAML.
func renderSummaries(out io.Writer, records []model.SummaryRecord, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(records), "render: json")
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return eris.Wrap(err, "render: yaml")
		}
		return eris.Wrap(enc.Close(), "render: yaml")
	case "table", "":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "COUNTRY\tCREATED\tSOURCE\tMATCHES\tRECORDS\tRATE")
		_, _ = fmt.Fprintln(w, "-------\t-------\t------\t-------\t-------\t----")
		for _, r := range records {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
				r.CountryCode,
				r.CreatedOn.Format(time.DateTime),
				r.Source,
				r.MatchedCount,
				r.TotalRecords,
				formatRate(r.MatchRate()),
			)
		}
		return eris.Wrap(w.Flush(), "render: table")
	default:
		return eris.Errorf("render: unknown format %q", format)
	}
}

// renderStages writes the per-source pass report.
func renderStages(out io.Writer, stages []waterfall.StageReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tQUERIED\tMATCHED\tSOFT\tNOT_MATCHED\tFAILED\tMEAN_LATENCY\tREMAINING")
	for _, s := range stages {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%s\t%d\n",
			s.Source, s.Queried, s.Matched, s.SoftMatched, s.NotMatched, s.Failed,
			formatLatency(s.MeanLatency), s.Remaining)
	}
	return eris.Wrap(w.Flush(), "render: stages")
}

func formatRate(r float64) string {
	if math.IsNaN(r) {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", r*100)
}

func formatLatency(secs float64) string {
	if math.IsNaN(secs) {
		return "-"
	}
	return fmt.Sprintf("%.3fs", secs)
}
