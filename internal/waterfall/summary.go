package waterfall

import (
	"time"

	"github.com/sells-group/matchrate/internal/model"
)

// Summarize builds one summary record per source: the count of definitive
// matches and the total row count of the run. Soft matches are not counted.
func Summarize(t *Table, sources []string, countryCode string, createdOn time.Time, runID string) []model.SummaryRecord {
	out := make([]model.SummaryRecord, 0, len(sources))
	for _, src := range sources {
		out = append(out, model.SummaryRecord{
			RunID:        runID,
			CountryCode:  countryCode,
			CreatedOn:    createdOn,
			Source:       src,
			MatchedCount: t.CountCode(src, model.CodeMatched),
			TotalRecords: t.Len(),
		})
	}
	return out
}
