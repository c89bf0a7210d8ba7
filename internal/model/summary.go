package model

import "time"

// SummaryRecord is the per-source coverage row written at the end of a run.
type SummaryRecord struct {
	RunID        string    `json:"run_id" yaml:"run_id"`
	CountryCode  string    `json:"country_code" yaml:"country_code"`
	CreatedOn    time.Time `json:"created_on" yaml:"created_on"`
	Source       string    `json:"source" yaml:"source"`
	MatchedCount int       `json:"matches" yaml:"matches"`
	TotalRecords int       `json:"records_in_run" yaml:"records_in_run"`
}

// MatchRate returns MatchedCount / TotalRecords, or 0 for an empty run.
func (r SummaryRecord) MatchRate() float64 {
	if r.TotalRecords == 0 {
		return 0
	}
	return float64(r.MatchedCount) / float64(r.TotalRecords)
}
