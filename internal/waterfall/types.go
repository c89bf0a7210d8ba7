package waterfall

import (
	"time"

	"github.com/sells-group/matchrate/internal/model"
)

// StageReport describes one source's pass over its candidate set.
type StageReport struct {
	Source      string        `json:"source"`
	Queried     int           `json:"queried"`
	Matched     int           `json:"matched"`
	SoftMatched int           `json:"soft_matched"`
	NotMatched  int           `json:"not_matched"`
	Failed      int           `json:"failed"`
	MeanLatency float64       `json:"mean_latency_secs"`
	Duration    time.Duration `json:"duration"`
	// Remaining is the candidate count handed to the next source.
	Remaining int `json:"remaining"`
}

// Result is the overall output of a waterfall run.
type Result struct {
	RunID   string        `json:"run_id"`
	Mode    Mode          `json:"mode"`
	Table   *Table        `json:"-"`
	Latency *Latency      `json:"-"`
	Stages  []StageReport `json:"stages"`
}

func (r *StageReport) count(o model.Outcome) {
	switch {
	case o.Code.IsMatched():
		r.Matched++
	case o.Code.IsSoftMatch():
		r.SoftMatched++
	case o.Code == model.CodeFailed:
		r.Failed++
	default:
		r.NotMatched++
	}
}
