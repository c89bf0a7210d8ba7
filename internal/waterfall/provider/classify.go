package provider

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sells-group/matchrate/internal/kvstore"
	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/pkg/infobel"
	"github.com/sells-group/matchrate/pkg/navagis"
	"github.com/sells-group/matchrate/pkg/telo"
	"github.com/sells-group/matchrate/pkg/whitepages"
)

// YelpMinRecords is the record count yelp must exceed before its first
// record is trusted. Fewer records are treated as no identity.
const YelpMinRecords = 2

// The classifiers below are pure: the same response and error always produce
// the same outcome. A missing structure the vendor always sends is treated as
// a malformed response and classified Failed.

// ClassifyInfobel maps an Infobel answer to an outcome.
func ClassifyInfobel(number model.PhoneNumber, resp *infobel.Response, err error) model.Outcome {
	if err != nil || resp == nil || resp.Result == nil {
		return model.FailedOutcome(number)
	}
	name := deref(resp.Result.FullName)
	if name == "" {
		return model.NotMatchedOutcome(number)
	}
	return model.MatchedOutcome(number, name)
}

// ClassifyTelo maps a Telo answer to an outcome. Any empty data value (null,
// {}, [], "", false, 0) means no identity.
func ClassifyTelo(number model.PhoneNumber, resp *telo.Response, err error) model.Outcome {
	if err != nil || resp == nil {
		return model.FailedOutcome(number)
	}
	if isEmptyJSON(resp.Data) {
		return model.NotMatchedOutcome(number)
	}

	var rec telo.Record
	if err := json.Unmarshal(resp.Data, &rec); err != nil {
		return model.FailedOutcome(number)
	}
	name := deref(rec.Name)
	if name == "" {
		return model.NotMatchedOutcome(number)
	}
	return model.MatchedOutcome(number, name)
}

// ClassifyWhitepages maps a Whitepages answer to an outcome using the first
// owner in belongs_to.
func ClassifyWhitepages(number model.PhoneNumber, resp *whitepages.Response, err error) model.Outcome {
	if err != nil || resp == nil {
		return model.FailedOutcome(number)
	}
	if len(resp.BelongsTo) == 0 {
		return model.NotMatchedOutcome(number)
	}
	name := ownerName(resp.BelongsTo[0])
	if name == "" {
		return model.NotMatchedOutcome(number)
	}
	return model.MatchedOutcome(number, name)
}

// ClassifyNavagis maps a Navagis answer to an outcome using the first candidate.
func ClassifyNavagis(number model.PhoneNumber, resp *navagis.Response, err error) model.Outcome {
	if err != nil || resp == nil {
		return model.FailedOutcome(number)
	}
	if resp.Status != navagis.StatusOK || len(resp.Candidates) == 0 {
		return model.NotMatchedOutcome(number)
	}
	name := deref(resp.Candidates[0].Name)
	if name == "" {
		return model.NotMatchedOutcome(number)
	}
	return model.MatchedOutcome(number, name)
}

// ClassifyHiya maps identity cache records to an outcome using the first record.
func ClassifyHiya(number model.PhoneNumber, records []kvstore.Record, err error) model.Outcome {
	if err != nil {
		return model.FailedOutcome(number)
	}
	if len(records) == 0 {
		return model.NotMatchedOutcome(number)
	}
	first := records[0]
	name := deref(first.Name)
	if name == "" {
		return model.SoftOutcome(number, model.CodeNameUnavailableRepOnly)
	}
	out := model.MatchedOutcome(number, name)
	if first.Confidence != nil {
		out = out.WithConfidence(*first.Confidence)
	}
	return out
}

// ClassifyYelp maps yelp cache records to an outcome. The first record is
// only trusted when more than YelpMinRecords records exist.
func ClassifyYelp(number model.PhoneNumber, records []kvstore.Record, err error) model.Outcome {
	if err != nil {
		return model.FailedOutcome(number)
	}
	if len(records) <= YelpMinRecords {
		return model.NotMatchedOutcome(number)
	}
	name := deref(records[0].Name)
	if name == "" {
		return model.SoftOutcome(number, model.CodeNoNameRepOnly)
	}
	return model.MatchedOutcome(number, name)
}

func ownerName(o whitepages.Owner) string {
	if name := deref(o.Name); name != "" {
		return name
	}
	return strings.TrimSpace(deref(o.FirstName) + " " + deref(o.LastName))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
