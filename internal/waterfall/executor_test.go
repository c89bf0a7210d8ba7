package waterfall

import (
	"context"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/internal/waterfall/provider"
)

// scriptedProvider answers from a fixed table and records every number it
// was asked about. Unscripted numbers are NotMatched.
type scriptedProvider struct {
	name       string
	answers    map[model.PhoneNumber]model.Outcome
	confidence bool
	track      bool
	panicOn    model.PhoneNumber

	mu    sync.Mutex
	calls []model.PhoneNumber
}

func (s *scriptedProvider) Name() string            { return s.name }
func (s *scriptedProvider) Family() provider.Family { return provider.FamilyHTTP }
func (s *scriptedProvider) ReportsConfidence() bool { return s.confidence }
func (s *scriptedProvider) TrackLatency() bool      { return s.track }

func (s *scriptedProvider) Lookup(_ context.Context, n model.PhoneNumber) model.Outcome {
	s.mu.Lock()
	s.calls = append(s.calls, n)
	s.mu.Unlock()
	if n == s.panicOn {
		panic("malformed payload")
	}
	if o, ok := s.answers[n]; ok {
		return o
	}
	return model.NotMatchedOutcome(n)
}

func (s *scriptedProvider) called() []model.PhoneNumber {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]model.PhoneNumber(nil), s.calls...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

const (
	n1555 model.PhoneNumber = "+15550001555"
	n1666 model.PhoneNumber = "+15550001666"
)

func twoSources() (*scriptedProvider, *scriptedProvider) {
	infobel := &scriptedProvider{name: "infobel", track: true, answers: map[model.PhoneNumber]model.Outcome{
		n1555: model.MatchedOutcome(n1555, "Ann Lee"),
		n1666: model.NotMatchedOutcome(n1666),
	}}
	telo := &scriptedProvider{name: "telo", track: true, answers: map[model.PhoneNumber]model.Outcome{
		n1555: model.MatchedOutcome(n1555, "Ann L."),
		n1666: model.MatchedOutcome(n1666, "Bob Ray"),
	}}
	return infobel, telo
}

func TestExecutor_WaterfallOn(t *testing.T) {
	infobel, telo := twoSources()
	exec := NewExecutor([]provider.Provider{infobel, telo}, ModeOn, WithRunID("run-1"))

	res, err := exec.Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, []model.PhoneNumber{n1555, n1666}, infobel.called())
	assert.Equal(t, []model.PhoneNumber{n1666}, telo.called())

	o, ok := res.Table.Lookup("infobel", n1555)
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", o.Name)

	_, ok = res.Table.Lookup("telo", n1555)
	assert.False(t, ok, "matched number must not reach later sources")

	o, ok = res.Table.Lookup("telo", n1666)
	require.True(t, ok)
	assert.Equal(t, model.CodeMatched, o.Code)

	require.Len(t, res.Stages, 2)
	assert.Equal(t, StageReport{Source: "infobel", Queried: 2, Matched: 1, NotMatched: 1, Remaining: 1},
		stripTiming(res.Stages[0]))
	assert.Equal(t, StageReport{Source: "telo", Queried: 1, Matched: 1, Remaining: 0},
		stripTiming(res.Stages[1]))

	sum := Summarize(res.Table, []string{"infobel", "telo"}, "US", fixedTime, res.RunID)
	require.Len(t, sum, 2)
	assert.Equal(t, 1, sum[0].MatchedCount)
	assert.Equal(t, 1, sum[1].MatchedCount)
	assert.Equal(t, 2, sum[0].TotalRecords)
	assert.Equal(t, 2, sum[1].TotalRecords)
}

func TestExecutor_WaterfallOff(t *testing.T) {
	infobel, telo := twoSources()
	exec := NewExecutor([]provider.Provider{infobel, telo}, ModeOff)

	res, err := exec.Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Equal(t, []model.PhoneNumber{n1555, n1666}, telo.called())

	sum := Summarize(res.Table, []string{"infobel", "telo"}, "US", fixedTime, res.RunID)
	assert.Equal(t, 1, sum[0].MatchedCount)
	assert.Equal(t, 2, sum[1].MatchedCount)
}

func TestExecutor_FailedStaysCandidate(t *testing.T) {
	infobel, telo := twoSources()
	infobel.answers[n1555] = model.FailedOutcome(n1555)
	exec := NewExecutor([]provider.Provider{infobel, telo}, ModeOn)

	res, err := exec.Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Equal(t, []model.PhoneNumber{n1555, n1666}, telo.called())
	o, _ := res.Table.Lookup("infobel", n1555)
	assert.Equal(t, model.CodeFailed, o.Code)
	assert.Equal(t, 1, res.Stages[0].Failed)
}

func TestExecutor_SoftMatchStaysCandidate(t *testing.T) {
	hiya := &scriptedProvider{name: "hiya", confidence: true, answers: map[model.PhoneNumber]model.Outcome{
		n1555: model.SoftOutcome(n1555, model.CodeNameUnavailableRepOnly),
		n1666: model.MatchedOutcome(n1666, "Dana").WithConfidence("0.9"),
	}}
	yelp := &scriptedProvider{name: "yelp"}
	exec := NewExecutor([]provider.Provider{hiya, yelp}, ModeOn)

	res, err := exec.Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Equal(t, []model.PhoneNumber{n1555}, yelp.called())
	assert.Equal(t, 1, res.Stages[0].SoftMatched)
	assert.Equal(t, []string{"number", "hiya_code", "hiya_name", "hiya_confidence", "yelp_code", "yelp_name"},
		res.Table.Header())

	sum := Summarize(res.Table, []string{"hiya", "yelp"}, "US", fixedTime, res.RunID)
	assert.Equal(t, 1, sum[0].MatchedCount, "soft matches are not counted")
}

func TestExecutor_EmptyCandidatesSkipsCalls(t *testing.T) {
	infobel, telo := twoSources()
	infobel.answers[n1666] = model.MatchedOutcome(n1666, "Bob")
	exec := NewExecutor([]provider.Provider{infobel, telo}, ModeOn)

	res, err := exec.Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Empty(t, telo.called())
	assert.Equal(t, []string{"infobel", "telo"}, res.Table.Sources())
	assert.Nil(t, res.Table.At("telo", 0))
	assert.Nil(t, res.Table.At("telo", 1))
	assert.Equal(t, 0, res.Stages[1].Queried)
	assert.True(t, math.IsNaN(res.Stages[1].MeanLatency))
}

func TestExecutor_CandidatesShrinkMonotonically(t *testing.T) {
	numbers := []model.PhoneNumber{"+1", "+2", "+3", "+4", "+5", "+6"}
	a := &scriptedProvider{name: "a", answers: map[model.PhoneNumber]model.Outcome{
		"+1": model.MatchedOutcome("+1", "x"),
		"+2": model.FailedOutcome("+2"),
	}}
	b := &scriptedProvider{name: "b", answers: map[model.PhoneNumber]model.Outcome{
		"+3": model.MatchedOutcome("+3", "y"),
		"+4": model.SoftOutcome("+4", model.CodeNoNameRepOnly),
	}}
	c := &scriptedProvider{name: "c"}

	res, err := NewExecutor([]provider.Provider{a, b, c}, ModeOn, WithConcurrency(3)).
		Run(context.Background(), numbers)
	require.NoError(t, err)

	assert.Subset(t, a.called(), b.called())
	assert.Subset(t, b.called(), c.called())
	assert.Equal(t, []model.PhoneNumber{"+2", "+4", "+5", "+6"}, c.called())
	assert.Equal(t, []int{5, 4, 4}, []int{res.Stages[0].Remaining, res.Stages[1].Remaining, res.Stages[2].Remaining})
}

func TestExecutor_LatencyTracking(t *testing.T) {
	infobel, telo := twoSources()
	telo.track = false

	res, err := NewExecutor([]provider.Provider{infobel, telo}, ModeOff).
		Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	assert.Len(t, res.Latency.Samples("infobel"), 2)
	assert.False(t, math.IsNaN(res.Latency.Mean("infobel")))
	assert.Empty(t, res.Latency.Samples("telo"))
	assert.True(t, math.IsNaN(res.Latency.Mean("telo")))
}

func TestExecutor_PanicBecomesFailed(t *testing.T) {
	infobel, telo := twoSources()
	infobel.panicOn = n1555

	res, err := NewExecutor([]provider.Provider{infobel, telo}, ModeOn).
		Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	o, _ := res.Table.Lookup("infobel", n1555)
	assert.Equal(t, model.CodeFailed, o.Code)
	assert.Equal(t, n1555, o.Number)
}

func TestExecutor_Cancelled(t *testing.T) {
	infobel, telo := twoSources()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor([]provider.Provider{infobel, telo}, ModeOn).
		Run(ctx, []model.PhoneNumber{n1555})
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))
}

func TestExecutor_DuplicatesKeepRows(t *testing.T) {
	infobel, telo := twoSources()
	numbers := []model.PhoneNumber{n1555, n1666, n1555}

	res, err := NewExecutor([]provider.Provider{infobel, telo}, ModeOn, WithConcurrency(2)).
		Run(context.Background(), numbers)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Table.Len())
	assert.Equal(t, model.CodeMatched, res.Table.At("infobel", 2).Code)

	sum := Summarize(res.Table, []string{"infobel"}, "US", fixedTime, res.RunID)
	assert.Equal(t, 2, sum[0].MatchedCount)
	assert.Equal(t, 3, sum[0].TotalRecords)
}

func TestExecutor_RecordsMetrics(t *testing.T) {
	infobel, telo := twoSources()
	m := NewMetrics()

	_, err := NewExecutor([]provider.Provider{infobel, telo}, ModeOn, WithMetrics(m)).
		Run(context.Background(), []model.PhoneNumber{n1555, n1666})
	require.NoError(t, err)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "matchrate_lookup_duration_seconds")
	assert.Contains(t, names, "matchrate_lookup_outcomes_total")
	assert.Contains(t, names, "matchrate_stage_candidates")
}

func TestReduce(t *testing.T) {
	candidates := []model.PhoneNumber{"+1", "+2", "+3", "+4", "+5"}
	outcomes := []model.Outcome{
		model.MatchedOutcome("+1", "a"),
		model.NotMatchedOutcome("+2"),
		model.FailedOutcome("+3"),
		model.SoftOutcome("+4", model.CodeNameUnavailableRepOnly),
		model.SoftOutcome("+5", model.CodeNoNameRepOnly),
	}
	assert.Equal(t, []model.PhoneNumber{"+2", "+3", "+4", "+5"}, Reduce(candidates, outcomes))
	assert.Empty(t, Reduce(nil, nil))
}

func stripTiming(r StageReport) StageReport {
	r.MeanLatency = 0
	r.Duration = 0
	return r
}
