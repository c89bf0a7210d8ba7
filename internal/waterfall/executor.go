package waterfall

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/internal/waterfall/provider"
)

// Executor runs the ordered source cascade over a list of numbers.
type Executor struct {
	providers   []provider.Provider
	mode        Mode
	concurrency int
	metrics     *Metrics
	newRunID    func() string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithConcurrency bounds in-flight lookups per stage. Values below 1 mean 1.
func WithConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n < 1 {
			n = 1
		}
		e.concurrency = n
	}
}

// WithMetrics records per-call latency and outcome counts into m.
func WithMetrics(m *Metrics) ExecutorOption {
	return func(e *Executor) {
		e.metrics = m
	}
}

// WithRunID fixes the run identifier, for testing.
func WithRunID(id string) ExecutorOption {
	return func(e *Executor) {
		e.newRunID = func() string { return id }
	}
}

// NewExecutor creates an executor that queries providers in the given order.
func NewExecutor(providers []provider.Provider, mode Mode, opts ...ExecutorOption) *Executor {
	e := &Executor{
		providers:   providers,
		mode:        mode,
		concurrency: 1,
		newRunID:    func() string { return uuid.New().String() },
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// runState is threaded from one stage to the next.
type runState struct {
	candidates []model.PhoneNumber
	table      *Table
	latency    *Latency
	stages     []StageReport
}

// Run queries every provider in order. With the cascade on, each provider
// only sees numbers no earlier provider matched. Vendor failures never abort
// the run; only context cancellation or an internal merge error does.
func (e *Executor) Run(ctx context.Context, numbers []model.PhoneNumber) (*Result, error) {
	runID := e.newRunID()
	log := zap.L().With(zap.String("run_id", runID), zap.String("waterfall", string(e.mode)))

	st := runState{
		candidates: append([]model.PhoneNumber(nil), numbers...),
		table:      NewTable(numbers),
		latency:    NewLatency(),
	}

	log.Info("waterfall: run started",
		zap.Int("numbers", len(numbers)),
		zap.Int("sources", len(e.providers)),
		zap.Int("concurrency", e.concurrency),
	)

	for _, p := range e.providers {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "waterfall: run cancelled")
		}
		next, err := e.stage(ctx, log, st, p)
		if err != nil {
			return nil, err
		}
		st = next
	}

	log.Info("waterfall: run complete", zap.Int("unmatched", len(st.candidates)))

	return &Result{
		RunID:   runID,
		Mode:    e.mode,
		Table:   st.table,
		Latency: st.latency,
		Stages:  st.stages,
	}, nil
}

func (e *Executor) stage(ctx context.Context, log *zap.Logger, st runState, p provider.Provider) (runState, error) {
	start := time.Now()
	report := StageReport{Source: p.Name(), Queried: len(st.candidates)}
	e.metrics.SetCandidates(p.Name(), len(st.candidates))

	var outcomes []model.Outcome
	if len(st.candidates) > 0 {
		var err error
		outcomes, err = e.query(ctx, p, st.candidates, st.latency)
		if err != nil {
			return st, err
		}
	} else {
		log.Info("waterfall: no candidates left", zap.String("source", p.Name()))
	}

	for _, o := range outcomes {
		report.count(o)
		e.metrics.IncOutcome(p.Name(), o.Code)
	}

	if err := st.table.Merge(p.Name(), outcomes, provider.ReportsConfidence(p)); err != nil {
		return st, err
	}

	next := st.candidates
	if e.mode.Enabled() {
		next = Reduce(st.candidates, outcomes)
	}

	report.Remaining = len(next)
	report.MeanLatency = st.latency.Mean(p.Name())
	report.Duration = time.Since(start)

	log.Info("waterfall: stage complete",
		zap.String("source", p.Name()),
		zap.Int("queried", report.Queried),
		zap.Int("matched", report.Matched),
		zap.Int("soft_matched", report.SoftMatched),
		zap.Int("failed", report.Failed),
		zap.Int("remaining", report.Remaining),
		zap.Duration("duration", report.Duration),
	)

	return runState{
		candidates: next,
		table:      st.table,
		latency:    st.latency,
		stages:     append(st.stages, report),
	}, nil
}

// query looks up every candidate with at most e.concurrency calls in flight.
// Outcomes are returned in candidate order.
func (e *Executor) query(ctx context.Context, p provider.Provider, candidates []model.PhoneNumber, latency *Latency) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, len(candidates))
	track := provider.TracksLatency(p)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, n := range candidates {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("waterfall: provider panicked",
						zap.String("source", p.Name()),
						zap.String("number", string(n)),
						zap.String("panic", fmt.Sprint(r)),
					)
					outcomes[i] = model.FailedOutcome(n)
				}
			}()

			callStart := time.Now()
			outcomes[i] = p.Lookup(gctx, n)
			if track {
				secs := time.Since(callStart).Seconds()
				latency.Record(p.Name(), secs)
				e.metrics.ObserveLatency(p.Name(), secs)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrapf(err, "waterfall: %s cancelled", p.Name())
	}
	return outcomes, nil
}

// Reduce returns the candidates whose outcome is not a definitive match,
// preserving order. Soft matches and failures stay in the set.
func Reduce(candidates []model.PhoneNumber, outcomes []model.Outcome) []model.PhoneNumber {
	matched := make(map[model.PhoneNumber]bool, len(outcomes))
	for _, o := range outcomes {
		if o.Code.IsMatched() {
			matched[o.Number] = true
		}
	}

	out := make([]model.PhoneNumber, 0, len(candidates))
	for _, n := range candidates {
		if !matched[n] {
			out = append(out, n)
		}
	}
	return out
}
