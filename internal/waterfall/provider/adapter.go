package provider

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/matchrate/internal/kvstore"
	"github.com/sells-group/matchrate/internal/model"
	"github.com/sells-group/matchrate/pkg/infobel"
	"github.com/sells-group/matchrate/pkg/navagis"
	"github.com/sells-group/matchrate/pkg/telo"
	"github.com/sells-group/matchrate/pkg/whitepages"
)

// Option configures an adapter.
type Option func(*options)

type options struct {
	limiter      *rate.Limiter
	trackLatency bool
}

// WithLimiter paces calls to the vendor.
func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) {
		o.limiter = l
	}
}

// WithLatencyTracking toggles call duration recording for the vendor.
func WithLatencyTracking(on bool) Option {
	return func(o *options) {
		o.trackLatency = on
	}
}

// adapter joins a vendor call to its classifier. R is the raw response type.
type adapter[R any] struct {
	name       string
	family     Family
	confidence bool
	call       func(ctx context.Context, number model.PhoneNumber) (R, error)
	classify   func(number model.PhoneNumber, resp R, err error) model.Outcome
	opts       options
}

func newAdapter[R any](
	name string,
	fam Family,
	call func(ctx context.Context, number model.PhoneNumber) (R, error),
	classify func(number model.PhoneNumber, resp R, err error) model.Outcome,
	opts []Option,
) *adapter[R] {
	a := &adapter[R]{
		name:     name,
		family:   fam,
		call:     call,
		classify: classify,
		opts:     options{trackLatency: true},
	}
	for _, o := range opts {
		o(&a.opts)
	}
	return a
}

func (a *adapter[R]) Name() string            { return a.name }
func (a *adapter[R]) Family() Family          { return a.family }
func (a *adapter[R]) ReportsConfidence() bool { return a.confidence }
func (a *adapter[R]) TrackLatency() bool      { return a.opts.trackLatency }

func (a *adapter[R]) Lookup(ctx context.Context, number model.PhoneNumber) model.Outcome {
	var zero R
	if a.opts.limiter != nil {
		if err := a.opts.limiter.Wait(ctx); err != nil {
			return a.classify(number, zero, err)
		}
	}

	resp, err := a.call(ctx, number)
	if err != nil {
		zap.L().Warn("provider: lookup failed",
			zap.String("source", a.name),
			zap.String("number", string(number)),
			zap.Error(err),
		)
	}
	return a.classify(number, resp, err)
}

// NewInfobel adapts an Infobel client.
func NewInfobel(c infobel.Client, opts ...Option) Provider {
	return newAdapter("infobel", FamilyHTTP,
		func(ctx context.Context, n model.PhoneNumber) (*infobel.Response, error) {
			return c.Lookup(ctx, string(n))
		},
		ClassifyInfobel, opts)
}

// NewTelo adapts a Telo client.
func NewTelo(c telo.Client, opts ...Option) Provider {
	return newAdapter("telo", FamilyHTTP,
		func(ctx context.Context, n model.PhoneNumber) (*telo.Response, error) {
			return c.Lookup(ctx, string(n))
		},
		ClassifyTelo, opts)
}

// NewWhitepages adapts a Whitepages client.
func NewWhitepages(c whitepages.Client, opts ...Option) Provider {
	return newAdapter("whitepages", FamilyHTTP,
		func(ctx context.Context, n model.PhoneNumber) (*whitepages.Response, error) {
			return c.Lookup(ctx, string(n))
		},
		ClassifyWhitepages, opts)
}

// NewNavagis adapts a Navagis client.
func NewNavagis(c navagis.Client, opts ...Option) Provider {
	return newAdapter("navagis", FamilyHTTP,
		func(ctx context.Context, n model.PhoneNumber) (*navagis.Response, error) {
			return c.Lookup(ctx, string(n))
		},
		ClassifyNavagis, opts)
}

// NewHiya adapts the hiya identity cache table. typeKey may be empty.
func NewHiya(store kvstore.Store, table, typeKey string, opts ...Option) Provider {
	a := newAdapter("hiya", FamilyKV, kvCall(store, table, typeKey), ClassifyHiya, opts)
	a.confidence = true
	return a
}

// NewYelp adapts the yelp cache table. typeKey may be empty.
func NewYelp(store kvstore.Store, table, typeKey string, opts ...Option) Provider {
	return newAdapter("yelp", FamilyKV, kvCall(store, table, typeKey), ClassifyYelp, opts)
}

func kvCall(store kvstore.Store, table, typeKey string) func(context.Context, model.PhoneNumber) ([]kvstore.Record, error) {
	return func(ctx context.Context, n model.PhoneNumber) ([]kvstore.Record, error) {
		return store.Query(ctx, kvstore.Key{Table: table, Phone: string(n), Type: typeKey})
	}
}
