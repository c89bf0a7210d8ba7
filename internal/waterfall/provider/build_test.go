package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/kvstore"
	"github.com/sells-group/matchrate/internal/model"
)

func TestBuild_RegistersInConfiguredOrder(t *testing.T) {
	cfg := &config.Config{Sources: []string{"yelp", "infobel", "hiya"}}
	cfg.Vendors.Infobel.URL = "http://infobel.test/{number}"
	cfg.Vendors.Hiya.Table = "identity"
	cfg.Vendors.Yelp.Table = "yelp"

	reg, err := Build(cfg, Deps{KV: &fakeKV{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"yelp", "infobel", "hiya"}, reg.List())
}

func TestBuild_KVSourceWithoutStore(t *testing.T) {
	cfg := &config.Config{Sources: []string{"hiya"}}
	_, err := Build(cfg, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key-value store")
}

func TestBuild_UnknownSource(t *testing.T) {
	cfg := &config.Config{Sources: []string{"acme"}}
	_, err := Build(cfg, Deps{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownSource))
}

func TestBuild_WhitepagesEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k1", r.URL.Query().Get("api_key"))
		assert.Equal(t, "+15551234567", r.URL.Query().Get("phone"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"belongs_to":[{"name":"Acme LLC"}]}`))
	}))
	defer srv.Close()

	cfg := &config.Config{Sources: []string{"whitepages"}}
	cfg.Vendors.Whitepages.URL = srv.URL + "/?phone={number}&api_key={api_key}"
	cfg.Vendors.Whitepages.APIKey = "k1"
	cfg.Vendors.Whitepages.TrackLatency = true
	cfg.Vendors.Whitepages.RatePerSecond = 100
	cfg.Vendors.Whitepages.TimeoutSecs = 5

	reg, err := Build(cfg, Deps{HTTPClient: srv.Client(), KV: kvstore.Store(nil)})
	require.NoError(t, err)

	p := reg.Get("whitepages")
	require.NotNil(t, p)
	assert.True(t, TracksLatency(p))
	assert.Equal(t, model.MatchedOutcome(num, "Acme LLC"), p.Lookup(context.Background(), num))
}

func TestWithTimeout(t *testing.T) {
	base := &http.Client{}
	assert.Same(t, base, withTimeout(base, 0))

	got := withTimeout(base, 3)
	assert.NotSame(t, base, got)
	assert.Equal(t, float64(3), got.Timeout.Seconds())
	assert.Zero(t, base.Timeout)
}

func TestKnownFamily(t *testing.T) {
	for _, name := range Known {
		_, ok := KnownFamily(name)
		assert.True(t, ok, name)
	}
	f, _ := KnownFamily("yelp")
	assert.Equal(t, FamilyKV, f)
	_, ok := KnownFamily("acme")
	assert.False(t, ok)
}
