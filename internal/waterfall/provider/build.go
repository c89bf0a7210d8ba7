package provider

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/matchrate/internal/config"
	"github.com/sells-group/matchrate/internal/kvstore"
	"github.com/sells-group/matchrate/pkg/infobel"
	"github.com/sells-group/matchrate/pkg/navagis"
	"github.com/sells-group/matchrate/pkg/telo"
	"github.com/sells-group/matchrate/pkg/vendorhttp"
	"github.com/sells-group/matchrate/pkg/whitepages"
)

// Known lists every source this build can query, in the default cascade order.
var Known = []string{"infobel", "telo", "whitepages", "navagis", "hiya", "yelp"}

var knownFamilies = map[string]Family{
	"infobel":    FamilyHTTP,
	"telo":       FamilyHTTP,
	"whitepages": FamilyHTTP,
	"navagis":    FamilyHTTP,
	"hiya":       FamilyKV,
	"yelp":       FamilyKV,
}

// KnownFamily returns the family of a known source name.
func KnownFamily(name string) (Family, bool) {
	f, ok := knownFamilies[name]
	return f, ok
}

// Deps carries the shared clients providers are built on.
type Deps struct {
	HTTPClient *http.Client
	KV         kvstore.Store
}

// Build registers a provider for every source enabled in cfg, in the
// configured order.
func Build(cfg *config.Config, deps Deps) (*Registry, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = vendorhttp.DefaultHTTPClient()
	}

	reg := NewRegistry()
	v := cfg.Vendors
	for _, name := range cfg.Sources {
		var p Provider
		switch name {
		case "infobel":
			p = NewInfobel(
				infobel.NewClient(v.Infobel.URL,
					infobel.Credentials{Username: v.Infobel.Username, Password: v.Infobel.Password},
					infobel.WithHTTPClient(withTimeout(deps.HTTPClient, v.Infobel.TimeoutSecs))),
				callOptions(v.Infobel.CallConfig)...)
		case "telo":
			p = NewTelo(
				telo.NewClient(v.Telo.URL,
					telo.Credentials{AccountSID: v.Telo.AccountSID, AuthToken: v.Telo.AuthToken},
					telo.WithHTTPClient(withTimeout(deps.HTTPClient, v.Telo.TimeoutSecs))),
				callOptions(v.Telo.CallConfig)...)
		case "whitepages":
			p = NewWhitepages(
				whitepages.NewClient(v.Whitepages.URL, v.Whitepages.APIKey,
					whitepages.WithHTTPClient(withTimeout(deps.HTTPClient, v.Whitepages.TimeoutSecs))),
				callOptions(v.Whitepages.CallConfig)...)
		case "navagis":
			p = NewNavagis(
				navagis.NewClient(v.Navagis.URL, v.Navagis.APIKey,
					navagis.WithHTTPClient(withTimeout(deps.HTTPClient, v.Navagis.TimeoutSecs))),
				callOptions(v.Navagis.CallConfig)...)
		case "hiya":
			if deps.KV == nil {
				return nil, eris.New("provider: hiya needs a key-value store")
			}
			p = NewHiya(deps.KV, v.Hiya.Table, v.Hiya.TypeKey, callOptions(v.Hiya.CallConfig)...)
		case "yelp":
			if deps.KV == nil {
				return nil, eris.New("provider: yelp needs a key-value store")
			}
			p = NewYelp(deps.KV, v.Yelp.Table, v.Yelp.TypeKey, callOptions(v.Yelp.CallConfig)...)
		default:
			return nil, eris.Wrapf(ErrUnknownSource, "provider: %s", name)
		}
		reg.Register(p)
	}
	return reg, nil
}

func callOptions(c config.CallConfig) []Option {
	opts := []Option{WithLatencyTracking(c.TrackLatency)}
	if c.RatePerSecond > 0 {
		burst := c.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, WithLimiter(rate.NewLimiter(rate.Limit(c.RatePerSecond), burst)))
	}
	return opts
}

// withTimeout returns hc, or a shallow copy with its own timeout when secs > 0.
func withTimeout(hc *http.Client, secs int) *http.Client {
	if secs <= 0 {
		return hc
	}
	cp := *hc
	cp.Timeout = time.Duration(secs) * time.Second
	return &cp
}
