// Package navagis is a minimal client for the Navagis place search API.
package navagis

import (
	"context"
	"net/http"

	"github.com/sells-group/matchrate/pkg/vendorhttp"
)

// StatusOK is the status value Navagis uses for a successful search.
const StatusOK = "OK"

// Client looks a phone number up against Navagis.
type Client interface {
	Lookup(ctx context.Context, number string) (*Response, error)
}

// Response is the subset of the search payload the estimator reads.
type Response struct {
	Status     string      `json:"status"`
	Candidates []Candidate `json:"candidates"`
}

// Candidate is a single place match.
type Candidate struct {
	Name *string `json:"name"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	urlTemplate string
	apiKey      string
	http        *http.Client
}

// NewClient creates a Navagis client. The key is substituted as {api_key}.
func NewClient(urlTemplate, apiKey string, opts ...Option) Client {
	c := &httpClient{
		urlTemplate: urlTemplate,
		apiKey:      apiKey,
		http:        vendorhttp.DefaultHTTPClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, number string) (*Response, error) {
	u := vendorhttp.Expand(c.urlTemplate, map[string]string{
		"number":  number,
		"api_key": c.apiKey,
	})

	var resp Response
	if err := vendorhttp.GetJSON(ctx, c.http, "navagis", u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
