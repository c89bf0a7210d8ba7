// Package whitepages is a minimal client for the Whitepages phone API.
package whitepages

import (
	"context"
	"net/http"

	"github.com/sells-group/matchrate/pkg/vendorhttp"
)

// Client looks a phone number up against Whitepages.
type Client interface {
	Lookup(ctx context.Context, number string) (*Response, error)
}

// Response is the subset of the phone payload the estimator reads.
type Response struct {
	BelongsTo []Owner `json:"belongs_to"`
}

// Owner is a person or business associated with the number.
type Owner struct {
	Name      *string `json:"name"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
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

// NewClient creates a Whitepages client. The key is substituted as {api_key}.
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
	if err := vendorhttp.GetJSON(ctx, c.http, "whitepages", u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
