// Package infobel is a minimal client for the Infobel reverse phone lookup API.
package infobel

import (
	"context"
	"net/http"
	"strings"

	"github.com/sells-group/matchrate/pkg/vendorhttp"
)

// Client looks a phone number up against Infobel.
type Client interface {
	Lookup(ctx context.Context, number string) (*Response, error)
}

// Response is the subset of the Infobel payload the estimator reads.
type Response struct {
	Result *Result `json:"Result"`
}

// Result holds the identity block. FullName is nil when Infobel has no name.
type Result struct {
	FullName *string `json:"FullName"`
}

// Credentials are sent as basic auth and are also available to the URL
// template as {username} and {password}.
type Credentials struct {
	Username string
	Password string
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
	creds       Credentials
	http        *http.Client
}

// NewClient creates an Infobel client. urlTemplate must contain {number}.
func NewClient(urlTemplate string, creds Credentials, opts ...Option) Client {
	c := &httpClient{
		urlTemplate: urlTemplate,
		creds:       creds,
		http:        vendorhttp.DefaultHTTPClient(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, number string) (*Response, error) {
	// Infobel rejects the slash separators some national formats carry.
	number = strings.ReplaceAll(number, "/", "")

	u := vendorhttp.Expand(c.urlTemplate, map[string]string{
		"number":   number,
		"username": c.creds.Username,
		"password": c.creds.Password,
	})

	var resp Response
	err := vendorhttp.GetJSON(ctx, c.http, "infobel", u, func(r *http.Request) {
		if c.creds.Username != "" {
			r.SetBasicAuth(c.creds.Username, c.creds.Password)
		}
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
