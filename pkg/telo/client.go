// Package telo is a minimal client for the Telo caller-name API.
package telo

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sells-group/matchrate/pkg/vendorhttp"
)

// Client looks a phone number up against Telo.
type Client interface {
	Lookup(ctx context.Context, number string) (*Response, error)
}

// Response keeps data raw: Telo answers "no identity" with a null, an empty
// object or an empty list depending on the endpoint version.
type Response struct {
	Data json.RawMessage `json:"data"`
}

// Record is the identity object inside data.
type Record struct {
	Name *string `json:"name"`
}

// Credentials are substituted into the URL template as {account_sid} and
// {auth_token}.
type Credentials struct {
	AccountSID string
	AuthToken  string
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

// NewClient creates a Telo client.
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
	u := vendorhttp.Expand(c.urlTemplate, map[string]string{
		"number":      number,
		"account_sid": c.creds.AccountSID,
		"auth_token":  c.creds.AuthToken,
	})

	var resp Response
	if err := vendorhttp.GetJSON(ctx, c.http, "telo", u, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
