// Package vendorhttp holds the transport shared by the identity-lookup vendor clients.
package vendorhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// StatusError is returned when a vendor answers with a non-2xx status.
type StatusError struct {
	Vendor     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Vendor, e.StatusCode, e.Body)
}

// DefaultHTTPClient returns the client used when a vendor is not given one.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// Expand substitutes {name} placeholders in tmpl with query-escaped values.
// Unknown placeholders are left untouched.
func Expand(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", url.QueryEscape(v))
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// GetJSON issues a GET to rawURL and decodes a successful body into out.
// decorate, when non-nil, may add headers or credentials to the request.
func GetJSON(ctx context.Context, hc *http.Client, vendor, rawURL string, decorate func(*http.Request), out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrapf(err, "%s: create request", vendor)
	}
	req.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(req)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s: send request", vendor)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "%s: read response", vendor)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Vendor: vendor, StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "%s: unmarshal response", vendor)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
