// Package rates fetches exchange rates from an external provider and keeps
// the built-in currency table current.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultBaseURL = "https://api.frankfurter.app"
	userAgent      = "debtbook/1.0"
)

// Provider fetches exchange rates relative to a base currency.
type Provider interface {
	Latest(ctx context.Context, base string) (map[string]float64, error)
}

// HTTPProvider fetches rates from a Frankfurter-compatible JSON API.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewHTTPProvider creates a provider against the given API base URL. An
// empty baseURL selects the public Frankfurter endpoint.
func NewHTTPProvider(httpClient *http.Client, baseURL string) *HTTPProvider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPProvider{httpClient: httpClient, baseURL: baseURL}
}

type latestResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// Latest fetches the latest rates relative to base. The returned map always
// contains the base itself at 1.0.
func (p *HTTPProvider) Latest(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(base)
	endpoint := p.baseURL + "/latest?base=" + url.QueryEscape(base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request for base %s: %w", base, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request for base %s: unexpected status %d", base, resp.StatusCode)
	}

	var decoded latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding rates response for base %s: %w", base, err)
	}
	if len(decoded.Rates) == 0 {
		return nil, fmt.Errorf("no rates in response for base %s", base)
	}

	rates := make(map[string]float64, len(decoded.Rates)+1)
	for code, rate := range decoded.Rates {
		if rate <= 0 {
			return nil, fmt.Errorf("invalid rate for %s: %f", code, rate)
		}
		rates[strings.ToUpper(code)] = rate
	}
	rates[base] = 1.0
	return rates, nil
}
