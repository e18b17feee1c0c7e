// Package serpapi provides a client for the SerpAPI search endpoint.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client performs engine searches against SerpAPI.
type Client interface {
	// Search runs a query against the named engine with engine-specific
	// parameters. The api_key and engine parameters are set by the client.
	Search(ctx context.Context, engine string, params map[string]string) (*SearchResponse, error)
}

// SearchResponse is the superset of per-engine SerpAPI response shapes
// used by the fetchers. Engines populate either shopping_results
// (google_shopping) or organic_results (amazon, ebay, walmart).
type SearchResponse struct {
	ShoppingResults []ShoppingResult `json:"shopping_results"`
	OrganicResults  []OrganicResult  `json:"organic_results"`
	Error           string           `json:"error"`
}

// ShoppingResult is a single google_shopping result.
type ShoppingResult struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Price     string `json:"price"`
	Rating    any    `json:"rating"`
	Reviews   any    `json:"reviews"`
	Source    string `json:"source"`
}

// OrganicResult is a single marketplace result. Rating and Reviews stay
// untyped: engines disagree on number vs string encodings.
type OrganicResult struct {
	Title          string        `json:"title"`
	Link           string        `json:"link"`
	LinkClean      string        `json:"link_clean"`
	ProductPageURL string        `json:"product_page_url"`
	Thumbnail      string        `json:"thumbnail"`
	Price          string        `json:"price"`
	Rating         any           `json:"rating"`
	Reviews        any           `json:"reviews"`
	PrimaryOffer   *PrimaryOffer `json:"primary_offer"`
}

// PrimaryOffer carries Walmart's nested pricing block.
type PrimaryOffer struct {
	OfferPrice any `json:"offer_price"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second across all engines.
// SerpAPI quotas are account-wide, not per-engine.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes an HTTP request with exponential backoff retries on
// transient failures (429, 500, 502, 503).
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "serpapi: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("serpapi: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Search(ctx context.Context, engine string, params map[string]string) (*SearchResponse, error) {
	if c.apiKey == "" {
		return nil, eris.New("serpapi: missing api key")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "serpapi: rate limit wait")
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("engine", engine)
	for k, v := range params {
		q.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "serpapi: %s request failed", engine)
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("serpapi: %s unexpected status %d: %s", engine, statusCode, string(body))
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrapf(err, "serpapi: %s unmarshal response", engine)
	}

	return &result, nil
}
