// Package imagery picks the best renderable image URL for a product.
package imagery

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Provider thumbnails are frequently low-resolution or broken; the product
// page's social preview image is higher quality when available, so the
// resolver prefers a probe-confirmed og:image and falls back to the
// probe-confirmed thumbnail.

var (
	ogImageProperty = regexp.MustCompile(`(?i)<meta\s+[^>]*property=['"]og:image['"][^>]*content=['"]([^'"]+)['"][^>]*>`)
	ogImageName     = regexp.MustCompile(`(?i)<meta\s+[^>]*name=['"]og:image['"][^>]*content=['"]([^'"]+)['"][^>]*>`)
)

// Browser-like headers help retailers return the real HTML with OG tags.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// Resolver probes product pages and image URLs over HTTP.
type Resolver struct {
	http         *http.Client
	pageTimeout  time.Duration
	probeTimeout time.Duration
	maxPageBytes int64
}

// Option configures the resolver.
type Option func(*Resolver)

// WithHTTPClient overrides the default http.Client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.http = hc
	}
}

// WithTimeouts overrides the page-fetch and probe timeouts.
func WithTimeouts(page, probe time.Duration) Option {
	return func(r *Resolver) {
		r.pageTimeout = page
		r.probeTimeout = probe
	}
}

// NewResolver creates a Resolver with single-digit-second timeouts per call.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pageTimeout:  8 * time.Second,
		probeTimeout: 6 * time.Second,
		maxPageBytes: 2 << 20,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NormalizeURL fixes common URL issues that break client rendering: trims
// whitespace, upgrades http to https (https-only policy), and encodes
// literal '+' characters, which some CDN paths carry and clients interpret
// inconsistently. Returns "" for anything that is not an https URL after
// normalization.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if strings.HasPrefix(u, "http://") {
		u = "https://" + strings.TrimPrefix(u, "http://")
	}
	if !strings.HasPrefix(u, "https://") {
		return ""
	}
	return strings.ReplaceAll(u, "+", "%2B")
}

// BestImage returns the preferred renderable image URL for a product, or
// "" when neither the page's og:image nor the thumbnail is usable. Every
// network failure falls through the preference chain rather than failing
// the enrichment attempt.
func (r *Resolver) BestImage(ctx context.Context, productURL, thumbnailURL string) string {
	if og := r.ogImage(ctx, NormalizeURL(productURL)); og != "" && r.isRenderable(ctx, og) {
		return og
	}

	if thumb := NormalizeURL(thumbnailURL); thumb != "" && r.isRenderable(ctx, thumb) {
		return thumb
	}

	return ""
}

// ogImage fetches the product page and extracts the og:image meta content.
func (r *Resolver) ogImage(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		zap.L().Debug("imagery: page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxPageBytes))
	if err != nil {
		return ""
	}

	html := string(body)
	m := ogImageProperty.FindStringSubmatch(html)
	if m == nil {
		// some sites use name= instead of property=
		m = ogImageName.FindStringSubmatch(html)
	}
	if m == nil {
		return ""
	}
	return NormalizeURL(strings.TrimSpace(m[1]))
}

// isRenderable confirms the URL serves an image content type. A
// lightweight GET is used because HEAD is often unsupported by CDNs.
func (r *Resolver) isRenderable(ctx context.Context, imageURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return false
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		zap.L().Debug("imagery: probe failed", zap.String("url", imageURL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	// Drain a little so the connection can be reused, but never the full body.
	_, _ = io.CopyN(io.Discard, resp.Body, 512)

	if resp.StatusCode != http.StatusOK {
		return false
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.HasPrefix(contentType, "image/")
}
