// Package source provides the enrichment fetchers, tried in priority order.
package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/glamapp/product-recs/internal/model"
)

// Fetcher looks up commercial metadata for a product candidate from one
// provider. A (nil, nil) return means the provider had no usable results;
// an error means the attempt itself failed. Either way the caller moves on
// to the next fetcher.
type Fetcher interface {
	// Name identifies the fetcher in config and logs.
	Name() string

	// Fetch returns the provider's best match for the candidate.
	Fetch(ctx context.Context, c model.ProductCandidate, maxResults int) (*model.RawEnrichment, error)
}

// searchQuery builds the plain keyword query shared by the retail engines.
func searchQuery(c model.ProductCandidate) string {
	return strings.TrimSpace(c.Brand + " " + c.Name + " " + c.ProductType)
}

// priceString renders a provider price field that may arrive as a string
// or a JSON number.
func priceString(v any) string {
	switch p := v.(type) {
	case string:
		return strings.TrimSpace(p)
	case float64:
		return strconv.FormatFloat(p, 'f', 2, 64)
	case int:
		return strconv.Itoa(p)
	default:
		return ""
	}
}
