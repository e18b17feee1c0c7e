package source

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/serpapi"
)

// ShoppingFetcher queries SerpAPI's Google Shopping engine. Unlike the
// marketplace engines, results name their retailer in the source field.
type ShoppingFetcher struct {
	client serpapi.Client
}

// NewShoppingFetcher creates a Google Shopping fetcher.
func NewShoppingFetcher(client serpapi.Client) *ShoppingFetcher {
	return &ShoppingFetcher{client: client}
}

func (f *ShoppingFetcher) Name() string { return "google_shopping" }

func (f *ShoppingFetcher) Fetch(ctx context.Context, c model.ProductCandidate, maxResults int) (*model.RawEnrichment, error) {
	resp, err := f.client.Search(ctx, "google_shopping", map[string]string{
		"q":   searchQuery(c),
		"num": strconv.Itoa(maxResults),
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: google shopping search")
	}
	if len(resp.ShoppingResults) == 0 {
		return nil, nil
	}

	p := resp.ShoppingResults[0]

	return &model.RawEnrichment{
		ProductURL:  strings.TrimSpace(p.Link),
		ImageURL:    strings.TrimSpace(p.Thumbnail),
		Price:       p.Price,
		Rating:      p.Rating,
		RatingCount: p.Reviews,
		SourceName:  p.Source,
		Explanation: p.Title,
	}, nil
}
