package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/serpapi"
)

// EbayFetcher queries SerpAPI's eBay engine.
type EbayFetcher struct {
	client serpapi.Client
}

// NewEbayFetcher creates an eBay fetcher.
func NewEbayFetcher(client serpapi.Client) *EbayFetcher {
	return &EbayFetcher{client: client}
}

func (f *EbayFetcher) Name() string { return "ebay" }

func (f *EbayFetcher) Fetch(ctx context.Context, c model.ProductCandidate, _ int) (*model.RawEnrichment, error) {
	resp, err := f.client.Search(ctx, "ebay", map[string]string{
		"_nkw":        searchQuery(c),
		"ebay_domain": "ebay.com",
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: ebay search")
	}
	if len(resp.OrganicResults) == 0 {
		return nil, nil
	}

	p := resp.OrganicResults[0]

	return &model.RawEnrichment{
		ProductURL:  strings.TrimSpace(p.Link),
		ImageURL:    strings.TrimSpace(p.Thumbnail),
		Price:       p.Price,
		Rating:      p.Rating,
		RatingCount: p.Reviews,
		SourceName:  "eBay",
		Explanation: p.Title,
	}, nil
}
