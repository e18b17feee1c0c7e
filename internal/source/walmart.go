package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/serpapi"
)

// WalmartFetcher queries SerpAPI's Walmart engine. Walmart nests pricing
// under primary_offer and links under product_page_url.
type WalmartFetcher struct {
	client serpapi.Client
}

// NewWalmartFetcher creates a Walmart fetcher.
func NewWalmartFetcher(client serpapi.Client) *WalmartFetcher {
	return &WalmartFetcher{client: client}
}

func (f *WalmartFetcher) Name() string { return "walmart" }

func (f *WalmartFetcher) Fetch(ctx context.Context, c model.ProductCandidate, _ int) (*model.RawEnrichment, error) {
	resp, err := f.client.Search(ctx, "walmart", map[string]string{
		"query": searchQuery(c),
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: walmart search")
	}
	if len(resp.OrganicResults) == 0 {
		return nil, nil
	}

	p := resp.OrganicResults[0]

	price := ""
	if p.PrimaryOffer != nil {
		price = priceString(p.PrimaryOffer.OfferPrice)
	}

	return &model.RawEnrichment{
		ProductURL:  strings.TrimSpace(p.ProductPageURL),
		ImageURL:    strings.TrimSpace(p.Thumbnail),
		Price:       price,
		Rating:      p.Rating,
		RatingCount: p.Reviews,
		SourceName:  "Walmart",
		Explanation: p.Title,
	}, nil
}
