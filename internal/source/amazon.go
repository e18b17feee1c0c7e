package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/serpapi"
)

// AmazonFetcher queries SerpAPI's Amazon engine.
type AmazonFetcher struct {
	client serpapi.Client
}

// NewAmazonFetcher creates an Amazon fetcher.
func NewAmazonFetcher(client serpapi.Client) *AmazonFetcher {
	return &AmazonFetcher{client: client}
}

func (f *AmazonFetcher) Name() string { return "amazon" }

func (f *AmazonFetcher) Fetch(ctx context.Context, c model.ProductCandidate, _ int) (*model.RawEnrichment, error) {
	resp, err := f.client.Search(ctx, "amazon", map[string]string{
		"k":             searchQuery(c),
		"amazon_domain": "amazon.com",
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: amazon search")
	}
	if len(resp.OrganicResults) == 0 {
		return nil, nil
	}

	p := resp.OrganicResults[0]

	// link_clean drops Amazon's sponsored-redirect wrapping when present.
	link := p.LinkClean
	if link == "" {
		link = p.Link
	}

	return &model.RawEnrichment{
		ProductURL:  strings.TrimSpace(link),
		ImageURL:    strings.TrimSpace(p.Thumbnail),
		Price:       p.Price,
		Rating:      p.Rating,
		RatingCount: p.Reviews,
		SourceName:  "Amazon",
		Explanation: p.Title,
	}, nil
}
