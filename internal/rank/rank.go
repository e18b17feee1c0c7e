// Package rank flattens enriched products into the client response shape
// and orders them for display.
package rank

import (
	"net/url"
	"sort"

	"github.com/glamapp/product-recs/internal/model"
)

// Display buckets, ascending priority. Visually and commercially complete
// results come first, bare catalog rows last.
const (
	bucketImageAndURL = 0
	bucketImageOnly   = 1
	bucketOtherData   = 2
	bucketNothing     = 3
)

// BuildResponse flattens products and sorts them by display priority. The
// sort is stable, so products with identical keys keep their input order.
func BuildResponse(query string, products []model.EnrichedProduct) model.Response {
	formatted := make([]model.FormattedProduct, len(products))
	for i, p := range products {
		formatted[i] = flatten(p)
	}

	sort.SliceStable(formatted, func(i, j int) bool {
		return less(formatted[i], formatted[j])
	})

	return model.Response{Query: query, Products: formatted}
}

// flatten merges a product and its optional enrichment into the flat
// client shape with type-appropriate defaults.
func flatten(p model.EnrichedProduct) model.FormattedProduct {
	f := model.FormattedProduct{
		ID:    p.ID,
		Name:  p.Name,
		Brand: p.Brand,
	}

	e := p.Enrichment
	if e == nil {
		return f
	}

	f.ProductURL = validURL(e.ProductURL)
	f.ImageURL = e.ImageURL
	f.Price = e.Price
	f.SourceName = e.SourceName
	f.Explanation = e.Explanation
	if e.Rating != nil {
		f.Rating = *e.Rating
	}
	if e.RatingCount != nil {
		f.RatingCount = *e.RatingCount
	}
	return f
}

// validURL returns the URL if it is an absolute http(s) URL, else "". A
// broken link is worse for the client than no link.
func validURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return raw
}

func bucket(f model.FormattedProduct) int {
	hasImage := f.ImageURL != ""
	hasURL := f.ProductURL != ""

	switch {
	case hasImage && hasURL:
		return bucketImageAndURL
	case hasImage:
		return bucketImageOnly
	case hasURL || f.Price != "" || f.Rating > 0 || f.RatingCount > 0 ||
		f.SourceName != "" || f.Explanation != "":
		return bucketOtherData
	default:
		return bucketNothing
	}
}

// less orders by bucket, then rating_count desc, rating desc, and finally
// priced products before unpriced ones.
func less(a, b model.FormattedProduct) bool {
	ba, bb := bucket(a), bucket(b)
	if ba != bb {
		return ba < bb
	}
	if a.RatingCount != b.RatingCount {
		return a.RatingCount > b.RatingCount
	}
	if a.Rating != b.Rating {
		return a.Rating > b.Rating
	}
	return a.Price != "" && b.Price == ""
}
