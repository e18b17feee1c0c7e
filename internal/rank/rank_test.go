package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glamapp/product-recs/internal/model"
)

func ptrF(f float64) *float64 { return &f }
func ptrI(i int) *int         { return &i }

func product(id string, e *model.Enrichment) model.EnrichedProduct {
	return model.EnrichedProduct{
		ID:         id,
		Brand:      "Acme",
		Name:       "Product " + id,
		Enrichment: e,
	}
}

func TestBuildResponseBucketOrder(t *testing.T) {
	products := []model.EnrichedProduct{
		product("nothing", nil),
		product("price-only", &model.Enrichment{Price: "$10"}),
		product("image-only", &model.Enrichment{ImageURL: "https://img.example/2.jpg"}),
		product("complete", &model.Enrichment{
			ImageURL:    "https://img.example/1.jpg",
			ProductURL:  "https://shop.example/p/1",
			Rating:      ptrF(4.5),
			RatingCount: ptrI(200),
		}),
	}

	resp := BuildResponse("serum", products)
	require.Len(t, resp.Products, 4)
	assert.Equal(t, "serum", resp.Query)
	assert.Equal(t, "complete", resp.Products[0].ID)
	assert.Equal(t, "image-only", resp.Products[1].ID)
	assert.Equal(t, "price-only", resp.Products[2].ID)
	assert.Equal(t, "nothing", resp.Products[3].ID)
}

func TestBuildResponseTieBreaks(t *testing.T) {
	base := func(id string, count int, rating float64, price string) model.EnrichedProduct {
		return product(id, &model.Enrichment{
			ImageURL:    "https://img.example/" + id + ".jpg",
			ProductURL:  "https://shop.example/p/" + id,
			Rating:      ptrF(rating),
			RatingCount: ptrI(count),
			Price:       price,
		})
	}

	products := []model.EnrichedProduct{
		base("few-ratings", 100, 4.9, "$5"),
		base("many-ratings", 500, 4.0, ""),
		base("unpriced", 100, 4.5, ""),
		base("priced", 100, 4.5, "$12"),
	}

	resp := BuildResponse("q", products)
	ids := make([]string, len(resp.Products))
	for i, p := range resp.Products {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"many-ratings", "few-ratings", "priced", "unpriced"}, ids)
}

func TestBuildResponseStableOnTies(t *testing.T) {
	products := []model.EnrichedProduct{
		product("first", nil),
		product("second", nil),
		product("third", nil),
	}

	resp := BuildResponse("q", products)
	assert.Equal(t, "first", resp.Products[0].ID)
	assert.Equal(t, "second", resp.Products[1].ID)
	assert.Equal(t, "third", resp.Products[2].ID)
}

func TestFlattenDefaults(t *testing.T) {
	f := flatten(product("bare", nil))
	assert.Equal(t, "bare", f.ID)
	assert.Equal(t, "Acme", f.Brand)
	assert.Empty(t, f.ProductURL)
	assert.Empty(t, f.Price)
	assert.Zero(t, f.Rating)
	assert.Zero(t, f.RatingCount)
}

func TestFlattenBlanksInvalidProductURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https kept", "https://shop.example/p/1", "https://shop.example/p/1"},
		{"http kept", "http://shop.example/p/1", "http://shop.example/p/1"},
		{"relative blanked", "/p/1", ""},
		{"scheme-less blanked", "shop.example/p/1", ""},
		{"ftp blanked", "ftp://shop.example/p/1", ""},
		{"garbage blanked", "://///", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flatten(product("x", &model.Enrichment{ProductURL: tt.in}))
			assert.Equal(t, tt.want, f.ProductURL)
		})
	}
}

func TestBucketClassification(t *testing.T) {
	tests := []struct {
		name string
		f    model.FormattedProduct
		want int
	}{
		{"image and url", model.FormattedProduct{ImageURL: "https://i", ProductURL: "https://p"}, bucketImageAndURL},
		{"image only", model.FormattedProduct{ImageURL: "https://i"}, bucketImageOnly},
		{"url only", model.FormattedProduct{ProductURL: "https://p"}, bucketOtherData},
		{"rating only", model.FormattedProduct{Rating: 3.5}, bucketOtherData},
		{"explanation only", model.FormattedProduct{Explanation: "matches"}, bucketOtherData},
		{"nothing", model.FormattedProduct{}, bucketNothing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bucket(tt.f))
		})
	}
}
