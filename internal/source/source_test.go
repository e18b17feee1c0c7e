package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/extract"
	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/serpapi"
	"github.com/glamapp/product-recs/pkg/tavily"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var candidate = model.ProductCandidate{
	Brand:       "Acme",
	Name:        "Hydra Serum",
	ProductType: "skincare",
	Description: "A hydrating facial serum.",
}

// newSerpClient returns a serpapi client pointed at a test server serving
// the given handler.
func newSerpClient(t *testing.T, handler http.HandlerFunc) serpapi.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return serpapi.NewClient("test-key", serpapi.WithBaseURL(srv.URL))
}

func TestAmazonFetcherPrefersCleanLink(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "amazon", r.URL.Query().Get("engine"))
		assert.Equal(t, "Acme Hydra Serum skincare", r.URL.Query().Get("k"))
		assert.Equal(t, "amazon.com", r.URL.Query().Get("amazon_domain"))
		fmt.Fprint(w, `{"organic_results":[{
			"title":"Acme Hydra Serum 30ml",
			"link":"https://amazon.com/sspa/click?u=%2Fdp%2FB01",
			"link_clean":"https://amazon.com/dp/B01",
			"thumbnail":"https://m.media.example/img.jpg",
			"price":"$24.99","rating":4.5,"reviews":1200}]}`)
	})

	raw, err := NewAmazonFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "https://amazon.com/dp/B01", raw.ProductURL)
	assert.Equal(t, "Amazon", raw.SourceName)
	assert.Equal(t, "$24.99", raw.Price)
	assert.Equal(t, 4.5, raw.Rating)
}

func TestAmazonFetcherNoResults(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic_results":[]}`)
	})

	raw, err := NewAmazonFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestShoppingFetcherUsesResultSource(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "google_shopping", r.URL.Query().Get("engine"))
		assert.Equal(t, "Acme Hydra Serum skincare", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("num"))
		fmt.Fprint(w, `{"shopping_results":[{
			"title":"Acme Hydra Serum",
			"link":"https://sephora.example/p/1",
			"thumbnail":"https://img.example/t.jpg",
			"price":"$22.00","rating":"4.3","reviews":310,
			"source":"Sephora"}]}`)
	})

	raw, err := NewShoppingFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "Sephora", raw.SourceName)
	assert.Equal(t, "4.3", raw.Rating, "string-typed rating must pass through untouched")
}

func TestEbayFetcher(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ebay", r.URL.Query().Get("engine"))
		assert.Equal(t, "Acme Hydra Serum skincare", r.URL.Query().Get("_nkw"))
		fmt.Fprint(w, `{"organic_results":[{
			"title":"Acme Hydra Serum NEW",
			"link":"https://ebay.example/itm/1","price":"$15.50"}]}`)
	})

	raw, err := NewEbayFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "eBay", raw.SourceName)
	assert.Equal(t, "https://ebay.example/itm/1", raw.ProductURL)
}

func TestWalmartFetcherNestedPrice(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "walmart", r.URL.Query().Get("engine"))
		assert.Equal(t, "Acme Hydra Serum skincare", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"organic_results":[{
			"title":"Acme Hydra Serum",
			"product_page_url":"https://walmart.example/ip/1",
			"thumbnail":"https://img.example/w.jpg",
			"primary_offer":{"offer_price":12.99},
			"rating":4.1,"reviews":87}]}`)
	})

	raw, err := NewWalmartFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "https://walmart.example/ip/1", raw.ProductURL)
	assert.Equal(t, "12.99", raw.Price)
	assert.Equal(t, "Walmart", raw.SourceName)
}

func TestWalmartFetcherMissingOffer(t *testing.T) {
	client := newSerpClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"organic_results":[{"title":"x","product_page_url":"https://walmart.example/ip/2"}]}`)
	})

	raw, err := NewWalmartFetcher(client).Fetch(context.Background(), candidate, 3)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Empty(t, raw.Price)
}

type fakeTavily struct {
	req     *tavily.SearchRequest
	results []tavily.Result
	err     error
}

func (f *fakeTavily) Search(_ context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	f.req = &req
	if f.err != nil {
		return nil, f.err
	}
	return &tavily.SearchResponse{Query: req.Query, Results: f.results}, nil
}

type fakeLLM struct {
	response string
}

func (f *fakeLLM) Complete(context.Context, string) (string, error) {
	return f.response, nil
}

func TestWebSearchFetcher(t *testing.T) {
	search := &fakeTavily{results: []tavily.Result{
		{Title: "Acme Hydra Serum", URL: "https://shop.example/p/1", Content: "$25, 4.5 stars", Score: 0.9},
		{Title: "dupe", URL: "https://shop.example/p/1", Content: "ignored"},
	}}
	llm := &fakeLLM{response: `{"product_url":"https://shop.example/p/1","price":"$25.00","source_name":"shop.example"}`}

	f := NewWebSearchFetcher(search, extract.New(llm))
	raw, err := f.Fetch(context.Background(), candidate, 8)
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "https://shop.example/p/1", raw.ProductURL)

	require.NotNil(t, search.req)
	assert.Equal(t, `"Acme" "Hydra Serum" skincare price rating buy`, search.req.Query)
	assert.Equal(t, "advanced", search.req.SearchDepth)
	assert.True(t, search.req.IncludeRawContent)
	assert.Contains(t, search.req.ExcludeDomains, "wikipedia.org")
}

func TestWebSearchFetcherNoResults(t *testing.T) {
	f := NewWebSearchFetcher(&fakeTavily{}, extract.New(&fakeLLM{}))
	raw, err := f.Fetch(context.Background(), candidate, 8)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestBuildSnippetsDedupesAndCaps(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'a'
	}
	results := []tavily.Result{
		{URL: "https://a.example/1", RawContent: string(long)},
		{URL: "https://a.example/1"},
		{URL: ""},
		{URL: "https://a.example/2"},
		{URL: "https://a.example/3"},
	}

	snippets := buildSnippets(results, 2)
	require.Len(t, snippets, 2)
	assert.Len(t, snippets[0].RawContent, maxRawContentBytes)
	assert.Equal(t, "a.example", snippets[0].SourceName)
	assert.Equal(t, "https://a.example/2", snippets[1].URL)
}

func TestPriceString(t *testing.T) {
	assert.Equal(t, "$9.99", priceString(" $9.99 "))
	assert.Equal(t, "12.99", priceString(12.99))
	assert.Equal(t, "15", priceString(15))
	assert.Equal(t, "", priceString(nil))
	assert.Equal(t, "", priceString(true))
}
