package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/internal/pipeline"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubSearcher struct {
	candidates []model.ProductCandidate
	err        error
}

func (s *stubSearcher) Search(context.Context, string, int) ([]model.ProductCandidate, error) {
	return s.candidates, s.err
}

type stubEnricher struct {
	products []model.EnrichedProduct
	err      error
}

func (s *stubEnricher) EnrichAll(context.Context, []model.ProductCandidate) ([]model.EnrichedProduct, error) {
	return s.products, s.err
}

func testRouter(searcher *stubSearcher, enricher *stubEnricher) http.Handler {
	return newRouter(pipeline.New(searcher, enricher, 4), 5*time.Second)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(&stubSearcher{}, &stubEnricher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecommendationsEndpoint(t *testing.T) {
	rating := 4.5
	count := 200
	enricher := &stubEnricher{products: []model.EnrichedProduct{
		{
			ID: "p1", Brand: "Acme", Name: "Hydra Serum",
			Enrichment: &model.Enrichment{
				ProductURL:  "https://shop.example/p/1",
				ImageURL:    "https://img.example/1.jpg",
				Price:       "$25.00",
				Rating:      &rating,
				RatingCount: &count,
			},
		},
		{ID: "p2", Brand: "Acme", Name: "Night Cream"},
	}}
	router := testRouter(&stubSearcher{}, enricher)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/recommendations",
		strings.NewReader(`{"query":"hydrating serum"}`))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var resp model.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "hydrating serum", resp.Query)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "p1", resp.Products[0].ID)
	assert.Equal(t, 200, resp.Products[0].RatingCount)
}

func TestRecommendationsBadRequest(t *testing.T) {
	router := testRouter(&stubSearcher{}, &stubEnricher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations",
		strings.NewReader(`{"query":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendationsSystemicFailure(t *testing.T) {
	router := testRouter(&stubSearcher{err: assert.AnError}, &stubEnricher{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations",
		strings.NewReader(`{"query":"serum"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDPreserved(t *testing.T) {
	router := testRouter(&stubSearcher{}, &stubEnricher{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "given-id")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "given-id", rec.Header().Get("X-Request-ID"))
}
