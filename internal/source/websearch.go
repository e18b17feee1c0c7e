package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/extract"
	"github.com/glamapp/product-recs/internal/model"
	"github.com/glamapp/product-recs/pkg/tavily"
)

// Reference sites never sell products, so excluding them saves both
// result slots and extraction tokens.
var excludedDomains = []string{"wikipedia.org", "youtube.com"}

const maxRawContentBytes = 500

// WebSearchFetcher is the catch-all fallback: a general web search whose
// results are distilled into enrichment fields by an LLM. It sits last in
// the default priority order because it is the slowest and least precise.
type WebSearchFetcher struct {
	search    tavily.Client
	extractor *extract.Extractor
}

// NewWebSearchFetcher creates a web search fetcher.
func NewWebSearchFetcher(search tavily.Client, extractor *extract.Extractor) *WebSearchFetcher {
	return &WebSearchFetcher{search: search, extractor: extractor}
}

func (f *WebSearchFetcher) Name() string { return "websearch" }

func (f *WebSearchFetcher) Fetch(ctx context.Context, c model.ProductCandidate, maxResults int) (*model.RawEnrichment, error) {
	query := fmt.Sprintf("%q %q %s price rating buy", c.Brand, c.Name, c.ProductType)

	resp, err := f.search.Search(ctx, tavily.SearchRequest{
		Query:             query,
		MaxResults:        maxResults,
		SearchDepth:       "advanced",
		IncludeRawContent: true,
		ExcludeDomains:    excludedDomains,
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: web search")
	}

	snippets := buildSnippets(resp.Results, maxResults)
	if len(snippets) == 0 {
		zap.L().Debug("source: web search returned no usable results",
			zap.String("query", query))
		return nil, nil
	}

	raw, err := f.extractor.Extract(ctx, c, snippets)
	if err != nil {
		return nil, eris.Wrap(err, "source: web search extract")
	}
	return raw, nil
}

// buildSnippets deduplicates results by URL, preserving order, and caps
// raw content so the extraction prompt stays small.
func buildSnippets(results []tavily.Result, limit int) []extract.Snippet {
	seen := make(map[string]bool, len(results))
	snippets := make([]extract.Snippet, 0, len(results))

	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true

		raw := r.RawContent
		if len(raw) > maxRawContentBytes {
			raw = raw[:maxRawContentBytes]
		}

		snippets = append(snippets, extract.Snippet{
			Title:      r.Title,
			URL:        r.URL,
			Snippet:    r.Content,
			Score:      r.Score,
			SourceName: hostOf(r.URL),
			RawContent: raw,
		})
		if len(snippets) == limit {
			break
		}
	}
	return snippets
}

// hostOf returns the host portion of an http(s) URL, or "".
func hostOf(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		return ""
	}
	parts := strings.Split(rawURL, "/")
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}
