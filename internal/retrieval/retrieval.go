// Package retrieval loads the product catalog and finds candidates for a
// user query by lexical similarity.
package retrieval

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"

	"github.com/glamapp/product-recs/internal/model"
)

// Searcher finds candidate products for a user query, best match first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.ProductCandidate, error)
}

// entry pairs a candidate with its precomputed searchable token set.
type entry struct {
	candidate model.ProductCandidate
	tokens    map[string]bool
}

// Catalog is an in-memory product catalog with token-overlap search.
// Beauty catalogs are small enough (thousands of rows) that a linear scan
// per query is fine.
type Catalog struct {
	entries []entry
}

// LoadCatalog reads a product catalog CSV from disk. The file must carry
// a header row with ID, Brand, Name, Product and Description columns.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "retrieval: open catalog %s", path)
	}
	defer f.Close()

	c, err := NewCatalog(f)
	if err != nil {
		return nil, eris.Wrapf(err, "retrieval: load catalog %s", path)
	}
	return c, nil
}

// NewCatalog parses catalog CSV content from a reader.
func NewCatalog(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "retrieval: read header")
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"brand", "name", "product"} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("retrieval: catalog missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []entry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "retrieval: read row")
		}

		c := model.ProductCandidate{
			ID:          field(row, "id"),
			Brand:       field(row, "brand"),
			Name:        field(row, "name"),
			ProductType: field(row, "product"),
			Description: field(row, "description"),
		}
		text := strings.Join([]string{c.Brand, c.Name, c.ProductType, c.Description}, " ")
		entries = append(entries, entry{candidate: c, tokens: tokenSet(text)})
	}

	return &Catalog{entries: entries}, nil
}

// Len returns the number of catalog rows.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Search scores every catalog row by query token overlap and returns the
// best matches in descending score order, catalog order on ties. Rows
// sharing no token with the query are never returned.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]model.ProductCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "retrieval: search")
	}
	if limit <= 0 || query == "" {
		return nil, nil
	}

	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		idx   int
		score int
	}
	var matches []scored
	for i, e := range c.entries {
		score := 0
		for tok := range queryTokens {
			if e.tokens[tok] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{idx: i, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]model.ProductCandidate, len(matches))
	for i, m := range matches {
		results[i] = c.entries[m.idx].candidate
	}
	return results, nil
}

// tokenSet folds text (accents stripped, case folded) and splits it into
// a set of alphanumeric tokens.
func tokenSet(text string) map[string]bool {
	folded := foldText(text)
	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		set[tok] = true
	}
	return set
}

// foldText lowercases text and strips diacritics so "Crème" matches
// "creme".
func foldText(text string) string {
	decomposed := norm.NFKD.String(strings.ToLower(text))
	var sb strings.Builder
	sb.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
