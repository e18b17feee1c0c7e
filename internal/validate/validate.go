// Package validate canonicalizes untrusted enrichment data. Provider and
// LLM payloads pass through Clean before any field reaches a caller.
package validate

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/glamapp/product-recs/internal/model"
)

// Clean converts an arbitrary untrusted field mapping into a validated
// enrichment. It is pure and total: malformed input degrades to a smaller
// record or to nil (absent), never to an error. Fields outside the allowed
// set are dropped; out-of-range or unparseable numerics drop the field,
// not the record; blank strings normalize to absent. A record left with no
// values becomes nil rather than an empty struct, so "nothing enriched"
// and "enrichment attempted but empty" are indistinguishable downstream.
func Clean(raw map[string]any) *model.Enrichment {
	if len(raw) == 0 {
		return nil
	}

	e := &model.Enrichment{
		ProductURL:  cleanString(raw["product_url"]),
		ImageURL:    cleanString(raw["image_url"]),
		Price:       cleanString(raw["price"]),
		SourceName:  cleanString(raw["source_name"]),
		Explanation: cleanString(raw["explanation"]),
	}

	if v, ok := raw["rating"]; ok {
		if rating, ok := parseFloat(v); ok && rating >= 0.0 && rating <= 5.0 {
			e.Rating = &rating
		}
	}
	if v, ok := raw["rating_count"]; ok {
		if count, ok := parseInt(v); ok && count >= 0 {
			e.RatingCount = &count
		}
	}

	if e.IsEmpty() {
		return nil
	}
	return e
}

// cleanString returns the trimmed-nonblank string form of v, or "".
func cleanString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func parseFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func parseInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		// JSON numbers arrive as float64; accept whole values only.
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
