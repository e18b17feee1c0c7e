// Package extract pulls structured enrichment fields out of unstructured
// web search results using an LLM.
package extract

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/glamapp/product-recs/internal/model"
)

//go:embed prompt.txt
var promptTemplate string

// Snippet is one formatted search result handed to the model. RawContent
// is capped upstream so the prompt stays within budget.
type Snippet struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
	SourceName string  `json:"source_name,omitempty"`
	RawContent string  `json:"raw_content,omitempty"`
}

// LLM is the minimal completion surface the extractor needs.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Extractor asks an LLM to read search snippets for a product and return
// the enrichment fields it can find.
type Extractor struct {
	llm LLM
}

// New creates an Extractor backed by the given LLM.
func New(llm LLM) *Extractor {
	return &Extractor{llm: llm}
}

// Extract returns the raw enrichment fields the model found in the search
// results, or nil when the results carry nothing usable. The returned
// record is untrusted and must pass through validation before use.
func (e *Extractor) Extract(ctx context.Context, c model.ProductCandidate, results []Snippet) (*model.RawEnrichment, error) {
	if len(results) == 0 {
		return nil, nil
	}

	resultsJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "extract: marshal search results")
	}

	prompt := fmt.Sprintf(promptTemplate, c.Brand, c.Name, c.ProductType, string(resultsJSON))

	text, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, eris.Wrap(err, "extract: complete")
	}

	raw := parseEnrichment(text)
	if raw == nil {
		zap.L().Warn("extract: no JSON object in model response",
			zap.String("brand", c.Brand),
			zap.String("name", c.Name))
		return nil, nil
	}
	return raw, nil
}

// parseEnrichment decodes the model's JSON response, repairing trailing
// commas on a second attempt.
func parseEnrichment(text string) *model.RawEnrichment {
	payload := cleanJSON(text)
	if payload == "" {
		return nil
	}

	var raw model.RawEnrichment
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		repaired := trailingComma.ReplaceAllString(payload, "$1")
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil
		}
	}
	return &raw
}

// cleanJSON strips markdown fences and extracts the JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
