package model

// ProductCandidate is an item returned by the retrieval collaborator,
// not yet enriched. Descriptive fields come straight from the catalog
// and are read-only to the enrichment pipeline.
type ProductCandidate struct {
	ID          string `json:"id,omitempty"`
	Brand       string `json:"brand"`
	Name        string `json:"name"`
	ProductType string `json:"product_type"`
	Description string `json:"description"`
}

// HasRequiredFields reports whether the candidate carries everything the
// fetchers need to build a useful search query.
func (c ProductCandidate) HasRequiredFields() bool {
	return c.Brand != "" && c.Name != "" && c.ProductType != "" && c.Description != ""
}

// RawEnrichment holds provider-native enrichment data before validation.
// Rating and RatingCount are `any` because providers disagree on their
// wire types (float, int, numeric string). Nothing in a RawEnrichment may
// reach a caller without passing through validate.Clean.
type RawEnrichment struct {
	ProductURL  string `json:"product_url"`
	ImageURL    string `json:"image_url"`
	Price       string `json:"price"`
	Rating      any    `json:"rating"`
	RatingCount any    `json:"rating_count"`
	SourceName  string `json:"source_name"`
	Explanation string `json:"explanation"`
}

// Fields returns the raw enrichment as an untrusted field mapping for the
// validator. Only non-nil values are included.
func (r *RawEnrichment) Fields() map[string]any {
	if r == nil {
		return nil
	}
	m := map[string]any{
		"product_url": r.ProductURL,
		"image_url":   r.ImageURL,
		"price":       r.Price,
		"source_name": r.SourceName,
		"explanation": r.Explanation,
	}
	if r.Rating != nil {
		m["rating"] = r.Rating
	}
	if r.RatingCount != nil {
		m["rating_count"] = r.RatingCount
	}
	return m
}

// Enrichment is validated commercial metadata attached to a product.
// Every present field has passed validation; an all-absent record is
// represented as a nil *Enrichment, never as a populated-but-empty struct.
type Enrichment struct {
	ProductURL  string   `json:"product_url,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	Price       string   `json:"price,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"rating_count,omitempty"`
	SourceName  string   `json:"source_name,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
}

// IsEmpty reports whether no field carries a value.
func (e *Enrichment) IsEmpty() bool {
	if e == nil {
		return true
	}
	return e.ProductURL == "" && e.ImageURL == "" && e.Price == "" &&
		e.Rating == nil && e.RatingCount == nil &&
		e.SourceName == "" && e.Explanation == ""
}

// EnrichedProduct is a candidate plus its (optional) enrichment. Identity
// is stable across cache hits and misses for the same logical product.
type EnrichedProduct struct {
	ID          string      `json:"id"`
	Brand       string      `json:"brand"`
	Name        string      `json:"name"`
	ProductType string      `json:"product_type"`
	Description string      `json:"product_description"`
	Enrichment  *Enrichment `json:"enrichment,omitempty"`
}

// Outcome is the terminal state of one candidate's enrichment pass.
type Outcome string

const (
	OutcomeCached    Outcome = "cached"
	OutcomeEnriched  Outcome = "enriched"
	OutcomeSkipped   Outcome = "skipped_missing_fields"
	OutcomeFailed    Outcome = "enrichment_failed"
	OutcomeCancelled Outcome = "cancelled"
)
