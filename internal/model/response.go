package model

// FormattedProduct is the flattened, client-facing product shape. Missing
// enrichment fields surface as type-appropriate zero values rather than
// nulls so the frontend never branches on absence.
type FormattedProduct struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	ProductURL  string  `json:"product_url"`
	ImageURL    string  `json:"image_url"`
	Price       string  `json:"price"`
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	SourceName  string  `json:"source_name"`
	Explanation string  `json:"explanation"`
}

// Response is the payload returned by the recommendations endpoint.
type Response struct {
	Query    string             `json:"query"`
	Products []FormattedProduct `json:"products"`
}
