package models

// RecordError reports a batch element that could not be normalized at all.
// Index is the zero-based position of the element in the submitted batch.
type RecordError struct {
	Index   int    `json:"index"`
	Message string `json:"error"`
}

// NormalizeResponse is the POST /normalize payload. Results preserve input
// order; len(Results)+len(Errors) always equals the submitted batch size.
type NormalizeResponse struct {
	Results []EnrichedRecord `json:"results"`
	Errors  []RecordError    `json:"errors"`
}

type ListingStats struct {
	TotalListings int             `json:"total_listings"`
	Categories    []CategoryStats `json:"categories"`
}

type CategoryStats struct {
	Category       string  `json:"category"`
	Count          int     `json:"count"`
	AveragePrice   float64 `json:"average_price"`
	MinPrice       int     `json:"min_price"`
	MaxPrice       int     `json:"max_price"`
	AvgPricePerSqm float64 `json:"avg_price_per_sqm"`
}
