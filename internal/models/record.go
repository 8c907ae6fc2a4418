package models

import "time"

// RawRecord is one listing as it arrives from a crawler: a loose bag of
// values with no guarantee about which keys exist or what type each holds.
type RawRecord map[string]any

// Value returns the first present, non-nil value among the given keys.
func (r RawRecord) Value(keys ...string) any {
	for _, key := range keys {
		if v, ok := r[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Location returns the nested property_location object, if any.
func (r RawRecord) Location() map[string]any {
	loc, _ := r["property_location"].(map[string]any)
	return loc
}

// LocationValue looks a key up in property_location first, then top-level.
func (r RawRecord) LocationValue(key string) any {
	if loc := r.Location(); loc != nil {
		if v, ok := loc[key]; ok && v != nil {
			return v
		}
	}
	if v, ok := r[key]; ok && v != nil {
		return v
	}
	return nil
}

type CanonicalRecord struct {
	ID         string `json:"id"`
	Platform   string `json:"platform"`
	SaleType   string `json:"sale_type"`
	SellerType string `json:"seller_type"`

	Price           int     `json:"price"`
	AdditionalCosts float64 `json:"additional_costs"`
	Floor           int     `json:"floor"`
	Rooms           float64 `json:"rooms"`
	LivingSpace     float64 `json:"living_space"`
	PlotArea        float64 `json:"plot_area"`

	// Key is camel-cased on purpose; downstream consumers already bind to it.
	PropertyCategory string `json:"propertyCategory"`

	Title       string `json:"title"`
	Street      string `json:"street"`
	Description string `json:"description"`

	BuildYear   int        `json:"build_year"`
	PublishedAt *time.Time `json:"published_datetime"`
	CrawledAt   *time.Time `json:"crawl_datetime"`
	Parking     bool       `json:"parking"`

	Zip       string   `json:"zip"`
	City      string   `json:"city"`
	Canton    string   `json:"canton"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type EnrichedRecord struct {
	CanonicalRecord

	PricePerSqm          *float64 `json:"price_per_sqm"`
	TitleLength          int      `json:"title_length"`
	TitleWordCount       int      `json:"title_word_count"`
	DescriptionLength    int      `json:"description_length"`
	DescriptionWordCount int      `json:"description_word_count"`
	HasParking           bool     `json:"has_parking"`
	YearBuilt            int      `json:"year_built"`
	Age                  *int     `json:"age"`
	DaysSincePublished   *int     `json:"days_since_published"`
	DistanceToCenterKm   *float64 `json:"distance_to_center_km"`
	Fingerprint          string   `json:"fingerprint"`
}
