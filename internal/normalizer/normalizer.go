package normalizer

import (
	"strconv"
	"strings"

	"listwise/server/config"
	"listwise/server/internal/geometry"
	"listwise/server/internal/models"
)

// Normalize converts one raw record into the canonical schema. Every field
// rule is independent and falls back to its documented default, so the
// result is always fully populated regardless of input quality.
func Normalize(raw models.RawRecord) models.CanonicalRecord {
	rec := models.CanonicalRecord{
		ID:               Identifier(raw.Value("id")),
		Platform:         Token(raw.Value("platform")),
		SaleType:         Token(raw.Value("sale_type")),
		SellerType:       Token(raw.Value("seller_type")),
		Price:            Price(raw.Value("price")),
		AdditionalCosts:  Measure(raw.Value("additional_costs")),
		Floor:            Floor(raw.Value("floor")),
		Rooms:            Measure(raw.Value("rooms")),
		LivingSpace:      Measure(raw.Value("living_space")),
		PlotArea:         Measure(raw.Value("plot_area")),
		PropertyCategory: Category(raw.Value("property_category", "propertyCategory")),
		Title:            Text(raw.Value("title")),
		Street:           Text(raw.LocationValue("street")),
		Description:      Text(raw.Value("description")),
		BuildYear:        Year(raw.Value("build_year")),
		PublishedAt:      Timestamp(raw.Value("published_datetime")),
		CrawledAt:        Timestamp(raw.Value("crawl_datetime")),
		Zip:              Identifier(raw.LocationValue("zip")),
		City:             Text(raw.LocationValue("city")),
		Canton:           strings.ToUpper(Identifier(raw.LocationValue("canton"))),
	}

	rec.Latitude, rec.Longitude = Coordinates(raw)
	rec.Parking = Parking(raw)

	return rec
}

// NormalizeBatch applies Normalize to each record, one output per input.
func NormalizeBatch(raws []models.RawRecord) []models.CanonicalRecord {
	out := make([]models.CanonicalRecord, len(raws))
	for i, raw := range raws {
		out[i] = Normalize(raw)
	}
	return out
}

// Text canonicalizes a free-text value; non-strings become "".
func Text(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return CleanText(s)
}

// Coordinates extracts latitude and longitude from the nested coordinates
// object. Values may be numbers or numeric strings; out-of-range or partial
// pairs are dropped as a whole.
func Coordinates(raw models.RawRecord) (*float64, *float64) {
	coords, _ := raw.LocationValue("coordinates").(map[string]any)
	if coords == nil {
		return nil, nil
	}

	lat := floatOrNil(coords["lat"])
	lng := floatOrNil(coords["lng"])
	if lat == nil || lng == nil {
		return nil, nil
	}
	if !geometry.ValidCoordinate(*lat, *lng) {
		return nil, nil
	}
	return lat, lng
}

// Parking is true when the raw parking flag is set or any parking keyword
// occurs in a string-valued field of the record. Scanning order does not
// matter; the result is a plain OR over all fields.
func Parking(raw models.RawRecord) bool {
	if flag, ok := raw["parking"].(bool); ok && flag {
		return true
	}

	for _, v := range raw {
		if s, ok := v.(string); ok && containsParkingKeyword(s) {
			return true
		}
	}
	for _, v := range raw.Location() {
		if s, ok := v.(string); ok && containsParkingKeyword(s) {
			return true
		}
	}
	return false
}

func containsParkingKeyword(s string) bool {
	lowered := strings.ToLower(s)
	for _, kw := range config.ParkingKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

func floatOrNil(raw any) *float64 {
	switch v := raw.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}
