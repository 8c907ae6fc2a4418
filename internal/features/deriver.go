package features

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"listwise/server/config"
	"listwise/server/internal/geometry"
	"listwise/server/internal/models"
)

// Deriver computes the engineered features on top of a canonical record.
// It holds no per-record state and is safe for concurrent use.
type Deriver struct {
	detector PeriodDetector
	clock    func() time.Time
}

// NewDeriver builds a Deriver; a nil detector selects the keyword default.
func NewDeriver(detector PeriodDetector) *Deriver {
	if detector == nil {
		detector = KeywordPeriodDetector{}
	}
	return &Deriver{
		detector: detector,
		clock:    time.Now,
	}
}

// WithClock replaces the fallback time source. The clock is consulted only
// for records that carry no crawl timestamp and no batch reference.
func (d *Deriver) WithClock(clock func() time.Time) *Deriver {
	d.clock = clock
	return d
}

// Derive computes the enriched record. The raw record is consulted only for
// the payment-interval indicator; everything else derives from canonical
// fields, so repeated calls yield identical output.
func (d *Deriver) Derive(raw models.RawRecord, rec models.CanonicalRecord, reference *time.Time) models.EnrichedRecord {
	ref := d.referenceTime(rec, reference)

	return models.EnrichedRecord{
		CanonicalRecord: rec,

		PricePerSqm:          d.pricePerSqm(raw, rec),
		TitleLength:          utf8.RuneCountInString(rec.Title),
		TitleWordCount:       len(strings.Fields(rec.Title)),
		DescriptionLength:    utf8.RuneCountInString(rec.Description),
		DescriptionWordCount: len(strings.Fields(rec.Description)),
		HasParking:           rec.Parking,
		YearBuilt:            rec.BuildYear,
		Age:                  ageYears(rec.BuildYear, ref),
		DaysSincePublished:   daysSince(rec.PublishedAt, ref),
		DistanceToCenterKm:   centerDistance(rec),
		Fingerprint:          Fingerprint(rec),
	}
}

// referenceTime resolves the timestamp recency features are measured
// against: the record's own crawl time, then the batch reference, then the
// clock.
func (d *Deriver) referenceTime(rec models.CanonicalRecord, reference *time.Time) time.Time {
	if rec.CrawledAt != nil {
		return *rec.CrawledAt
	}
	if reference != nil {
		return *reference
	}
	return d.clock()
}

// pricePerSqm is nil whenever living space is zero, regardless of price or
// payment terms. Annual and daily prices convert to monthly before the
// division; a per-m² price is used as the rate directly.
func (d *Deriver) pricePerSqm(raw models.RawRecord, rec models.CanonicalRecord) *float64 {
	if rec.LivingSpace <= 0 {
		return nil
	}

	terms := d.detector.Detect(raw)

	price := float64(rec.Price)
	switch terms.Period {
	case PeriodAnnual:
		price = price / 12
	case PeriodDaily:
		price = price * 30
	}

	var rate float64
	if terms.PerSquareMeter {
		rate = price
	} else {
		rate = price / rec.LivingSpace
	}

	rate = round2(rate)
	return &rate
}

// daysSince compares calendar dates, not elapsed hours, so a listing
// published late yesterday evening still counts one day. Future dates come
// out negative on purpose.
func daysSince(published *time.Time, ref time.Time) *int {
	if published == nil {
		return nil
	}
	days := int(dateOnly(ref).Sub(dateOnly(*published)).Hours() / 24)
	return &days
}

func ageYears(buildYear int, ref time.Time) *int {
	if buildYear <= 0 || buildYear > ref.Year() {
		return nil
	}
	age := ref.Year() - buildYear
	return &age
}

// centerDistance is nil unless the record has coordinates and its city has a
// configured center.
func centerDistance(rec models.CanonicalRecord) *float64 {
	if rec.Latitude == nil || rec.Longitude == nil || rec.City == "" {
		return nil
	}
	center := config.GetCityCenter(rec.City)
	if center == nil {
		return nil
	}
	km := round2(geometry.DistanceKm(*rec.Latitude, *rec.Longitude, center.Latitude, center.Longitude))
	return &km
}

// dateOnly keeps the timestamp's own calendar date, then pins it to UTC so
// differences count whole days.
func dateOnly(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
