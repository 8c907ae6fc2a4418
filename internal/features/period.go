package features

import (
	"strings"

	"listwise/server/internal/models"
)

// Period is the billing interval a listing's price refers to.
type Period int

const (
	PeriodUnknown Period = iota
	PeriodMonthly
	PeriodAnnual
	PeriodDaily
)

// PaymentTerms describes how a raw price value is to be read before ratio
// features are computed.
type PaymentTerms struct {
	Period Period

	// PerSquareMeter marks the price as already being a rate per m².
	PerSquareMeter bool
}

// PeriodDetector infers PaymentTerms from a raw record. Implementations must
// be pure; the default keys off the payment_interval field.
type PeriodDetector interface {
	Detect(raw models.RawRecord) PaymentTerms
}

// KeywordPeriodDetector matches known interval markers in the raw
// payment_interval value. Records without one are left untouched, which
// covers sale prices and plain monthly rents.
type KeywordPeriodDetector struct{}

func (KeywordPeriodDetector) Detect(raw models.RawRecord) PaymentTerms {
	s, _ := raw.Value("payment_interval").(string)
	interval := strings.ToLower(strings.TrimSpace(s))

	terms := PaymentTerms{Period: PeriodUnknown}
	if interval == "" {
		return terms
	}

	if strings.Contains(interval, "per_square_meter") || strings.Contains(interval, "per_sqm") {
		terms.PerSquareMeter = true
	}

	switch {
	case strings.Contains(interval, "per_year"),
		strings.Contains(interval, "yearly"),
		strings.Contains(interval, "annual"):
		terms.Period = PeriodAnnual
	case strings.Contains(interval, "per_day"),
		strings.Contains(interval, "daily"):
		terms.Period = PeriodDaily
	case strings.Contains(interval, "per_month"),
		strings.Contains(interval, "monthly"):
		terms.Period = PeriodMonthly
	}

	return terms
}
