package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"listwise/server/config"
)

var (
	numericChars = regexp.MustCompile(`[^\d.,]`)
	digitRun     = regexp.MustCompile(`\d+`)
)

// timestampLayouts is the fixed set of accepted datetime formats. Anything
// else normalizes to null rather than a zero time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Price parses a price like "CHF 1'250'000" or "1,234.56" into a whole
// non-negative amount. Both US and EU separator conventions are handled;
// anything unparseable falls back to 0.
func Price(raw any) int {
	switch v := raw.(type) {
	case int:
		return clampInt(v)
	case int64:
		return clampInt(int(v))
	case float64:
		return clampInt(int(math.RoundToEven(v)))
	case string:
		return priceFromString(v)
	default:
		return 0
	}
}

func priceFromString(raw string) int {
	s := numericChars.ReplaceAllString(raw, "")

	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		if strings.Index(s, ",") < strings.Index(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	case strings.Contains(s, ","):
		left, right, _ := strings.Cut(s, ",")
		if len(right) == 3 && isDigits(right) {
			s = left + right
		} else {
			s = left + "." + right
		}
	}

	// With several dots left, only the last one is the decimal mark.
	if strings.Count(s, ".") > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clampInt(int(math.RoundToEven(f)))
}

// Floor extracts a floor level from values like "3. OG", "level 3" or "EG".
// Ground-floor synonyms map to 0; so do labels without digits, which leaves
// top-floor names indistinguishable from the ground floor. That collision is
// long-standing, documented behavior that downstream consumers rely on.
func Floor(raw any) int {
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		label := strings.ToLower(strings.TrimSpace(v))
		if label == "" || config.IsGroundFloorSynonym(label) {
			return 0
		}
		if m := digitRun.FindString(label); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				return n
			}
		}
		return 0
	default:
		return 0
	}
}

// Measure parses area-like quantities ("85 m²", "3.5", "100,5") into a
// non-negative float. Shared by living space, rooms, plot area, and
// additional costs.
func Measure(raw any) float64 {
	switch v := raw.(type) {
	case int:
		return clampFloat(float64(v))
	case int64:
		return clampFloat(float64(v))
	case float64:
		return clampFloat(v)
	case string:
		s := numericChars.ReplaceAllString(v, "")
		s = strings.ReplaceAll(s, ",", ".")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return clampFloat(f)
	default:
		return 0
	}
}

// Category maps a raw category label onto the canonical set via the ordered
// keyword table; the first keyword contained in the label wins.
func Category(raw any) string {
	s, ok := raw.(string)
	if !ok {
		return "other"
	}
	label := strings.ToLower(strings.TrimSpace(s))
	if label == "" {
		return "other"
	}
	for _, kw := range config.CategoryKeywords {
		if strings.Contains(label, kw.Keyword) {
			return kw.Category
		}
	}
	return "other"
}

// Year parses a build year; unparseable, missing, or negative values become 0.
func Year(raw any) int {
	switch v := raw.(type) {
	case int:
		return clampInt(v)
	case int64:
		return clampInt(int(v))
	case float64:
		return clampInt(int(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return clampInt(n)
	default:
		return 0
	}
}

// Timestamp parses a datetime against the accepted layouts; blank or
// unrecognized input yields nil, never a zero time.
func Timestamp(raw any) *time.Time {
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Identifier keeps a value as an opaque trimmed string; numbers are
// formatted, everything else is dropped.
func Identifier(raw any) string {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Token is an Identifier folded to lowercase, for enum-ish fields such as
// platform and sale_type.
func Token(raw any) string {
	return strings.ToLower(Identifier(raw))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clampFloat(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
