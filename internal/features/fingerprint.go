package features

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"

	"listwise/server/internal/models"
)

// Fingerprint builds a deterministic identity hash for deduplication and
// downstream matching. The field order is part of the contract; changing it
// invalidates every stored fingerprint.
func Fingerprint(rec models.CanonicalRecord) string {
	geo := ""
	if rec.Latitude != nil && rec.Longitude != nil {
		geo = geohash.EncodeWithPrecision(*rec.Latitude, *rec.Longitude, 5)
	}

	parts := []string{
		rec.Platform,
		rec.ID,
		geo,
		strconv.Itoa(rec.Price),
		strconv.FormatFloat(rec.LivingSpace, 'f', -1, 64),
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
