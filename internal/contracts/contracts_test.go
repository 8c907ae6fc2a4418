package contracts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listwise/server/internal/models"
)

func TestValidateRawRecord(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "object", body: `{"price": "CHF 500'000"}`, wantErr: false},
		{name: "empty object", body: `{}`, wantErr: false},
		{name: "deeply nested object", body: `{"property_location": {"coordinates": {"lat": 47.3}}}`, wantErr: false},
		{name: "array", body: `[{"price": 1}]`, wantErr: true},
		{name: "string", body: `"just text"`, wantErr: true},
		{name: "number", body: `42`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "invalid json", body: `{"price":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRawRecord([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEnrichedRecord(t *testing.T) {
	rec := models.EnrichedRecord{}
	rec.PropertyCategory = "other"
	rec.Fingerprint = strings.Repeat("ab", 32)

	body, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.NoError(t, ValidateEnrichedRecord(body))
}

func TestValidateEnrichedRecordRejections(t *testing.T) {
	valid := models.EnrichedRecord{}
	valid.PropertyCategory = "other"
	valid.Fingerprint = strings.Repeat("ab", 32)

	mutate := func(t *testing.T, change func(m map[string]any)) []byte {
		t.Helper()
		raw, err := json.Marshal(valid)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		change(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	t.Run("missing required field", func(t *testing.T) {
		body := mutate(t, func(m map[string]any) { delete(m, "fingerprint") })
		assert.Error(t, ValidateEnrichedRecord(body))
	})

	t.Run("price as string", func(t *testing.T) {
		body := mutate(t, func(m map[string]any) { m["price"] = "expensive" })
		assert.Error(t, ValidateEnrichedRecord(body))
	})

	t.Run("negative price", func(t *testing.T) {
		body := mutate(t, func(m map[string]any) { m["price"] = -1 })
		assert.Error(t, ValidateEnrichedRecord(body))
	})

	t.Run("unknown category", func(t *testing.T) {
		body := mutate(t, func(m map[string]any) { m["propertyCategory"] = "castle" })
		assert.Error(t, ValidateEnrichedRecord(body))
	})

	t.Run("malformed fingerprint", func(t *testing.T) {
		body := mutate(t, func(m map[string]any) { m["fingerprint"] = "not-a-digest" })
		assert.Error(t, ValidateEnrichedRecord(body))
	})
}

func TestValidateUnknownSchema(t *testing.T) {
	err := Validate("no-such-schema", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
