package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listwise/server/internal/models"
)

func TestJSONLStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	store, err := NewJSONLStore(path)
	require.NoError(t, err)

	first := enriched(fp("a1"), "apartment", 500000, 100)
	second := enriched(fp("b2"), "house", 750000, 150)
	third := enriched(fp("c3"), "other", 0, 0)

	require.NoError(t, store.SaveBatch(context.Background(), []models.EnrichedRecord{first, second}))
	require.NoError(t, store.SaveBatch(context.Background(), []models.EnrichedRecord{third}))
	require.NoError(t, store.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var got []models.EnrichedRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec models.EnrichedRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		got = append(got, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, got, 3)
	assert.Equal(t, first.Fingerprint, got[0].Fingerprint)
	assert.Equal(t, second.Fingerprint, got[1].Fingerprint)
	assert.Equal(t, third.Fingerprint, got[2].Fingerprint)

	require.NotNil(t, got[0].PricePerSqm)
	assert.Equal(t, 5000.0, *got[0].PricePerSqm)
	assert.Nil(t, got[2].PricePerSqm)
}

func TestJSONLStoreAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")

	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveBatch(context.Background(), []models.EnrichedRecord{
		enriched(fp("a1"), "apartment", 500000, 100),
	}))
	require.NoError(t, store.Close())

	store, err = NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveBatch(context.Background(), []models.EnrichedRecord{
		enriched(fp("b2"), "house", 600000, 100),
	}))
	require.NoError(t, store.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 2, lines)
}

func TestJSONLStoreStatsUnsupported(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "out.jsonl"))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Stats(context.Background())
	assert.ErrorIs(t, err, ErrStatsUnsupported)
}
