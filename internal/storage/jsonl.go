package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"listwise/server/internal/models"
)

// JSONLStore appends each record as one JSON line. It is safe for
// concurrent use.
type JSONLStore struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewJSONLStore opens (or creates) the output file in append mode.
// Intermediate directories are created automatically.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("jsonl: create output dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("jsonl: open file %q: %w", path, err)
	}

	return &JSONLStore{file: f, encoder: json.NewEncoder(f)}, nil
}

func (s *JSONLStore) SaveBatch(ctx context.Context, records []models.EnrichedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.encoder.Encode(rec); err != nil {
			return fmt.Errorf("jsonl: write record: %w", err)
		}
	}
	return nil
}

func (s *JSONLStore) Stats(context.Context) (*models.ListingStats, error) {
	return nil, ErrStatsUnsupported
}

// Close closes the underlying file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
