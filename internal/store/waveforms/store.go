// Package waveforms maintains the per-event raw waveform channel index:
// DATA/<event>/raw/index.json, a JSON array of channel entries written by the
// ingest feed and read by the query layer.
package waveforms

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// Store reads and updates per-event channel indexes under the DATA folder.
type Store struct {
	dataDir string
	logger  *slog.Logger

	// Serializes index rewrites; reads go through the filesystem unlocked.
	mu sync.Mutex
}

// NewStore creates a Store rooted at dataDir.
func NewStore(dataDir string, logger *slog.Logger) *Store {
	return &Store{dataDir: dataDir, logger: logger}
}

func (s *Store) indexPath(eventName string) string {
	return filepath.Join(s.dataDir, eventName, "raw", "index.json")
}

// RawMetadata returns all channel entries for the event in index order. An
// event without raw data yields an empty slice.
func (s *Store) RawMetadata(eventName string) ([]domain.ChannelMeta, error) {
	data, err := os.ReadFile(s.indexPath(eventName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read waveform index for %q: %w", eventName, err)
	}

	var entries []domain.ChannelMeta
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse waveform index for %q: %w", eventName, err)
	}
	return entries, nil
}

// AddRecords merges new channel entries into the event's index. Entries whose
// channel ID is already indexed are skipped, making redelivery idempotent.
func (s *Store) AddRecords(eventName string, records []domain.ChannelMeta) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.RawMetadata(eventName)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ChannelID] = true
	}

	added := 0
	for _, r := range records {
		if seen[r.ChannelID] {
			continue
		}
		seen[r.ChannelID] = true
		existing = append(existing, r)
		added++
	}
	if added == 0 {
		return nil
	}

	if err := s.writeIndex(eventName, existing); err != nil {
		return err
	}
	s.logger.Debug("waveform index updated", "event", eventName, "added", added, "total", len(existing))
	return nil
}

// writeIndex writes the index through a temp file and rename so readers never
// see a partially written file.
func (s *Store) writeIndex(eventName string, entries []domain.ChannelMeta) error {
	path := s.indexPath(eventName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create raw folder for %q: %w", eventName, err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize waveform index for %q: %w", eventName, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write waveform index for %q: %w", eventName, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace waveform index for %q: %w", eventName, err)
	}
	return nil
}
