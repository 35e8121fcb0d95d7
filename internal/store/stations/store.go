// Package stations loads dedicated station metadata files and answers
// time-scoped per-channel coordinate lookups.
//
// Each file under the project's STATIONS folder is a JSON array of channel
// epochs. An epoch binds a channel ID to coordinates for a validity window;
// an absent end_time means the epoch is still open. Coordinates inside an
// epoch may be partial: some station files record a channel without usable
// coordinates, which the query layer treats as "station file present but
// unresolved" and falls through to the next source tier.
package stations

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// ChannelEpoch is one validity window of a channel's metadata.
type ChannelEpoch struct {
	ChannelID string     `json:"channel_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"` // nil = open epoch
	domain.Coordinates
}

// Contains reports whether t falls inside the epoch.
func (e ChannelEpoch) Contains(t time.Time) bool {
	if t.Before(e.StartTime) {
		return false
	}
	return e.EndTime == nil || t.Before(*e.EndTime)
}

// Store holds all channel epochs loaded from the station folder.
type Store struct {
	epochs []ChannelEpoch
	logger *slog.Logger
}

// NewStore loads every *.json station file under dir. A missing folder
// yields an empty store; a malformed file is an error.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return &Store{logger: logger}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read station folder: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	// Load order is part of the lookup contract: earlier files win.
	sort.Strings(names)

	s := &Store{logger: logger}
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read station file %q: %w", name, err)
		}
		var epochs []ChannelEpoch
		if err := json.Unmarshal(data, &epochs); err != nil {
			return nil, fmt.Errorf("parse station file %q: %w", name, err)
		}
		s.epochs = append(s.epochs, epochs...)
	}

	logger.Debug("station metadata loaded", "files", len(names), "epochs", len(s.epochs))
	return s, nil
}

// AllChannelsAt maps channel IDs to coordinates for every channel with an
// epoch containing t. The first matching epoch per channel wins.
func (s *Store) AllChannelsAt(t time.Time) map[string]domain.Coordinates {
	channels := make(map[string]domain.Coordinates)
	for _, e := range s.epochs {
		if !e.Contains(t) {
			continue
		}
		if _, ok := channels[e.ChannelID]; ok {
			continue
		}
		channels[e.ChannelID] = e.Coordinates
	}
	return channels
}

// Len returns the number of loaded epochs.
func (s *Store) Len() int {
	return len(s.epochs)
}
