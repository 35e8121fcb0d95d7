// Package events stores event descriptors as one JSON file per event under
// the project's EVENTS folder. The file basename is the event name.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// Store reads event descriptors on demand; nothing is cached so new events
// become visible as soon as their descriptor lands in the folder.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a Store reading from dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// Get returns the named event or a *domain.NotFoundError.
func (s *Store) Get(name string) (domain.Event, error) {
	if !validName(name) {
		return domain.Event{}, &domain.NotFoundError{Kind: "event", Name: name}
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".json"))
	if os.IsNotExist(err) {
		return domain.Event{}, &domain.NotFoundError{Kind: "event", Name: name}
	}
	if err != nil {
		return domain.Event{}, fmt.Errorf("read event %q: %w", name, err)
	}

	var event domain.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.Event{}, fmt.Errorf("parse event %q: %w", name, err)
	}
	event.Name = name
	return event, nil
}

// List returns all event names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Count returns the number of events, 0 if the folder cannot be read.
func (s *Store) Count() int {
	names, err := s.List()
	if err != nil {
		s.logger.Warn("count events failed", "error", err)
		return 0
	}
	return len(names)
}

// validName rejects names that would escape the events folder.
func validName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && name != "." && name != ".."
}
