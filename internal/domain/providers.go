package domain

import (
	"context"
	"time"
)

// EventSource looks up ingested events by name.
type EventSource interface {
	// Get returns the named event or a *NotFoundError.
	Get(name string) (Event, error)
}

// WaveformSource lists the raw waveform channels available for an event.
type WaveformSource interface {
	// RawMetadata returns all channel entries for the event, in provider
	// order. An event with no raw data yields an empty slice, not an error.
	RawMetadata(eventName string) ([]ChannelMeta, error)
}

// StationSource provides per-channel coordinates from dedicated station
// metadata files.
type StationSource interface {
	// AllChannelsAt maps channel IDs to coordinates for every channel whose
	// metadata epoch contains t. Fields within a record may be nil.
	AllChannelsAt(t time.Time) map[string]Coordinates
}

// InventorySource is the queryable coordinate inventory. It is the only
// provider with write-through behavior: a miss on Coordinates triggers a live
// remote lookup whose outcome, including an empty one, is cached.
type InventorySource interface {
	// AllCoordinates returns a snapshot of every cached station coordinate,
	// including negative entries (nil latitude) from lookups that found
	// nothing.
	AllCoordinates(ctx context.Context) (map[string]Coordinates, error)

	// Coordinates returns the cached record for the station or performs a
	// live remote lookup and caches the result. The returned record may be
	// unresolved; transport failures propagate as errors.
	Coordinates(ctx context.Context, stationID string) (Coordinates, error)
}
