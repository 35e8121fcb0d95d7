package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is a seismic event the project has ingested. The origin time selects
// the coordinate-valid epoch when station metadata is looked up.
type Event struct {
	Name        string    `json:"-"`
	OriginTime  time.Time `json:"origin_time"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	DepthInKm   float64   `json:"depth_in_km"`
	MagnitudeMw float64   `json:"magnitude_mw"`
	Region      string    `json:"region,omitempty"`
}

// RawRecord is an unprocessed message from the ingest source topic.
type RawRecord struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ChannelRecord is the JSON payload of an ingest message: one raw waveform
// channel observed for an event, published by the upstream collector after it
// has scanned a new waveform file.
type ChannelRecord struct {
	Event string `json:"event"`
	ChannelMeta
}

// ParseRawRecord deserializes a RawRecord's value into a ChannelRecord.
func ParseRawRecord(raw RawRecord) (ChannelRecord, error) {
	var rec ChannelRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return ChannelRecord{}, fmt.Errorf("parse channel record: %w", err)
	}
	if strings.TrimSpace(rec.Event) == "" {
		return ChannelRecord{}, fmt.Errorf("channel record: missing event name")
	}
	if rec.Network == "" || rec.Station == "" || rec.ChannelID == "" {
		return ChannelRecord{}, fmt.Errorf(
			"channel record for event %q: network, station, and channel_id are required", rec.Event)
	}
	return rec, nil
}
