package domain

// StationID builds the composite "NET.STA" identity that keys resolver
// results. It is unique within one event's result set.
func StationID(network, station string) string {
	return network + "." + station
}

// Coordinates is a station coordinate record. Fields are nil when the source
// did not provide them.
type Coordinates struct {
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	ElevationInM  *float64 `json:"elevation_in_m"`
	LocalDepthInM *float64 `json:"local_depth_in_m"`
}

// Resolved reports whether the record carries usable coordinates. Latitude is
// the sentinel field: a nil latitude means unresolved regardless of the rest.
func (c Coordinates) Resolved() bool {
	return c.Latitude != nil
}

// Float returns a pointer to v, for building Coordinates values.
func Float(v float64) *float64 {
	return &v
}

// ChannelMeta describes one raw waveform channel of an event. The embedded
// Coordinates are only populated for file formats that carry them in the
// waveform header (SAC and friends); for everything else they stay nil.
type ChannelMeta struct {
	Network   string `json:"network"`
	Station   string `json:"station"`
	ChannelID string `json:"channel_id"`
	Coordinates
}

// StationID returns the "NET.STA" identity of the channel's station.
func (m ChannelMeta) StationID() string {
	return StationID(m.Network, m.Station)
}
