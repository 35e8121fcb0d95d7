// Package domain models the entities of a seismic waveform-inversion project:
// events, raw waveform channels, station metadata, and the coordinate records
// the query layer resolves for them.
//
// # Identifiers
//
// Station and channel identifiers follow the SEED naming convention:
//
//	Station:  "<network>.<station>"            →  e.g. "HL.ARG"
//	Channel:  "<network>.<station>.<location>.<channel>"  →  e.g. "HL.ARG..BHZ"
//
// The network code identifies the operating network (2 characters, e.g. "HL"
// for the Hellenic Seismic Network), the station code the physical site, the
// location code distinguishes co-located instruments (often empty), and the
// channel code encodes band, instrument, and orientation (e.g. "BHZ" =
// broadband, high-gain, vertical).
//
// A station has one set of coordinates but many channels; resolving any one
// channel is enough to place the station.
//
// # Coordinate records
//
// A coordinate record carries latitude, longitude, elevation, and local depth
// (burial depth of the sensor below the surface). Each field is nullable
// because the sources are heterogeneous: dedicated station metadata usually
// has all four, SAC-style waveform headers may embed only latitude/longitude,
// and the remote inventory stores whatever its last query returned. A record
// counts as resolved only when its latitude is present; see
// [Coordinates.Resolved].
//
// # Coordinate sources and precedence
//
// Station coordinates are merged from four sources, highest precedence first:
//
//	1. Dedicated station metadata files, valid at the event origin time.
//	2. Coordinates embedded in the waveform file headers (SAC and friends).
//	3. The local inventory cache, including negative entries recording that
//	   a previous remote lookup found nothing.
//	4. A live query against the remote station service (the only source
//	   involving a network round trip, tried last).
//
// Station files are ground truth; embedded header coordinates cover formats
// that ship without separate metadata; the inventory exists to amortize the
// cost of remote lookups and to remember "no coordinates available" verdicts
// so they are not retried on every query.
package domain
