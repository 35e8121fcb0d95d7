// Package query answers cross-component questions by merging information
// from the event, waveform, station, and inventory providers.
package query

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
)

// Tier labels, in precedence order.
const (
	TierStationFile    = "station_file"
	TierWaveformHeader = "waveform_header"
	TierInventoryCache = "inventory_cache"
	TierInventoryQuery = "inventory_query"
)

// Resolver composes the data-source providers. It is stateless: every call
// gathers fresh data and the only external mutation is the inventory's own
// cache growth on a live lookup.
type Resolver struct {
	events    domain.EventSource
	waveforms domain.WaveformSource
	stations  domain.StationSource
	inventory domain.InventorySource
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewResolver wires the providers into a Resolver. All providers must be
// non-nil; they are constructed before the resolver by the project session.
func NewResolver(
	events domain.EventSource,
	waveforms domain.WaveformSource,
	stations domain.StationSource,
	inventory domain.InventorySource,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Resolver {
	return &Resolver{
		events:    events,
		waveforms: waveforms,
		stations:  stations,
		inventory: inventory,
		logger:    logger,
		metrics:   metrics,
	}
}

// outcome is the verdict of one resolution tier for one station.
type outcome int

const (
	// tryNext: this tier has nothing to say, consult the next one.
	tryNext outcome = iota
	// accepted: the tier produced usable coordinates.
	accepted
	// rejected: the tier determined the station cannot be resolved;
	// lower tiers must not be consulted.
	rejected
)

// tier is one strategy in the fallback chain: a named lookup returning
// coordinates and a verdict.
type tier struct {
	name   string
	lookup func(ctx context.Context) (domain.Coordinates, outcome, error)
}

// AllStationsForEvent returns one coordinate record per station that has raw
// waveform data for the event and could be resolved through some source.
// Sources are tried per station in fixed precedence order: dedicated station
// files, coordinates embedded in waveform headers, the inventory cache
// (negative entries short-circuit), and finally a live inventory query.
//
// An unknown event name fails with a *domain.NotFoundError before any other
// provider is consulted. Provider I/O failures propagate as-is.
func (r *Resolver) AllStationsForEvent(ctx context.Context, eventName string) (map[string]domain.Coordinates, error) {
	event, err := r.events.Get(eventName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		r.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	// Gather from all the different places.
	waveformMeta, err := r.waveforms.RawMetadata(eventName)
	if err != nil {
		return nil, err
	}
	channelCoords := r.stations.AllChannelsAt(event.OriginTime)
	snapshot, err := r.inventory.AllCoordinates(ctx)
	if err != nil {
		return nil, err
	}

	stations := make(map[string]domain.Coordinates)
	for _, wf := range waveformMeta {
		stationID := wf.StationID()
		// First channel seen wins; later channels never overwrite.
		if _, seen := stations[stationID]; seen {
			continue
		}

		fileCoords, hasStationFile := channelCoords[wf.ChannelID]
		if !hasStationFile {
			// No station file for this channel. Not a verdict on the
			// station: a later channel may still resolve it.
			continue
		}

		coords, tierName, out, err := r.runTiers(ctx, stationID, wf, fileCoords, snapshot)
		if err != nil {
			return nil, err
		}
		switch out {
		case accepted:
			stations[stationID] = coords
			r.metrics.StationResolutions.WithLabelValues(tierName).Inc()
			r.logger.Debug("station resolved",
				"event", eventName, "station", stationID, "tier", tierName)
		case rejected:
			r.metrics.UnresolvedStations.Inc()
			r.logger.Debug("station unresolved",
				"event", eventName, "station", stationID, "tier", tierName)
		}
	}

	r.logger.Info("station query complete",
		"event", eventName,
		"channels", len(waveformMeta),
		"stations", len(stations),
	)
	return stations, nil
}

// runTiers tries the fallback chain for one waveform entry. fileCoords is
// the station-file record for the entry's channel; snapshot is the inventory
// state captured at the start of the call.
func (r *Resolver) runTiers(
	ctx context.Context,
	stationID string,
	wf domain.ChannelMeta,
	fileCoords domain.Coordinates,
	snapshot map[string]domain.Coordinates,
) (domain.Coordinates, string, outcome, error) {
	tiers := []tier{
		{TierStationFile, func(context.Context) (domain.Coordinates, outcome, error) {
			if fileCoords.Resolved() {
				return fileCoords, accepted, nil
			}
			return domain.Coordinates{}, tryNext, nil
		}},
		{TierWaveformHeader, func(context.Context) (domain.Coordinates, outcome, error) {
			if wf.Resolved() {
				return wf.Coordinates, accepted, nil
			}
			return domain.Coordinates{}, tryNext, nil
		}},
		{TierInventoryCache, func(context.Context) (domain.Coordinates, outcome, error) {
			coords, ok := snapshot[stationID]
			if !ok {
				return domain.Coordinates{}, tryNext, nil
			}
			if coords.Resolved() {
				return coords, accepted, nil
			}
			// Already queried for, no coordinates found. Respect the
			// verdict instead of paying for another round trip.
			return domain.Coordinates{}, rejected, nil
		}},
		{TierInventoryQuery, func(ctx context.Context) (domain.Coordinates, outcome, error) {
			coords, err := r.inventory.Coordinates(ctx, stationID)
			if err != nil {
				return domain.Coordinates{}, tryNext, err
			}
			if coords.Resolved() {
				return coords, accepted, nil
			}
			return domain.Coordinates{}, rejected, nil
		}},
	}

	for _, t := range tiers {
		coords, out, err := t.lookup(ctx)
		if err != nil {
			return domain.Coordinates{}, t.name, tryNext, err
		}
		if out != tryNext {
			return coords, t.name, out, nil
		}
	}
	// Unreachable: the last tier always returns a verdict.
	return domain.Coordinates{}, "", rejected, nil
}
