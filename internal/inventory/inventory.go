// Package inventory is the station coordinate inventory: a sqlite-backed
// cache in front of a remote station service. Lookups that find nothing are
// cached as negative entries (NULL latitude) so known-bad stations never
// trigger another remote round trip.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
)

// StationQuerier performs a live station lookup against a remote service.
// An unresolved result means "the service has no coordinates"; only
// transport-level failures are errors.
type StationQuerier interface {
	StationCoordinates(ctx context.Context, network, station string) (domain.Coordinates, error)
}

const schema = `
CREATE TABLE IF NOT EXISTS station_coordinates (
	station_id      TEXT PRIMARY KEY,
	latitude        REAL,
	longitude       REAL,
	elevation_in_m  REAL,
	local_depth_in_m REAL,
	queried_at      TEXT NOT NULL
);`

// DB is the sqlite-backed inventory. It implements domain.InventorySource.
type DB struct {
	db      *sql.DB
	querier StationQuerier
	metrics *observability.Metrics
	logger  *slog.Logger
}

// clock is a package-level time source so tests can freeze queried_at stamps.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Open opens (creating if necessary) the inventory database at path.
func Open(path string, querier StationQuerier, metrics *observability.Metrics, logger *slog.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open inventory db: %w", err)
	}
	// A single connection serializes writes; sqlite handles this workload
	// comfortably and it keeps concurrent resolver calls safe.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create inventory schema: %w", err)
	}
	return &DB{db: db, querier: querier, metrics: metrics, logger: logger}, nil
}

// Close closes the underlying database.
func (d *DB) Close() error {
	return d.db.Close()
}

// AllCoordinates returns a snapshot of every cached record, negative entries
// included.
func (d *DB) AllCoordinates(ctx context.Context) (map[string]domain.Coordinates, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT station_id, latitude, longitude, elevation_in_m, local_depth_in_m FROM station_coordinates`)
	if err != nil {
		return nil, fmt.Errorf("inventory snapshot: %w", err)
	}
	defer rows.Close()

	snapshot := make(map[string]domain.Coordinates)
	for rows.Next() {
		var id string
		var lat, lon, elev, depth sql.NullFloat64
		if err := rows.Scan(&id, &lat, &lon, &elev, &depth); err != nil {
			return nil, fmt.Errorf("inventory snapshot: %w", err)
		}
		snapshot[id] = domain.Coordinates{
			Latitude:      fromNull(lat),
			Longitude:     fromNull(lon),
			ElevationInM:  fromNull(elev),
			LocalDepthInM: fromNull(depth),
		}
	}
	return snapshot, rows.Err()
}

// Coordinates returns the cached record for stationID, or performs a live
// lookup and caches whatever comes back, an empty verdict included. Remote
// transport failures propagate and are not cached, so the station will be
// retried on the next call.
func (d *DB) Coordinates(ctx context.Context, stationID string) (domain.Coordinates, error) {
	var lat, lon, elev, depth sql.NullFloat64
	err := d.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, elevation_in_m, local_depth_in_m FROM station_coordinates WHERE station_id = ?`,
		stationID,
	).Scan(&lat, &lon, &elev, &depth)

	switch {
	case err == nil:
		coords := domain.Coordinates{
			Latitude:      fromNull(lat),
			Longitude:     fromNull(lon),
			ElevationInM:  fromNull(elev),
			LocalDepthInM: fromNull(depth),
		}
		if coords.Resolved() {
			d.metrics.InventoryLookups.WithLabelValues("hit").Inc()
		} else {
			d.metrics.InventoryLookups.WithLabelValues("negative").Inc()
		}
		return coords, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.Coordinates{}, fmt.Errorf("inventory lookup %q: %w", stationID, err)
	}

	d.metrics.InventoryLookups.WithLabelValues("miss").Inc()

	network, station, ok := strings.Cut(stationID, ".")
	if !ok || network == "" || station == "" {
		return domain.Coordinates{}, fmt.Errorf("malformed station id %q", stationID)
	}

	coords, err := d.querier.StationCoordinates(ctx, network, station)
	if err != nil {
		return domain.Coordinates{}, err
	}

	if err := d.put(ctx, stationID, coords); err != nil {
		return domain.Coordinates{}, err
	}
	d.logger.Debug("inventory updated", "station", stationID, "resolved", coords.Resolved())
	return coords, nil
}

func (d *DB) put(ctx context.Context, stationID string, coords domain.Coordinates) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO station_coordinates (station_id, latitude, longitude, elevation_in_m, local_depth_in_m, queried_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(station_id) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			elevation_in_m = excluded.elevation_in_m,
			local_depth_in_m = excluded.local_depth_in_m,
			queried_at = excluded.queried_at`,
		stationID, toNull(coords.Latitude), toNull(coords.Longitude),
		toNull(coords.ElevationInM), toNull(coords.LocalDepthInM),
		clock.Now().UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return fmt.Errorf("inventory store %q: %w", stationID, err)
	}
	return nil
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func toNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
