// Package fdsn queries the FDSN station web service for station coordinates.
package fdsn

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
)

// Client implements station lookups against an FDSN station service using
// the text output format.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an FDSN station client. baseURL is the service root,
// e.g. "https://service.iris.edu".
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// StationCoordinates looks up the coordinates of one station. A station the
// service does not know is not an error: it returns an unresolved record, so
// the caller can cache the negative verdict.
func (c *Client) StationCoordinates(ctx context.Context, network, station string) (domain.Coordinates, error) {
	params := url.Values{
		"network": {network},
		"station": {station},
		"level":   {"station"},
		"format":  {"text"},
	}
	fullURL := fmt.Sprintf("%s/fdsnws/station/1/query?%s", c.baseURL, params.Encode())

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FDSNRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, fmt.Errorf("station query %s.%s: %w", network, station, err)
	}
	defer resp.Body.Close()
	c.metrics.FDSNDuration.Observe(time.Since(start).Seconds())

	// FDSN services signal "no matching data" with 204 (or 404 when the
	// client asks for nodata=404; we do not).
	if resp.StatusCode == http.StatusNoContent {
		c.metrics.FDSNRequests.WithLabelValues("empty").Inc()
		return domain.Coordinates{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.FDSNRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, fmt.Errorf("fdsn station service: status %d: %s", resp.StatusCode, body)
	}

	coords, found, err := parseStationText(resp.Body, network, station)
	if err != nil {
		c.metrics.FDSNRequests.WithLabelValues("error").Inc()
		return domain.Coordinates{}, fmt.Errorf("parse station response for %s.%s: %w", network, station, err)
	}
	if !found {
		c.metrics.FDSNRequests.WithLabelValues("empty").Inc()
		return domain.Coordinates{}, nil
	}
	c.metrics.FDSNRequests.WithLabelValues("success").Inc()
	return coords, nil
}

// parseStationText scans FDSN text output for the first row matching the
// network and station codes. Row layout at station level:
//
//	Network|Station|Latitude|Longitude|Elevation|SiteName|StartTime|EndTime
func parseStationText(r io.Reader, network, station string) (domain.Coordinates, bool, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) < 5 {
			return domain.Coordinates{}, false, fmt.Errorf("malformed row: %q", line)
		}
		if fields[0] != network || fields[1] != station {
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return domain.Coordinates{}, false, fmt.Errorf("latitude in row %q: %w", line, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			return domain.Coordinates{}, false, fmt.Errorf("longitude in row %q: %w", line, err)
		}
		elev, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
		if err != nil {
			return domain.Coordinates{}, false, fmt.Errorf("elevation in row %q: %w", line, err)
		}

		// Station-level rows carry no burial depth; sensors default to the
		// surface.
		return domain.Coordinates{
			Latitude:      domain.Float(lat),
			Longitude:     domain.Float(lon),
			ElevationInM:  domain.Float(elev),
			LocalDepthInM: domain.Float(0),
		}, true, nil
	}
	if err := scanner.Err(); err != nil {
		return domain.Coordinates{}, false, err
	}
	return domain.Coordinates{}, false, nil
}
