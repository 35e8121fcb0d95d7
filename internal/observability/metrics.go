package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// station query and ingest paths.
type Metrics struct {
	// Coordinate resolution metrics.
	StationResolutions *prometheus.CounterVec // labels: tier={station_file,waveform_header,inventory_cache,inventory_query}
	UnresolvedStations prometheus.Counter
	QueryDuration      prometheus.Histogram

	// Inventory cache metrics.
	InventoryLookups *prometheus.CounterVec // labels: result={hit,negative,miss}

	// Remote station service metrics.
	FDSNRequests *prometheus.CounterVec // labels: outcome={success,empty,error}
	FDSNDuration prometheus.Histogram

	// Ingest metrics.
	RecordsConsumed prometheus.Counter
	RecordsIndexed  prometheus.Counter
	DecodeErrors    prometheus.Counter
	IngestRunning   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		StationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "station_resolutions_total",
			Help:      "Stations resolved per coordinate source tier.",
		}, []string{"tier"}),
		UnresolvedStations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "unresolved_stations_total",
			Help:      "Stations with raw data excluded because no source resolved coordinates.",
		}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_project",
			Name:      "station_query_duration_seconds",
			Help:      "Duration of a complete per-event station coordinate query.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		InventoryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "inventory_lookups_total",
			Help:      "Inventory cache lookups by result.",
		}, []string{"result"}),
		FDSNRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "fdsn_requests_total",
			Help:      "FDSN station service requests by outcome.",
		}, []string{"outcome"}),
		FDSNDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "seismic_project",
			Name:      "fdsn_request_duration_seconds",
			Help:      "FDSN station service request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "ingest_records_consumed_total",
			Help:      "Total waveform-metadata records read from the source topic.",
		}),
		RecordsIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "ingest_records_indexed_total",
			Help:      "Total records merged into per-event waveform indexes.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seismic_project",
			Name:      "ingest_decode_errors_total",
			Help:      "Total records skipped because they could not be decoded.",
		}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "seismic_project",
			Name:      "ingest_running",
			Help:      "1 when the ingest loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.StationResolutions,
		m.UnresolvedStations,
		m.QueryDuration,
		m.InventoryLookups,
		m.FDSNRequests,
		m.FDSNDuration,
		m.RecordsConsumed,
		m.RecordsIndexed,
		m.DecodeErrors,
		m.IngestRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		StationResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_project", Name: "station_resolutions_total"}, []string{"tier"}),
		UnresolvedStations: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_project", Name: "unresolved_stations_total"}),
		QueryDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_project", Name: "station_query_duration_seconds"}),
		InventoryLookups:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_project", Name: "inventory_lookups_total"}, []string{"result"}),
		FDSNRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "seismic_project", Name: "fdsn_requests_total"}, []string{"outcome"}),
		FDSNDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "seismic_project", Name: "fdsn_request_duration_seconds"}),
		RecordsConsumed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_project", Name: "ingest_records_consumed_total"}),
		RecordsIndexed:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_project", Name: "ingest_records_indexed_total"}),
		DecodeErrors:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "seismic_project", Name: "ingest_decode_errors_total"}),
		IngestRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "seismic_project", Name: "ingest_running"}),
	}
}
