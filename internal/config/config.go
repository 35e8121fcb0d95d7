package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ProjectRoot string
	ProjectInit bool
	ProjectName string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Remote station service (FDSN station web service).
	FDSNBaseURL string
	FDSNTimeout time.Duration

	// Inventory coordinate cache (sqlite file).
	InventoryDBPath string

	// Waveform-metadata ingest feed.
	IngestEnabled    bool
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaGroupID     string
	BatchSize        int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fdsnTimeout, err := parseDuration("FDSN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	batchSize, err := parsePositiveInt("BATCH_SIZE", 50)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ProjectRoot: envOrDefault("PROJECT_ROOT", "./project"),
		ProjectInit: envOrDefault("PROJECT_INIT", "false") == "true",
		ProjectName: envOrDefault("PROJECT_NAME", "SeismicProject"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FDSNBaseURL: envOrDefault("FDSN_BASE_URL", "https://service.iris.edu"),
		FDSNTimeout: fdsnTimeout,

		InventoryDBPath: os.Getenv("INVENTORY_DB_PATH"),

		IngestEnabled:    envOrDefault("INGEST_ENABLED", "false") == "true",
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic: envOrDefault("KAFKA_SOURCE_TOPIC", "raw-waveform-metadata"),
		KafkaGroupID:     envOrDefault("KAFKA_GROUP_ID", "seismic-project-service"),
		BatchSize:        batchSize,
	}

	if cfg.ProjectRoot == "" {
		return nil, errors.New("PROJECT_ROOT is required")
	}
	if cfg.FDSNBaseURL == "" {
		return nil, errors.New("FDSN_BASE_URL is required")
	}
	if cfg.InventoryDBPath == "" {
		cfg.InventoryDBPath = filepath.Join(cfg.ProjectRoot, "station_inventory.sqlite")
	}
	if cfg.IngestEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("INGEST_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("INGEST_ENABLED is true but KAFKA_SOURCE_TOPIC is not set")
		}
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
