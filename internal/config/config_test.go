package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./project", cfg.ProjectRoot)
	assert.False(t, cfg.ProjectInit)
	assert.Equal(t, "SeismicProject", cfg.ProjectName)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://service.iris.edu", cfg.FDSNBaseURL)
	assert.Equal(t, 10*time.Second, cfg.FDSNTimeout)
	assert.Equal(t, filepath.Join("./project", "station_inventory.sqlite"), cfg.InventoryDBPath)
	assert.False(t, cfg.IngestEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-waveform-metadata", cfg.KafkaSourceTopic)
	assert.Equal(t, "seismic-project-service", cfg.KafkaGroupID)
	assert.Equal(t, 50, cfg.BatchSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PROJECT_ROOT", "/srv/turkey-inversion")
	t.Setenv("PROJECT_INIT", "true")
	t.Setenv("PROJECT_NAME", "TurkeyInversion")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FDSN_BASE_URL", "https://fdsn.example.org")
	t.Setenv("FDSN_TIMEOUT", "5s")
	t.Setenv("INVENTORY_DB_PATH", "/var/lib/inventory.sqlite")
	t.Setenv("INGEST_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-metadata")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("BATCH_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/turkey-inversion", cfg.ProjectRoot)
	assert.True(t, cfg.ProjectInit)
	assert.Equal(t, "TurkeyInversion", cfg.ProjectName)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://fdsn.example.org", cfg.FDSNBaseURL)
	assert.Equal(t, 5*time.Second, cfg.FDSNTimeout)
	assert.Equal(t, "/var/lib/inventory.sqlite", cfg.InventoryDBPath)
	assert.True(t, cfg.IngestEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-metadata", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, 100, cfg.BatchSize)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "-5")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_IngestRequiresBrokers(t *testing.T) {
	t.Setenv("INGEST_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
