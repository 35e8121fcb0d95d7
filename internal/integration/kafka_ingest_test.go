//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/seismic-project-service/internal/adapter/kafka"
	"github.com/couchcryptid/seismic-project-service/internal/config"
	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/ingest"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
	"github.com/couchcryptid/seismic-project-service/internal/store/waveforms"
)

const testSourceTopic = "raw-waveform-metadata"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.6.1",
		tckafka.WithClusterID("ingest-test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func channelPayload(t *testing.T, event, network, station, channelID string, lat, lon float64) []byte {
	t.Helper()
	payload, err := json.Marshal(domain.ChannelRecord{
		Event: event,
		ChannelMeta: domain.ChannelMeta{
			Network:   network,
			Station:   station,
			ChannelID: channelID,
			Coordinates: domain.Coordinates{
				Latitude:  domain.Float(lat),
				Longitude: domain.Float(lon),
			},
		},
	})
	require.NoError(t, err)
	return payload
}

// waitForIndex polls the waveform store until the event's index holds the
// expected number of channels.
func waitForIndex(ctx context.Context, t *testing.T, store *waveforms.Store, event string, want int) []domain.ChannelMeta {
	t.Helper()
	for {
		entries, err := store.RawMetadata(event)
		require.NoError(t, err)
		if len(entries) >= want {
			return entries
		}
		select {
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %d channels in %s index, have %d", want, event, len(entries))
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// TestIngestEndToEnd wires the Kafka reader and the ingester against a real
// broker and verifies that published channel records land in per-event
// waveform indices, with undecodable records skipped.
func TestIngestEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaGroupID:     fmt.Sprintf("test-ingest-%d", time.Now().UnixNano()),
	}

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{
			Key:   []byte("HL.ARG.00.BHZ"),
			Value: channelPayload(t, "quake_a", "HL", "ARG", "HL.ARG.00.BHZ", 36.216, 28.126),
		},
		kafkago.Message{
			Key:   []byte("not-json"),
			Value: []byte("not-json{{{"),
		},
		kafkago.Message{
			Key:   []byte("HL.ARG.00.BHN"),
			Value: channelPayload(t, "quake_a", "HL", "ARG", "HL.ARG.00.BHN", 36.216, 28.126),
		},
		kafkago.Message{
			Key:   []byte("GE.ISP..BHZ"),
			Value: channelPayload(t, "quake_b", "GE", "ISP", "GE.ISP..BHZ", 37.823, 30.512),
		},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	dataDir := t.TempDir()
	store := waveforms.NewStore(dataDir, discardLogger())

	metrics := observability.NewMetricsForTesting()
	ing := ingest.New(reader, store, discardLogger(), metrics, 50)

	ingestCtx, ingestCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ing.Run(ingestCtx) }()

	quakeA := waitForIndex(ctx, t, store, "quake_a", 2)
	quakeB := waitForIndex(ctx, t, store, "quake_b", 1)

	ingestCancel()
	require.NoError(t, <-errCh)

	channelIDs := []string{quakeA[0].ChannelID, quakeA[1].ChannelID}
	assert.ElementsMatch(t, []string{"HL.ARG.00.BHZ", "HL.ARG.00.BHN"}, channelIDs)
	for _, entry := range quakeA {
		assert.Equal(t, "HL", entry.Network)
		assert.Equal(t, "ARG", entry.Station)
		require.NotNil(t, entry.Latitude)
		assert.Equal(t, 36.216, *entry.Latitude)
	}

	assert.Equal(t, "GE.ISP..BHZ", quakeB[0].ChannelID)
	require.NotNil(t, quakeB[0].Longitude)
	assert.Equal(t, 30.512, *quakeB[0].Longitude)

	assert.NoError(t, ing.CheckReadiness(ctx), "ingester should be ready after a processed batch")
}

// TestIngestRedelivery verifies that replayed messages do not duplicate
// channels in an event index.
func TestIngestRedelivery(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	payload := channelPayload(t, "quake_a", "HL", "ARG", "HL.ARG.00.BHZ", 36.216, 28.126)
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("HL.ARG.00.BHZ"), Value: payload},
		kafkago.Message{Key: []byte("HL.ARG.00.BHZ"), Value: payload},
	))

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaSourceTopic: testSourceTopic,
		KafkaGroupID:     fmt.Sprintf("test-redelivery-%d", time.Now().UnixNano()),
	}
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	store := waveforms.NewStore(t.TempDir(), discardLogger())
	ing := ingest.New(reader, store, discardLogger(), observability.NewMetricsForTesting(), 50)

	ingestCtx, ingestCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- ing.Run(ingestCtx) }()

	waitForIndex(ctx, t, store, "quake_a", 1)

	// Give the second copy time to arrive, then confirm no duplicate.
	time.Sleep(3 * time.Second)
	entries, err := store.RawMetadata("quake_a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "HL.ARG.00.BHZ", entries[0].ChannelID)

	ingestCancel()
	require.NoError(t, <-errCh)
}
