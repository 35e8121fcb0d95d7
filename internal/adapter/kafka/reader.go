// Package kafka adapts the waveform-metadata ingest feed to the domain
// types consumed by the ingest loop.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/seismic-project-service/internal/config"
	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// Reader consumes raw channel records from the source topic.
// It implements ingest.BatchExtractor.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{reader: r, logger: logger}
}

// ExtractBatch reads up to batchSize records. The first fetch blocks until a
// message arrives or ctx is cancelled; the remainder of the batch is drained
// with a short deadline so partial batches flush promptly.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error) {
	first, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}

	batch := make([]domain.RawRecord, 0, batchSize)
	batch = append(batch, mapMessage(first, r.commitFunc(first)))

	for len(batch) < batchSize {
		fetchCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			// Return what we have; the ingest loop commits these before the
			// error surfaces on the next extract.
			break
		}
		batch = append(batch, mapMessage(msg, r.commitFunc(msg)))
	}
	return batch, nil
}

// Close closes the underlying consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

func (r *Reader) commitFunc(msg kafkago.Message) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
}

// mapMessage converts a Kafka message into a domain record.
func mapMessage(msg kafkago.Message, commit func(ctx context.Context) error) domain.RawRecord {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawRecord{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit:    commit,
	}
}
