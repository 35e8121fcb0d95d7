// Package ingest runs the waveform-metadata ingest loop: it consumes channel
// records from the source feed and merges them into the per-event waveform
// indexes the query layer reads.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
	"github.com/couchcryptid/seismic-project-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw records from the source feed.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRecord, error)
}

// Indexer merges channel entries into an event's waveform index.
type Indexer interface {
	AddRecords(eventName string, records []domain.ChannelMeta) error
}

// Ingester orchestrates the extract-decode-index loop.
type Ingester struct {
	extractor BatchExtractor
	indexer   Indexer
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	batchSize int
}

// New creates an Ingester with the given stages and observability.
func New(extractor BatchExtractor, indexer Indexer, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Ingester {
	return &Ingester{
		extractor: extractor,
		indexer:   indexer,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil once at least one record has been indexed.
func (i *Ingester) CheckReadiness(_ context.Context) error {
	if !i.ready.Load() {
		return errors.New("ingest has not indexed any records yet")
	}
	return nil
}

// Run executes the ingest loop until the context is cancelled.
func (i *Ingester) Run(ctx context.Context) error {
	i.logger.Info("ingest started", "batch_size", i.batchSize)
	i.metrics.IngestRunning.Set(1)
	defer i.metrics.IngestRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			i.logger.Info("ingest stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !i.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-decode-index cycle. Returns false if the
// loop should stop.
func (i *Ingester) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	batch, err := i.extractor.ExtractBatch(ctx, i.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		i.logger.Error("extract batch failed", "error", err)
		return i.backoffOrStop(ctx, backoff, maxBackoff)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	i.metrics.RecordsConsumed.Add(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	// Decode and group by event; undecodable records are committed and
	// skipped so one bad message cannot wedge the partition.
	byEvent := make(map[string][]domain.ChannelMeta)
	good := make([]domain.RawRecord, 0, len(batch))
	for _, raw := range batch {
		rec, err := domain.ParseRawRecord(raw)
		if err != nil {
			i.logger.Warn("decode failed, skipping record",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			i.metrics.DecodeErrors.Inc()
			i.commit(ctx, raw)
			continue
		}
		byEvent[rec.Event] = append(byEvent[rec.Event], rec.ChannelMeta)
		good = append(good, raw)
	}
	if len(byEvent) == 0 {
		return true
	}

	indexed := 0
	for event, records := range byEvent {
		if err := i.indexer.AddRecords(event, records); err != nil {
			// Nothing is committed: the whole batch is redelivered and the
			// index merge deduplicates on replay.
			i.logger.Error("index batch failed", "error", err, "event", event)
			return i.backoffOrStop(ctx, backoff, maxBackoff)
		}
		indexed += len(records)
	}

	i.metrics.RecordsIndexed.Add(float64(indexed))
	for _, raw := range good {
		i.commit(ctx, raw)
	}
	i.ready.Store(true)
	return true
}

// backoffOrStop sleeps with the current backoff and advances it. Returns
// false if the loop should stop.
func (i *Ingester) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

func (i *Ingester) commit(ctx context.Context, raw domain.RawRecord) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		i.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
