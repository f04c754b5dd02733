package worker

import (
	"context"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ArchiveBatchSize    = 50
	ArchiveBatchTimeout = 2 * time.Second
	ArchivePollTimeout  = 1 * time.Second
)

// ArchiveWorker drains terminal session ids from the Redis queue and moves
// the rows into the audit archive table in batches. Losing a queue entry is
// harmless: the row just stays in the hot table until re-enqueued.
type ArchiveWorker struct {
	sessions *repository.SessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(sessions *repository.SessionRepository, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "archive_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs the worker loop until ctx is cancelled. The final batch is
// flushed with a background context during shutdown.
func (w *ArchiveWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ArchiveWorker started")

	batch := make([]uuid.UUID, 0, ArchiveBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= ArchiveBatchSize || time.Since(lastFlush) >= ArchiveBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ArchivePollTimeout, config.WorkerKey.ArchiveSessionsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			id, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Str("raw", item[1]).Msg("Invalid session id in archive queue")
				continue
			}

			batch = append(batch, id)
		}
	}
}

// flushSafe archives a batch; failed batches are requeued entry by entry so
// a poison id cannot wedge the queue forever.
func (w *ArchiveWorker) flushSafe(ctx context.Context, batch []uuid.UUID) {
	if len(batch) == 0 {
		return
	}

	moved, err := w.sessions.ArchiveBatch(ctx, batch)
	if err != nil {
		w.log.Warn().Err(err).Int("batch", len(batch)).Msg("Archive batch failed — requeueing")
		for _, id := range batch {
			w.rdb.RPush(ctx, config.WorkerKey.ArchiveSessionsQueue, id.String())
		}
		return
	}

	w.log.Info().Int64("archived", moved).Int("batch", len(batch)).Msg("Sessions archived")
}
