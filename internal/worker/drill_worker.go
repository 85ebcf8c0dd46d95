package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/model"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DrillBatchSize    = 50
	DrillBatchTimeout = 2 * time.Second
	DrillPollTimeout  = 1 * time.Second
)

// DrillWorker consumes the drill item queue and bulk-inserts flagged answers
// into the spaced-repetition table. Items arrive in bursts when a session
// ends, so inserts are batched.
type DrillWorker struct {
	drills *repository.DrillRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewDrillWorker creates a new DrillWorker.
func NewDrillWorker(drills *repository.DrillRepository, rdb *redis.Client, log zerolog.Logger) *DrillWorker {
	return &DrillWorker{
		drills: drills,
		rdb:    rdb,
		log:    log.With().Str("component", "drill_worker").Logger(),
	}
}

// Start begins the batching worker loop. Call in a goroutine.
func (w *DrillWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]model.DrillItemInput, 0, DrillBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= DrillBatchSize || time.Since(lastFlush) >= DrillBatchTimeout) {

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
			item, err := w.rdb.BLPop(ctx, DrillPollTimeout, config.WorkerKey.PersistDrillItemsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var in model.DrillItemInput
			if err := json.Unmarshal([]byte(item[1]), &in); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, in)
		}
	}
}

// flushSafe bulk-inserts a batch, falling back to per-item inserts when the
// bulk statement fails. Items that still fail are requeued.
func (w *DrillWorker) flushSafe(ctx context.Context, batch []model.DrillItemInput) {
	if len(batch) == 0 {
		return
	}

	if err := w.drills.BulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, using fallback")

		for i := range batch {
			if err := w.drills.InsertOne(ctx, &batch[i]); err != nil {
				w.log.Error().Err(err).Msg("Single insert failed, requeueing")
				raw, _ := json.Marshal(batch[i])
				w.rdb.RPush(ctx, config.WorkerKey.PersistDrillItemsQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("count", len(batch)).Msg("Drill batch inserted")
}
