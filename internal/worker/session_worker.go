package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/persist"
	"github.com/paperdrill/paperdrill-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionWorker consumes the session persist queue and UPSERTs snapshots to
// PostgreSQL. The queue carries full snapshots, so replays and reorderings
// converge on the latest state.
type SessionWorker struct {
	sessions *repository.SessionRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewSessionWorker creates a new SessionWorker.
func NewSessionWorker(sessions *repository.SessionRepository, rdb *redis.Client, log zerolog.Logger) *SessionWorker {
	return &SessionWorker{
		sessions: sessions,
		rdb:      rdb,
		log:      log.With().Str("component", "session_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SessionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SessionWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistSessionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	if err := w.persistEnvelope(ctx, []byte(result[1])); err != nil {
		w.log.Error().Err(err).Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistSessionsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SessionWorker) persistEnvelope(ctx context.Context, raw []byte) error {
	var env persist.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// A payload that cannot be decoded will never succeed; log and drop.
		w.log.Error().Err(err).Msg("Unmarshal error, dropping payload")
		return nil
	}
	if env.Snapshot == nil {
		w.log.Error().Msg("Envelope without snapshot, dropping payload")
		return nil
	}
	return w.sessions.Upsert(ctx, env.Snapshot)
}

// drain processes all remaining items in the queue before shutdown.
func (w *SessionWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistSessionsQueue).Result()
		if err != nil {
			break
		}

		if err := w.persistEnvelope(ctx, []byte(result)); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistSessionsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
