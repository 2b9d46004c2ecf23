package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
	ResultMaxAttempts  = 5
)

// ResultStore is the write side of the result history.
type ResultStore interface {
	BulkInsert(ctx context.Context, batch []model.PracticeResultRecord) error
	Insert(ctx context.Context, rec *model.PracticeResultRecord) error
}

// ResultWorker drains completed practice results from Redis into PostgreSQL.
type ResultWorker struct {
	store ResultStore
	rdb   *redis.Client
	log   zerolog.Logger
}

func NewResultWorker(store ResultStore, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		store: store,
		rdb:   rdb,
		log:   log.With().Str("component", "result_worker").Logger(),
	}
}

// queuedResult is the queue payload. Attempts counts failed single inserts.
type queuedResult struct {
	model.PracticeResultRecord
	Attempts int `json:"attempts,omitempty"`
}

// Start pops results in batches until ctx is cancelled, then flushes what it holds.
func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]queuedResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining results...")
			w.flush(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistPracticeResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var p queuedResult
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Msg("Invalid result payload")
				continue
			}
			batch = append(batch, p)
		}
	}
}

// flush copies the batch in one round trip, falling back to row-by-row inserts.
// Rows that still fail go back on the queue until they run out of attempts.
func (w *ResultWorker) flush(ctx context.Context, batch []queuedResult) (failed []queuedResult) {
	if len(batch) == 0 {
		return nil
	}

	records := make([]model.PracticeResultRecord, len(batch))
	for i, p := range batch {
		records[i] = p.PracticeResultRecord
	}

	err := w.store.BulkInsert(ctx, records)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Practice results persisted")
		return nil
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk result insert failed, using fallback")

	for _, p := range batch {
		if err := w.store.Insert(ctx, &p.PracticeResultRecord); err != nil {
			p.Attempts++
			failed = append(failed, p)
			w.log.Error().Err(err).
				Str("session_id", p.SessionID).
				Int("attempts", p.Attempts).
				Msg("Result insert failed")
		}
	}
	w.requeue(ctx, failed)
	return failed
}

func (w *ResultWorker) requeue(ctx context.Context, failed []queuedResult) {
	if w.rdb == nil || len(failed) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	for _, p := range failed {
		if p.Attempts >= ResultMaxAttempts {
			w.log.Error().Str("session_id", p.SessionID).Msg("Dropping practice result after max attempts")
			continue
		}
		raw, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistPracticeResultsQueue, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("Requeue failed")
	}
}
