package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/model"
)

// ResultPublisher hands a completed session's result off for durable storage.
type ResultPublisher interface {
	Publish(ctx context.Context, rec model.PracticeResultRecord) error
}

// QueueResultPublisher pushes results onto the Redis queue drained by ResultWorker.
type QueueResultPublisher struct {
	rdb *redis.Client
}

// NewQueueResultPublisher creates a new QueueResultPublisher.
func NewQueueResultPublisher(rdb *redis.Client) *QueueResultPublisher {
	return &QueueResultPublisher{rdb: rdb}
}

func (p *QueueResultPublisher) Publish(ctx context.Context, rec model.PracticeResultRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := p.rdb.RPush(ctx, config.WorkerKey.PersistPracticeResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("enqueue result: %w", err)
	}
	return nil
}

// ResultWriter is the single-row insert of the result repository.
type ResultWriter interface {
	Insert(ctx context.Context, rec *model.PracticeResultRecord) error
}

// DirectResultPublisher writes results straight to the database. Used when no
// Redis queue is configured.
type DirectResultPublisher struct {
	writer ResultWriter
}

// NewDirectResultPublisher creates a new DirectResultPublisher.
func NewDirectResultPublisher(writer ResultWriter) *DirectResultPublisher {
	return &DirectResultPublisher{writer: writer}
}

func (p *DirectResultPublisher) Publish(ctx context.Context, rec model.PracticeResultRecord) error {
	if err := p.writer.Insert(ctx, &rec); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}
