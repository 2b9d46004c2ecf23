package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

// MonitorStats is the aggregate read side of the result history.
type MonitorStats interface {
	CategoryStats(ctx context.Context, since time.Time) ([]model.CategoryStat, error)
	CountCompletedSince(ctx context.Context, since time.Time) (int64, error)
}

// MonitorService orchestrates the practice monitor: live attempts from memory
// plus result aggregates from the database.
type MonitorService struct {
	practice *PracticeService
	stats    MonitorStats
	now      func() time.Time
}

// NewMonitorService creates a new MonitorService. stats may be nil.
func NewMonitorService(practice *PracticeService, stats MonitorStats) *MonitorService {
	return &MonitorService{practice: practice, stats: stats, now: time.Now}
}

// MonitorSnapshot is one frame of the practice monitor.
type MonitorSnapshot struct {
	GeneratedAt    time.Time            `json:"generated_at"`
	LiveCount      int                  `json:"live_count"`
	Live           []LiveSession        `json:"live"`
	CompletedToday int64                `json:"completed_today"`
	Categories     []model.CategoryStat `json:"categories"`
}

// Snapshot gathers live attempts and today's aggregates. The two database reads
// run in parallel; category stats are best-effort.
func (s *MonitorService) Snapshot(ctx context.Context) (*MonitorSnapshot, error) {
	now := s.now()
	snapshot := &MonitorSnapshot{
		GeneratedAt: now,
		Live:        s.practice.Active(),
		Categories:  []model.CategoryStat{},
	}
	snapshot.LiveCount = len(snapshot.Live)

	if s.stats == nil {
		return snapshot, nil
	}

	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var (
		completed    int64
		categories   []model.CategoryStat
		completedErr error
		statsErr     error
		wg           sync.WaitGroup
	)

	wg.Go(func() {
		completed, completedErr = s.stats.CountCompletedSince(ctx, since)
	})
	wg.Go(func() {
		categories, statsErr = s.stats.CategoryStats(ctx, since)
	})
	wg.Wait()

	if completedErr != nil {
		return nil, fmt.Errorf("count completed: %w", completedErr)
	}
	snapshot.CompletedToday = completed
	if statsErr == nil && categories != nil {
		snapshot.Categories = categories
	}
	return snapshot, nil
}
