package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-practice/internal/model"
)

// MonitorRepository provides the aggregate reads behind the practice monitor.
type MonitorRepository struct {
	pool *pgxpool.Pool
}

// NewMonitorRepository creates a new MonitorRepository.
func NewMonitorRepository(pool *pgxpool.Pool) *MonitorRepository {
	return &MonitorRepository{pool: pool}
}

// CategoryStats aggregates results completed at or after since, per category.
func (r *MonitorRepository) CategoryStats(ctx context.Context, since time.Time) ([]model.CategoryStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*), COALESCE(AVG(score), 0)::float8, COALESCE(AVG(total_time), 0)::float8
		 FROM practice_results
		 WHERE completed_at >= $1
		 GROUP BY category
		 ORDER BY category`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]model.CategoryStat, 0)
	for rows.Next() {
		var s model.CategoryStat
		if err := rows.Scan(&s.Category, &s.Attempts, &s.AverageScore, &s.AverageTime); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CountCompletedSince returns how many results were completed at or after since.
func (r *MonitorRepository) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM practice_results WHERE completed_at >= $1`, since,
	).Scan(&n)
	return n, err
}
