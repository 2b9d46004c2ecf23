package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-practice/internal/model"
)

// PracticeResultRepository stores denormalized results of completed sessions.
type PracticeResultRepository struct {
	pool *pgxpool.Pool
}

// NewPracticeResultRepository creates a new PracticeResultRepository.
func NewPracticeResultRepository(pool *pgxpool.Pool) *PracticeResultRepository {
	return &PracticeResultRepository{pool: pool}
}

var practiceResultColumns = []string{
	"id", "owner_id", "session_id", "category", "total_questions", "correct_answers",
	"unanswered", "score", "total_time", "started_at", "completed_at",
}

// BulkInsert copies a batch in one round trip. Any duplicate session fails the batch.
func (r *PracticeResultRepository) BulkInsert(ctx context.Context, batch []model.PracticeResultRecord) error {
	rows := make([][]any, 0, len(batch))
	for _, rec := range batch {
		rows = append(rows, []any{
			rec.ID, rec.OwnerID, rec.SessionID, rec.Category, rec.TotalQuestions, rec.CorrectAnswers,
			rec.Unanswered, rec.Score, rec.TotalTime, rec.StartedAt, rec.CompletedAt,
		})
	}

	_, err := r.pool.CopyFrom(ctx,
		pgx.Identifier{"practice_results"},
		practiceResultColumns,
		pgx.CopyFromRows(rows),
	)
	return err
}

// Insert stores one result; a result already stored for the session is kept.
func (r *PracticeResultRepository) Insert(ctx context.Context, rec *model.PracticeResultRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO practice_results (id, owner_id, session_id, category, total_questions, correct_answers,
		                               unanswered, score, total_time, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (session_id) DO NOTHING`,
		rec.ID, rec.OwnerID, rec.SessionID, rec.Category, rec.TotalQuestions, rec.CorrectAnswers,
		rec.Unanswered, rec.Score, rec.TotalTime, rec.StartedAt, rec.CompletedAt,
	)
	return err
}

// ListByOwner returns a page of an owner's results, most recent first, and the total count.
func (r *PracticeResultRepository) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]model.PracticeResultRecord, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM practice_results WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, session_id, category, total_questions, correct_answers,
		        unanswered, score, total_time, started_at, completed_at
		 FROM practice_results
		 WHERE owner_id = $1
		 ORDER BY completed_at DESC
		 LIMIT $2 OFFSET $3`,
		ownerID, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	records := make([]model.PracticeResultRecord, 0)
	for rows.Next() {
		var rec model.PracticeResultRecord
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.SessionID, &rec.Category, &rec.TotalQuestions,
			&rec.CorrectAnswers, &rec.Unanswered, &rec.Score, &rec.TotalTime, &rec.StartedAt, &rec.CompletedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
