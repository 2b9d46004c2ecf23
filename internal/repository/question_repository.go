package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-practice/internal/model"
)

// DefaultPoolLimit caps the question pool of a practice session when none is given.
const DefaultPoolLimit = 50

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id::text, question, COALESCE(question_image, ''), choices, COALESCE(hint, ''),
	COALESCE(explanation, ''), category, difficulty, type, status, COALESCE(tags, '{}')`

// ListPublished returns published questions matching filter, newest first.
func (r *QuestionRepository) ListPublished(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPoolLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions
		 WHERE status = $1
		   AND ($2::text = '' OR category = $2::text)
		   AND ($3::text = '' OR difficulty = $3::text)
		   AND ($4::text = '' OR question ILIKE '%' || $4::text || '%')
		 ORDER BY created_at DESC
		 LIMIT $5`,
		model.QuestionStatusPublished, string(filter.Category), string(filter.Difficulty), filter.Search, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountPublishedByCategory returns the number of published questions per category.
func (r *QuestionRepository) CountPublishedByCategory(ctx context.Context) (map[model.QuestionCategory]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category, COUNT(*) FROM questions WHERE status = $1 GROUP BY category`,
		model.QuestionStatusPublished,
	)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.QuestionCategory]int)
	for rows.Next() {
		var cat model.QuestionCategory
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		counts[cat] = n
	}
	return counts, rows.Err()
}

// UpsertByExternalID inserts or refreshes the question imported under externalID
// and fills in its database id.
func (r *QuestionRepository) UpsertByExternalID(ctx context.Context, externalID string, q *model.Question) error {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return fmt.Errorf("marshal choices: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (external_id, question, question_image, choices, hint, explanation, category, difficulty, type, status, tags)
		 VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11)
		 ON CONFLICT (external_id) DO UPDATE
		 SET question = EXCLUDED.question,
		     question_image = EXCLUDED.question_image,
		     choices = EXCLUDED.choices,
		     hint = EXCLUDED.hint,
		     explanation = EXCLUDED.explanation,
		     category = EXCLUDED.category,
		     difficulty = EXCLUDED.difficulty,
		     type = EXCLUDED.type,
		     status = EXCLUDED.status,
		     tags = EXCLUDED.tags,
		     updated_at = NOW()
		 RETURNING id::text`,
		externalID, q.Question, q.QuestionImage, choices, q.Hint, q.Explanation,
		q.Category, q.Difficulty, q.Type, q.Status, q.Tags,
	).Scan(&q.ID)
}

func scanQuestion(row pgx.Row) (model.Question, error) {
	var q model.Question
	var choices []byte
	if err := row.Scan(&q.ID, &q.Question, &q.QuestionImage, &choices, &q.Hint,
		&q.Explanation, &q.Category, &q.Difficulty, &q.Type, &q.Status, &q.Tags); err != nil {
		return q, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(choices, &q.Choices); err != nil {
		return q, fmt.Errorf("decode choices of %s: %w", q.ID, err)
	}
	return q, nil
}
