package model

import (
	"time"

	"github.com/google/uuid"
)

// PracticeResult is the scoring summary of a session. It is derived on demand.
type PracticeResult struct {
	TotalQuestions       int      `json:"total_questions"`
	CorrectAnswers       int      `json:"correct_answers"`
	IncorrectAnswers     int      `json:"incorrect_answers"`
	Unanswered           int      `json:"unanswered"`
	Score                float64  `json:"score"`
	TotalTime            int      `json:"total_time"`
	MarkedForReview      []string `json:"marked_for_review"`
	IncorrectQuestionIDs []string `json:"incorrect_question_ids"`
}

// PracticeResultRecord is the denormalized copy of a completed session's result
// kept for history listings.
type PracticeResultRecord struct {
	ID             uuid.UUID        `json:"id"`
	OwnerID        string           `json:"owner_id"`
	SessionID      string           `json:"session_id"`
	Category       QuestionCategory `json:"category"`
	TotalQuestions int              `json:"total_questions"`
	CorrectAnswers int              `json:"correct_answers"`
	Unanswered     int              `json:"unanswered"`
	Score          float64          `json:"score"`
	TotalTime      int              `json:"total_time"`
	StartedAt      time.Time        `json:"started_at"`
	CompletedAt    time.Time        `json:"completed_at"`
}

// ReviewFilter selects which questions a review listing includes.
type ReviewFilter string

const (
	ReviewAll       ReviewFilter = "all"
	ReviewIncorrect ReviewFilter = "incorrect"
	ReviewMarked    ReviewFilter = "marked"
)

// ReviewItem pairs a question with the user's answer for post-exam review.
type ReviewItem struct {
	Index           int      `json:"index"`
	Question        Question `json:"question"`
	UserChoiceID    string   `json:"user_choice_id,omitempty"`
	CorrectChoiceID string   `json:"correct_choice_id"`
	IsCorrect       bool     `json:"is_correct"`
	Answered        bool     `json:"answered"`
	Marked          bool     `json:"marked"`
	TimeSpent       int      `json:"time_spent"`
}

// CategoryStat aggregates stored results of one category.
type CategoryStat struct {
	Category     QuestionCategory `json:"category"`
	Attempts     int64            `json:"attempts"`
	AverageScore float64          `json:"average_score"`
	AverageTime  float64          `json:"average_time"`
}
