package model

import "time"

// PracticeStatus enumerates practice session states. Transitions are forward-only.
type PracticeStatus string

const (
	PracticeStatusInProgress PracticeStatus = "in_progress"
	PracticeStatusCompleted  PracticeStatus = "completed"
)

// PracticeSession is one attempt at a shuffled set of practice questions.
type PracticeSession struct {
	ID              string             `json:"id"`
	Category        QuestionCategory   `json:"category"`
	Difficulty      QuestionDifficulty `json:"difficulty,omitempty"`
	QuestionIDs     []string           `json:"question_ids"`
	CurrentIndex    int                `json:"current_index"`
	Answers         map[string]string  `json:"answers"`
	MarkedForReview []string           `json:"marked_for_review"`
	TimePerQuestion map[string]int     `json:"time_per_question"`
	StartedAt       time.Time          `json:"started_at"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Status          PracticeStatus     `json:"status"`
}

// InProgress reports whether the session still accepts answers.
func (s *PracticeSession) InProgress() bool {
	return s.Status == PracticeStatusInProgress
}

// Answer returns the chosen choice for questionID and whether one was recorded.
func (s *PracticeSession) Answer(questionID string) (string, bool) {
	choiceID, ok := s.Answers[questionID]
	return choiceID, ok
}

// IsMarked reports whether questionID is flagged for review.
func (s *PracticeSession) IsMarked(questionID string) bool {
	for _, id := range s.MarkedForReview {
		if id == questionID {
			return true
		}
	}
	return false
}

// CurrentQuestionID returns the id at CurrentIndex, or "" for an empty session.
func (s *PracticeSession) CurrentQuestionID() string {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.QuestionIDs) {
		return ""
	}
	return s.QuestionIDs[s.CurrentIndex]
}

// Clone returns a deep copy that shares no maps or slices with s.
func (s PracticeSession) Clone() PracticeSession {
	out := s
	out.QuestionIDs = append([]string(nil), s.QuestionIDs...)
	out.MarkedForReview = append([]string(nil), s.MarkedForReview...)
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.TimePerQuestion = make(map[string]int, len(s.TimePerQuestion))
	for k, v := range s.TimePerQuestion {
		out.TimePerQuestion[k] = v
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		out.CompletedAt = &t
	}
	return out
}

// StartPracticeRequest is the payload for starting a new practice session.
type StartPracticeRequest struct {
	Category   string `json:"category" binding:"required,practice_category"`
	Difficulty string `json:"difficulty" binding:"omitempty,practice_difficulty"`
	Limit      int    `json:"limit" binding:"omitempty,min=1,max=200"`
}

// PracticeActionRequest is the payload for dispatching a transition.
type PracticeActionRequest struct {
	Type       string `json:"type" binding:"required,practice_action"`
	QuestionID string `json:"question_id" binding:"omitempty,max=64"`
	ChoiceID   string `json:"choice_id" binding:"omitempty,max=64"`
	Index      *int   `json:"index" binding:"omitempty,min=0"`
}
