package exam

import (
	"math"

	"github.com/stemsi/exstem-practice/internal/model"
)

// State is the live exam state: the session aggregate plus per-question UI flags
// that are never persisted.
type State struct {
	Session         model.PracticeSession `json:"session"`
	Questions       []model.Question      `json:"questions"`
	CurrentTimer    int                   `json:"current_timer"`
	ShowHint        bool                  `json:"show_hint"`
	ShowExplanation bool                  `json:"show_explanation"`
	AnswerChecked   bool                  `json:"answer_checked"`
	IsCorrect       *bool                 `json:"is_correct"`
}

// Loaded reports whether a session with at least one question is held.
func (s State) Loaded() bool {
	return s.Session.ID != "" && len(s.Session.QuestionIDs) > 0
}

// Question looks up a question of the session by id.
func (s State) Question(id string) (model.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return model.Question{}, false
}

// CurrentQuestionID returns the id under the cursor, or "" when nothing is loaded.
func (s State) CurrentQuestionID() string {
	return s.Session.CurrentQuestionID()
}

// CurrentQuestion returns the question under the cursor.
func (s State) CurrentQuestion() (model.Question, bool) {
	id := s.CurrentQuestionID()
	if id == "" {
		return model.Question{}, false
	}
	return s.Question(id)
}

func (s State) IsFirstQuestion() bool {
	return s.Session.CurrentIndex == 0
}

func (s State) IsLastQuestion() bool {
	return s.Session.CurrentIndex == len(s.Session.QuestionIDs)-1
}

// AnsweredCount is the number of questions with a recorded answer.
func (s State) AnsweredCount() int {
	return len(s.Session.Answers)
}

// Progress is the answered share of the session as a whole percentage.
func (s State) Progress() int {
	total := len(s.Session.QuestionIDs)
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(s.AnsweredCount()) / float64(total) * 100))
}

// Clone returns a copy whose session shares no maps or slices with s.
// Questions are immutable for the session lifetime and only the slice header is copied.
func (s State) Clone() State {
	out := s
	out.Session = s.Session.Clone()
	out.Questions = append([]model.Question(nil), s.Questions...)
	if s.IsCorrect != nil {
		v := *s.IsCorrect
		out.IsCorrect = &v
	}
	return out
}

// NavStatus is how a question is shown in the navigation grid.
type NavStatus string

const (
	NavCurrent    NavStatus = "current"
	NavAnswered   NavStatus = "answered"
	NavUnanswered NavStatus = "unanswered"
)

// NavEntry describes one question in the navigation grid.
type NavEntry struct {
	Index      int       `json:"index"`
	QuestionID string    `json:"question_id"`
	Status     NavStatus `json:"status"`
	Marked     bool      `json:"marked"`
}

// QuestionNavStatus classifies questionID relative to the cursor.
func QuestionNavStatus(questionID string, session model.PracticeSession) (NavStatus, bool) {
	marked := session.IsMarked(questionID)
	if session.CurrentQuestionID() == questionID {
		return NavCurrent, marked
	}
	if _, ok := session.Answer(questionID); ok {
		return NavAnswered, marked
	}
	return NavUnanswered, marked
}

// Navigation builds the navigation grid for the whole session.
func (s State) Navigation() []NavEntry {
	entries := make([]NavEntry, 0, len(s.Session.QuestionIDs))
	for i, id := range s.Session.QuestionIDs {
		status, marked := QuestionNavStatus(id, s.Session)
		entries = append(entries, NavEntry{Index: i, QuestionID: id, Status: status, Marked: marked})
	}
	return entries
}
