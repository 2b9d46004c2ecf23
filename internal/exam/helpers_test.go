package exam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// makeQuestions builds n questions q1..qn whose correct choice is always "b".
func makeQuestions(n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		id := fmt.Sprintf("q%d", i+1)
		qs[i] = model.Question{
			ID:       id,
			Question: "Question " + id,
			Choices: []model.QuestionChoice{
				{ID: "a", Text: "wrong"},
				{ID: "b", Text: "right", IsCorrect: true},
				{ID: "c", Text: "also wrong"},
			},
			Hint:        "hint " + id,
			Explanation: "because " + id,
			Category:    model.CategoryMathematics,
			Difficulty:  model.DifficultyEasy,
			Type:        model.QuestionTypeMultipleChoice,
			Status:      model.QuestionStatusPublished,
		}
	}
	return qs
}

func makeSession(questions []model.Question) model.PracticeSession {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return model.PracticeSession{
		ID:              "exam_1772355600000_abc1234",
		Category:        model.CategoryMathematics,
		QuestionIDs:     ids,
		Answers:         map[string]string{},
		MarkedForReview: []string{},
		TimePerQuestion: map[string]int{},
		StartedAt:       t0,
		Status:          model.PracticeStatusInProgress,
	}
}

func loadedState(n int) State {
	qs := makeQuestions(n)
	return Reduce(State{}, Init{Session: makeSession(qs), Questions: qs})
}

// recordingStore is an in-memory SessionStore that counts writes.
type recordingStore struct {
	mu        sync.Mutex
	saves     int
	clears    int
	session   *model.PracticeSession
	questions []model.Question
	saved     chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{saved: make(chan struct{}, 64)}
}

func (r *recordingStore) Save(_ context.Context, session model.PracticeSession, questions []model.Question) {
	r.mu.Lock()
	s := session.Clone()
	r.session = &s
	r.questions = questions
	r.saves++
	r.mu.Unlock()
	select {
	case r.saved <- struct{}{}:
	default:
	}
}

func (r *recordingStore) Load(context.Context) (model.PracticeSession, []model.Question, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || !r.session.InProgress() {
		r.session, r.questions = nil, nil
		return model.PracticeSession{}, nil, false
	}
	return r.session.Clone(), r.questions, true
}

func (r *recordingStore) Clear(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session, r.questions = nil, nil
	r.clears++
}

func (r *recordingStore) snapshot() (saves int, session *model.PracticeSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return r.saves, nil
	}
	s := r.session.Clone()
	return r.saves, &s
}

// waitSave blocks until the store records a write or the timeout passes.
func (r *recordingStore) waitSave(timeout time.Duration) bool {
	select {
	case <-r.saved:
		return true
	case <-time.After(timeout):
		return false
	}
}
