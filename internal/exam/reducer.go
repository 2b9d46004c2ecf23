package exam

import (
	"github.com/stemsi/exstem-practice/internal/model"
)

// Reduce applies a to s and returns the next state. It performs no I/O and never
// modifies s. Stale actions (nothing loaded, session completed, unknown ids) return
// s unchanged; navigation indexes are clamped into range.
func Reduce(s State, a Action) State {
	if init, ok := a.(Init); ok {
		return initState(init)
	}
	if !s.Loaded() {
		return s
	}

	switch act := a.(type) {
	case SelectAnswer:
		return selectAnswer(s, act)
	case NextQuestion:
		return navigate(s, s.Session.CurrentIndex+1)
	case PrevQuestion:
		return navigate(s, s.Session.CurrentIndex-1)
	case JumpToQuestion:
		return navigate(s, act.Index)
	case ToggleMarkReview:
		return toggleMark(s, act.QuestionID)
	case CheckAnswer:
		return checkAnswer(s)
	case ShowHint:
		s.ShowHint = true
	case HideHint:
		s.ShowHint = false
	case ShowExplanation:
		s.ShowExplanation = true
	case HideExplanation:
		s.ShowExplanation = false
	case TickTimer:
		if s.Session.InProgress() {
			s.CurrentTimer++
		}
	case CompleteExam:
		return complete(s, act)
	case ResetQuestionState:
		return resetQuestionFlags(s)
	}
	return s
}

func initState(a Init) State {
	session := a.Session.Clone()
	if session.CurrentIndex < 0 || session.CurrentIndex >= len(session.QuestionIDs) {
		session.CurrentIndex = 0
	}
	return State{
		Session:      session,
		Questions:    append([]model.Question(nil), a.Questions...),
		CurrentTimer: session.TimePerQuestion[session.CurrentQuestionID()],
	}
}

func selectAnswer(s State, a SelectAnswer) State {
	if !s.Session.InProgress() || a.ChoiceID == "" {
		return s
	}
	if !containsID(s.Session.QuestionIDs, a.QuestionID) {
		return s
	}
	if q, ok := s.Question(a.QuestionID); ok && !q.HasChoice(a.ChoiceID) {
		return s
	}

	s.Session = s.Session.Clone()
	s.Session.Answers[a.QuestionID] = a.ChoiceID
	s.AnswerChecked = false
	s.IsCorrect = nil
	s.ShowExplanation = false
	return s
}

// navigate commits the running timer to the question being left and restores the
// timer of the target question.
func navigate(s State, target int) State {
	if !s.Session.InProgress() {
		return s
	}
	last := len(s.Session.QuestionIDs) - 1
	target = max(0, min(target, last))

	session := s.Session.Clone()
	session.TimePerQuestion[session.CurrentQuestionID()] = s.CurrentTimer
	session.CurrentIndex = target

	s.Session = session
	s.CurrentTimer = session.TimePerQuestion[session.QuestionIDs[target]]
	return resetQuestionFlags(s)
}

func toggleMark(s State, questionID string) State {
	if !s.Session.InProgress() || !containsID(s.Session.QuestionIDs, questionID) {
		return s
	}

	session := s.Session.Clone()
	if session.IsMarked(questionID) {
		kept := session.MarkedForReview[:0]
		for _, id := range session.MarkedForReview {
			if id != questionID {
				kept = append(kept, id)
			}
		}
		session.MarkedForReview = kept
	} else {
		session.MarkedForReview = append(session.MarkedForReview, questionID)
	}
	s.Session = session
	return s
}

func checkAnswer(s State) State {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s
	}
	choiceID, answered := s.Session.Answer(q.ID)
	if !answered {
		return s
	}

	correctID, _ := q.CorrectChoiceID()
	correct := correctID != "" && choiceID == correctID
	s.AnswerChecked = true
	s.IsCorrect = &correct
	return s
}

func complete(s State, a CompleteExam) State {
	if !s.Session.InProgress() {
		return s
	}

	session := s.Session.Clone()
	session.TimePerQuestion[session.CurrentQuestionID()] = s.CurrentTimer
	session.Status = model.PracticeStatusCompleted
	at := a.At
	session.CompletedAt = &at
	s.Session = session
	return s
}

func resetQuestionFlags(s State) State {
	s.ShowHint = false
	s.ShowExplanation = false
	s.AnswerChecked = false
	s.IsCorrect = nil
	return s
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
