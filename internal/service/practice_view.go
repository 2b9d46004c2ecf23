package service

import (
	"time"

	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/model"
)

// ChoiceView is a choice as shown to the test taker.
type ChoiceView struct {
	ID        string `json:"id"`
	Letter    string `json:"letter"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionView is the question under the cursor. Correctness, hint and
// explanation are withheld until the state reveals them.
type QuestionView struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	QuestionImage  string       `json:"question_image,omitempty"`
	Choices        []ChoiceView `json:"choices"`
	HasHint        bool         `json:"has_hint"`
	Hint           string       `json:"hint,omitempty"`
	HasExplanation bool         `json:"has_explanation"`
	Explanation    string       `json:"explanation,omitempty"`
	SelectedID     string       `json:"selected_choice_id,omitempty"`
	Marked         bool         `json:"marked"`
}

// StateView is the client-facing rendition of an exam.State.
type StateView struct {
	SessionID       string                   `json:"session_id"`
	Category        model.QuestionCategory   `json:"category"`
	CategoryName    string                   `json:"category_name"`
	Difficulty      model.QuestionDifficulty `json:"difficulty,omitempty"`
	Status          model.PracticeStatus     `json:"status"`
	StartedAt       time.Time                `json:"started_at"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	CurrentIndex    int                      `json:"current_index"`
	TotalQuestions  int                      `json:"total_questions"`
	AnsweredCount   int                      `json:"answered_count"`
	Progress        int                      `json:"progress"`
	IsFirst         bool                     `json:"is_first"`
	IsLast          bool                     `json:"is_last"`
	CurrentTimer    int                      `json:"current_timer"`
	Clock           string                   `json:"clock"`
	ShowHint        bool                     `json:"show_hint"`
	ShowExplanation bool                     `json:"show_explanation"`
	AnswerChecked   bool                     `json:"answer_checked"`
	IsCorrect       *bool                    `json:"is_correct,omitempty"`
	Question        *QuestionView            `json:"question,omitempty"`
	Navigation      []exam.NavEntry          `json:"navigation"`
}

// NewStateView renders st for clients.
func NewStateView(st exam.State) StateView {
	s := st.Session
	v := StateView{
		SessionID:       s.ID,
		Category:        s.Category,
		CategoryName:    s.Category.DisplayName(),
		Difficulty:      s.Difficulty,
		Status:          s.Status,
		StartedAt:       s.StartedAt,
		CompletedAt:     s.CompletedAt,
		CurrentIndex:    s.CurrentIndex,
		TotalQuestions:  len(s.QuestionIDs),
		AnsweredCount:   st.AnsweredCount(),
		Progress:        st.Progress(),
		IsFirst:         st.IsFirstQuestion(),
		IsLast:          st.IsLastQuestion(),
		CurrentTimer:    st.CurrentTimer,
		Clock:           exam.FormatClock(st.CurrentTimer),
		ShowHint:        st.ShowHint,
		ShowExplanation: st.ShowExplanation,
		AnswerChecked:   st.AnswerChecked,
		IsCorrect:       st.IsCorrect,
		Navigation:      st.Navigation(),
	}

	q, ok := st.CurrentQuestion()
	if !ok {
		return v
	}

	reveal := st.AnswerChecked || !s.InProgress()
	selected, _ := s.Answer(q.ID)
	qv := &QuestionView{
		ID:             q.ID,
		Question:       q.Question,
		QuestionImage:  q.QuestionImage,
		Choices:        make([]ChoiceView, len(q.Choices)),
		HasHint:        q.Hint != "",
		HasExplanation: q.Explanation != "",
		SelectedID:     selected,
		Marked:         s.IsMarked(q.ID),
	}
	for i, c := range q.Choices {
		cv := ChoiceView{ID: c.ID, Letter: exam.ChoiceLetter(i), Text: c.Text}
		if reveal {
			correct := c.IsCorrect
			cv.IsCorrect = &correct
		}
		qv.Choices[i] = cv
	}
	if st.ShowHint {
		qv.Hint = q.Hint
	}
	if st.ShowExplanation {
		qv.Explanation = q.Explanation
	}
	v.Question = qv
	return v
}
