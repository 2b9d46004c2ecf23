package exam

import (
	"reflect"
	"testing"

	"github.com/stemsi/exstem-practice/internal/model"
)

func TestCalculateResult(t *testing.T) {
	qs := makeQuestions(4)

	tests := []struct {
		name    string
		answers map[string]string
		marked  []string
		times   map[string]int
		want    model.PracticeResult
	}{
		{
			name: "nothing answered",
			want: model.PracticeResult{
				TotalQuestions:       4,
				Unanswered:           4,
				MarkedForReview:      []string{},
				IncorrectQuestionIDs: []string{"q1", "q2", "q3", "q4"},
			},
		},
		{
			name:    "one of four correct",
			answers: map[string]string{"q1": "b"},
			times:   map[string]int{"q1": 30, "q2": 12},
			want: model.PracticeResult{
				TotalQuestions:       4,
				CorrectAnswers:       1,
				Unanswered:           3,
				Score:                25,
				TotalTime:            42,
				MarkedForReview:      []string{},
				IncorrectQuestionIDs: []string{"q2", "q3", "q4"},
			},
		},
		{
			name:    "mixed",
			answers: map[string]string{"q1": "b", "q2": "a", "q3": "b", "q4": "c"},
			marked:  []string{"q4", "q2"},
			want: model.PracticeResult{
				TotalQuestions:       4,
				CorrectAnswers:       2,
				IncorrectAnswers:     2,
				Score:                50,
				MarkedForReview:      []string{"q4", "q2"},
				IncorrectQuestionIDs: []string{"q2", "q4"},
			},
		},
		{
			name:    "all correct",
			answers: map[string]string{"q1": "b", "q2": "b", "q3": "b", "q4": "b"},
			want: model.PracticeResult{
				TotalQuestions:       4,
				CorrectAnswers:       4,
				Score:                100,
				MarkedForReview:      []string{},
				IncorrectQuestionIDs: []string{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := makeSession(qs)
			if tt.answers != nil {
				session.Answers = tt.answers
			}
			if tt.marked != nil {
				session.MarkedForReview = tt.marked
			}
			if tt.times != nil {
				session.TimePerQuestion = tt.times
			}

			got := CalculateResult(session, qs)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CalculateResult =\n %+v\nwant\n %+v", got, tt.want)
			}
			if got.CorrectAnswers+got.IncorrectAnswers+got.Unanswered != got.TotalQuestions {
				t.Errorf("counts do not add up: %+v", got)
			}
		})
	}
}

func TestCalculateResultRounding(t *testing.T) {
	qs := makeQuestions(3)
	session := makeSession(qs)
	session.Answers = map[string]string{"q1": "b"}

	if got := CalculateResult(session, qs).Score; got != 33.33 {
		t.Errorf("Score = %v, want 33.33", got)
	}

	session.Answers["q2"] = "b"
	if got := CalculateResult(session, qs).Score; got != 66.67 {
		t.Errorf("Score = %v, want 66.67", got)
	}
}

func TestCalculateResultEmptyAndMissing(t *testing.T) {
	empty := CalculateResult(model.PracticeSession{}, nil)
	if empty.TotalQuestions != 0 || empty.Score != 0 {
		t.Errorf("empty session result = %+v", empty)
	}

	qs := makeQuestions(2)
	session := makeSession(qs)
	session.QuestionIDs = append(session.QuestionIDs, "gone")
	session.Answers = map[string]string{"q1": "b", "gone": "a"}

	got := CalculateResult(session, qs)
	if got.TotalQuestions != 3 || got.CorrectAnswers != 1 || got.Unanswered != 2 {
		t.Errorf("missing question not counted as unanswered: %+v", got)
	}
	if !reflect.DeepEqual(got.IncorrectQuestionIDs, []string{"q2"}) {
		t.Errorf("IncorrectQuestionIDs = %v", got.IncorrectQuestionIDs)
	}
}

func TestCalculateResultDoesNotAliasSession(t *testing.T) {
	qs := makeQuestions(2)
	session := makeSession(qs)
	session.MarkedForReview = []string{"q1"}

	got := CalculateResult(session, qs)
	got.MarkedForReview[0] = "changed"
	if session.MarkedForReview[0] != "q1" {
		t.Error("result shares MarkedForReview with the session")
	}
}

func TestReview(t *testing.T) {
	qs := makeQuestions(4)
	session := makeSession(qs)
	session.Answers = map[string]string{"q1": "b", "q2": "a"}
	session.MarkedForReview = []string{"q3"}
	session.TimePerQuestion = map[string]int{"q2": 9}

	indexes := func(items []model.ReviewItem) []int {
		out := make([]int, 0, len(items))
		for _, it := range items {
			out = append(out, it.Index)
		}
		return out
	}

	tests := []struct {
		filter model.ReviewFilter
		want   []int
	}{
		{model.ReviewAll, []int{0, 1, 2, 3}},
		{model.ReviewIncorrect, []int{1, 2, 3}},
		{model.ReviewMarked, []int{2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			if got := indexes(Review(session, qs, tt.filter)); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("indexes = %v, want %v", got, tt.want)
			}
		})
	}

	items := Review(session, qs, model.ReviewAll)
	wrong := items[1]
	if wrong.UserChoiceID != "a" || wrong.CorrectChoiceID != "b" || wrong.IsCorrect || !wrong.Answered || wrong.TimeSpent != 9 {
		t.Errorf("q2 item = %+v", wrong)
	}
	if !items[0].IsCorrect {
		t.Errorf("q1 item = %+v", items[0])
	}
	if items[2].Answered || !items[2].Marked {
		t.Errorf("q3 item = %+v", items[2])
	}
}
