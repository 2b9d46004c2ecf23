package main

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/model"
)

func testState() exam.State {
	questions := []model.Question{
		{ID: "q1", Question: "2 + 2?", Hint: "count", Choices: []model.QuestionChoice{
			{ID: "a", Text: "3"}, {ID: "b", Text: "4", IsCorrect: true},
		}},
		{ID: "q2", Question: "3 + 3?", Choices: []model.QuestionChoice{
			{ID: "a", Text: "6", IsCorrect: true}, {ID: "b", Text: "7"},
		}},
	}
	session := model.PracticeSession{
		ID:              "exam_1_abcdefg",
		Category:        model.CategoryMathematics,
		QuestionIDs:     []string{"q1", "q2"},
		Answers:         map[string]string{},
		MarkedForReview: []string{},
		TimePerQuestion: map[string]int{},
		StartedAt:       time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		Status:          model.PracticeStatusInProgress,
	}
	return exam.Reduce(exam.State{}, exam.Init{Session: session, Questions: questions})
}

func TestParseKeys(t *testing.T) {
	got := parseKeys([]byte("n\x1b[C\x1b[Dq\r\x03\x7f\x1b"))
	want := []key{"n", keyRight, keyLeft, "q", keyEnter, keyQuit, keyBack, keyEsc}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseKeys = %v, want %v", got, want)
	}
}

func TestHandleKeys(t *testing.T) {
	st := testState()

	tests := []struct {
		name string
		key  key
		want exam.Action
		cmd  command
	}{
		{"select second choice", "2", exam.SelectAnswer{QuestionID: "q1", ChoiceID: "b"}, cmdNone},
		{"choice out of range", "5", nil, cmdNone},
		{"next", "n", exam.NextQuestion{}, cmdNone},
		{"arrow prev", keyLeft, exam.PrevQuestion{}, cmdNone},
		{"mark", "m", exam.ToggleMarkReview{QuestionID: "q1"}, cmdNone},
		{"hint", "h", exam.ShowHint{}, cmdNone},
		{"quit", "q", nil, cmdQuit},
		{"ctrl-c", keyQuit, nil, cmdQuit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u ui
			got, cmd := u.handle(tt.key, st)
			if !reflect.DeepEqual(got, tt.want) || cmd != tt.cmd {
				t.Errorf("handle(%q) = %v, %v; want %v, %v", tt.key, got, cmd, tt.want, tt.cmd)
			}
		})
	}
}

func TestHandleJumpAndFinish(t *testing.T) {
	st := testState()
	var u ui

	for _, k := range []key{"j", "2"} {
		if a, _ := u.handle(k, st); a != nil {
			t.Fatalf("unexpected action while typing: %v", a)
		}
	}
	a, _ := u.handle(keyEnter, st)
	if a != (exam.JumpToQuestion{Index: 1}) {
		t.Errorf("jump action = %v", a)
	}

	u.handle("f", st)
	if u.mode != modeConfirmFinish {
		t.Fatal("f should ask for confirmation")
	}
	if a, _ := u.handle("n", st); a != nil {
		t.Errorf("declined finish dispatched %v", a)
	}
	u.handle("f", st)
	if a, _ := u.handle("y", st); a == nil || a.Type() != exam.ActionCompleteExam {
		t.Errorf("confirmed finish = %v", a)
	}
}

func TestRender(t *testing.T) {
	st := testState()
	st = exam.Reduce(st, exam.SelectAnswer{QuestionID: "q1", ChoiceID: "b"})
	st = exam.Reduce(st, exam.CheckAnswer{})
	st = exam.Reduce(st, exam.ShowHint{})

	var u ui
	var b strings.Builder
	u.render(&b, st, 80)
	out := b.String()

	for _, want := range []string{"Mathematics", "question 1/2", "2 + 2?", "> 2) B. 4  ✓", "Correct!", "Hint: count", "[1] 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}

	st = exam.Reduce(st, exam.CompleteExam{At: time.Date(2026, 1, 1, 8, 5, 0, 0, time.UTC)})
	b.Reset()
	u.render(&b, st, 80)
	out = b.String()
	for _, want := range []string{"Practice complete", "50.00%", "Unanswered:  1", "3 + 3?", "(no answer)"} {
		if !strings.Contains(out, want) {
			t.Errorf("result output missing %q:\n%s", want, out)
		}
	}
}
