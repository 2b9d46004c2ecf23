package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/model"
)

// Raw mode disables output post-processing, so every line ends in \r\n.
const nl = "\r\n"

// key is one decoded keypress: a printable rune, or a named key.
type key string

const (
	keyLeft  key = "left"
	keyRight key = "right"
	keyEnter key = "enter"
	keyBack  key = "backspace"
	keyEsc   key = "esc"
	keyQuit  key = "ctrl-c"
)

// parseKeys decodes a chunk read from a raw terminal.
func parseKeys(buf []byte) []key {
	var keys []key
	for i := 0; i < len(buf); i++ {
		b := buf[i]
		switch {
		case b == 0x1b && i+2 < len(buf) && buf[i+1] == '[':
			switch buf[i+2] {
			case 'C':
				keys = append(keys, keyRight)
			case 'D':
				keys = append(keys, keyLeft)
			}
			i += 2
		case b == 0x1b:
			keys = append(keys, keyEsc)
		case b == 0x03:
			keys = append(keys, keyQuit)
		case b == '\r' || b == '\n':
			keys = append(keys, keyEnter)
		case b == 0x7f || b == 0x08:
			keys = append(keys, keyBack)
		case b >= 0x20 && b < 0x7f:
			keys = append(keys, key(string(rune(b))))
		}
	}
	return keys
}

type mode int

const (
	modeNormal mode = iota
	modeJump
	modeConfirmFinish
)

// command is what a keypress asks the client to do beyond dispatching.
type command int

const (
	cmdNone command = iota
	cmdQuit
)

// ui holds the prompt state of the terminal client.
type ui struct {
	mode    mode
	jumpBuf string
	notice  string
}

// handle maps k to an exam action in the context of st. A nil action means
// nothing to dispatch.
func (u *ui) handle(k key, st exam.State) (exam.Action, command) {
	u.notice = ""
	if k == keyQuit {
		return nil, cmdQuit
	}

	switch u.mode {
	case modeJump:
		switch {
		case k == keyEnter:
			u.mode = modeNormal
			var n int
			if _, err := fmt.Sscanf(u.jumpBuf, "%d", &n); err != nil || n < 1 {
				u.notice = "invalid question number"
				return nil, cmdNone
			}
			u.jumpBuf = ""
			return exam.JumpToQuestion{Index: n - 1}, cmdNone
		case k == keyEsc:
			u.mode, u.jumpBuf = modeNormal, ""
		case k == keyBack && u.jumpBuf != "":
			u.jumpBuf = u.jumpBuf[:len(u.jumpBuf)-1]
		case len(k) == 1 && k[0] >= '0' && k[0] <= '9' && len(u.jumpBuf) < 4:
			u.jumpBuf += string(k)
		}
		return nil, cmdNone

	case modeConfirmFinish:
		u.mode = modeNormal
		if k == "y" || k == "Y" {
			return exam.CompleteExam{}, cmdNone
		}
		return nil, cmdNone
	}

	if !st.Session.InProgress() {
		return nil, cmdQuit
	}

	switch k {
	case "n", keyRight:
		return exam.NextQuestion{}, cmdNone
	case "p", keyLeft:
		return exam.PrevQuestion{}, cmdNone
	case "m":
		return exam.ToggleMarkReview{QuestionID: st.CurrentQuestionID()}, cmdNone
	case "c":
		return exam.CheckAnswer{}, cmdNone
	case "h":
		if st.ShowHint {
			return exam.HideHint{}, cmdNone
		}
		return exam.ShowHint{}, cmdNone
	case "e":
		if st.ShowExplanation {
			return exam.HideExplanation{}, cmdNone
		}
		return exam.ShowExplanation{}, cmdNone
	case "r":
		return exam.ResetQuestionState{}, cmdNone
	case "j":
		u.mode, u.jumpBuf = modeJump, ""
		return nil, cmdNone
	case "f":
		u.mode = modeConfirmFinish
		return nil, cmdNone
	case "q":
		return nil, cmdQuit
	}

	if len(k) == 1 && k[0] >= '1' && k[0] <= '9' {
		q, ok := st.CurrentQuestion()
		idx := int(k[0] - '1')
		if ok && idx < len(q.Choices) {
			return exam.SelectAnswer{QuestionID: q.ID, ChoiceID: q.Choices[idx].ID}, cmdNone
		}
	}
	return nil, cmdNone
}

// render draws the whole screen for st.
func (u *ui) render(w io.Writer, st exam.State, width int) {
	var b strings.Builder
	b.WriteString("\x1b[H\x1b[2J")
	rule := strings.Repeat("─", max(min(width, 72), 20))

	if !st.Loaded() {
		b.WriteString("No session loaded." + nl)
		_, _ = io.WriteString(w, b.String())
		return
	}
	if !st.Session.InProgress() {
		renderResult(&b, st, rule)
		_, _ = io.WriteString(w, b.String())
		return
	}

	s := st.Session
	fmt.Fprintf(&b, "%s  ·  question %d/%d  ·  %s  ·  progress %d%%%s",
		s.Category.DisplayName(), s.CurrentIndex+1, len(s.QuestionIDs),
		exam.FormatClock(st.CurrentTimer), st.Progress(), nl)
	b.WriteString(rule + nl)

	q, ok := st.CurrentQuestion()
	if ok {
		if s.IsMarked(q.ID) {
			b.WriteString("[marked for review]" + nl)
		}
		b.WriteString(q.Question + nl + nl)

		selected, _ := s.Answer(q.ID)
		for i, c := range q.Choices {
			cursor := "  "
			if c.ID == selected {
				cursor = "> "
			}
			verdict := ""
			if st.AnswerChecked && c.IsCorrect {
				verdict = "  ✓"
			} else if st.AnswerChecked && c.ID == selected {
				verdict = "  ✗"
			}
			fmt.Fprintf(&b, "%s%d) %s. %s%s%s", cursor, i+1, exam.ChoiceLetter(i), c.Text, verdict, nl)
		}
		b.WriteString(nl)

		if st.AnswerChecked && st.IsCorrect != nil {
			if *st.IsCorrect {
				b.WriteString("Correct!" + nl)
			} else {
				b.WriteString("Not quite." + nl)
			}
		}
		if st.ShowHint && q.Hint != "" {
			b.WriteString("Hint: " + q.Hint + nl)
		}
		if st.ShowExplanation && q.Explanation != "" {
			b.WriteString("Explanation: " + q.Explanation + nl)
		}
	}

	b.WriteString(rule + nl)
	b.WriteString(navigationLine(st) + nl)
	b.WriteString("1-9 answer  n/→ next  p/← prev  j jump  m mark  c check  h hint  e explain  r reset  f finish  q quit" + nl)

	switch u.mode {
	case modeJump:
		b.WriteString("Jump to question: " + u.jumpBuf)
	case modeConfirmFinish:
		answered := st.AnsweredCount()
		fmt.Fprintf(&b, "Finish now with %d of %d answered? [y/N] ", answered, len(s.QuestionIDs))
	default:
		if u.notice != "" {
			b.WriteString(u.notice)
		}
	}
	_, _ = io.WriteString(w, b.String())
}

// navigationLine renders the grid as [1] for the current question, 2* for
// answered, 3 for unanswered; marked questions get a trailing !.
func navigationLine(st exam.State) string {
	var parts []string
	for _, e := range st.Navigation() {
		cell := fmt.Sprintf("%d", e.Index+1)
		switch e.Status {
		case exam.NavCurrent:
			cell = "[" + cell + "]"
		case exam.NavAnswered:
			cell += "*"
		}
		if e.Marked {
			cell += "!"
		}
		parts = append(parts, cell)
	}
	return strings.Join(parts, " ")
}

func renderResult(b *strings.Builder, st exam.State, rule string) {
	r := exam.CalculateResult(st.Session, st.Questions)
	b.WriteString("Practice complete" + nl)
	b.WriteString(rule + nl)
	fmt.Fprintf(b, "Score:       %.2f%%%s", r.Score, nl)
	fmt.Fprintf(b, "Correct:     %d / %d%s", r.CorrectAnswers, r.TotalQuestions, nl)
	fmt.Fprintf(b, "Incorrect:   %d%s", r.IncorrectAnswers, nl)
	fmt.Fprintf(b, "Unanswered:  %d%s", r.Unanswered, nl)
	fmt.Fprintf(b, "Time:        %s%s", exam.FormatDuration(r.TotalTime), nl)
	b.WriteString(rule + nl)

	items := exam.Review(st.Session, st.Questions, model.ReviewIncorrect)
	if len(items) > 0 {
		b.WriteString("Review:" + nl)
	}
	for _, it := range items {
		answer := "(no answer)"
		if it.Answered {
			answer = choiceText(it.Question, it.UserChoiceID)
		}
		fmt.Fprintf(b, "%d. %s%s   yours: %s   correct: %s%s",
			it.Index+1, it.Question.Question, nl, answer, choiceText(it.Question, it.CorrectChoiceID), nl)
	}
	b.WriteString(nl + "Press any key to exit." + nl)
}

func choiceText(q model.Question, choiceID string) string {
	for i, c := range q.Choices {
		if c.ID == choiceID {
			return exam.ChoiceLetter(i) + ". " + c.Text
		}
	}
	return choiceID
}
