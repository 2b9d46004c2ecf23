package exam

import (
	"math"

	"github.com/stemsi/exstem-practice/internal/model"
)

// CalculateResult scores session against questions. It has no side effects and can
// be called mid-session or after completion.
//
// Unanswered questions land in IncorrectQuestionIDs for review filtering but are
// counted separately from IncorrectAnswers. Ids missing from questions are skipped
// for classification and end up in the Unanswered count.
func CalculateResult(session model.PracticeSession, questions []model.Question) model.PracticeResult {
	byID := make(map[string]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	correct, incorrect := 0, 0
	incorrectIDs := make([]string, 0)

	for _, id := range session.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			continue
		}

		choiceID, answered := session.Answer(id)
		switch {
		case !answered:
			incorrectIDs = append(incorrectIDs, id)
		case isAnswerCorrect(q, choiceID):
			correct++
		default:
			incorrect++
			incorrectIDs = append(incorrectIDs, id)
		}
	}

	total := len(session.QuestionIDs)
	var score float64
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}

	totalTime := 0
	for _, secs := range session.TimePerQuestion {
		totalTime += secs
	}

	return model.PracticeResult{
		TotalQuestions:       total,
		CorrectAnswers:       correct,
		IncorrectAnswers:     incorrect,
		Unanswered:           total - correct - incorrect,
		Score:                math.Round(score*100) / 100,
		TotalTime:            totalTime,
		MarkedForReview:      append([]string{}, session.MarkedForReview...),
		IncorrectQuestionIDs: incorrectIDs,
	}
}

func isAnswerCorrect(q *model.Question, choiceID string) bool {
	correctID, ok := q.CorrectChoiceID()
	return ok && correctID == choiceID
}

// Review lists the session's questions in presentation order, filtered for review.
func Review(session model.PracticeSession, questions []model.Question, filter model.ReviewFilter) []model.ReviewItem {
	result := CalculateResult(session, questions)
	flagged := make(map[string]bool, len(result.IncorrectQuestionIDs))
	for _, id := range result.IncorrectQuestionIDs {
		flagged[id] = true
	}

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	items := make([]model.ReviewItem, 0, len(session.QuestionIDs))
	for i, id := range session.QuestionIDs {
		q, ok := byID[id]
		if !ok {
			continue
		}
		marked := session.IsMarked(id)

		switch filter {
		case model.ReviewIncorrect:
			if !flagged[id] {
				continue
			}
		case model.ReviewMarked:
			if !marked {
				continue
			}
		}

		choiceID, answered := session.Answer(id)
		correctID, _ := q.CorrectChoiceID()
		items = append(items, model.ReviewItem{
			Index:           i,
			Question:        q,
			UserChoiceID:    choiceID,
			CorrectChoiceID: correctID,
			IsCorrect:       answered && correctID != "" && choiceID == correctID,
			Answered:        answered,
			Marked:          marked,
			TimeSpent:       session.TimePerQuestion[id],
		})
	}
	return items
}
