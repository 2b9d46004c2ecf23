package exam

import (
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

// ActionType names a transition. The values double as the wire names.
type ActionType string

const (
	ActionInit               ActionType = "init"
	ActionSelectAnswer       ActionType = "select_answer"
	ActionNextQuestion       ActionType = "next_question"
	ActionPrevQuestion       ActionType = "prev_question"
	ActionJumpToQuestion     ActionType = "jump_to_question"
	ActionToggleMarkReview   ActionType = "toggle_mark_review"
	ActionCheckAnswer        ActionType = "check_answer"
	ActionShowHint           ActionType = "show_hint"
	ActionHideHint           ActionType = "hide_hint"
	ActionShowExplanation    ActionType = "show_explanation"
	ActionHideExplanation    ActionType = "hide_explanation"
	ActionTickTimer          ActionType = "tick_timer"
	ActionCompleteExam       ActionType = "complete_exam"
	ActionResetQuestionState ActionType = "reset_question_state"
)

// Action is a typed transition applied by Reduce.
type Action interface {
	Type() ActionType
}

type (
	Init struct {
		Session   model.PracticeSession
		Questions []model.Question
	}
	SelectAnswer struct {
		QuestionID string
		ChoiceID   string
	}
	NextQuestion   struct{}
	PrevQuestion   struct{}
	JumpToQuestion struct {
		Index int
	}
	ToggleMarkReview struct {
		QuestionID string
	}
	CheckAnswer     struct{}
	ShowHint        struct{}
	HideHint        struct{}
	ShowExplanation struct{}
	HideExplanation struct{}
	TickTimer       struct{}
	// CompleteExam carries the completion time so the reducer stays free of clock reads.
	CompleteExam struct {
		At time.Time
	}
	ResetQuestionState struct{}
)

func (Init) Type() ActionType               { return ActionInit }
func (SelectAnswer) Type() ActionType       { return ActionSelectAnswer }
func (NextQuestion) Type() ActionType       { return ActionNextQuestion }
func (PrevQuestion) Type() ActionType       { return ActionPrevQuestion }
func (JumpToQuestion) Type() ActionType     { return ActionJumpToQuestion }
func (ToggleMarkReview) Type() ActionType   { return ActionToggleMarkReview }
func (CheckAnswer) Type() ActionType        { return ActionCheckAnswer }
func (ShowHint) Type() ActionType           { return ActionShowHint }
func (HideHint) Type() ActionType           { return ActionHideHint }
func (ShowExplanation) Type() ActionType    { return ActionShowExplanation }
func (HideExplanation) Type() ActionType    { return ActionHideExplanation }
func (TickTimer) Type() ActionType          { return ActionTickTimer }
func (CompleteExam) Type() ActionType       { return ActionCompleteExam }
func (ResetQuestionState) Type() ActionType { return ActionResetQuestionState }

// mutatesSession reports whether t can change the persisted session aggregate.
func mutatesSession(t ActionType) bool {
	switch t {
	case ActionInit, ActionSelectAnswer, ActionNextQuestion, ActionPrevQuestion,
		ActionJumpToQuestion, ActionToggleMarkReview, ActionCompleteExam:
		return true
	}
	return false
}

// ParseActionType validates a wire action name. Init is not accepted from the wire.
func ParseActionType(s string) (ActionType, bool) {
	t := ActionType(s)
	switch t {
	case ActionSelectAnswer, ActionNextQuestion, ActionPrevQuestion, ActionJumpToQuestion,
		ActionToggleMarkReview, ActionCheckAnswer, ActionShowHint, ActionHideHint,
		ActionShowExplanation, ActionHideExplanation, ActionCompleteExam, ActionResetQuestionState:
		return t, true
	}
	return "", false
}
