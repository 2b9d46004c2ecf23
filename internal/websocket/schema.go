package websocket

import "github.com/stemsi/exstem-practice/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionDispatch Action = "dispatch"
	ActionResult   Action = "result"
	ActionPing     Action = "ping"
)

// Request is every client message. Type and the fields after it are only read
// for dispatch.
type Request struct {
	Action     Action `json:"action"`
	Type       string `json:"type,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	ChoiceID   string `json:"choice_id,omitempty"`
	Index      *int   `json:"index,omitempty"`
}

// PracticeAction converts a dispatch request to the HTTP action payload.
func (r Request) PracticeAction() model.PracticeActionRequest {
	return model.PracticeActionRequest{
		Type:       r.Type,
		QuestionID: r.QuestionID,
		ChoiceID:   r.ChoiceID,
		Index:      r.Index,
	}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventCompleted Event = "completed"
	EventResult    Event = "result"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateEvent carries a state snapshot. State is a service.StateView.
type StateEvent struct {
	Event Event `json:"event"`
	State any   `json:"state"`
}

// ResultEvent carries a score, either on completion or on request.
type ResultEvent struct {
	Event  Event                `json:"event"`
	Result model.PracticeResult `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
