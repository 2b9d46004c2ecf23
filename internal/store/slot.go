package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/model"
)

// errCorruptedSession marks persisted data that cannot be resumed. It never leaves
// this package: Load logs it and reports an empty slot.
var errCorruptedSession = errors.New("corrupted practice session")

// Slot is the single-slot session store for one owner. Key A holds the session,
// key B the question set; both are always written and cleared together.
type Slot struct {
	backend      Backend
	sessionKey   string
	questionsKey string
	log          zerolog.Logger
}

// NewSlot binds a slot to its two keys on backend.
func NewSlot(backend Backend, sessionKey, questionsKey string, log zerolog.Logger) *Slot {
	return &Slot{
		backend:      backend,
		sessionKey:   sessionKey,
		questionsKey: questionsKey,
		log:          log.With().Str("component", "session_store").Str("slot", sessionKey).Logger(),
	}
}

// Save overwrites the slot. Failures are logged and swallowed: the in-memory
// session stays authoritative until the next successful save.
func (s *Slot) Save(ctx context.Context, session model.PracticeSession, questions []model.Question) {
	sessionRaw, err := json.Marshal(session)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal session failed")
		return
	}
	questionsRaw, err := json.Marshal(questions)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal questions failed")
		return
	}

	if err := s.backend.SetMany(ctx,
		Entry{Key: s.sessionKey, Value: sessionRaw},
		Entry{Key: s.questionsKey, Value: questionsRaw},
	); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("Failed to save practice session")
	}
}

// Load returns the resumable session. Missing halves, undecodable or inconsistent
// data, and sessions that are no longer in progress all clear the slot and report false.
func (s *Slot) Load(ctx context.Context) (model.PracticeSession, []model.Question, bool) {
	vals, err := s.backend.GetMany(ctx, s.sessionKey, s.questionsKey)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read practice session")
		return model.PracticeSession{}, nil, false
	}
	if vals[0] == nil && vals[1] == nil {
		return model.PracticeSession{}, nil, false
	}

	session, questions, err := decode(vals[0], vals[1])
	if err != nil {
		s.log.Warn().Err(err).Msg("Discarding unreadable practice session")
		s.Clear(ctx)
		return model.PracticeSession{}, nil, false
	}

	if !session.InProgress() {
		s.log.Debug().Str("session_id", session.ID).Str("status", string(session.Status)).Msg("Discarding finished practice session")
		s.Clear(ctx)
		return model.PracticeSession{}, nil, false
	}

	return session, questions, true
}

// Clear removes both keys unconditionally.
func (s *Slot) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.sessionKey, s.questionsKey); err != nil {
		s.log.Error().Err(err).Msg("Failed to clear practice session")
	}
}

func decode(sessionRaw, questionsRaw []byte) (model.PracticeSession, []model.Question, error) {
	var session model.PracticeSession
	var questions []model.Question

	if sessionRaw == nil || questionsRaw == nil {
		return session, nil, fmt.Errorf("%w: slot half missing", errCorruptedSession)
	}
	if err := json.Unmarshal(sessionRaw, &session); err != nil {
		return session, nil, fmt.Errorf("%w: session: %v", errCorruptedSession, err)
	}
	if err := json.Unmarshal(questionsRaw, &questions); err != nil {
		return session, nil, fmt.Errorf("%w: questions: %v", errCorruptedSession, err)
	}
	if err := validate(&session, questions); err != nil {
		return session, nil, err
	}
	return session, questions, nil
}

func validate(session *model.PracticeSession, questions []model.Question) error {
	if session.ID == "" || len(session.QuestionIDs) == 0 {
		return fmt.Errorf("%w: empty session", errCorruptedSession)
	}
	if session.CurrentIndex < 0 || session.CurrentIndex >= len(session.QuestionIDs) {
		return fmt.Errorf("%w: index %d out of range", errCorruptedSession, session.CurrentIndex)
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, id := range session.QuestionIDs {
		if !known[id] {
			return fmt.Errorf("%w: question %s not in set", errCorruptedSession, id)
		}
	}

	if session.Answers == nil {
		session.Answers = map[string]string{}
	}
	if session.TimePerQuestion == nil {
		session.TimePerQuestion = map[string]int{}
	}
	if session.MarkedForReview == nil {
		session.MarkedForReview = []string{}
	}
	return nil
}
