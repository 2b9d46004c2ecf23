package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

// QuestionSource fetches the published question pool for a new session.
type QuestionSource interface {
	ListPublished(ctx context.Context, filter model.QuestionFilter) ([]model.Question, error)
}

// Bootstrapper builds fresh sessions and resumes persisted ones for one slot.
type Bootstrapper struct {
	store    SessionStore
	shuffler *Shuffler
	now      func() time.Time
}

// NewBootstrapper creates a Bootstrapper writing to store. now defaults to time.Now.
func NewBootstrapper(store SessionStore, shuffler *Shuffler, now func() time.Time) *Bootstrapper {
	if shuffler == nil {
		shuffler = NewShuffler(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Bootstrapper{store: store, shuffler: shuffler, now: now}
}

// StartNewSession shuffles pool into a new in-progress session and writes it to the
// slot, replacing whatever was there. The returned questions are in presentation order.
func (b *Bootstrapper) StartNewSession(
	ctx context.Context,
	category model.QuestionCategory,
	difficulty model.QuestionDifficulty,
	pool []model.Question,
) (model.PracticeSession, []model.Question, error) {
	if len(pool) == 0 {
		return model.PracticeSession{}, nil, ErrEmptyPool
	}

	// Persisted timestamps carry no monotonic reading or local zone, so a loaded
	// session compares equal to the one saved.
	now := b.now().Round(0).UTC()
	shuffled := b.shuffler.Questions(pool)
	ids := make([]string, len(shuffled))
	for i, q := range shuffled {
		ids[i] = q.ID
	}

	session := model.PracticeSession{
		ID:              b.shuffler.SessionID(now),
		Category:        category,
		Difficulty:      difficulty,
		QuestionIDs:     ids,
		CurrentIndex:    0,
		Answers:         map[string]string{},
		MarkedForReview: []string{},
		TimePerQuestion: map[string]int{},
		StartedAt:       now,
		Status:          model.PracticeStatusInProgress,
	}

	b.store.Save(ctx, session, shuffled)
	return session, shuffled, nil
}

// StartFromSource fetches the pool described by filter and starts a session on it.
func (b *Bootstrapper) StartFromSource(
	ctx context.Context,
	source QuestionSource,
	filter model.QuestionFilter,
) (model.PracticeSession, []model.Question, error) {
	pool, err := source.ListPublished(ctx, filter)
	if err != nil {
		return model.PracticeSession{}, nil, fmt.Errorf("fetch question pool: %w", err)
	}
	return b.StartNewSession(ctx, filter.Category, filter.Difficulty, pool)
}

// ResumeSession returns the persisted in-progress session, if there is one.
// Completed or corrupted slots are discarded by the store and report false.
func (b *Bootstrapper) ResumeSession(ctx context.Context) (model.PracticeSession, []model.Question, bool) {
	return b.store.Load(ctx)
}

// HasResumable reports whether the slot holds an in-progress session, optionally
// restricted to one category.
func (b *Bootstrapper) HasResumable(ctx context.Context, category model.QuestionCategory) bool {
	session, _, ok := b.store.Load(ctx)
	if !ok {
		return false
	}
	return category == "" || session.Category == category
}
