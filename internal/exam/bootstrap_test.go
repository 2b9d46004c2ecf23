package exam

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stemsi/exstem-practice/internal/model"
)

type fakeSource struct {
	questions []model.Question
	err       error
	got       model.QuestionFilter
}

func (f *fakeSource) ListPublished(_ context.Context, filter model.QuestionFilter) ([]model.Question, error) {
	f.got = filter
	return f.questions, f.err
}

func newTestBootstrapper(store SessionStore) *Bootstrapper {
	return NewBootstrapper(store, NewShuffler(rand.NewPCG(1, 1)), func() time.Time { return t0 })
}

func TestStartNewSession(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	b := newTestBootstrapper(store)
	pool := makeQuestions(5)

	session, questions, err := b.StartNewSession(ctx, model.CategoryMathematics, model.DifficultyEasy, pool)
	if err != nil {
		t.Fatalf("StartNewSession: %v", err)
	}

	if session.Status != model.PracticeStatusInProgress || session.CurrentIndex != 0 {
		t.Errorf("session = %+v", session)
	}
	if !session.StartedAt.Equal(t0) || session.CompletedAt != nil {
		t.Errorf("timestamps = %v / %v", session.StartedAt, session.CompletedAt)
	}
	if session.Category != model.CategoryMathematics || session.Difficulty != model.DifficultyEasy {
		t.Errorf("category/difficulty = %s/%s", session.Category, session.Difficulty)
	}
	if len(session.Answers) != 0 || len(session.MarkedForReview) != 0 || len(session.TimePerQuestion) != 0 {
		t.Errorf("new session not empty: %+v", session)
	}

	for i, q := range questions {
		if session.QuestionIDs[i] != q.ID {
			t.Fatalf("question order %v does not match ids %v", questions, session.QuestionIDs)
		}
	}
	sorted := slices.Clone(session.QuestionIDs)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []string{"q1", "q2", "q3", "q4", "q5"}) {
		t.Errorf("ids %v are not a permutation of the pool", session.QuestionIDs)
	}

	saves, saved := store.snapshot()
	if saves != 1 || saved == nil || saved.ID != session.ID {
		t.Errorf("slot not written: saves=%d saved=%+v", saves, saved)
	}
}

func TestStartNewSessionEmptyPool(t *testing.T) {
	store := newRecordingStore()
	_, _, err := newTestBootstrapper(store).StartNewSession(context.Background(), model.CategoryEnglish, "", nil)
	if !errors.Is(err, ErrEmptyPool) {
		t.Fatalf("err = %v, want ErrEmptyPool", err)
	}
	if saves, _ := store.snapshot(); saves != 0 {
		t.Errorf("empty pool wrote the slot %d times", saves)
	}
}

func TestStartFromSource(t *testing.T) {
	ctx := context.Background()
	filter := model.QuestionFilter{Category: model.CategoryMathematics, Limit: 10}

	src := &fakeSource{questions: makeQuestions(3)}
	session, _, err := newTestBootstrapper(newRecordingStore()).StartFromSource(ctx, src, filter)
	if err != nil {
		t.Fatalf("StartFromSource: %v", err)
	}
	if src.got != filter {
		t.Errorf("filter = %+v, want %+v", src.got, filter)
	}
	if len(session.QuestionIDs) != 3 {
		t.Errorf("ids = %v", session.QuestionIDs)
	}

	boom := errors.New("boom")
	_, _, err = newTestBootstrapper(newRecordingStore()).StartFromSource(ctx, &fakeSource{err: boom}, filter)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}

	_, _, err = newTestBootstrapper(newRecordingStore()).StartFromSource(ctx, &fakeSource{}, filter)
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("err = %v, want ErrEmptyPool", err)
	}
}

func TestResumeSession(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	b := newTestBootstrapper(store)

	if _, _, ok := b.ResumeSession(ctx); ok {
		t.Fatal("resumed from an empty slot")
	}
	if b.HasResumable(ctx, "") {
		t.Fatal("empty slot reported resumable")
	}

	started, _, err := b.StartNewSession(ctx, model.CategoryMathematics, "", makeQuestions(2))
	if err != nil {
		t.Fatal(err)
	}

	session, questions, ok := b.ResumeSession(ctx)
	if !ok || session.ID != started.ID || len(questions) != 2 {
		t.Fatalf("resume = %+v, %d questions, %v", session, len(questions), ok)
	}
	if !b.HasResumable(ctx, model.CategoryMathematics) || !b.HasResumable(ctx, "") {
		t.Error("matching category not resumable")
	}
	if b.HasResumable(ctx, model.CategoryEnglish) {
		t.Error("other category reported resumable")
	}

	completed := session.Clone()
	completed.Status = model.PracticeStatusCompleted
	store.Save(ctx, completed, questions)
	if _, _, ok := b.ResumeSession(ctx); ok {
		t.Error("completed session resumed")
	}
}
