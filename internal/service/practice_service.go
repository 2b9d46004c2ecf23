package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/store"
)

// Practice errors.
var (
	ErrNoSession         = errors.New("no practice session")
	ErrInvalidAction     = errors.New("invalid practice action")
	ErrInvalidFilter     = errors.New("invalid review filter")
	ErrSessionInProgress = errors.New("practice session is still in progress")
)

const publishTimeout = 5 * time.Second

// QuestionCatalog is the read side of the question bank.
type QuestionCatalog interface {
	exam.QuestionSource
	CountPublishedByCategory(ctx context.Context) (map[model.QuestionCategory]int, error)
}

// HistoryReader lists stored results of completed sessions.
type HistoryReader interface {
	ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]model.PracticeResultRecord, int64, error)
}

// PracticeOptions tunes a PracticeService. Zero values fall back to defaults.
type PracticeOptions struct {
	MaxQuestions int
	SaveDelay    time.Duration
	TickInterval time.Duration
	IdleTimeout  time.Duration
	Now          func() time.Time
	Shuffler     *exam.Shuffler
}

// CategorySummary describes a category available for practice.
type CategorySummary struct {
	Category      model.QuestionCategory `json:"category"`
	Name          string                 `json:"name"`
	QuestionCount int                    `json:"question_count"`
}

// PendingSummary describes a resumable session without activating it.
type PendingSummary struct {
	SessionID      string                   `json:"session_id"`
	Category       model.QuestionCategory   `json:"category"`
	Difficulty     model.QuestionDifficulty `json:"difficulty,omitempty"`
	StartedAt      time.Time                `json:"started_at"`
	TotalQuestions int                      `json:"total_questions"`
	AnsweredCount  int                      `json:"answered_count"`
	Progress       int                      `json:"progress"`
	Elapsed        string                   `json:"elapsed"`
	Result         model.PracticeResult     `json:"result"`
}

// LiveSession is a monitor row for one attempt held in memory.
type LiveSession struct {
	OwnerID        string                 `json:"owner_id"`
	SessionID      string                 `json:"session_id"`
	Category       model.QuestionCategory `json:"category"`
	Status         model.PracticeStatus   `json:"status"`
	CurrentIndex   int                    `json:"current_index"`
	TotalQuestions int                    `json:"total_questions"`
	AnsweredCount  int                    `json:"answered_count"`
	Progress       int                    `json:"progress"`
	StartedAt      time.Time              `json:"started_at"`
	LastActive     time.Time              `json:"last_active"`
}

// PracticeService hosts one exam controller per owner and persists each owner's
// attempt in its own slot.
type PracticeService struct {
	questions QuestionCatalog
	history   HistoryReader
	backend   store.Backend
	publisher ResultPublisher
	opts      PracticeOptions
	log       zerolog.Logger

	mu          sync.Mutex
	controllers map[string]*exam.Controller

	// owners serializes Start and resume per owner so only one controller at a
	// time writes an owner's slot.
	owners ownerLocks
}

type ownerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	sync.Mutex
	refs int
}

// lock blocks until owner is free and returns the matching unlock.
func (l *ownerLocks) lock(owner string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*ownerLock)
	}
	ol := l.locks[owner]
	if ol == nil {
		ol = &ownerLock{}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()
		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}

// NewPracticeService creates a new PracticeService. history and publisher may be nil.
func NewPracticeService(
	questions QuestionCatalog,
	history HistoryReader,
	backend store.Backend,
	publisher ResultPublisher,
	opts PracticeOptions,
	log zerolog.Logger,
) *PracticeService {
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 50
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 30 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Shuffler == nil {
		opts.Shuffler = exam.NewShuffler(nil)
	}

	return &PracticeService{
		questions:   questions,
		history:     history,
		backend:     backend,
		publisher:   publisher,
		opts:        opts,
		log:         log.With().Str("component", "practice_service").Logger(),
		controllers: make(map[string]*exam.Controller),
	}
}

func (s *PracticeService) slot(owner string) *store.Slot {
	return store.NewSlot(s.backend,
		config.CacheKey.PracticeSessionKey(owner),
		config.CacheKey.PracticeQuestionsKey(owner),
		s.log,
	)
}

func (s *PracticeService) bootstrapper(slot *store.Slot) *exam.Bootstrapper {
	return exam.NewBootstrapper(slot, s.opts.Shuffler, s.opts.Now)
}

func (s *PracticeService) newController(owner string, slot *store.Slot) *exam.Controller {
	return exam.NewController(slot, exam.Options{
		TickInterval: s.opts.TickInterval,
		SaveDelay:    s.opts.SaveDelay,
		Now:          s.opts.Now,
		Logger:       s.log.With().Str("owner", owner).Logger(),
		OnComplete: func(st exam.State, result model.PracticeResult) {
			s.publishResult(owner, st.Session, result)
		},
	})
}

// Categories lists every practice category with its published question count.
func (s *PracticeService) Categories(ctx context.Context) ([]CategorySummary, error) {
	counts, err := s.questions.CountPublishedByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	out := make([]CategorySummary, 0, len(model.Categories))
	for _, c := range model.Categories {
		out = append(out, CategorySummary{
			Category:      c,
			Name:          c.DisplayName(),
			QuestionCount: counts[c],
		})
	}
	return out, nil
}

// Start begins a new attempt for owner, replacing any attempt already held.
func (s *PracticeService) Start(ctx context.Context, owner string, req model.StartPracticeRequest) (exam.State, error) {
	limit := s.opts.MaxQuestions
	if req.Limit > 0 {
		limit = min(req.Limit, s.opts.MaxQuestions)
	}
	filter := model.QuestionFilter{
		Category:   model.QuestionCategory(req.Category),
		Difficulty: model.QuestionDifficulty(req.Difficulty),
		Limit:      limit,
	}

	unlock := s.owners.lock(owner)
	defer unlock()

	// The previous attempt must stop writing before the new one takes the slot.
	s.mu.Lock()
	prev := s.controllers[owner]
	delete(s.controllers, owner)
	s.mu.Unlock()
	if prev != nil {
		prev.Close()
	}

	slot := s.slot(owner)
	session, questions, err := s.bootstrapper(slot).StartFromSource(ctx, s.questions, filter)
	if err != nil {
		return exam.State{}, err
	}

	ctrl := s.newController(owner, slot)
	st := ctrl.Init(session, questions)

	s.mu.Lock()
	s.controllers[owner] = ctrl
	s.mu.Unlock()

	s.log.Info().
		Str("owner", owner).
		Str("session_id", session.ID).
		Str("category", string(session.Category)).
		Int("questions", len(questions)).
		Msg("Practice session started")
	return st, nil
}

// controller returns the owner's live controller, resuming it from the slot when
// nothing is held in memory.
func (s *PracticeService) controller(ctx context.Context, owner string) (*exam.Controller, error) {
	s.mu.Lock()
	ctrl := s.controllers[owner]
	s.mu.Unlock()
	if ctrl != nil && !ctrl.Closed() {
		return ctrl, nil
	}

	unlock := s.owners.lock(owner)
	defer unlock()

	s.mu.Lock()
	live := s.controllers[owner]
	s.mu.Unlock()
	if live != nil && !live.Closed() {
		return live, nil
	}

	slot := s.slot(owner)
	session, questions, ok := s.bootstrapper(slot).ResumeSession(ctx)
	if !ok {
		return nil, ErrNoSession
	}

	ctrl = s.newController(owner, slot)
	ctrl.Init(session, questions)
	s.mu.Lock()
	s.controllers[owner] = ctrl
	s.mu.Unlock()

	s.log.Info().Str("owner", owner).Str("session_id", session.ID).Msg("Practice session resumed")
	return ctrl, nil
}

// Current returns the owner's attempt, resuming a persisted one if needed.
func (s *PracticeService) Current(ctx context.Context, owner string) (exam.State, error) {
	ctrl, err := s.controller(ctx, owner)
	if err != nil {
		return exam.State{}, err
	}
	return ctrl.State(), nil
}

// Pending summarizes the owner's resumable attempt without activating it.
// A non-empty category restricts the match.
func (s *PracticeService) Pending(ctx context.Context, owner string, category model.QuestionCategory) (PendingSummary, error) {
	s.mu.Lock()
	ctrl := s.controllers[owner]
	s.mu.Unlock()

	var st exam.State
	if ctrl != nil && !ctrl.Closed() {
		st = ctrl.State()
	} else {
		session, questions, ok := s.slot(owner).Load(ctx)
		if !ok {
			return PendingSummary{}, ErrNoSession
		}
		st = exam.State{Session: session, Questions: questions}
	}

	if !st.Loaded() || !st.Session.InProgress() {
		return PendingSummary{}, ErrNoSession
	}
	if category != "" && st.Session.Category != category {
		return PendingSummary{}, ErrNoSession
	}

	result := exam.CalculateResult(st.Session, st.Questions)
	return PendingSummary{
		SessionID:      st.Session.ID,
		Category:       st.Session.Category,
		Difficulty:     st.Session.Difficulty,
		StartedAt:      st.Session.StartedAt,
		TotalQuestions: len(st.Session.QuestionIDs),
		AnsweredCount:  st.AnsweredCount(),
		Progress:       st.Progress(),
		Elapsed:        exam.FormatDuration(result.TotalTime),
		Result:         result,
	}, nil
}

// Dispatch applies a wire action to the owner's attempt.
func (s *PracticeService) Dispatch(ctx context.Context, owner string, req model.PracticeActionRequest) (exam.State, error) {
	ctrl, err := s.controller(ctx, owner)
	if err != nil {
		return exam.State{}, err
	}

	action, err := toAction(req, ctrl.CurrentQuestionID())
	if err != nil {
		return exam.State{}, err
	}
	return ctrl.Dispatch(action), nil
}

// toAction maps a request onto an exam action. Question-scoped actions default to
// the question under the cursor.
func toAction(req model.PracticeActionRequest, currentID string) (exam.Action, error) {
	t, ok := exam.ParseActionType(req.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidAction, req.Type)
	}

	questionID := req.QuestionID
	if questionID == "" {
		questionID = currentID
	}

	switch t {
	case exam.ActionSelectAnswer:
		if req.ChoiceID == "" {
			return nil, fmt.Errorf("%w: choice_id is required", ErrInvalidAction)
		}
		return exam.SelectAnswer{QuestionID: questionID, ChoiceID: req.ChoiceID}, nil
	case exam.ActionNextQuestion:
		return exam.NextQuestion{}, nil
	case exam.ActionPrevQuestion:
		return exam.PrevQuestion{}, nil
	case exam.ActionJumpToQuestion:
		if req.Index == nil {
			return nil, fmt.Errorf("%w: index is required", ErrInvalidAction)
		}
		return exam.JumpToQuestion{Index: *req.Index}, nil
	case exam.ActionToggleMarkReview:
		return exam.ToggleMarkReview{QuestionID: questionID}, nil
	case exam.ActionCheckAnswer:
		return exam.CheckAnswer{}, nil
	case exam.ActionShowHint:
		return exam.ShowHint{}, nil
	case exam.ActionHideHint:
		return exam.HideHint{}, nil
	case exam.ActionShowExplanation:
		return exam.ShowExplanation{}, nil
	case exam.ActionHideExplanation:
		return exam.HideExplanation{}, nil
	case exam.ActionCompleteExam:
		return exam.CompleteExam{}, nil
	case exam.ActionResetQuestionState:
		return exam.ResetQuestionState{}, nil
	}
	return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidAction, req.Type)
}

// Result scores the owner's attempt as it stands.
func (s *PracticeService) Result(ctx context.Context, owner string) (model.PracticeResult, exam.State, error) {
	ctrl, err := s.controller(ctx, owner)
	if err != nil {
		return model.PracticeResult{}, exam.State{}, err
	}
	st := ctrl.State()
	return exam.CalculateResult(st.Session, st.Questions), st, nil
}

// Review lists the questions of a completed attempt with the owner's answers.
func (s *PracticeService) Review(ctx context.Context, owner string, filter model.ReviewFilter) ([]model.ReviewItem, error) {
	switch filter {
	case "":
		filter = model.ReviewAll
	case model.ReviewAll, model.ReviewIncorrect, model.ReviewMarked:
	default:
		return nil, ErrInvalidFilter
	}

	ctrl, err := s.controller(ctx, owner)
	if err != nil {
		return nil, err
	}
	st := ctrl.State()
	if st.Session.InProgress() {
		return nil, ErrSessionInProgress
	}
	return exam.Review(st.Session, st.Questions, filter), nil
}

// Watch streams state snapshots of the owner's attempt.
func (s *PracticeService) Watch(ctx context.Context, owner string) (<-chan exam.State, func(), error) {
	ctrl, err := s.controller(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ctrl.Watch()
	return ch, cancel, nil
}

// Discard drops the owner's attempt and empties its slot.
func (s *PracticeService) Discard(ctx context.Context, owner string) {
	unlock := s.owners.lock(owner)
	defer unlock()

	s.mu.Lock()
	ctrl := s.controllers[owner]
	delete(s.controllers, owner)
	s.mu.Unlock()

	if ctrl != nil {
		ctrl.Clear(ctx)
	} else {
		s.slot(owner).Clear(ctx)
	}
	s.log.Info().Str("owner", owner).Msg("Practice session discarded")
}

// History returns a page of the owner's completed results.
func (s *PracticeService) History(ctx context.Context, owner string, page, perPage int) ([]model.PracticeResultRecord, int64, error) {
	if s.history == nil {
		return []model.PracticeResultRecord{}, 0, nil
	}
	records, total, err := s.history.ListByOwner(ctx, owner, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	return records, total, nil
}

func (s *PracticeService) publishResult(owner string, session model.PracticeSession, result model.PracticeResult) {
	if s.publisher == nil {
		return
	}

	completedAt := s.opts.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}
	rec := model.PracticeResultRecord{
		ID:             uuid.New(),
		OwnerID:        owner,
		SessionID:      session.ID,
		Category:       session.Category,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
		Unanswered:     result.Unanswered,
		Score:          result.Score,
		TotalTime:      result.TotalTime,
		StartedAt:      session.StartedAt,
		CompletedAt:    completedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, rec); err != nil {
		s.log.Error().Err(err).Str("owner", owner).Str("session_id", session.ID).Msg("Failed to publish practice result")
	}
}

// EvictIdle closes and forgets controllers idle since before now minus the idle
// timeout. Pending saves are flushed. It returns how many were evicted.
func (s *PracticeService) EvictIdle(now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTimeout)

	idle := make(map[string]*exam.Controller)
	s.mu.Lock()
	for owner, ctrl := range s.controllers {
		if ctrl.Closed() || ctrl.LastActive().Before(cutoff) {
			idle[owner] = ctrl
		}
	}
	s.mu.Unlock()

	evicted := 0
	for owner, ctrl := range idle {
		if s.evict(owner, ctrl) {
			evicted++
		}
	}
	return evicted
}

// evict closes ctrl if it is still the owner's controller. A Start that won the
// owner lock first keeps its new attempt.
func (s *PracticeService) evict(owner string, ctrl *exam.Controller) bool {
	unlock := s.owners.lock(owner)
	defer unlock()

	s.mu.Lock()
	if s.controllers[owner] != ctrl {
		s.mu.Unlock()
		return false
	}
	delete(s.controllers, owner)
	s.mu.Unlock()

	ctrl.Close()
	return true
}

// Active lists the attempts currently held in memory, oldest first.
func (s *PracticeService) Active() []LiveSession {
	s.mu.Lock()
	owners := make(map[string]*exam.Controller, len(s.controllers))
	maps.Copy(owners, s.controllers)
	s.mu.Unlock()

	live := make([]LiveSession, 0, len(owners))
	for owner, ctrl := range owners {
		if ctrl.Closed() {
			continue
		}
		st := ctrl.State()
		if !st.Loaded() {
			continue
		}
		live = append(live, LiveSession{
			OwnerID:        owner,
			SessionID:      st.Session.ID,
			Category:       st.Session.Category,
			Status:         st.Session.Status,
			CurrentIndex:   st.Session.CurrentIndex,
			TotalQuestions: len(st.Session.QuestionIDs),
			AnsweredCount:  st.AnsweredCount(),
			Progress:       st.Progress(),
			StartedAt:      st.Session.StartedAt,
			LastActive:     ctrl.LastActive(),
		})
	}
	slices.SortFunc(live, func(a, b LiveSession) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.OwnerID, b.OwnerID)
	})
	return live
}

// RunReaper evicts idle controllers until ctx is cancelled.
func (s *PracticeService) RunReaper(ctx context.Context) {
	interval := max(s.opts.IdleTimeout/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info().Dur("idle_timeout", s.opts.IdleTimeout).Msg("Practice reaper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(s.opts.Now()); n > 0 {
				s.log.Info().Int("evicted", n).Msg("Evicted idle practice sessions")
			}
		}
	}
}

// Shutdown flushes every pending save and stops all timers.
func (s *PracticeService) Shutdown() {
	s.mu.Lock()
	all := s.controllers
	s.controllers = make(map[string]*exam.Controller)
	s.mu.Unlock()

	for _, ctrl := range all {
		ctrl.Close()
	}
	s.log.Info().Int("sessions", len(all)).Msg("Practice sessions flushed")
}
