package exam

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/model"
)

const (
	DefaultTickInterval = time.Second
	DefaultSaveDelay    = 500 * time.Millisecond
	saveTimeout         = 5 * time.Second
)

// SessionStore is the single-slot persistence the controller writes snapshots to.
// Save must swallow its own failures; Load self-heals on bad data.
type SessionStore interface {
	Save(ctx context.Context, session model.PracticeSession, questions []model.Question)
	Load(ctx context.Context) (model.PracticeSession, []model.Question, bool)
	Clear(ctx context.Context)
}

// Options tunes a Controller. Zero values fall back to the defaults.
type Options struct {
	TickInterval time.Duration
	SaveDelay    time.Duration
	Now          func() time.Time
	// OnComplete runs once, outside the controller lock, after CompleteExam is applied.
	OnComplete func(State, model.PracticeResult)
	Logger     zerolog.Logger
}

// Controller hosts one exam attempt. It is the only mutator of its State: every
// transition goes through Dispatch, which serializes with the timer loop. The
// controller drives the 1s tick and the debounced auto-save around the pure reducer.
type Controller struct {
	mu         sync.Mutex
	state      State
	version    uint64
	closed     bool
	sealed     bool
	cleared    bool
	stopTimer  context.CancelFunc
	lastActive time.Time

	store SessionStore
	opts  Options
	log   zerolog.Logger
	saver *Debouncer

	saveMu       sync.Mutex
	savedVersion uint64

	watchMu  sync.Mutex
	watchers map[int]chan State
	nextID   int
}

// NewController creates an empty controller. Call Init to load a session.
func NewController(store SessionStore, opts Options) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{
		store:      store,
		opts:       opts,
		log:        opts.Logger.With().Str("component", "exam_controller").Logger(),
		watchers:   make(map[int]chan State),
		lastActive: opts.Now(),
	}
	c.saver = NewDebouncer(opts.SaveDelay, c.persist)
	return c
}

// Init replaces the state wholesale and starts the timer when the session is live.
func (c *Controller) Init(session model.PracticeSession, questions []model.Question) State {
	return c.Dispatch(Init{Session: session, Questions: questions})
}

// Dispatch applies a and runs the side effects the transition calls for.
// Dispatching on a closed controller is a no-op.
func (c *Controller) Dispatch(a Action) State {
	if done, ok := a.(CompleteExam); ok && done.At.IsZero() {
		done.At = c.opts.Now().Round(0).UTC()
		a = done
	}

	c.mu.Lock()
	if c.closed {
		st := c.state.Clone()
		c.mu.Unlock()
		return st
	}

	prev := c.state
	next := Reduce(prev, a)
	c.state = next
	c.version++
	if a.Type() != ActionTickTimer {
		c.lastActive = c.opts.Now()
	}

	justCompleted := prev.Loaded() && prev.Session.InProgress() && !next.Session.InProgress()
	switch {
	case a.Type() == ActionInit:
		c.haltTimerLocked()
		if next.Loaded() && next.Session.InProgress() {
			c.startTimerLocked()
		}
	case justCompleted:
		c.haltTimerLocked()
	}

	scheduleSave := next.Loaded() && next.Session.InProgress() && mutatesSession(a.Type())
	snapshot := next.Clone()
	c.mu.Unlock()

	if scheduleSave {
		c.saver.Trigger()
	}
	if justCompleted {
		c.saver.Cancel()
		c.persist()
		result := CalculateResult(snapshot.Session, snapshot.Questions)
		c.log.Info().
			Str("session_id", snapshot.Session.ID).
			Float64("score", result.Score).
			Int("correct", result.CorrectAnswers).
			Int("total", result.TotalQuestions).
			Msg("Practice session completed")
		if c.opts.OnComplete != nil {
			c.opts.OnComplete(snapshot, result)
		}
	}

	c.notify(snapshot)
	return snapshot
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Result scores the current in-memory state.
func (c *Controller) Result() model.PracticeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CalculateResult(c.state.Session, c.state.Questions)
}

// CurrentQuestion returns the question under the cursor.
func (c *Controller) CurrentQuestion() (model.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentQuestion()
}

func (c *Controller) CurrentQuestionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CurrentQuestionID()
}

func (c *Controller) IsFirstQuestion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsFirstQuestion()
}

func (c *Controller) IsLastQuestion() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsLastQuestion()
}

func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AnsweredCount()
}

func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Progress()
}

// LastActive is the time of the last non-tick dispatch.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Closed reports whether Close or Clear has run.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Flush writes any pending auto-save now.
func (c *Controller) Flush() {
	c.saver.Flush()
}

// Close stops the timer, writes any pending auto-save and detaches watchers.
func (c *Controller) Close() {
	if !c.shutdown() {
		return
	}
	c.saver.Flush()
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
	c.closeWatchers()
}

// Clear stops the controller without saving and empties the persisted slot.
func (c *Controller) Clear(ctx context.Context) {
	c.shutdown()
	c.mu.Lock()
	c.cleared = true
	c.mu.Unlock()
	c.saver.Cancel()

	c.saveMu.Lock()
	c.store.Clear(ctx)
	c.saveMu.Unlock()
	c.closeWatchers()
}

func (c *Controller) shutdown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.haltTimerLocked()
	return true
}

// Watch subscribes to state changes. The channel holds only the latest snapshot;
// slow readers skip intermediate states. cancel detaches the watcher.
func (c *Controller) Watch() (<-chan State, func()) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	ch := make(chan State, 1)
	if c.Closed() {
		close(ch)
		return ch, func() {}
	}

	id := c.nextID
	c.nextID++
	c.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.watchMu.Lock()
			defer c.watchMu.Unlock()
			if w, ok := c.watchers[id]; ok {
				delete(c.watchers, id)
				close(w)
			}
		})
	}
}

func (c *Controller) notify(st State) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	for _, ch := range c.watchers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

func (c *Controller) closeWatchers() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
}

// startTimerLocked must be called with c.mu held.
func (c *Controller) startTimerLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	c.stopTimer = cancel
	interval := c.opts.TickInterval

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Dispatch(TickTimer{})
			}
		}
	}()
}

// haltTimerLocked must be called with c.mu held.
func (c *Controller) haltTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

// persist writes the latest snapshot unless it was already written, the slot
// has been cleared, or Close has already flushed. A closed controller may no
// longer own the slot.
func (c *Controller) persist() {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	if c.cleared || c.sealed || !c.state.Loaded() || c.version <= c.savedVersion {
		c.mu.Unlock()
		return
	}
	snap := c.state.Clone()
	v := c.version
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	c.store.Save(ctx, snap.Session, snap.Questions)
	c.savedVersion = v
}
