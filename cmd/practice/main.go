package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/exam"
	"github.com/stemsi/exstem-practice/internal/logger"
	"github.com/stemsi/exstem-practice/internal/model"
	"github.com/stemsi/exstem-practice/internal/questionpack"
	"github.com/stemsi/exstem-practice/internal/store"
	"golang.org/x/term"
)

const localOwner = "local"

type options struct {
	packs      string
	category   string
	difficulty string
	limit      int
	dbPath     string
	logPath    string
	fresh      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.packs, "packs", "questionpacks", "Directory of YAML question packs")
	flag.StringVar(&opts.category, "category", "", "Category to practice (required for a new session)")
	flag.StringVar(&opts.difficulty, "difficulty", "", "Only questions of this difficulty")
	flag.IntVar(&opts.limit, "limit", 50, "Maximum questions per session")
	flag.StringVar(&opts.dbPath, "db", "file:practice.db?mode=rwc&_pragma=busy_timeout(5000)", "SQLite DSN for the saved session")
	flag.StringVar(&opts.logPath, "log", "practice.log", "Log file")
	flag.BoolVar(&opts.fresh, "new", false, "Discard any saved session and start over")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "practice:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("stdin is not a terminal")
	}

	logFile, err := os.OpenFile(opts.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logFile.Close()
	log := logger.Setup(os.Getenv("LOG_LEVEL"), "json", logFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	catalog, err := questionpack.LoadDir(opts.packs)
	if err != nil {
		return fmt.Errorf("load question packs: %w", err)
	}

	backend, err := store.OpenSQLite(ctx, opts.dbPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	slot := store.NewSlot(backend,
		config.CacheKey.PracticeSessionKey(localOwner),
		config.CacheKey.PracticeQuestionsKey(localOwner),
		log,
	)
	boot := exam.NewBootstrapper(slot, nil, nil)

	session, questions, err := openSession(ctx, boot, slot, catalog, opts)
	if err != nil {
		return err
	}

	ctrl := exam.NewController(slot, exam.Options{
		Logger: log,
		OnComplete: func(_ exam.State, r model.PracticeResult) {
			log.Info().Float64("score", r.Score).Msg("Finished practice from terminal")
		},
	})
	defer ctrl.Close()
	states, stopWatch := ctrl.Watch()
	defer stopWatch()
	ctrl.Init(session, questions)

	return loop(ctrl, states, log)
}

// openSession resumes the saved session when the user agrees, otherwise starts a
// new one from the catalog.
func openSession(
	ctx context.Context,
	boot *exam.Bootstrapper,
	slot *store.Slot,
	catalog *questionpack.Catalog,
	opts options,
) (model.PracticeSession, []model.Question, error) {
	category := model.QuestionCategory(opts.category)
	if category != "" && !category.Valid() {
		return model.PracticeSession{}, nil, fmt.Errorf("unknown category %q", opts.category)
	}

	if opts.fresh {
		slot.Clear(ctx)
	} else if session, questions, ok := boot.ResumeSession(ctx); ok && (category == "" || session.Category == category) {
		st := exam.State{Session: session, Questions: questions}
		prompt := fmt.Sprintf("Resume %s practice started %s (%d/%d answered)? [Y/n] ",
			session.Category.DisplayName(), session.StartedAt.Local().Format("Jan 2 15:04"),
			st.AnsweredCount(), len(session.QuestionIDs))
		if confirm(prompt) {
			return session, questions, nil
		}
	}

	if category == "" {
		return model.PracticeSession{}, nil, errors.New("-category is required to start a new session")
	}
	session, questions, err := boot.StartFromSource(ctx, catalog, model.QuestionFilter{
		Category:   category,
		Difficulty: model.QuestionDifficulty(opts.difficulty),
		Limit:      opts.limit,
	})
	if errors.Is(err, exam.ErrEmptyPool) {
		return model.PracticeSession{}, nil, fmt.Errorf("no questions for %s in %s", category.DisplayName(), opts.packs)
	}
	return session, questions, err
}

// confirm reads a line in cooked mode; anything but n/no means yes.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer != "n" && answer != "no"
}

// loop owns the terminal in raw mode: it redraws on every state change and turns
// keypresses into actions.
func loop(ctrl *exam.Controller, states <-chan exam.State, log zerolog.Logger) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Print("\x1b[?25h" + nl)
	}()
	fmt.Print("\x1b[?25l")

	keys := make(chan key)
	go readKeys(keys, log)

	var u ui
	st := ctrl.State()
	draw := func() {
		width, _, err := term.GetSize(fd)
		if err != nil {
			width = 72
		}
		u.render(os.Stdout, st, width)
	}
	draw()

	for {
		select {
		case next, ok := <-states:
			if !ok {
				return nil
			}
			st = next
			draw()
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			action, cmd := u.handle(k, st)
			if cmd == cmdQuit {
				ctrl.Flush()
				return nil
			}
			if action != nil {
				st = ctrl.Dispatch(action)
			}
			draw()
		}
	}
}

func readKeys(out chan<- key, log zerolog.Logger) {
	defer close(out)
	buf := make([]byte, 16)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			log.Debug().Err(err).Msg("stdin closed")
			return
		}
		for _, k := range parseKeys(buf[:n]) {
			out <- k
		}
	}
}
