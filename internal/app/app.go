// Package app wires the store, statistics, tasks and timer together and runs
// the background maintenance loops.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/pomodoro/internal/config"
	"github.com/sadopc/pomodoro/internal/logging"
	"github.com/sadopc/pomodoro/internal/stats"
	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/tasks"
	"github.com/sadopc/pomodoro/internal/timer"
)

// App owns one instance of every component.
type App struct {
	Config *config.Config
	Store  *store.Store
	Stats  *stats.Aggregator
	Tasks  *tasks.Tracker
	Timer  *timer.Engine

	log             *slog.Logger
	unsub           []func()
	closeOnce       sync.Once
	settingsChanged chan struct{}

	// maintMu serializes maintenance passes with Close.
	maintMu sync.Mutex
	closed  bool
}

type options struct {
	store *store.Store
	sched timer.Scheduler
	now   func() time.Time
}

type Option func(*options)

// WithStore uses an already opened store instead of opening cfg.DBPath.
func WithStore(s *store.Store) Option {
	return func(o *options) { o.store = s }
}

func WithScheduler(s timer.Scheduler) Option {
	return func(o *options) { o.sched = s }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New opens the store and builds the components. The timer resumes from the
// persisted snapshot before New returns.
func New(cfg *config.Config, log *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.Discard()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		path := cfg.DBPath
		if path == "" {
			p, err := store.DefaultDBPath()
			if err != nil {
				return nil, fmt.Errorf("resolving database path: %w", err)
			}
			path = p
		}
		s, err := store.New(path, store.WithLogger(log.With("component", "store")))
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		st = s
	}

	agg := stats.New(st,
		stats.WithLogger(log.With("component", "stats")),
		stats.WithClock(o.now),
		stats.WithStreakOncePerDay(cfg.Streak.OncePerDay),
	)
	tracker := tasks.New(st,
		tasks.WithLogger(log.With("component", "tasks")),
		tasks.WithClock(o.now),
	)
	engine := timer.New(st, agg,
		timer.WithLogger(log.With("component", "timer")),
		timer.WithClock(o.now),
		timer.WithScheduler(o.sched),
		timer.WithTaskProgress(tracker),
	)
	tracker.Attach(engine)

	a := &App{
		Config: cfg,
		Store:  st,
		Stats:  agg,
		Tasks:  tracker,
		Timer:  engine,
		log:    log,

		settingsChanged: make(chan struct{}, 1),
	}
	a.unsub = append(a.unsub,
		tracker.Subscribe(func(c tasks.Change) {
			if c.Kind != tasks.Activated {
				agg.Score()
			}
		}),
		engine.Subscribe(a.logEvent),
	)

	engine.Restore()
	return a, nil
}

func (a *App) logEvent(ev timer.Event) {
	switch ev.Kind {
	case timer.SessionCompleted:
		a.log.Info("session completed", "segment", ev.Segment.String(), "minutes", ev.Minutes)
	case timer.AchievementUnlocked:
		for _, ach := range ev.Achievements {
			a.log.Info("achievement unlocked", "id", ach.ID)
		}
	}
}

// UpdateSettings merges patch into the settings record and lets the timer
// pick up the result.
func (a *App) UpdateSettings(patch map[string]any) bool {
	if !a.Store.UpdateSettings(patch) {
		return false
	}
	a.Timer.ReloadSettings()
	a.notifySettings()
	return true
}

func (a *App) notifySettings() {
	select {
	case a.settingsChanged <- struct{}{}:
	default:
	}
}

// Import loads a backup document and refreshes the derived state.
func (a *App) Import(data []byte) (store.ImportReport, bool) {
	report, ok := a.Store.ImportAll(data)
	if !ok {
		return report, false
	}
	a.Timer.ReloadSettings()
	a.notifySettings()
	a.Stats.Score()
	a.Stats.CheckAchievements()
	return report, true
}

// MarkBackup records the time of the latest export in the settings record.
func (a *App) MarkBackup(at time.Time) bool {
	return a.Store.UpdateSettings(map[string]any{
		"data": map[string]any{"lastBackup": at.UTC().Format(time.RFC3339Nano)},
	})
}

// Run blocks running the maintenance loops until ctx is done.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.autoSaveLoop(ctx) })
	g.Go(func() error { return every(ctx, a.Config.Maintenance.AchievementInterval, a.CheckAchievements) })
	g.Go(func() error { return every(ctx, a.Config.Maintenance.OptimizeInterval, a.Optimize) })

	return g.Wait()
}

func every(ctx context.Context, d time.Duration, fn func()) error {
	if d <= 0 {
		return nil
	}
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn()
		}
	}
}

// autoSaveLoop runs AutoSave on the interval from the settings record. The
// interval is re-read after every save and whenever the settings change.
func (a *App) autoSaveLoop(ctx context.Context) error {
	for {
		t := time.NewTimer(a.autoSaveInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-a.settingsChanged:
			t.Stop()
		case <-t.C:
			a.AutoSave()
		}
	}
}

func (a *App) autoSaveInterval() time.Duration {
	return time.Duration(max(a.Store.Settings().Data.AutoSaveInterval, 1)) * time.Second
}

// maintain runs fn unless the app is closed. Close waits for a pass in
// progress.
func (a *App) maintain(fn func()) {
	a.maintMu.Lock()
	defer a.maintMu.Unlock()
	if a.closed {
		return
	}
	fn()
}

// AutoSave writes the timer snapshot and folds the SQLite WAL.
func (a *App) AutoSave() {
	a.maintain(func() {
		a.Timer.Persist()
		if !a.Store.Checkpoint() {
			a.log.Warn("auto-save checkpoint failed")
		}
	})
}

func (a *App) CheckAchievements() {
	a.maintain(func() {
		for _, ach := range a.Stats.CheckAchievements() {
			a.log.Info("achievement unlocked", "id", ach.ID)
		}
	})
}

func (a *App) Optimize() {
	a.maintain(func() {
		res := a.Store.Optimize()
		if res.SessionsRemoved > 0 || res.TasksRemoved > 0 {
			a.log.Info("storage optimized", "sessions_removed", res.SessionsRemoved, "tasks_removed", res.TasksRemoved)
		}
	})
}

// Close stops the timer, saves its snapshot and closes the store.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.maintMu.Lock()
		a.closed = true
		a.maintMu.Unlock()

		for _, fn := range a.unsub {
			fn()
		}
		a.Timer.Close()
		a.Store.Checkpoint()
		err = a.Store.Close()
	})
	return err
}
