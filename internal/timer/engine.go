// Package timer implements the focus/break countdown state machine.
package timer

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

const (
	warnMinute  = 60
	warnSeconds = 10

	autoStartDelay = time.Second
)

// Store is the persistence the engine reads settings from and writes
// sessions and snapshots to.
type Store interface {
	Settings() store.Settings
	StartSession(taskID string) (store.Session, bool)
	PauseSession(id string) bool
	ResumeSession(id string) bool
	CompleteSession(id string) (store.Session, bool)
	DiscardSession(id string) bool
	ActiveSession() (store.Session, bool)
	TimerState() (store.TimerState, bool)
	SaveTimerState(store.TimerState) bool
}

// Recorder receives the minutes of each finished focus session.
type Recorder interface {
	RecordCompletedSession(minutes int) (store.Statistics, []store.Achievement)
}

// TaskProgress credits a finished focus session to a task.
type TaskProgress interface {
	IncrementPomodoro(id string) (store.Task, bool)
}

type Engine struct {
	mu    sync.Mutex
	store Store
	rec   Recorder
	tasks TaskProgress
	sched Scheduler
	log   *slog.Logger
	now   func() time.Time

	timeLeft      int
	totalTime     int
	running       bool
	segment       Segment
	sessionCount  int
	totalSessions int
	currentTask   *store.Task
	activeSession string
	// custom is set when the countdown length was chosen by SetDuration
	// rather than taken from settings.
	custom bool

	// epoch invalidates scheduled callbacks from before the last transition.
	epoch      int
	cancelTick func()
	cancelAuto func()
	closed     bool

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

type Option func(*Engine)

func WithScheduler(s Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTaskProgress sets where finished focus sessions are credited.
func WithTaskProgress(t TaskProgress) Option {
	return func(e *Engine) { e.tasks = t }
}

// New creates a paused engine at the start of a focus segment. Call Restore
// to pick up a persisted countdown.
func New(s Store, rec Recorder, opts ...Option) *Engine {
	e := &Engine{
		store: s,
		rec:   rec,
		sched: RealScheduler{},
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
		subs:  make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(e)
	}
	st := s.Settings()
	e.totalSessions = st.Timer.SessionsPerSet
	e.loadDurationLocked(st)
	return e
}

// batch collects what a locked operation wants to happen once the lock is
// released: collaborator calls first, then event delivery.
type batch struct {
	after  []func()
	events []Event
}

func (e *Engine) do(fn func(b *batch)) {
	var b batch
	e.mu.Lock()
	fn(&b)
	e.mu.Unlock()

	for _, f := range b.after {
		f()
	}
	e.dispatch(b.events)
}

func (e *Engine) emitLocked(b *batch, ev Event) {
	ev.State = e.stateLocked()
	if ev.Kind != SessionCompleted {
		ev.Segment = e.segment
	}
	b.events = append(b.events, ev)
}

// Subscribe registers fn for engine events and returns a function that
// removes it. Callbacks run on the goroutine that caused the event.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	e.subMu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

// State returns a display snapshot.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	st := State{
		TimeLeft:        e.timeLeft,
		TotalTime:       e.totalTime,
		Running:         e.running,
		Segment:         e.segment,
		SegmentName:     e.segment.String(),
		IsBreak:         e.segment.IsBreak(),
		SessionCount:    e.sessionCount,
		TotalSessions:   e.totalSessions,
		ActiveSessionID: e.activeSession,
	}
	if e.currentTask != nil {
		t := *e.currentTask
		st.CurrentTask = &t
	}
	if e.totalTime > 0 {
		st.Progress = float64(e.totalTime-e.timeLeft) / float64(e.totalTime) * 100
	}
	return st
}

// Start begins or resumes the countdown. It is a no-op while running.
func (e *Engine) Start() {
	e.do(func(b *batch) { e.startLocked(b, false) })
}

func (e *Engine) startLocked(b *batch, resumed bool) {
	if e.running || e.closed {
		return
	}
	e.cancelAutoLocked()

	if e.segment == Focus && e.activeSession == "" {
		taskID := ""
		if e.currentTask != nil {
			taskID = e.currentTask.ID
		}
		if sess, ok := e.store.StartSession(taskID); ok {
			e.activeSession = sess.ID
		} else {
			e.log.Warn("focus session not recorded")
		}
	} else if e.activeSession != "" && !e.store.ResumeSession(e.activeSession) {
		e.log.Warn("focus session resume not recorded", "session", e.activeSession)
	}

	e.running = true
	e.epoch++
	epoch := e.epoch
	e.cancelTick = e.sched.Every(time.Second, func() { e.tick(epoch) })

	if !resumed {
		e.emitLocked(b, Event{Kind: SessionStarted})
	}
	e.persistLocked()
	e.emitLocked(b, Event{Kind: StateChanged})
	e.log.Debug("timer started", "segment", e.segment, "time_left", e.timeLeft)
}

// Pause stops the countdown and cancels a pending auto-start.
func (e *Engine) Pause() {
	e.do(func(b *batch) {
		e.cancelAutoLocked()
		if !e.running {
			return
		}
		e.stopLocked()
		if e.activeSession != "" && !e.store.PauseSession(e.activeSession) {
			e.log.Warn("focus session pause not recorded", "session", e.activeSession)
		}
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// stopLocked cancels the tick and invalidates callbacks already in flight.
func (e *Engine) stopLocked() {
	e.epoch++
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	e.running = false
}

func (e *Engine) cancelAutoLocked() {
	if e.cancelAuto != nil {
		e.cancelAuto()
		e.cancelAuto = nil
	}
}

func (e *Engine) tick(epoch int) {
	e.do(func(b *batch) {
		if !e.running || epoch != e.epoch {
			return
		}
		e.timeLeft--

		switch e.timeLeft {
		case warnMinute:
			e.emitLocked(b, Event{Kind: TimeWarning, Message: "1 minute left!"})
		case warnSeconds:
			e.emitLocked(b, Event{Kind: TimeWarning, Message: "10 seconds left!"})
		}

		if e.timeLeft <= 0 {
			e.timeLeft = 0
			e.completeLocked(b)
			return
		}
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// Skip ends the current segment now. A skipped focus session still counts,
// with its wall-clock duration.
func (e *Engine) Skip() {
	e.do(func(b *batch) {
		e.cancelAutoLocked()
		e.stopLocked()
		e.completeLocked(b)
	})
}

func (e *Engine) completeLocked(b *batch) {
	e.stopLocked()
	e.cancelAutoLocked()
	finished := e.segment
	st := e.store.Settings()
	e.totalSessions = st.Timer.SessionsPerSet

	if finished == Focus {
		done := Event{Kind: SessionCompleted, Segment: Focus}
		// A focus segment that was never started (skipped from the idle
		// state) has nothing to record.
		counted := e.activeSession != "" || e.timeLeft < e.totalTime
		if e.activeSession != "" {
			if sess, ok := e.store.CompleteSession(e.activeSession); ok {
				done.Session = &sess
				done.Minutes = sess.Duration
			} else {
				done.Minutes = e.countdownMinutesLocked()
			}
			e.activeSession = ""
		} else {
			done.Minutes = e.countdownMinutesLocked()
		}

		var unlocked []store.Achievement
		if counted {
			if e.rec != nil {
				_, unlocked = e.rec.RecordCompletedSession(done.Minutes)
			}
			if e.currentTask != nil && e.tasks != nil {
				id := e.currentTask.ID
				b.after = append(b.after, func() { e.tasks.IncrementPomodoro(id) })
			}
			e.sessionCount++
		}

		if counted && e.sessionCount >= e.totalSessions {
			e.segment = LongBreak
			e.sessionCount = 0
		} else {
			e.segment = Break
		}
		e.loadDurationLocked(st)
		e.emitLocked(b, done)
		if len(unlocked) > 0 {
			e.emitLocked(b, Event{Kind: AchievementUnlocked, Achievements: unlocked})
		}
		if e.segment == LongBreak {
			e.emitLocked(b, Event{Kind: LongBreakStarted})
		}
		e.log.Info("focus session completed", "minutes", done.Minutes, "session_count", e.sessionCount)
	} else {
		e.segment = Focus
		e.loadDurationLocked(st)
		e.emitLocked(b, Event{Kind: SessionCompleted, Segment: finished})
		e.log.Info("break completed", "segment", finished)
	}

	if (e.segment.IsBreak() && st.Timer.AutoStartBreaks) || (e.segment == Focus && st.Timer.AutoStartFocus) {
		epoch := e.epoch
		e.cancelAuto = e.sched.After(autoStartDelay, func() { e.autoStart(epoch) })
	}

	e.persistLocked()
	e.emitLocked(b, Event{Kind: StateChanged})
}

func (e *Engine) autoStart(epoch int) {
	e.do(func(b *batch) {
		if epoch != e.epoch {
			return
		}
		e.cancelAuto = nil
		e.startLocked(b, false)
	})
}

// countdownMinutesLocked is the elapsed countdown in whole minutes, used when
// no session record exists to measure wall-clock time.
func (e *Engine) countdownMinutesLocked() int {
	return int(math.Floor(float64(e.totalTime-e.timeLeft)/60 + 0.5))
}

// Reset pauses and reloads the configured length of the current segment.
// An unfinished focus session is discarded.
func (e *Engine) Reset() {
	e.do(func(b *batch) {
		e.cancelAutoLocked()
		e.stopLocked()
		e.discardSessionLocked()
		e.loadDurationLocked(e.store.Settings())
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// SetDuration pauses and switches to segment with a custom length. Lengths
// under one minute are raised to one minute.
func (e *Engine) SetDuration(minutes int, segment Segment) {
	e.do(func(b *batch) {
		e.cancelAutoLocked()
		e.stopLocked()
		e.discardSessionLocked()
		e.segment = segment
		e.totalTime = max(minutes, 1) * 60
		e.timeLeft = e.totalTime
		e.custom = true
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

func (e *Engine) discardSessionLocked() {
	if e.activeSession == "" {
		return
	}
	if !e.store.DiscardSession(e.activeSession) {
		e.log.Warn("active session not discarded", "session", e.activeSession)
	}
	e.activeSession = ""
}

func (e *Engine) loadDurationLocked(st store.Settings) {
	minutes := st.Timer.FocusDuration
	switch e.segment {
	case Break:
		minutes = st.Timer.BreakDuration
	case LongBreak:
		minutes = st.Timer.LongBreakDuration
	}
	e.totalTime = max(minutes, 1) * 60
	e.timeLeft = e.totalTime
	e.custom = false
}

// SetCurrentTask links task (or nothing) to the next focus session.
func (e *Engine) SetCurrentTask(task *store.Task) {
	e.do(func(b *batch) {
		if task == nil {
			e.currentTask = nil
		} else {
			t := *task
			e.currentTask = &t
		}
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// TaskChanged keeps the current task in step with edits made elsewhere.
// A removed or completed task is unlinked.
func (e *Engine) TaskChanged(task store.Task, removed bool) {
	e.do(func(b *batch) {
		if e.currentTask == nil || e.currentTask.ID != task.ID {
			return
		}
		if removed || task.IsCompleted {
			e.currentTask = nil
		} else {
			e.currentTask = &task
		}
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// ReloadSettings applies changed settings. The set length always follows the
// settings; a paused segment that has not been started or customized also
// takes the new duration.
func (e *Engine) ReloadSettings() {
	e.do(func(b *batch) {
		st := e.store.Settings()
		e.totalSessions = st.Timer.SessionsPerSet
		e.sessionCount = min(e.sessionCount, e.totalSessions)
		if !e.running && !e.custom && e.timeLeft == e.totalTime {
			e.loadDurationLocked(st)
		}
		e.persistLocked()
		e.emitLocked(b, Event{Kind: StateChanged})
	})
}

// Restore loads the persisted snapshot. A countdown that was running is
// charged for the wall-clock time that passed since it was saved: if that
// exhausts it the segment completes now, otherwise it keeps running.
func (e *Engine) Restore() {
	e.do(func(b *batch) {
		st := e.store.Settings()
		e.totalSessions = st.Timer.SessionsPerSet

		ts, ok := e.store.TimerState()
		if !ok {
			e.segment = Focus
			e.sessionCount = 0
			e.loadDurationLocked(st)
			e.emitLocked(b, Event{Kind: StateChanged})
			return
		}

		e.segment = Focus
		if ts.IsLongBreak {
			e.segment = LongBreak
		} else if ts.IsBreak {
			e.segment = Break
		}
		e.totalTime = ts.TotalTime
		e.timeLeft = min(ts.TimeLeft, ts.TotalTime)
		e.sessionCount = min(ts.SessionCount, e.totalSessions)
		e.currentTask = ts.CurrentTask
		e.custom = e.totalTime != e.configuredSeconds(st)

		e.activeSession = ""
		if ts.ActiveSessionID != nil {
			if sess, ok := e.store.ActiveSession(); ok && sess.ID == *ts.ActiveSessionID {
				e.activeSession = sess.ID
			}
		}

		if !ts.IsRunning || ts.StartTime == nil {
			e.running = false
			e.emitLocked(b, Event{Kind: StateChanged})
			return
		}

		elapsed := max(int(e.now().Sub(*ts.StartTime)/time.Second), 0)
		e.timeLeft = max(e.timeLeft-elapsed, 0)
		e.log.Info("restoring running timer", "elapsed_s", elapsed, "time_left", e.timeLeft)
		if e.timeLeft == 0 {
			e.completeLocked(b)
			return
		}
		e.startLocked(b, true)
	})
}

func (e *Engine) configuredSeconds(st store.Settings) int {
	switch e.segment {
	case Break:
		return st.Timer.BreakDuration * 60
	case LongBreak:
		return st.Timer.LongBreakDuration * 60
	}
	return st.Timer.FocusDuration * 60
}

// Close stops scheduling and saves the snapshot unchanged, so a running
// countdown is reconciled by the next Restore.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.epoch++
	if e.cancelTick != nil {
		e.cancelTick()
		e.cancelTick = nil
	}
	e.cancelAutoLocked()
	e.persistLocked()
	e.closed = true
}

// Persist saves the current snapshot.
func (e *Engine) Persist() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.persistLocked()
	}
}

func (e *Engine) persistLocked() {
	ts := store.TimerState{
		TimeLeft:      e.timeLeft,
		TotalTime:     e.totalTime,
		IsRunning:     e.running,
		IsBreak:       e.segment.IsBreak(),
		IsLongBreak:   e.segment == LongBreak,
		SessionCount:  e.sessionCount,
		TotalSessions: e.totalSessions,
		CurrentTask:   e.currentTask,
	}
	if e.activeSession != "" {
		id := e.activeSession
		ts.ActiveSessionID = &id
	}
	if e.running {
		now := e.now().UTC()
		ts.StartTime = &now
	}
	if !e.store.SaveTimerState(ts) {
		e.log.Warn("timer state not persisted")
	}
}
