// Package stats derives totals, streaks, the productivity score and
// achievement unlocks from completed focus sessions.
package stats

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

// Store is the subset of the persistent store the aggregator reads and writes.
type Store interface {
	Statistics() store.Statistics
	SaveStatistics(store.Statistics) bool
	Tasks() []store.Task
	Sessions() []store.Session
	UnlockAchievement(id string) (store.Achievement, bool)
}

// Aggregator owns every mutation of the Statistics record.
type Aggregator struct {
	mu         sync.Mutex
	store      Store
	log        *slog.Logger
	now        func() time.Time
	oncePerDay bool
}

type Option func(*Aggregator)

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithStreakOncePerDay caps streak growth at one increment per calendar day.
// With the cap off, every session on a day following a studied day extends
// the streak.
func WithStreakOncePerDay(on bool) Option {
	return func(a *Aggregator) { a.oncePerDay = on }
}

func New(s Store, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:      s,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
		oncePerDay: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordCompletedSession folds a finished focus session into the statistics
// and returns the updated record along with achievements it newly unlocked.
func (a *Aggregator) RecordCompletedSession(minutes int) (store.Statistics, []store.Achievement) {
	a.mu.Lock()
	defer a.mu.Unlock()

	minutes = max(minutes, 0)
	now := a.now()
	today := store.DateKey(now)
	yesterday := store.DateKey(now.AddDate(0, 0, -1))

	st := a.store.Statistics()
	prevLast := st.LastSessionDate
	prevToday := st.DailyTotals[today]

	st.TotalFocusMinutes += minutes
	st.TotalSessions++
	last := now.UTC()
	st.LastSessionDate = &last

	st.DailyTotals[today] = prevToday + minutes
	if st.DailyTotals[today] > st.BestDay.Minutes {
		st.BestDay = store.BestDay{Date: today, Minutes: st.DailyTotals[today]}
	}

	alreadyCounted := prevLast != nil && store.DateKey(*prevLast) == today
	a.updateStreak(&st, today, yesterday, prevToday, alreadyCounted)

	tasks := a.store.Tasks()
	st.TotalTasksCompleted = completedCount(tasks)
	st.ProductivityScore = ProductivityScore(st, tasks)

	if !a.store.SaveStatistics(st) {
		a.log.Warn("statistics not persisted", "minutes", minutes)
	}
	a.log.Debug("session recorded", "minutes", minutes, "streak", st.CurrentStreak, "score", st.ProductivityScore)

	return st, a.unlock(st, tasks)
}

// updateStreak applies the day-over-day streak rules. With oncePerDay (the
// default) a studied yesterday grows the streak on the day's first session
// only; without it every session on such a day adds one.
func (a *Aggregator) updateStreak(st *store.Statistics, today, yesterday string, prevToday int, alreadyCounted bool) {
	studiedToday := st.DailyTotals[today] > 0
	studiedYesterday := st.DailyTotals[yesterday] > 0

	switch {
	case !studiedToday:
		st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
		st.CurrentStreak = 0
	case studiedYesterday:
		if a.oncePerDay && alreadyCounted && st.CurrentStreak > 0 {
			break
		}
		st.CurrentStreak++
	case st.CurrentStreak == 0:
		st.CurrentStreak = 1
	case prevToday == 0:
		// First minutes of a day after a gap: the old streak is over.
		st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
		st.CurrentStreak = 1
	}
	st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
}

// Score recomputes the derived fields from the current tasks and statistics
// and persists them. Calling it repeatedly without other changes yields the
// same result.
func (a *Aggregator) Score() store.Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.store.Statistics()
	tasks := a.store.Tasks()
	completed := completedCount(tasks)
	score := ProductivityScore(st, tasks)
	if st.ProductivityScore == score && st.TotalTasksCompleted == completed {
		return st
	}
	st.ProductivityScore = score
	st.TotalTasksCompleted = completed
	a.store.SaveStatistics(st)
	return st
}

// CheckAchievements scans the stored statistics for thresholds crossed since
// the last scan.
func (a *Aggregator) CheckAchievements() []store.Achievement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unlock(a.store.Statistics(), a.store.Tasks())
}

func (a *Aggregator) unlock(st store.Statistics, tasks []store.Task) []store.Achievement {
	var unlocked []store.Achievement
	for _, r := range rules {
		if !r.met(st, tasks) {
			continue
		}
		if ach, ok := a.store.UnlockAchievement(r.id); ok {
			a.log.Info("achievement unlocked", "id", ach.ID)
			unlocked = append(unlocked, ach)
		}
	}
	return unlocked
}

// ProductivityScore weighs task completion, streak and session volume into
// a 0..100 value. The weights cap the reachable maximum at 70.
func ProductivityScore(st store.Statistics, tasks []store.Task) int {
	var rate float64
	if len(tasks) > 0 {
		rate = float64(completedCount(tasks)) / float64(len(tasks)) * 100
	}
	streakBonus := math.Min(float64(st.CurrentStreak)*5, 50)
	consistency := math.Min(float64(st.TotalSessions)/100*50, 50)

	return roundHalfUp(rate*0.4 + streakBonus*0.3 + consistency*0.3)
}

func completedCount(tasks []store.Task) int {
	n := 0
	for _, t := range tasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
