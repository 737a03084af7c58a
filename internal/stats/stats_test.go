package stats

import (
	"testing"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// nextDay moves to noon of the following day.
func (c *fakeClock) nextDay() { c.t = c.t.AddDate(0, 0, 1) }

func newTestAggregator(t *testing.T, opts ...Option) (*Aggregator, *store.Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2025, 6, 2, 12, 0, 0, 0, time.Local)}
	s, err := store.NewMemory(store.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(s, opts...), s, clock
}

func hasAchievement(list []store.Achievement, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

// ============================================================
// Totals
// ============================================================

func TestRecordCompletedSessionTotals(t *testing.T) {
	agg, s, clock := newTestAggregator(t)
	today := store.DateKey(clock.Now())

	for _, m := range []int{25, 25, 10} {
		agg.RecordCompletedSession(m)
	}

	st := s.Statistics()
	if st.TotalFocusMinutes != 60 || st.TotalSessions != 3 {
		t.Fatalf("unexpected totals: minutes=%d sessions=%d", st.TotalFocusMinutes, st.TotalSessions)
	}
	if st.DailyTotals[today] != 60 {
		t.Fatalf("expected 60 minutes today, got %d", st.DailyTotals[today])
	}
	if st.BestDay.Date != today || st.BestDay.Minutes != 60 {
		t.Fatalf("unexpected best day: %+v", st.BestDay)
	}
	if st.LastSessionDate == nil || !st.LastSessionDate.Equal(clock.Now()) {
		t.Fatalf("unexpected last session date: %v", st.LastSessionDate)
	}
}

func TestNegativeMinutesTreatedAsZero(t *testing.T) {
	agg, _, _ := newTestAggregator(t)
	st, _ := agg.RecordCompletedSession(-5)
	if st.TotalFocusMinutes != 0 || st.TotalSessions != 1 {
		t.Fatalf("unexpected totals: %+v", st)
	}
}

func TestBestDayKeepsMaximum(t *testing.T) {
	agg, _, clock := newTestAggregator(t)
	first := store.DateKey(clock.Now())
	agg.RecordCompletedSession(100)
	clock.nextDay()
	st, _ := agg.RecordCompletedSession(30)

	if st.BestDay.Date != first || st.BestDay.Minutes != 100 {
		t.Fatalf("expected best day to stay on %s, got %+v", first, st.BestDay)
	}
}

// ============================================================
// Streaks
// ============================================================

func TestStreakStartsAtOne(t *testing.T) {
	agg, _, _ := newTestAggregator(t)
	st, _ := agg.RecordCompletedSession(25)
	if st.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", st.CurrentStreak)
	}
}

func TestStreakContinuesOnConsecutiveDays(t *testing.T) {
	agg, _, clock := newTestAggregator(t)
	agg.RecordCompletedSession(25)
	clock.nextDay()
	st, _ := agg.RecordCompletedSession(25)
	if st.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", st.CurrentStreak)
	}
	clock.nextDay()
	st, _ = agg.RecordCompletedSession(25)
	if st.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", st.CurrentStreak)
	}
}

func TestStreakCappedOncePerDay(t *testing.T) {
	agg, _, clock := newTestAggregator(t)
	agg.RecordCompletedSession(25)
	clock.nextDay()
	agg.RecordCompletedSession(25)
	clock.t = clock.t.Add(time.Hour)
	st, _ := agg.RecordCompletedSession(25)
	if st.CurrentStreak != 2 {
		t.Fatalf("expected streak to stay 2 within a day, got %d", st.CurrentStreak)
	}
}

func TestStreakPerSessionWhenUncapped(t *testing.T) {
	agg, _, clock := newTestAggregator(t, WithStreakOncePerDay(false))
	agg.RecordCompletedSession(25)
	clock.nextDay()
	agg.RecordCompletedSession(25)
	clock.t = clock.t.Add(time.Hour)
	st, _ := agg.RecordCompletedSession(25)
	if st.CurrentStreak != 3 {
		t.Fatalf("expected per-session increment to 3, got %d", st.CurrentStreak)
	}
}

// Days D and D-1 have minutes, D-2 has none, the streak stands at 4.
func TestStreakContinuationByConfig(t *testing.T) {
	tests := []struct {
		name       string
		oncePerDay bool
		laterToday bool // D already has a recorded session
		want       int
	}{
		{"capped first session of the day", true, false, 5},
		{"capped later session of the day", true, true, 4},
		{"uncapped first session of the day", false, false, 5},
		{"uncapped later session of the day", false, true, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, s, clock := newTestAggregator(t, WithStreakOncePerDay(tt.oncePerDay))
			now := clock.Now()
			yesterday := now.AddDate(0, 0, -1)

			st := store.DefaultStatistics(now)
			st.CurrentStreak = 4
			st.LongestStreak = 4
			st.DailyTotals[store.DateKey(yesterday)] = 25
			last := yesterday.UTC()
			if tt.laterToday {
				st.DailyTotals[store.DateKey(now)] = 25
				last = now.Add(-time.Hour).UTC()
			}
			st.LastSessionDate = &last
			s.SaveStatistics(st)

			got, _ := agg.RecordCompletedSession(25)
			if got.CurrentStreak != tt.want {
				t.Fatalf("expected streak %d, got %d", tt.want, got.CurrentStreak)
			}
		})
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	agg, _, clock := newTestAggregator(t)
	agg.RecordCompletedSession(25)
	clock.nextDay()
	agg.RecordCompletedSession(25)
	clock.nextDay()
	clock.nextDay() // skipped a day

	st, _ := agg.RecordCompletedSession(25)
	if st.CurrentStreak != 1 {
		t.Fatalf("expected streak restart at 1, got %d", st.CurrentStreak)
	}
	if st.LongestStreak != 2 {
		t.Fatalf("expected longest 2, got %d", st.LongestStreak)
	}

	// A second session on the same day does not reset again.
	st, _ = agg.RecordCompletedSession(25)
	if st.CurrentStreak != 1 || st.LongestStreak != 2 {
		t.Fatalf("unexpected streak after second session: %d/%d", st.CurrentStreak, st.LongestStreak)
	}
}

func TestZeroMinuteSessionEndsStreak(t *testing.T) {
	agg, _, clock := newTestAggregator(t)
	agg.RecordCompletedSession(25)
	clock.nextDay()
	agg.RecordCompletedSession(25)
	clock.nextDay()

	st, _ := agg.RecordCompletedSession(0)
	if st.CurrentStreak != 0 || st.LongestStreak != 2 {
		t.Fatalf("expected streak 0 / longest 2, got %d/%d", st.CurrentStreak, st.LongestStreak)
	}
}

// ============================================================
// Productivity score
// ============================================================

func TestProductivityScore(t *testing.T) {
	done := store.Task{IsCompleted: true}
	open := store.Task{}

	tests := []struct {
		name  string
		st    store.Statistics
		tasks []store.Task
		want  int
	}{
		{"empty", store.Statistics{}, nil, 0},
		{"quarter of tasks", store.Statistics{}, []store.Task{done, open, open, open}, 10},
		{"maximum", store.Statistics{CurrentStreak: 10, TotalSessions: 100}, []store.Task{done}, 70},
		{"capped bonuses", store.Statistics{CurrentStreak: 40, TotalSessions: 1000}, []store.Task{done, done}, 70},
		{"streak only", store.Statistics{CurrentStreak: 2}, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProductivityScore(tt.st, tt.tasks); got != tt.want {
				t.Fatalf("ProductivityScore = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScoreIdempotent(t *testing.T) {
	agg, s, _ := newTestAggregator(t)
	s.SaveTasks([]store.Task{{ID: "a", Title: "A", IsCompleted: true}, {ID: "b", Title: "B"}})
	agg.RecordCompletedSession(25)

	first := agg.Score()
	second := agg.Score()
	if first.ProductivityScore != second.ProductivityScore || first.TotalTasksCompleted != 1 {
		t.Fatalf("score not idempotent: %d vs %d", first.ProductivityScore, second.ProductivityScore)
	}
	if first.ProductivityScore != ProductivityScore(first, s.Tasks()) {
		t.Fatal("stored score differs from recomputation")
	}
}

// ============================================================
// Achievements
// ============================================================

func TestFirstSessionUnlockedOnce(t *testing.T) {
	agg, _, _ := newTestAggregator(t)

	_, unlocked := agg.RecordCompletedSession(25)
	if !hasAchievement(unlocked, store.AchFirstSession) {
		t.Fatalf("expected first_session, got %+v", unlocked)
	}
	_, unlocked = agg.RecordCompletedSession(25)
	if len(unlocked) != 0 {
		t.Fatalf("expected no new unlocks, got %+v", unlocked)
	}
}

func TestRoyalFocusUnlock(t *testing.T) {
	agg, _, _ := newTestAggregator(t)
	_, unlocked := agg.RecordCompletedSession(240)
	if !hasAchievement(unlocked, store.AchRoyalFocus) {
		t.Fatalf("expected royal_focus, got %+v", unlocked)
	}
}

func TestCheckAchievementsFromStoredState(t *testing.T) {
	agg, s, _ := newTestAggregator(t)
	st := s.Statistics()
	st.TotalSessions = 100
	st.CurrentStreak = 7
	s.SaveStatistics(st)
	s.SaveTasks([]store.Task{{ID: "a", Title: "A"}})

	unlocked := agg.CheckAchievements()
	for _, id := range []string{store.AchFirstSession, store.AchFirstTask, store.AchStreak3, store.AchStreak7, store.AchSessions100} {
		if !hasAchievement(unlocked, id) {
			t.Errorf("expected %s unlocked", id)
		}
	}
	if hasAchievement(unlocked, store.AchStreak30) || hasAchievement(unlocked, store.AchSessions500) {
		t.Error("unexpected unlock above threshold")
	}
	if len(agg.CheckAchievements()) != 0 {
		t.Error("second scan should unlock nothing")
	}
}

// ============================================================
// Series & trend
// ============================================================

func TestFocusSeriesWeek(t *testing.T) {
	now := time.Date(2025, 6, 4, 15, 0, 0, 0, time.Local)
	sessions := []store.Session{
		{Type: store.SessionWork, StartTime: now.Add(-time.Hour), Duration: 90, Status: store.SessionCompleted},
		{Type: store.SessionWork, StartTime: now.AddDate(0, 0, -6), Duration: 30, Status: store.SessionCompleted},
		{Type: store.SessionWork, StartTime: now.AddDate(0, 0, -7), Duration: 60, Status: store.SessionCompleted},
		{Type: store.SessionWork, StartTime: now, Duration: 0, Status: store.SessionActive},
	}

	got := FocusSeries(sessions, PeriodWeek, now)
	if len(got.Hours) != 7 || len(got.Labels) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(got.Hours))
	}
	if got.Hours[6] != 1.5 {
		t.Fatalf("expected 1.5h today, got %v", got.Hours[6])
	}
	if got.Hours[0] != 0.5 {
		t.Fatalf("expected 0.5h six days ago, got %v", got.Hours[0])
	}
	if got.Labels[6] != "Wed" {
		t.Fatalf("expected Wed label, got %q", got.Labels[6])
	}
}

func TestFocusSeriesToday(t *testing.T) {
	now := time.Date(2025, 6, 4, 15, 30, 0, 0, time.Local)
	sessions := []store.Session{
		{Type: store.SessionWork, StartTime: time.Date(2025, 6, 4, 9, 10, 0, 0, time.Local), Duration: 25},
		{Type: store.SessionWork, StartTime: time.Date(2025, 6, 4, 9, 40, 0, 0, time.Local), Duration: 25},
		{Type: store.SessionWork, StartTime: time.Date(2025, 6, 3, 9, 0, 0, 0, time.Local), Duration: 25},
	}
	got := FocusSeries(sessions, PeriodToday, now)
	if len(got.Hours) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(got.Hours))
	}
	if got.Hours[9] != 0.8 {
		t.Fatalf("expected 0.8h at 9:00, got %v", got.Hours[9])
	}
}

func TestFocusSeriesMonth(t *testing.T) {
	now := time.Date(2024, 2, 10, 12, 0, 0, 0, time.Local)
	got := FocusSeries(nil, PeriodMonth, now)
	if len(got.Hours) != 29 {
		t.Fatalf("expected 29 days in Feb 2024, got %d", len(got.Hours))
	}
	if got.Labels[0] != "Day 1" || got.Labels[1] != "" || got.Labels[4] != "Day 5" || got.Labels[28] != "Day 29" {
		t.Fatalf("unexpected labels: %v", got.Labels)
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(""); err != nil || p != PeriodWeek {
		t.Fatalf("expected default week, got %q %v", p, err)
	}
	if _, err := ParsePeriod("year"); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestTrend(t *testing.T) {
	now := time.Date(2025, 6, 4, 12, 0, 0, 0, time.Local)
	st := store.Statistics{DailyTotals: map[string]int{
		store.DateKey(now):                   75,
		store.DateKey(now.AddDate(0, 0, -1)): 50,
	}}
	if got := TrendFor(st, now); got.Change != 50 || got.Text != "+50% today" {
		t.Fatalf("unexpected trend: %+v", got)
	}

	st.DailyTotals[store.DateKey(now)] = 25
	if got := TrendFor(st, now); got.Change != -50 || got.Text != "-50% today" {
		t.Fatalf("unexpected trend: %+v", got)
	}

	if got := TrendFor(store.Statistics{DailyTotals: map[string]int{}}, now); got.Text != "+0% today" {
		t.Fatalf("unexpected empty trend: %+v", got)
	}
}

func TestFormatFocusTime(t *testing.T) {
	if got := FormatFocusTime(125); got != "2h 05m" {
		t.Fatalf("got %q", got)
	}
}
