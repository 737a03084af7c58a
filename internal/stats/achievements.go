package stats

import "github.com/sadopc/pomodoro/internal/store"

type rule struct {
	id  string
	met func(store.Statistics, []store.Task) bool
}

func sessionsAtLeast(n int) func(store.Statistics, []store.Task) bool {
	return func(st store.Statistics, _ []store.Task) bool { return st.TotalSessions >= n }
}

func streakAtLeast(n int) func(store.Statistics, []store.Task) bool {
	return func(st store.Statistics, _ []store.Task) bool { return st.CurrentStreak >= n }
}

// royalFocusMinutes is four hours of focus in a single day.
const royalFocusMinutes = 240

const productivityMasterScore = 70

var rules = []rule{
	{store.AchFirstSession, sessionsAtLeast(1)},
	{store.AchFirstTask, func(_ store.Statistics, tasks []store.Task) bool { return len(tasks) >= 1 }},
	{store.AchStreak3, streakAtLeast(3)},
	{store.AchStreak7, streakAtLeast(7)},
	{store.AchStreak30, streakAtLeast(30)},
	{store.AchSessions100, sessionsAtLeast(100)},
	{store.AchSessions500, sessionsAtLeast(500)},
	{store.AchSessions1000, sessionsAtLeast(1000)},
	{store.AchRoyalFocus, func(st store.Statistics, _ []store.Task) bool { return st.BestDay.Minutes >= royalFocusMinutes }},
	{store.AchProductivityMaster, func(st store.Statistics, _ []store.Task) bool {
		return st.ProductivityScore >= productivityMasterScore
	}},
}
