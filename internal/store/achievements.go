package store

// Achievement ids in catalog order.
const (
	AchFirstSession       = "first_session"
	AchFirstTask          = "first_task"
	AchStreak3            = "3_day_streak"
	AchStreak7            = "7_day_streak"
	AchStreak30           = "30_day_streak"
	AchSessions100        = "100_sessions"
	AchSessions500        = "500_sessions"
	AchSessions1000       = "1000_sessions"
	AchRoyalFocus         = "royal_focus"
	AchProductivityMaster = "productivity_master"
)

var catalog = []string{
	AchFirstSession, AchFirstTask,
	AchStreak3, AchStreak7, AchStreak30,
	AchSessions100, AchSessions500, AchSessions1000,
	AchRoyalFocus, AchProductivityMaster,
}

// AchievementTitles holds the display name of every catalog entry.
var AchievementTitles = map[string]string{
	AchFirstSession:       "First Focus",
	AchFirstTask:          "Task Keeper",
	AchStreak3:            "3-Day Streak",
	AchStreak7:            "Week of Focus",
	AchStreak30:           "Monthly Monarch",
	AchSessions100:        "Century",
	AchSessions500:        "Five Hundred",
	AchSessions1000:       "Thousand Sessions",
	AchRoyalFocus:         "Royal Focus",
	AchProductivityMaster: "Productivity Master",
}

func DefaultAchievements() []Achievement {
	out := make([]Achievement, len(catalog))
	for i, id := range catalog {
		out[i] = Achievement{ID: id}
	}
	return out
}

// Achievements returns the full catalog in order, overlaid with stored
// unlock state. Unknown stored ids are dropped.
func (s *Store) Achievements() []Achievement {
	var stored []Achievement
	s.getJSON(KeyAchievements, &stored)

	byID := make(map[string]Achievement, len(stored))
	for _, a := range stored {
		byID[a.ID] = a
	}
	out := DefaultAchievements()
	for i := range out {
		if a, ok := byID[out[i].ID]; ok && a.Unlocked {
			out[i] = a
		}
	}
	return out
}

func (s *Store) SaveAchievements(achievements []Achievement) bool {
	if achievements == nil {
		achievements = []Achievement{}
	}
	return s.putJSON(KeyAchievements, achievements)
}

// UnlockAchievement marks id unlocked. It reports false when id is unknown,
// already unlocked, or the write failed; unlocks are never reverted.
func (s *Store) UnlockAchievement(id string) (Achievement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	achievements := s.Achievements()
	for i := range achievements {
		if achievements[i].ID != id {
			continue
		}
		if achievements[i].Unlocked {
			return achievements[i], false
		}
		now := s.now().UTC()
		achievements[i].Unlocked = true
		achievements[i].Date = &now
		if !s.SaveAchievements(achievements) {
			return Achievement{}, false
		}
		return achievements[i], true
	}
	return Achievement{}, false
}
