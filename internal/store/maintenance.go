package store

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	maxSessions      = 1000
	completedTaskTTL = 30 * 24 * time.Hour
)

type OptimizeResult struct {
	SessionsRemoved int
	TasksRemoved    int
}

// Optimize keeps the newest sessions and drops completed tasks that have not
// been touched in 30 days.
func (s *Store) Optimize() OptimizeResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res OptimizeResult

	sessions := s.Sessions()
	if len(sessions) > maxSessions {
		sort.SliceStable(sessions, func(i, j int) bool {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		})
		res.SessionsRemoved = len(sessions) - maxSessions
		if !s.SaveSessions(sessions[res.SessionsRemoved:]) {
			res.SessionsRemoved = 0
		}
	}

	cutoff := s.now().Add(-completedTaskTTL)
	tasks := s.Tasks()
	kept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted && !t.UpdatedAt.After(cutoff) {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) < len(tasks) && s.SaveTasks(kept) {
		res.TasksRemoved = len(tasks) - len(kept)
	}

	if res.SessionsRemoved > 0 || res.TasksRemoved > 0 {
		s.log.Info("storage optimized", "sessions_removed", res.SessionsRemoved, "tasks_removed", res.TasksRemoved)
	}
	return res
}

// ResetKind names a collection for ResetData.
type ResetKind string

const (
	ResetTasks        ResetKind = "tasks"
	ResetSessions     ResetKind = "sessions"
	ResetStatistics   ResetKind = "statistics"
	ResetAchievements ResetKind = "achievements"
	ResetSettings     ResetKind = "settings"
	ResetAll          ResetKind = "all"
)

// ResetData restores one collection, or all of them, to its defaults. Every
// collection is attempted; the error names the ones that were not written.
func (s *Store) ResetData(kind ResetKind) error {
	resets := map[ResetKind]func() bool{
		ResetTasks:        func() bool { return s.SaveTasks(nil) },
		ResetSessions:     func() bool { return s.SaveSessions(nil) },
		ResetStatistics:   func() bool { return s.SaveStatistics(DefaultStatistics(s.now())) },
		ResetAchievements: func() bool { return s.SaveAchievements(DefaultAchievements()) },
		ResetSettings:     s.ResetSettings,
	}

	var kinds []ResetKind
	switch kind {
	case ResetTasks, ResetSessions, ResetStatistics, ResetAchievements, ResetSettings:
		kinds = []ResetKind{kind}
	case ResetAll:
		kinds = []ResetKind{ResetTasks, ResetSessions, ResetStatistics, ResetAchievements, ResetSettings}
	default:
		return fmt.Errorf("unknown reset kind %q", kind)
	}

	var errs []error
	for _, k := range kinds {
		if !resets[k]() {
			errs = append(errs, fmt.Errorf("resetting %s: write failed", k))
		}
	}
	if kind == ResetAll && !s.ClearTimerState() {
		errs = append(errs, errors.New("resetting timer state: write failed"))
	}
	return errors.Join(errs...)
}
