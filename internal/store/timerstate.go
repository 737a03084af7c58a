package store

import (
	"encoding/json"
	"time"
)

// timerStateDoc mirrors TimerState with pointers so missing fields are
// distinguishable from zero values.
type timerStateDoc struct {
	TimeLeft        *int       `json:"timeLeft"`
	TotalTime       *int       `json:"totalTime"`
	IsRunning       *bool      `json:"isRunning"`
	IsBreak         *bool      `json:"isBreak"`
	IsLongBreak     bool       `json:"isLongBreak"`
	SessionCount    *int       `json:"sessionCount"`
	TotalSessions   *int       `json:"totalSessions"`
	CurrentTask     *Task      `json:"currentTask"`
	ActiveSessionID *string    `json:"activeSessionId"`
	StartTime       *time.Time `json:"startTime"`
}

// TimerState returns the persisted snapshot. A missing, malformed or
// impossible snapshot reports false.
func (s *Store) TimerState() (TimerState, bool) {
	raw, ok := s.getRaw(KeyTimerState)
	if !ok {
		return TimerState{}, false
	}
	var doc timerStateDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("malformed timer state ignored", "err", err)
		return TimerState{}, false
	}
	if doc.TimeLeft == nil || doc.TotalTime == nil || doc.IsRunning == nil ||
		doc.IsBreak == nil || doc.SessionCount == nil || doc.TotalSessions == nil {
		s.log.Warn("incomplete timer state ignored")
		return TimerState{}, false
	}
	if *doc.TotalTime <= 0 || *doc.TimeLeft < 0 || *doc.SessionCount < 0 {
		s.log.Warn("invalid timer state ignored", "timeLeft", *doc.TimeLeft, "totalTime", *doc.TotalTime)
		return TimerState{}, false
	}
	return TimerState{
		TimeLeft:        *doc.TimeLeft,
		TotalTime:       *doc.TotalTime,
		IsRunning:       *doc.IsRunning,
		IsBreak:         *doc.IsBreak,
		IsLongBreak:     doc.IsLongBreak,
		SessionCount:    *doc.SessionCount,
		TotalSessions:   *doc.TotalSessions,
		CurrentTask:     doc.CurrentTask,
		ActiveSessionID: doc.ActiveSessionID,
		StartTime:       doc.StartTime,
	}, true
}

func (s *Store) SaveTimerState(ts TimerState) bool {
	return s.putJSON(KeyTimerState, ts)
}

func (s *Store) ClearTimerState() bool {
	return s.deleteRaw(KeyTimerState)
}
