package timer

import "github.com/sadopc/pomodoro/internal/store"

// Segment is the kind of countdown in progress.
type Segment int

const (
	Focus Segment = iota
	Break
	LongBreak
)

func (s Segment) String() string {
	switch s {
	case Break:
		return "break"
	case LongBreak:
		return "long_break"
	default:
		return "focus"
	}
}

func (s Segment) IsBreak() bool { return s != Focus }

// ParseSegment accepts "focus", "break" and "long_break" (or "longBreak").
func ParseSegment(v string) (Segment, bool) {
	switch v {
	case "focus", "":
		return Focus, true
	case "break":
		return Break, true
	case "long_break", "longBreak":
		return LongBreak, true
	}
	return Focus, false
}

type EventKind string

const (
	StateChanged        EventKind = "state-changed"
	SessionStarted      EventKind = "session-started"
	TimeWarning         EventKind = "time-warning"
	SessionCompleted    EventKind = "session-completed"
	LongBreakStarted    EventKind = "long-break-started"
	AchievementUnlocked EventKind = "achievement-unlocked"
)

// Event is delivered to subscribers after the engine has released its lock.
type Event struct {
	Kind  EventKind
	State State

	// Segment is the segment the event refers to. For SessionCompleted it is
	// the segment that just ended.
	Segment Segment

	Message      string              // TimeWarning
	Session      *store.Session      // SessionCompleted for focus segments
	Minutes      int                 // SessionCompleted for focus segments
	Achievements []store.Achievement // AchievementUnlocked
}

// State is a display snapshot of the engine.
type State struct {
	TimeLeft        int         `json:"timeLeft"`
	TotalTime       int         `json:"totalTime"`
	Running         bool        `json:"isRunning"`
	Segment         Segment     `json:"-"`
	SegmentName     string      `json:"segment"`
	IsBreak         bool        `json:"isBreak"`
	SessionCount    int         `json:"sessionCount"`
	TotalSessions   int         `json:"totalSessions"`
	CurrentTask     *store.Task `json:"currentTask"`
	ActiveSessionID string      `json:"activeSessionId,omitempty"`
	Progress        float64     `json:"progress"` // percent of the segment elapsed
}
