package store

import "time"

const SettingsVersion = "1.0.0"

type Settings struct {
	Timer         TimerSettings        `json:"timer"`
	Notifications NotificationSettings `json:"notifications"`
	Appearance    AppearanceSettings   `json:"appearance"`
	Data          DataSettings         `json:"data"`
	Version       string               `json:"version"`
}

type TimerSettings struct {
	FocusDuration     int  `json:"focusDuration"` // minutes
	BreakDuration     int  `json:"breakDuration"`
	LongBreakDuration int  `json:"longBreakDuration"`
	SessionsPerSet    int  `json:"sessionsPerSet"`
	AutoStartBreaks   bool `json:"autoStartBreaks"`
	AutoStartFocus    bool `json:"autoStartFocus"`
}

type NotificationSettings struct {
	Enabled      bool         `json:"enabled"`
	Sounds       bool         `json:"sounds"`
	Volume       int          `json:"volume"`
	DoNotDisturb DoNotDisturb `json:"doNotDisturb"`
}

type DoNotDisturb struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`
}

type AppearanceSettings struct {
	Theme        string `json:"theme"`
	ReduceMotion bool   `json:"reduceMotion"`
	ShowSeconds  bool   `json:"showSeconds"`
	CompactView  bool   `json:"compactView"`
}

type DataSettings struct {
	AutoSaveInterval int        `json:"autoSaveInterval"` // seconds
	LastBackup       *time.Time `json:"lastBackup"`
}

// Priority ranks tasks; royal is the highest.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityRoyal  Priority = "royal"
)

// Rank orders priorities from low (1) to royal (4). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityRoyal:
		return 4
	}
	return 0
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

type Task struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Priority           Priority  `json:"priority"`
	Category           string    `json:"category"`
	EstimatedPomodoros int       `json:"estimatedPomodoros"`
	CompletedPomodoros int       `json:"completedPomodoros"`
	IsCompleted        bool      `json:"isCompleted"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	DueDate            string    `json:"dueDate,omitempty"` // YYYY-MM-DD
	Tags               []string  `json:"tags"`
}

const (
	SessionWork = "work"

	SessionActive    = "active"
	SessionCompleted = "completed"
)

type Session struct {
	ID        string     `json:"id"`
	TaskID    *string    `json:"taskId"`
	Type      string     `json:"type"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Duration  int        `json:"duration"` // whole minutes
	Status    string     `json:"status"`
	PausedAt  *time.Time `json:"pausedAt,omitempty"`
}

type BestDay struct {
	Date    string `json:"date,omitempty"`
	Minutes int    `json:"minutes"`
}

type Statistics struct {
	TotalFocusMinutes   int            `json:"totalFocusMinutes"`
	TotalSessions       int            `json:"totalSessions"`
	TotalTasksCompleted int            `json:"totalTasksCompleted"`
	CurrentStreak       int            `json:"currentStreak"`
	LongestStreak       int            `json:"longestStreak"`
	DailyTotals         map[string]int `json:"dailyTotals"`
	WeeklyGoal          int            `json:"weeklyGoal"`
	MonthlyGoal         int            `json:"monthlyGoal"`
	BestDay             BestDay        `json:"bestDay"`
	StartDate           time.Time      `json:"startDate"`
	LastSessionDate     *time.Time     `json:"lastSessionDate"`
	ProductivityScore   int            `json:"productivityScore"`
}

type Achievement struct {
	ID       string     `json:"id"`
	Unlocked bool       `json:"unlocked"`
	Date     *time.Time `json:"date"`
}

// TimerState is the persisted countdown snapshot used for suspension recovery.
type TimerState struct {
	TimeLeft        int        `json:"timeLeft"`  // seconds
	TotalTime       int        `json:"totalTime"` // seconds
	IsRunning       bool       `json:"isRunning"`
	IsBreak         bool       `json:"isBreak"`
	IsLongBreak     bool       `json:"isLongBreak"`
	SessionCount    int        `json:"sessionCount"`
	TotalSessions   int        `json:"totalSessions"`
	CurrentTask     *Task      `json:"currentTask,omitempty"`
	ActiveSessionID *string    `json:"activeSessionId,omitempty"`
	StartTime       *time.Time `json:"startTime,omitempty"`
}

// DateKey formats t as the local calendar day used by daily totals.
func DateKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
