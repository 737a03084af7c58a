package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Backup is the full export document.
type Backup struct {
	Settings     Settings      `json:"settings"`
	Tasks        []Task        `json:"tasks"`
	Sessions     []Session     `json:"sessions"`
	Statistics   Statistics    `json:"statistics"`
	Achievements []Achievement `json:"achievements"`
	ExportDate   time.Time     `json:"exportDate"`
	Version      string        `json:"version"`
}

// ImportReport lists which sections of an import were written and which were
// rejected, with the reason.
type ImportReport struct {
	Imported []string          `json:"imported"`
	Rejected map[string]string `json:"rejected,omitempty"`
}

func (r *ImportReport) reject(section string, err error) {
	if r.Rejected == nil {
		r.Rejected = make(map[string]string)
	}
	r.Rejected[section] = err.Error()
}

// Snapshot collects every collection into a Backup.
func (s *Store) Snapshot() Backup {
	return Backup{
		Settings:     s.Settings(),
		Tasks:        s.Tasks(),
		Sessions:     s.Sessions(),
		Statistics:   s.Statistics(),
		Achievements: s.Achievements(),
		ExportDate:   s.now().UTC(),
		Version:      SettingsVersion,
	}
}

// ExportAll serializes every collection as indented JSON.
func (s *Store) ExportAll() ([]byte, error) {
	data, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// ImportAll writes each recognized section of an exported document. Sections
// are validated independently; an invalid section is skipped and reported
// while the others are still imported. It reports false when the document
// is not a JSON object or a section write failed.
func (s *Store) ImportAll(data []byte) (ImportReport, bool) {
	var report ImportReport

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("import rejected", "err", err)
		report.reject("document", err)
		return report, false
	}

	ok := true
	write := func(section string, saved bool) {
		if !saved {
			ok = false
			report.reject(section, fmt.Errorf("write failed"))
			return
		}
		report.Imported = append(report.Imported, section)
	}

	if raw, found := doc["settings"]; found && !isNull(raw) {
		var patch map[string]any
		if err := json.Unmarshal(raw, &patch); err != nil {
			report.reject("settings", err)
		} else {
			write("settings", s.UpdateSettings(patch))
		}
	}

	if raw, found := doc["tasks"]; found && !isNull(raw) {
		var tasks []Task
		if err := json.Unmarshal(raw, &tasks); err != nil {
			report.reject("tasks", err)
		} else if err := validateTasks(tasks); err != nil {
			report.reject("tasks", err)
		} else {
			write("tasks", s.SaveTasks(tasks))
		}
	}

	if raw, found := doc["sessions"]; found && !isNull(raw) {
		var sessions []Session
		if err := json.Unmarshal(raw, &sessions); err != nil {
			report.reject("sessions", err)
		} else if err := validateSessions(sessions); err != nil {
			report.reject("sessions", err)
		} else {
			write("sessions", s.SaveSessions(sessions))
		}
	}

	if raw, found := doc["statistics"]; found && !isNull(raw) {
		st := DefaultStatistics(s.now())
		if err := json.Unmarshal(raw, &st); err != nil {
			report.reject("statistics", err)
		} else {
			write("statistics", s.SaveStatistics(st))
		}
	}

	if raw, found := doc["achievements"]; found && !isNull(raw) {
		var achievements []Achievement
		if err := json.Unmarshal(raw, &achievements); err != nil {
			report.reject("achievements", err)
		} else {
			write("achievements", s.SaveAchievements(achievements))
		}
	}

	if len(report.Imported) == 0 && len(report.Rejected) == 0 {
		s.log.Info("import contained no known sections")
	}
	return report, ok
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func validateTasks(tasks []Task) error {
	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			return fmt.Errorf("task %d: missing id", i)
		}
		if t.Title == "" {
			return fmt.Errorf("task %q: missing title", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("task %q: duplicate id", t.ID)
		}
		seen[t.ID] = true
		if !t.Priority.Valid() {
			t.Priority = PriorityMedium
		}
		t.EstimatedPomodoros = max(t.EstimatedPomodoros, 1)
		t.CompletedPomodoros = min(max(t.CompletedPomodoros, 0), t.EstimatedPomodoros)
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
	return nil
}

func validateSessions(sessions []Session) error {
	active := 0
	for i, sess := range sessions {
		if sess.ID == "" {
			return fmt.Errorf("session %d: missing id", i)
		}
		switch sess.Status {
		case SessionActive:
			active++
		case SessionCompleted:
		default:
			return fmt.Errorf("session %q: unknown status %q", sess.ID, sess.Status)
		}
	}
	if active > 1 {
		return fmt.Errorf("%d active sessions, at most one allowed", active)
	}
	return nil
}
