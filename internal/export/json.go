package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID          string `json:"id"`
	Task        string `json:"task,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
	Type        string `json:"type"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time,omitempty"`
	DurationMin int    `json:"duration_minutes"`
	Duration    string `json:"duration"`
	Status      string `json:"status"`
}

// ToJSON writes the session list as an indented JSON document to path.
func ToJSON(sessions []store.Session, tasks map[string]store.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	return WriteJSON(f, sessions, tasks)
}

func WriteJSON(w io.Writer, sessions []store.Session, tasks map[string]store.Task) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
		Sessions:   make([]jsonSession, 0, len(sessions)),
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}
		taskID := ""
		if s.TaskID != nil {
			taskID = *s.TaskID
		}

		export.Sessions = append(export.Sessions, jsonSession{
			ID:          s.ID,
			Task:        taskTitle(s.TaskID, tasks),
			TaskID:      taskID,
			Type:        s.Type,
			StartTime:   s.StartTime.Local().Format(time.RFC3339),
			EndTime:     endStr,
			DurationMin: s.Duration,
			Duration:    formatDuration(s.Duration),
			Status:      s.Status,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// BackupFilename is the download name for a full backup taken at t.
func BackupFilename(t time.Time) string {
	return "pomodoro-backup-" + t.Local().Format("2006-01-02") + ".json"
}

// WriteBackup stores a backup document produced by the store's ExportAll.
func WriteBackup(data []byte, path string) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	return nil
}
