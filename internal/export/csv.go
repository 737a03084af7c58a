package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

var csvHeader = []string{"ID", "Task", "Type", "Start", "End", "Duration (min)", "Duration", "Status"}

// ToCSV writes one row per session to path.
func ToCSV(sessions []store.Session, tasks map[string]store.Task, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	return WriteCSV(f, sessions, tasks)
}

func WriteCSV(out io.Writer, sessions []store.Session, tasks map[string]store.Task) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}

		row := []string{
			s.ID,
			taskTitle(s.TaskID, tasks),
			s.Type,
			s.StartTime.Local().Format(time.RFC3339),
			endStr,
			fmt.Sprintf("%d", s.Duration),
			formatDuration(s.Duration),
			s.Status,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func taskTitle(id *string, tasks map[string]store.Task) string {
	if id == nil {
		return ""
	}
	if t, ok := tasks[*id]; ok {
		return t.Title
	}
	return "Unknown"
}

// formatDuration renders minutes as HH:MM.
func formatDuration(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// TaskIndex maps task ids to tasks for the writers.
func TaskIndex(list []store.Task) map[string]store.Task {
	m := make(map[string]store.Task, len(list))
	for _, t := range list {
		m[t.ID] = t
	}
	return m
}
