package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

func sampleData() ([]store.Session, map[string]store.Task) {
	now := time.Now().UTC()
	end := now
	tid := "task-1"
	missing := "task-gone"

	sessions := []store.Session{
		{
			ID:        "s1",
			TaskID:    &tid,
			Type:      store.SessionWork,
			StartTime: now.Add(-25 * time.Minute),
			EndTime:   &end,
			Duration:  25,
			Status:    store.SessionCompleted,
		},
		{
			ID:        "s2",
			Type:      store.SessionWork,
			StartTime: now.Add(-90 * time.Minute),
			EndTime:   &end,
			Duration:  65,
			Status:    store.SessionCompleted,
		},
		{
			ID:        "s3",
			TaskID:    &missing,
			Type:      store.SessionWork,
			StartTime: now.Add(-5 * time.Minute),
			Status:    store.SessionActive,
		},
	}

	tasks := TaskIndex([]store.Task{
		{ID: "task-1", Title: "Write chapter"},
	})

	return sessions, tasks
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	sessions, tasks := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sessions, tasks, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	records := readCSV(t, path)

	// header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "s1" || row[1] != "Write chapter" {
		t.Fatalf("unexpected first row %v", row)
	}
	if row[5] != "25" || row[6] != "00:25" {
		t.Fatalf("duration columns = %q %q", row[5], row[6])
	}
	if records[2][1] != "" {
		t.Fatalf("session without task should have empty task, got %q", records[2][1])
	}
	if records[2][6] != "01:05" {
		t.Fatalf("Duration = %q, want 01:05", records[2][6])
	}

	active := records[3]
	if active[4] != "" {
		t.Fatalf("active session should have empty end time, got %q", active[4])
	}
	if active[1] != "Unknown" {
		t.Fatalf("expected 'Unknown' for missing task, got %q", active[1])
	}
	if active[7] != store.SessionActive {
		t.Fatalf("status = %q", active[7])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, nil, path); err != nil {
		t.Fatal(err)
	}
	if records := readCSV(t, path); len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	tid := "t"
	sessions := []store.Session{{ID: "s", TaskID: &tid, Type: store.SessionWork, StartTime: time.Now()}}
	tasks := TaskIndex([]store.Task{{ID: "t", Title: `Task "Special", really`}})

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sessions, tasks); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][1] != `Task "Special", really` {
		t.Fatalf("task title mangled: %q", records[1][1])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	sessions, tasks := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sessions, tasks, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.Count != 3 || len(result.Sessions) != 3 {
		t.Fatalf("count = %d, sessions = %d, want 3", result.Count, len(result.Sessions))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	s := result.Sessions[0]
	if s.Task != "Write chapter" || s.TaskID != "task-1" || s.DurationMin != 25 {
		t.Fatalf("unexpected first session %+v", s)
	}
	if result.Sessions[2].EndTime != "" {
		t.Fatal("active session should omit end time")
	}
}

func TestToJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil, nil); err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.Count != 0 || result.Sessions == nil {
		t.Fatalf("expected empty sessions array, got %+v", result)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// ============================================================
// Backup
// ============================================================

func TestBackupFilename(t *testing.T) {
	at := time.Date(2025, 3, 9, 12, 0, 0, 0, time.Local)
	if got := BackupFilename(at); got != "pomodoro-backup-2025-03-09.json" {
		t.Fatalf("BackupFilename = %q", got)
	}
}

func TestWriteBackup(t *testing.T) {
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	data, err := s.ExportAll()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), BackupFilename(time.Now()))
	if err := WriteBackup(data, path); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("backup contents differ")
	}
}
