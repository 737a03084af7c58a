package tasks

import (
	"testing"
	"time"

	"github.com/sadopc/pomodoro/internal/store"
)

func titles(list []store.Task) []string {
	out := make([]string, len(list))
	for i, t := range list {
		out[i] = t.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func seedTasks(t *testing.T) *Tracker {
	t.Helper()
	tr, _, clock := newTestTracker(t)
	inputs := []Input{
		{Title: "bravo", Priority: store.PriorityLow, DueDate: "2025-05-02", EstimatedPomodoros: 4},
		{Title: "alpha", Priority: store.PriorityRoyal, EstimatedPomodoros: 2},
		{Title: "charlie", Priority: store.PriorityHigh, DueDate: "2025-04-20", EstimatedPomodoros: 1},
	}
	for _, in := range inputs {
		mustCreate(t, tr, in)
		clock.t = clock.t.Add(time.Minute)
	}
	// alpha half done, charlie completed
	list := tr.List(ListOptions{})
	for _, task := range list {
		switch task.Title {
		case "alpha":
			tr.IncrementPomodoro(task.ID)
		case "charlie":
			tr.ToggleCompletion(task.ID)
		}
	}
	return tr
}

func TestListSorting(t *testing.T) {
	tr := seedTasks(t)

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"created asc", ListOptions{Sort: SortCreated}, []string{"bravo", "alpha", "charlie"}},
		{"created desc", DefaultListOptions, []string{"charlie", "alpha", "bravo"}},
		{"priority desc", ListOptions{Sort: SortPriority, Desc: true}, []string{"alpha", "charlie", "bravo"}},
		{"due asc", ListOptions{Sort: SortDue}, []string{"charlie", "bravo", "alpha"}},
		{"due desc keeps missing last", ListOptions{Sort: SortDue, Desc: true}, []string{"bravo", "charlie", "alpha"}},
		{"progress desc", ListOptions{Sort: SortProgress, Desc: true}, []string{"charlie", "alpha", "bravo"}},
		{"title asc", ListOptions{Sort: SortTitle}, []string{"alpha", "bravo", "charlie"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := titles(tr.List(tt.opts)); !equalStrings(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListFilter(t *testing.T) {
	tr := seedTasks(t)

	if got := titles(tr.List(ListOptions{Filter: FilterActive, Sort: SortTitle})); !equalStrings(got, []string{"alpha", "bravo"}) {
		t.Fatalf("unexpected active tasks: %v", got)
	}
	if got := titles(tr.List(ListOptions{Filter: FilterCompleted})); !equalStrings(got, []string{"charlie"}) {
		t.Fatalf("unexpected completed tasks: %v", got)
	}
}

func TestParseFilterAndSort(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterAll {
		t.Fatalf("unexpected default filter %q %v", f, err)
	}
	if _, err := ParseFilter("archived"); err == nil {
		t.Fatal("expected error")
	}
	if k, err := ParseSort("due"); err != nil || k != SortDue {
		t.Fatalf("unexpected sort %q %v", k, err)
	}
	if _, err := ParseSort("size"); err == nil {
		t.Fatal("expected error")
	}
}

func TestStats(t *testing.T) {
	tr := seedTasks(t)
	st := tr.Stats()

	if st.Total != 3 || st.Completed != 1 || st.Active != 2 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.TotalPomodoros != 7 || st.CompletedPomodoros != 2 {
		t.Fatalf("unexpected pomodoros: %+v", st)
	}
	if st.ByPriority[store.PriorityRoyal] != 1 || st.ByPriority[store.PriorityMedium] != 0 {
		t.Fatalf("unexpected priority split: %v", st.ByPriority)
	}
	if st.ByCategory["other"] != 3 {
		t.Fatalf("unexpected categories: %v", st.ByCategory)
	}
	if st.CompletionRate < 33.3 || st.CompletionRate > 33.4 {
		t.Fatalf("unexpected completion rate %v", st.CompletionRate)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	st := Summarize(nil)
	if st.Total != 0 || st.CompletionRate != 0 || st.PomodoroRate != 0 {
		t.Fatalf("unexpected empty stats: %+v", st)
	}
}
