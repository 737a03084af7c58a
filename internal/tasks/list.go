package tasks

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sadopc/pomodoro/internal/store"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

type SortKey string

const (
	SortCreated  SortKey = "created"
	SortPriority SortKey = "priority"
	SortDue      SortKey = "due"
	SortProgress SortKey = "progress"
	SortTitle    SortKey = "title"
)

// ListOptions controls List. The zero value lists everything in creation order.
type ListOptions struct {
	Filter Filter
	Sort   SortKey
	Desc   bool
}

// DefaultListOptions is newest first.
var DefaultListOptions = ListOptions{Filter: FilterAll, Sort: SortCreated, Desc: true}

// SortCycle is the order a UI steps through when the sort key is toggled.
var SortCycle = []ListOptions{
	{Filter: FilterAll, Sort: SortCreated, Desc: true},
	{Filter: FilterAll, Sort: SortPriority, Desc: true},
	{Filter: FilterAll, Sort: SortDue},
	{Filter: FilterAll, Sort: SortProgress, Desc: true},
}

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

func ParseSort(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortCreated, nil
	case SortCreated, SortPriority, SortDue, SortProgress, SortTitle:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// List returns a filtered, sorted copy of the task list. Tasks without a due
// date sort last in either direction when ordering by due date.
func (t *Tracker) List(opts ListOptions) []store.Task {
	all := t.store.Tasks()
	out := make([]store.Task, 0, len(all))
	for _, task := range all {
		switch opts.Filter {
		case FilterActive:
			if task.IsCompleted {
				continue
			}
		case FilterCompleted:
			if !task.IsCompleted {
				continue
			}
		}
		out = append(out, task)
	}

	slices.SortStableFunc(out, func(a, b store.Task) int {
		if opts.Sort == SortDue && (a.DueDate == "") != (b.DueDate == "") {
			if a.DueDate == "" {
				return 1
			}
			return -1
		}
		c := compare(opts.Sort, a, b)
		if opts.Desc {
			return -c
		}
		return c
	})
	return out
}

func compare(key SortKey, a, b store.Task) int {
	switch key {
	case SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case SortDue:
		return strings.Compare(a.DueDate, b.DueDate)
	case SortProgress:
		pa, pb := Progress(a), Progress(b)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// Progress is the share of estimated pomodoros completed, 0..100.
func Progress(task store.Task) float64 {
	if task.EstimatedPomodoros <= 0 {
		return 0
	}
	return float64(task.CompletedPomodoros) / float64(task.EstimatedPomodoros) * 100
}

type Stats struct {
	Total              int                    `json:"total"`
	Completed          int                    `json:"completed"`
	Active             int                    `json:"active"`
	TotalPomodoros     int                    `json:"totalPomodoros"`
	CompletedPomodoros int                    `json:"completedPomodoros"`
	CompletionRate     float64                `json:"completionRate"`
	PomodoroRate       float64                `json:"pomodoroRate"`
	ByPriority         map[store.Priority]int `json:"byPriority"`
	ByCategory         map[string]int         `json:"byCategory"`
}

func (t *Tracker) Stats() Stats {
	return Summarize(t.store.Tasks())
}

// Summarize aggregates counts over a task list.
func Summarize(list []store.Task) Stats {
	st := Stats{
		Total: len(list),
		ByPriority: map[store.Priority]int{
			store.PriorityLow:    0,
			store.PriorityMedium: 0,
			store.PriorityHigh:   0,
			store.PriorityRoyal:  0,
		},
		ByCategory: map[string]int{},
	}
	for _, task := range list {
		if task.IsCompleted {
			st.Completed++
		}
		st.TotalPomodoros += task.EstimatedPomodoros
		st.CompletedPomodoros += task.CompletedPomodoros
		if task.Priority.Valid() {
			st.ByPriority[task.Priority]++
		}
		st.ByCategory[task.Category]++
	}
	st.Active = st.Total - st.Completed
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
	}
	if st.TotalPomodoros > 0 {
		st.PomodoroRate = float64(st.CompletedPomodoros) / float64(st.TotalPomodoros) * 100
	}
	return st
}
