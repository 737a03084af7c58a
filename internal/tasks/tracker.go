// Package tasks manages the task list: creation, edits, completion and the
// pomodoro progress recorded against each task.
package tasks

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/pomodoro/internal/store"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrEmptyTitle      = errors.New("task title is required")
	ErrTaskCompleted   = errors.New("task is already completed")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrNotSaved        = errors.New("task changes not persisted")
)

// Store is the persistence the tracker needs.
type Store interface {
	Tasks() []store.Task
	SaveTasks([]store.Task) bool
}

// ActiveTaskSetter receives the task chosen for the next focus session and
// hears about later edits to tasks.
type ActiveTaskSetter interface {
	SetCurrentTask(*store.Task)
	TaskChanged(task store.Task, removed bool)
}

type ChangeKind string

const (
	Created    ChangeKind = "created"
	Updated    ChangeKind = "updated"
	Deleted    ChangeKind = "deleted"
	Toggled    ChangeKind = "toggled"
	Progressed ChangeKind = "progressed"
	Activated  ChangeKind = "activated"
)

// Change describes one mutation delivered to subscribers.
type Change struct {
	Kind ChangeKind
	Task store.Task
}

type Tracker struct {
	mu    sync.Mutex
	store Store
	log   *slog.Logger
	now   func() time.Time
	newID func() string

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
	active ActiveTaskSetter
}

type Option func(*Tracker)

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

func New(s Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: s,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:   time.Now,
		newID: uuid.NewString,
		subs:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Attach connects the component that runs focus sessions.
func (t *Tracker) Attach(a ActiveTaskSetter) {
	t.subMu.Lock()
	t.active = a
	t.subMu.Unlock()
}

// Subscribe registers fn for every change and returns a function that
// removes it.
func (t *Tracker) Subscribe(fn func(Change)) func() {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

func (t *Tracker) emit(c Change) {
	t.subMu.Lock()
	fns := make([]func(Change), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	active := t.active
	t.subMu.Unlock()

	if active != nil && c.Kind != Activated && c.Kind != Created {
		active.TaskChanged(c.Task, c.Kind == Deleted)
	}
	for _, fn := range fns {
		fn(c)
	}
}

// Input holds the fields of a new task. Zero values take defaults.
type Input struct {
	Title              string
	Description        string
	Priority           store.Priority
	Category           string
	EstimatedPomodoros int
	DueDate            string
	Tags               []string
}

func (t *Tracker) Create(in Input) (store.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return store.Task{}, ErrEmptyTitle
	}
	if in.Priority == "" {
		in.Priority = store.PriorityMedium
	}
	if !in.Priority.Valid() {
		return store.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	if in.Category == "" {
		in.Category = "other"
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	now := t.now().UTC()
	task := store.Task{
		ID:                 t.newID(),
		Title:              title,
		Description:        in.Description,
		Priority:           in.Priority,
		Category:           in.Category,
		EstimatedPomodoros: max(in.EstimatedPomodoros, 1),
		CreatedAt:          now,
		UpdatedAt:          now,
		DueDate:            in.DueDate,
		Tags:               tags,
	}

	t.mu.Lock()
	list := append([]store.Task{task}, t.store.Tasks()...)
	saved := t.store.SaveTasks(list)
	t.mu.Unlock()

	if !saved {
		return store.Task{}, ErrNotSaved
	}
	t.log.Debug("task created", "id", task.ID, "title", task.Title)
	t.emit(Change{Kind: Created, Task: task})
	return task, nil
}

// Patch is a partial update; nil fields are left unchanged.
type Patch struct {
	Title              *string
	Description        *string
	Priority           *store.Priority
	Category           *string
	EstimatedPomodoros *int
	CompletedPomodoros *int
	DueDate            *string
	Tags               *[]string
}

func (t *Tracker) Update(id string, p Patch) (store.Task, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return store.Task{}, ErrEmptyTitle
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return store.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, *p.Priority)
	}

	task, err := t.mutate(id, func(task *store.Task) error {
		if p.Title != nil {
			task.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			task.Description = *p.Description
		}
		if p.Priority != nil {
			task.Priority = *p.Priority
		}
		if p.Category != nil {
			task.Category = *p.Category
		}
		if p.EstimatedPomodoros != nil {
			task.EstimatedPomodoros = max(*p.EstimatedPomodoros, 1)
		}
		if p.CompletedPomodoros != nil {
			task.CompletedPomodoros = *p.CompletedPomodoros
		}
		if p.DueDate != nil {
			task.DueDate = *p.DueDate
		}
		if p.Tags != nil {
			task.Tags = *p.Tags
			if task.Tags == nil {
				task.Tags = []string{}
			}
		}
		task.CompletedPomodoros = min(max(task.CompletedPomodoros, 0), task.EstimatedPomodoros)
		if p.CompletedPomodoros != nil || p.EstimatedPomodoros != nil {
			task.IsCompleted = task.CompletedPomodoros >= task.EstimatedPomodoros
		}
		return nil
	})
	if err != nil {
		return store.Task{}, err
	}
	t.emit(Change{Kind: Updated, Task: task})
	return task, nil
}

func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	list := t.store.Tasks()
	idx := indexOf(list, id)
	if idx < 0 {
		t.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	removed := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	saved := t.store.SaveTasks(list)
	t.mu.Unlock()

	if !saved {
		return ErrNotSaved
	}
	t.emit(Change{Kind: Deleted, Task: removed})
	return nil
}

// ToggleCompletion flips isCompleted. Completing fills the pomodoro count,
// reopening clears it.
func (t *Tracker) ToggleCompletion(id string) (store.Task, error) {
	task, err := t.mutate(id, func(task *store.Task) error {
		task.IsCompleted = !task.IsCompleted
		if task.IsCompleted {
			task.CompletedPomodoros = task.EstimatedPomodoros
		} else {
			task.CompletedPomodoros = 0
		}
		return nil
	})
	if err != nil {
		return store.Task{}, err
	}
	t.emit(Change{Kind: Toggled, Task: task})
	return task, nil
}

// SetActive hands an open task to the attached timer.
func (t *Tracker) SetActive(id string) (store.Task, error) {
	t.mu.Lock()
	list := t.store.Tasks()
	t.mu.Unlock()

	idx := indexOf(list, id)
	if idx < 0 {
		return store.Task{}, fmt.Errorf("activate %s: %w", id, ErrNotFound)
	}
	task := list[idx]
	if task.IsCompleted {
		return store.Task{}, ErrTaskCompleted
	}

	t.subMu.Lock()
	active := t.active
	t.subMu.Unlock()
	if active != nil {
		active.SetCurrentTask(&task)
	}
	t.emit(Change{Kind: Activated, Task: task})
	return task, nil
}

// IncrementPomodoro records one finished focus session against the task.
// The count never exceeds the estimate and reaching it completes the task.
// It reports false for unknown or already completed tasks.
func (t *Tracker) IncrementPomodoro(id string) (store.Task, bool) {
	task, err := t.mutate(id, func(task *store.Task) error {
		if task.IsCompleted {
			return ErrTaskCompleted
		}
		task.CompletedPomodoros = min(task.CompletedPomodoros+1, task.EstimatedPomodoros)
		if task.CompletedPomodoros >= task.EstimatedPomodoros {
			task.IsCompleted = true
		}
		return nil
	})
	if err != nil {
		t.log.Debug("pomodoro not recorded", "task", id, "err", err)
		return store.Task{}, false
	}
	t.emit(Change{Kind: Progressed, Task: task})
	return task, true
}

// Get returns a single task.
func (t *Tracker) Get(id string) (store.Task, error) {
	list := t.store.Tasks()
	idx := indexOf(list, id)
	if idx < 0 {
		return store.Task{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return list[idx], nil
}

func (t *Tracker) mutate(id string, fn func(*store.Task) error) (store.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.store.Tasks()
	idx := indexOf(list, id)
	if idx < 0 {
		return store.Task{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err := fn(&list[idx]); err != nil {
		return store.Task{}, err
	}
	list[idx].UpdatedAt = t.now().UTC()
	if !t.store.SaveTasks(list) {
		return store.Task{}, ErrNotSaved
	}
	return list[idx], nil
}

func indexOf(list []store.Task, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
