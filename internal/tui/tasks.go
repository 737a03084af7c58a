package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/tasks"
)

var taskCategories = []string{"work", "study", "personal", "health", "creative", "other"}

var taskPriorities = []store.Priority{store.PriorityLow, store.PriorityMedium, store.PriorityHigh, store.PriorityRoyal}

var filterCycle = []tasks.Filter{tasks.FilterAll, tasks.FilterActive, tasks.FilterCompleted}

type tasksModel struct {
	tracker *tasks.Tracker
	width   int
	height  int

	list   []store.Task
	stats  tasks.Stats
	cursor int

	filterIdx int
	sortIdx   int

	formActive bool
	form       *huh.Form
	editingID  string // empty for a new task

	// Form field pointers (survive value copies)
	formTitle    *string
	formDesc     *string
	formPriority *store.Priority
	formCategory *string
	formEstimate *string
	formDue      *string
	formTags     *string
}

func newTasksModel(tr *tasks.Tracker) tasksModel {
	title, desc, cat, est, due, tags := "", "", "work", "1", "", ""
	prio := store.PriorityMedium
	return tasksModel{
		tracker:      tr,
		formTitle:    &title,
		formDesc:     &desc,
		formPriority: &prio,
		formCategory: &cat,
		formEstimate: &est,
		formDue:      &due,
		formTags:     &tags,
	}
}

func (m *tasksModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type tasksDataMsg struct {
	list  []store.Task
	stats tasks.Stats
}

func (m tasksModel) listOptions() tasks.ListOptions {
	opts := tasks.SortCycle[m.sortIdx%len(tasks.SortCycle)]
	opts.Filter = filterCycle[m.filterIdx%len(filterCycle)]
	return opts
}

func (m tasksModel) refresh() tea.Cmd {
	opts := m.listOptions()
	return func() tea.Msg {
		return tasksDataMsg{list: m.tracker.List(opts), stats: m.tracker.Stats()}
	}
}

func (m tasksModel) selected() (store.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return store.Task{}, false
	}
	return m.list[m.cursor], true
}

func errStatus(err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
	}
}

func (m tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		m.list = msg.list
		m.stats = msg.stats
		if m.cursor >= len(m.list) {
			m.cursor = max(0, len(m.list)-1)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.list)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.New):
			return m.showForm(nil)
		case key.Matches(msg, keys.Edit):
			if t, ok := m.selected(); ok {
				return m.showForm(&t)
			}
		case key.Matches(msg, keys.Delete):
			if t, ok := m.selected(); ok {
				if err := m.tracker.Delete(t.ID); err != nil {
					return m, errStatus(err)
				}
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Toggle):
			if t, ok := m.selected(); ok {
				if _, err := m.tracker.ToggleCompletion(t.ID); err != nil {
					return m, errStatus(err)
				}
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Enter):
			if t, ok := m.selected(); ok {
				if _, err := m.tracker.SetActive(t.ID); err != nil {
					return m, errStatus(err)
				}
				return m, func() tea.Msg {
					return statusMsg{text: "Focusing on " + t.Title}
				}
			}
		case key.Matches(msg, keys.Filter):
			m.filterIdx = (m.filterIdx + 1) % len(filterCycle)
			m.cursor = 0
			return m, m.refresh()
		case key.Matches(msg, keys.Sort):
			m.sortIdx = (m.sortIdx + 1) % len(tasks.SortCycle)
			return m, m.refresh()
		}
	}
	return m, nil
}

func validateDueDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD")
	}
	return nil
}

func (m tasksModel) showForm(t *store.Task) (tasksModel, tea.Cmd) {
	if t == nil {
		m.editingID = ""
		*m.formTitle = ""
		*m.formDesc = ""
		*m.formPriority = store.PriorityMedium
		*m.formCategory = "work"
		*m.formEstimate = "1"
		*m.formDue = ""
		*m.formTags = ""
	} else {
		m.editingID = t.ID
		*m.formTitle = t.Title
		*m.formDesc = t.Description
		*m.formPriority = t.Priority
		*m.formCategory = t.Category
		*m.formEstimate = strconv.Itoa(t.EstimatedPomodoros)
		*m.formDue = t.DueDate
		*m.formTags = strings.Join(t.Tags, ", ")
	}

	prioOptions := make([]huh.Option[store.Priority], len(taskPriorities))
	for i, p := range taskPriorities {
		prioOptions[i] = huh.NewOption(string(p), p)
	}
	catOptions := make([]huh.Option[string], len(taskCategories))
	for i, c := range taskCategories {
		catOptions[i] = huh.NewOption(c, c)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(m.formTitle).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().Title("Description").Lines(3).Value(m.formDesc),
			huh.NewSelect[store.Priority]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(m.formCategory),
		),
		huh.NewGroup(
			huh.NewInput().Title("Estimated pomodoros").Validate(validatePositive).Value(m.formEstimate),
			huh.NewInput().Title("Due date (YYYY-MM-DD, optional)").Validate(validateDueDate).Value(m.formDue),
			huh.NewInput().Title("Tags (comma-separated)").Value(m.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.formActive = false
	m.form = nil
	estimate := atoiOr(*m.formEstimate, 1)
	due := strings.TrimSpace(*m.formDue)
	tags := splitTags(*m.formTags)

	var err error
	if m.editingID == "" {
		_, err = m.tracker.Create(tasks.Input{
			Title:              *m.formTitle,
			Description:        *m.formDesc,
			Priority:           *m.formPriority,
			Category:           *m.formCategory,
			EstimatedPomodoros: estimate,
			DueDate:            due,
			Tags:               tags,
		})
	} else {
		_, err = m.tracker.Update(m.editingID, tasks.Patch{
			Title:              m.formTitle,
			Description:        m.formDesc,
			Priority:           m.formPriority,
			Category:           m.formCategory,
			EstimatedPomodoros: &estimate,
			DueDate:            &due,
			Tags:               &tags,
		})
	}
	if err != nil {
		return m, errStatus(err)
	}
	return m, m.refresh()
}

func (m tasksModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("New Task")
		if m.editingID != "" {
			title = titleStyle.Render("Edit Task")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	opts := m.listOptions()
	order := "asc"
	if opts.Desc {
		order = "desc"
	}
	title := titleStyle.Render("Tasks") + mutedStyle.Render(fmt.Sprintf("  filter: %s  sort: %s %s", opts.Filter, opts.Sort, order))

	if len(m.list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks here. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")

	header := mutedStyle.Render(fmt.Sprintf("    %-32s %-8s %-10s %-7s %s", "Title", "Priority", "Category", "Done", "Due"))
	rows = append(rows, header)

	for i, t := range m.list {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		if t.IsCompleted {
			style = completedItemStyle
		}
		check := "○"
		if t.IsCompleted {
			check = "✓"
		}
		dot := lipgloss.NewStyle().Foreground(priorityColors[string(t.Priority)]).Render("●")
		row := style.Render(fmt.Sprintf("%s%s %-32s", cursor, check, truncate(t.Title, 32))) +
			" " + dot + style.Render(fmt.Sprintf(" %-6s %-10s %d/%-5d %s",
			t.Priority, t.Category, t.CompletedPomodoros, t.EstimatedPomodoros, t.DueDate))
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d/%d done · %d/%d pomodoros · %.0f%% complete",
		m.stats.Completed, m.stats.Total, m.stats.CompletedPomodoros, m.stats.TotalPomodoros, m.stats.CompletionRate)))
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  x: done  d: delete  enter: focus  f: filter  o: sort"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
