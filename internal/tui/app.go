package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/export"
	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/timer"
)

var exportFormats = []string{"CSV", "JSON", "Backup"}

// App is the root Bubble Tea model.
type App struct {
	core   *app.App
	events *eventSource
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	dashboard dashboardModel
	pomodoro  pomodoroModel
	tasks     tasksModel
	reports   reportsModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp subscribes to the engine. Call Close when the program exits.
func NewApp(core *app.App) App {
	h := help.New()
	h.ShowAll = false

	dir, err := os.UserHomeDir()
	if err != nil {
		dir = "."
	}

	return App{
		core:       core,
		events:     newEventSource(core.Timer),
		activeView: viewDashboard,
		exportDir:  dir,
		dashboard:  newDashboardModel(core),
		pomodoro:   newPomodoroModel(core.Timer),
		tasks:      newTasksModel(core.Tasks),
		reports:    newReportsModel(core.Stats),
		settings:   newSettingsModel(core),
		help:       h,
	}
}

func (a App) Close() {
	a.events.close()
}

// Run starts the full-screen interface and blocks until the user quits.
// Run blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, core *app.App) error {
	m := NewApp(core)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.events.wait(),
		a.dashboard.loadData(),
		a.tasks.refresh(),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewDashboard
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTimer
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTasks
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			// Reports uses tab to switch period.
			if a.activeView != viewReports {
				a.activeView = (a.activeView + 1) % viewState(len(viewNames))
				return a, a.refreshCurrentView()
			}
		case key.Matches(msg, keys.Start) && a.activeView == viewDashboard:
			// The dashboard has no controls of its own; the timer keys work there too.
			var cmd tea.Cmd
			a.pomodoro, cmd = a.pomodoro.update(msg)
			return a, cmd
		}

	case engineEventMsg:
		return a.handleEngineEvent(msg)

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil

	case dashboardDataMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd

	case tasksDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

// handleEngineEvent fans an engine event out to every view that shows timer
// state, then waits for the next one.
func (a App) handleEngineEvent(msg engineEventMsg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{a.events.wait()}

	var cmd tea.Cmd
	a.pomodoro, cmd = a.pomodoro.update(msg)
	cmds = append(cmds, cmd)
	a.dashboard, cmd = a.dashboard.update(msg)
	cmds = append(cmds, cmd)

	ev := msg.event
	switch ev.Kind {
	case timer.SessionStarted:
		a.status = strings.ToLower(segmentTitle(ev.Segment)) + " started"
		a.statusError = false
	case timer.TimeWarning:
		a.status = ev.Message
		a.statusError = false
	case timer.SessionCompleted:
		if ev.Segment == timer.Focus {
			a.status = fmt.Sprintf("Focus complete: %d min", ev.Minutes)
		} else {
			a.status = "Break over"
		}
		a.statusError = false
		cmds = append(cmds, a.dashboard.loadData(), a.tasks.refresh())
	case timer.LongBreakStarted:
		a.status = "Set complete, long break earned"
		a.statusError = false
	case timer.AchievementUnlocked:
		var names []string
		for _, ach := range ev.Achievements {
			names = append(names, store.AchievementTitles[ach.ID])
		}
		a.status = "Achievement unlocked: " + strings.Join(names, ", ")
		a.statusError = false
		cmds = append(cmds, a.dashboard.loadData())
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTimer:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	case viewTimer:
		return a.pomodoro.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewDashboard:
		return a.dashboard.loadData()
	case viewTasks:
		return a.tasks.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTimer:
		content = a.pomodoro.view()
	case viewTasks:
		content = a.tasks.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("♛ pomodoro")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Countdown indicator, hidden while the timer view shows it in full.
	timerInfo := ""
	st := a.pomodoro.state
	if a.activeView != viewTimer && (st.Running || st.TimeLeft < st.TotalTime) {
		clock := formatClock(st.TimeLeft)
		if st.Running {
			timerInfo = segmentStyle(st.Segment).Render(" ● " + clock)
		} else {
			timerInfo = warningStyle.Render(" ⏸ " + clock)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Format"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	core, dir := a.core, a.exportDir
	return func() tea.Msg {
		now := core.Store.Now()
		dateStr := now.Local().Format("2006-01-02")
		sessions := core.Store.Sessions()
		index := export.TaskIndex(core.Store.Tasks())

		var path string
		switch format {
		case 0:
			path = filepath.Join(dir, fmt.Sprintf("pomodoro-sessions-%s.csv", dateStr))
			if err := export.ToCSV(sessions, index, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		case 1:
			path = filepath.Join(dir, fmt.Sprintf("pomodoro-sessions-%s.json", dateStr))
			if err := export.ToJSON(sessions, index, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		default:
			data, err := core.Store.ExportAll()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
			}
			path = filepath.Join(dir, export.BackupFilename(now))
			if err := export.WriteBackup(data, path); err != nil {
				return statusMsg{text: fmt.Sprintf("Backup error: %v", err), isError: true}
			}
			core.MarkBackup(now)
		}

		return exportDoneMsg{path: path}
	}
}
