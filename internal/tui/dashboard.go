package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/stats"
	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/timer"
)

const recentLimit = 5

type dashboardModel struct {
	core   *app.App
	width  int
	height int

	state        timer.State
	statistics   store.Statistics
	trend        stats.Trend
	recent       []store.Session
	achievements []store.Achievement
	taskTitles   map[string]string
}

func newDashboardModel(core *app.App) dashboardModel {
	return dashboardModel{
		core:  core,
		state: core.Timer.State(),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type dashboardDataMsg struct {
	statistics   store.Statistics
	trend        stats.Trend
	recent       []store.Session
	achievements []store.Achievement
	taskTitles   map[string]string
}

func (d dashboardModel) loadData() tea.Cmd {
	return func() tea.Msg {
		sessions := d.core.Store.Sessions()
		var recent []store.Session
		for i := len(sessions) - 1; i >= 0 && len(recent) < recentLimit; i-- {
			if sessions[i].Status == store.SessionCompleted {
				recent = append(recent, sessions[i])
			}
		}
		titles := make(map[string]string)
		for _, t := range d.core.Store.Tasks() {
			titles[t.ID] = t.Title
		}
		return dashboardDataMsg{
			statistics:   d.core.Store.Statistics(),
			trend:        d.core.Stats.Trend(),
			recent:       recent,
			achievements: d.core.Store.Achievements(),
			taskTitles:   titles,
		}
	}
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.statistics = msg.statistics
		d.trend = msg.trend
		d.recent = msg.recent
		d.achievements = msg.achievements
		d.taskTitles = msg.taskTitles
		return d, nil

	case engineEventMsg:
		d.state = msg.event.State
		return d, nil
	}
	return d, nil
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderStatsPanel(contentWidth),
		d.renderRecentPanel(contentWidth),
		d.renderAchievementsPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	st := d.state
	style := segmentStyle(st.Segment).Bold(true)

	var indicator string
	switch {
	case st.Running:
		indicator = style.Render("●  " + segmentTitle(st.Segment))
	case st.TimeLeft < st.TotalTime:
		indicator = warningStyle.Render("⏸  PAUSED")
	default:
		indicator = mutedStyle.Render("■  READY")
	}

	timeDisplay := style.Width(max(w-6, 10)).Align(lipgloss.Center).Render(formatClock(st.TimeLeft))
	hint := mutedStyle.Render("Press space to start, 2 for the timer view")
	if st.CurrentTask != nil {
		hint = goldStyle.Render("♛ ") + titleStyle.Render(st.CurrentTask.Title)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, hint)
	if st.Running {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (d dashboardModel) renderStatsPanel(w int) string {
	s := d.statistics
	today := s.DailyTotals[store.DateKey(d.core.Store.Now())]

	trend := breakStyle.Render(d.trend.Text)
	if d.trend.Change < 0 {
		trend = errorStyle.Render(d.trend.Text)
	}

	best := "none yet"
	if s.BestDay.Date != "" {
		best = fmt.Sprintf("%s (%s)", s.BestDay.Date, stats.FormatFocusTime(s.BestDay.Minutes))
	}

	label := lipgloss.NewStyle().Width(16)
	rows := []string{
		titleStyle.Render("Today") + "  " + goldStyle.Render(stats.FormatFocusTime(today)) + "  " + trend,
		"",
		"  " + label.Render("Total focus") + goldStyle.Render(stats.FormatFocusTime(s.TotalFocusMinutes)),
		"  " + label.Render("Sessions") + goldStyle.Render(fmt.Sprintf("%d", s.TotalSessions)),
		"  " + label.Render("Tasks done") + goldStyle.Render(fmt.Sprintf("%d", s.TotalTasksCompleted)),
		"  " + label.Render("Streak") + goldStyle.Render(fmt.Sprintf("%d days (best %d)", s.CurrentStreak, s.LongestStreak)),
		"  " + label.Render("Score") + goldStyle.Render(fmt.Sprintf("%d", s.ProductivityScore)) +
			" " + mutedStyle.Render(progressBar(float64(s.ProductivityScore), 20)),
		"  " + label.Render("Best day") + goldStyle.Render(best),
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		))
	}

	rows := []string{title}
	for _, s := range d.recent {
		task := "-"
		if s.TaskID != nil {
			task = d.taskTitles[*s.TaskID]
			if task == "" {
				task = "Unknown"
			}
		}
		rows = append(rows, fmt.Sprintf("  ✓ %s  %-24s %d min",
			s.StartTime.Local().Format("Jan 02 15:04"), truncate(task, 24), s.Duration))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderAchievementsPanel(w int) string {
	unlocked := 0
	var badges []string
	for _, a := range d.achievements {
		name := store.AchievementTitles[a.ID]
		if a.Unlocked {
			unlocked++
			badges = append(badges, goldStyle.Render("★ "+name))
		} else {
			badges = append(badges, mutedStyle.Render("☆ "+name))
		}
	}
	title := titleStyle.Render("Achievements") + mutedStyle.Render(fmt.Sprintf("  %d/%d", unlocked, len(d.achievements)))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.NewStyle().Width(max(w-6, 10)).Render(strings.Join(badges, "  ")),
	))
}
