package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/store"
)

var themes = []string{"royal", "dark", "light"}

type settingsModel struct {
	core   *app.App
	width  int
	height int

	settings   store.Settings
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focus          *string
	shortBreak     *string
	longBreak      *string
	sessionsPerSet *string
	autoBreaks     *bool
	autoFocus      *bool
	notifications  *bool
	sounds         *bool
	theme          *string
}

func newSettingsModel(core *app.App) settingsModel {
	f, b, lb, n, th := "", "", "", "", ""
	ab, af, no, so := false, false, false, false
	return settingsModel{
		core:           core,
		settings:       core.Store.Settings(),
		focus:          &f,
		shortBreak:     &b,
		longBreak:      &lb,
		sessionsPerSet: &n,
		autoBreaks:     &ab,
		autoFocus:      &af,
		notifications:  &no,
		sounds:         &so,
		theme:          &th,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings store.Settings
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return settingsDataMsg{settings: s.core.Store.Settings()}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	t := s.settings.Timer
	*s.focus = strconv.Itoa(t.FocusDuration)
	*s.shortBreak = strconv.Itoa(t.BreakDuration)
	*s.longBreak = strconv.Itoa(t.LongBreakDuration)
	*s.sessionsPerSet = strconv.Itoa(t.SessionsPerSet)
	*s.autoBreaks = t.AutoStartBreaks
	*s.autoFocus = t.AutoStartFocus
	*s.notifications = s.settings.Notifications.Enabled
	*s.sounds = s.settings.Notifications.Sounds
	*s.theme = s.settings.Appearance.Theme

	themeOptions := make([]huh.Option[string], len(themes))
	for i, th := range themes {
		themeOptions[i] = huh.NewOption(th, th)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Validate(validatePositive).Value(s.focus),
			huh.NewInput().Title("Short break (min)").Validate(validatePositive).Value(s.shortBreak),
			huh.NewInput().Title("Long break (min)").Validate(validatePositive).Value(s.longBreak),
			huh.NewInput().Title("Sessions before long break").Validate(validatePositive).Value(s.sessionsPerSet),
			huh.NewConfirm().Title("Start breaks automatically").Value(s.autoBreaks),
			huh.NewConfirm().Title("Start focus automatically").Value(s.autoFocus),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewConfirm().Title("Notifications").Value(s.notifications),
			huh.NewConfirm().Title("Sounds").Value(s.sounds),
			huh.NewSelect[string]().Title("Theme").Options(themeOptions...).Value(s.theme),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if !s.core.UpdateSettings(s.patch()) {
			return s, func() tea.Msg {
				return statusMsg{text: "Settings could not be saved", isError: true}
			}
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg {
			return statusMsg{text: "Settings saved"}
		})
	}

	return s, cmd
}

// patch builds a settings merge document from the form values.
func (s settingsModel) patch() map[string]any {
	t := s.settings.Timer
	return map[string]any{
		"timer": map[string]any{
			"focusDuration":     atoiOr(*s.focus, t.FocusDuration),
			"breakDuration":     atoiOr(*s.shortBreak, t.BreakDuration),
			"longBreakDuration": atoiOr(*s.longBreak, t.LongBreakDuration),
			"sessionsPerSet":    atoiOr(*s.sessionsPerSet, t.SessionsPerSet),
			"autoStartBreaks":   *s.autoBreaks,
			"autoStartFocus":    *s.autoFocus,
		},
		"notifications": map[string]any{
			"enabled": *s.notifications,
			"sounds":  *s.sounds,
		},
		"appearance": map[string]any{
			"theme": *s.theme,
		},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	st := s.settings
	lastBackup := "never"
	if st.Data.LastBackup != nil {
		lastBackup = st.Data.LastBackup.Local().Format("2006-01-02 15:04")
	}
	items := [][2]string{
		{"Focus", fmt.Sprintf("%d min", st.Timer.FocusDuration)},
		{"Short break", fmt.Sprintf("%d min", st.Timer.BreakDuration)},
		{"Long break", fmt.Sprintf("%d min", st.Timer.LongBreakDuration)},
		{"Sessions per set", strconv.Itoa(st.Timer.SessionsPerSet)},
		{"Auto-start breaks", onOff(st.Timer.AutoStartBreaks)},
		{"Auto-start focus", onOff(st.Timer.AutoStartFocus)},
		{"Notifications", onOff(st.Notifications.Enabled)},
		{"Sounds", onOff(st.Notifications.Sounds)},
		{"Theme", st.Appearance.Theme},
		{"Auto-save", fmt.Sprintf("every %ds", st.Data.AutoSaveInterval)},
		{"Last backup", lastBackup},
	}

	rows := []string{title, ""}
	for _, it := range items {
		label := lipgloss.NewStyle().Width(24).Render(it[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, goldStyle.Render(it[1])))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
