package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/timer"
)

// pomodoroModel renders the countdown and forwards controls to the engine.
type pomodoroModel struct {
	engine *timer.Engine
	width  int
	height int

	state   timer.State
	warning string

	formActive  bool
	form        *huh.Form
	formMinutes *string
	formSegment *string
}

func newPomodoroModel(e *timer.Engine) pomodoroModel {
	minutes, segment := "", timer.Focus.String()
	return pomodoroModel{
		engine:      e,
		state:       e.State(),
		formMinutes: &minutes,
		formSegment: &segment,
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(engineEventMsg); ok {
		p.state = msg.event.State
		switch msg.event.Kind {
		case timer.TimeWarning:
			p.warning = msg.event.Message
		case timer.SessionStarted, timer.SessionCompleted:
			p.warning = ""
		}
		return p, nil
	}
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if p.state.Running {
				p.engine.Pause()
			} else {
				p.engine.Start()
			}
		case key.Matches(msg, keys.Skip):
			p.engine.Skip()
		case key.Matches(msg, keys.Reset):
			p.engine.Reset()
		case key.Matches(msg, keys.Duration):
			return p.showDurationForm()
		}
		p.state = p.engine.State()
	}
	return p, nil
}

func (p pomodoroModel) showDurationForm() (pomodoroModel, tea.Cmd) {
	*p.formMinutes = fmt.Sprintf("%d", max(p.state.TotalTime/60, 1))
	*p.formSegment = p.state.Segment.String()

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Segment").
				Options(
					huh.NewOption("Focus", timer.Focus.String()),
					huh.NewOption("Short break", timer.Break.String()),
					huh.NewOption("Long break", timer.LongBreak.String()),
				).Value(p.formSegment),
			huh.NewInput().Title("Length (min)").Validate(validatePositive).Value(p.formMinutes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p pomodoroModel) updateForm(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		seg, _ := timer.ParseSegment(*p.formSegment)
		p.engine.SetDuration(atoiOr(*p.formMinutes, 25), seg)
		p.state = p.engine.State()
		return p, nil
	}

	return p, cmd
}

func segmentStyle(s timer.Segment) lipgloss.Style {
	switch s {
	case timer.Break:
		return breakStyle
	case timer.LongBreak:
		return longBreakStyle
	}
	return focusStyle
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("Custom Length")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	st := p.state
	style := segmentStyle(st.Segment).Bold(true)

	timeDisplay := style.Width(max(w-6, 10)).Align(lipgloss.Center).Render(formatClock(st.TimeLeft))
	phaseLabel := style.Render(segmentTitle(st.Segment))
	if !st.Running {
		phaseLabel += mutedStyle.Render("  (paused)")
		if st.TimeLeft == st.TotalTime {
			phaseLabel = style.Render(segmentTitle(st.Segment)) + mutedStyle.Render("  ready")
		}
	}

	bar := style.Render(progressBar(st.Progress, max(min(w-10, 40), 10)))

	task := mutedStyle.Render("No task selected. Pick one in Tasks with enter.")
	if st.CurrentTask != nil {
		t := st.CurrentTask
		task = fmt.Sprintf("%s %s  %s",
			goldStyle.Render("♛"),
			titleStyle.Render(t.Title),
			mutedStyle.Render(fmt.Sprintf("%d/%d", t.CompletedPomodoros, t.EstimatedPomodoros)),
		)
	}

	rows := []string{
		titleStyle.Render("Pomodoro Timer"),
		"",
		timeDisplay,
		phaseLabel,
		"",
		bar,
		p.renderSet(),
		"",
		task,
	}
	if p.warning != "" {
		rows = append(rows, "", warningStyle.Render(p.warning))
	}

	controls := mutedStyle.Render("space: start/pause  >: skip  r: reset  c: custom length")
	rows = append(rows, "", controls)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

// renderSet shows completed focus sessions in the current set.
func (p pomodoroModel) renderSet() string {
	var parts []string
	for i := 0; i < p.state.TotalSessions; i++ {
		switch {
		case i < p.state.SessionCount:
			parts = append(parts, goldStyle.Render("●"))
		case i == p.state.SessionCount && p.state.Segment == timer.Focus && p.state.Running:
			parts = append(parts, focusStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", p.state.SessionCount, p.state.TotalSessions))
	return strings.Join(parts, " ") + counter
}
