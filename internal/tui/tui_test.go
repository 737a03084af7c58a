package tui

import (
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/pomodoro/internal/app"
	"github.com/sadopc/pomodoro/internal/config"
	"github.com/sadopc/pomodoro/internal/stats"
	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/tasks"
	"github.com/sadopc/pomodoro/internal/timer"
)

// idleScheduler never fires; tests drive the engine directly.
type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }
func (idleScheduler) After(time.Duration, func()) func() { return func() {} }

func newTestCore(t *testing.T) *app.App {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	core, err := app.New(config.Default(), nil, app.WithStore(s), app.WithScheduler(idleScheduler{}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { core.Close() })
	return core
}

func newTestApp(t *testing.T) App {
	t.Helper()
	m := NewApp(newTestCore(t))
	m.exportDir = t.TempDir()
	m.width = 120
	m.height = 40
	t.Cleanup(m.Close)
	return m
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// Helpers
// ============================================================

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{25 * 60, "25:00"},
		{90*60 + 5, "90:05"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.secs); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		pct    float64
		width  int
		filled int
	}{
		{0, 10, 0},
		{50, 10, 5},
		{100, 10, 10},
		{150, 10, 10},
		{-5, 10, 0},
	}
	for _, tt := range tests {
		bar := progressBar(tt.pct, tt.width)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("progressBar(%v, %d) filled %d, want %d", tt.pct, tt.width, got, tt.filled)
		}
		if got := len([]rune(bar)); got != tt.width {
			t.Errorf("progressBar(%v, %d) width %d", tt.pct, tt.width, got)
		}
	}
	if progressBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestValidatePositive(t *testing.T) {
	for _, ok := range []string{"1", "25", " 7 "} {
		if err := validatePositive(ok); err != nil {
			t.Errorf("validatePositive(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "-3", "abc", "2.5"} {
		if err := validatePositive(bad); err == nil {
			t.Errorf("validatePositive(%q) should fail", bad)
		}
	}
}

func TestValidateDueDate(t *testing.T) {
	if err := validateDueDate(""); err != nil {
		t.Fatal("empty due date is allowed")
	}
	if err := validateDueDate("2025-06-01"); err != nil {
		t.Fatal(err)
	}
	if err := validateDueDate("06/01/2025"); err == nil {
		t.Fatal("expected error for wrong layout")
	}
}

func TestSplitTags(t *testing.T) {
	got := splitTags(" deep, work ,, focus ")
	want := []string{"deep", "work", "focus"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
	if tags := splitTags(""); tags == nil || len(tags) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", tags)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("a very long title", 6); got != "a ver…" {
		t.Fatalf("got %q", got)
	}
}

func TestAtoiOr(t *testing.T) {
	if atoiOr("12", 1) != 12 || atoiOr("x", 5) != 5 {
		t.Fatal("unexpected atoiOr result")
	}
}

func TestSegmentTitle(t *testing.T) {
	if segmentTitle(timer.Focus) != "FOCUS" || segmentTitle(timer.Break) != "SHORT BREAK" || segmentTitle(timer.LongBreak) != "LONG BREAK" {
		t.Fatal("unexpected segment titles")
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 views, got %d", len(viewNames))
	}
	if viewNames[viewTimer] != "Timer" || viewNames[viewSettings] != "Settings" {
		t.Fatal("view names out of order")
	}
}

// ============================================================
// Event source
// ============================================================

func TestEventSourceForwardsEngineEvents(t *testing.T) {
	core := newTestCore(t)
	src := newEventSource(core.Timer)
	defer src.close()

	core.Timer.Start()

	msg, ok := src.wait()().(engineEventMsg)
	if !ok {
		t.Fatal("expected engineEventMsg")
	}
	if msg.event.Kind != timer.SessionStarted || !msg.event.State.Running {
		t.Fatalf("unexpected first event %+v", msg.event)
	}
	msg = src.wait()().(engineEventMsg)
	if msg.event.Kind != timer.StateChanged {
		t.Fatalf("expected state change, got %s", msg.event.Kind)
	}
}

func TestEventSourceCloseUnsubscribes(t *testing.T) {
	core := newTestCore(t)
	src := newEventSource(core.Timer)
	src.close()
	src.close()

	core.Timer.Start()
	if n := len(src.ch); n != 0 {
		t.Fatalf("expected no events after close, got %d", n)
	}
}

// ============================================================
// Timer view
// ============================================================

func TestPomodoroStartPauseKey(t *testing.T) {
	core := newTestCore(t)
	p := newPomodoroModel(core.Timer)

	p, _ = p.update(runeKey('s'))
	if !core.Timer.State().Running || !p.state.Running {
		t.Fatal("start key should run the timer")
	}

	p, _ = p.update(runeKey('s'))
	if core.Timer.State().Running || p.state.Running {
		t.Fatal("second press should pause")
	}
}

func TestPomodoroSkipAndReset(t *testing.T) {
	core := newTestCore(t)
	p := newPomodoroModel(core.Timer)

	p, _ = p.update(runeKey('s'))
	p, _ = p.update(runeKey('>'))
	if p.state.Segment != timer.Break {
		t.Fatalf("expected break after skip, got %v", p.state.Segment)
	}

	p, _ = p.update(runeKey('r'))
	if p.state.Running || p.state.TimeLeft != p.state.TotalTime {
		t.Fatalf("reset should stop at full length, got %+v", p.state)
	}
}

func TestPomodoroEngineEvents(t *testing.T) {
	core := newTestCore(t)
	p := newPomodoroModel(core.Timer)

	st := core.Timer.State()
	st.TimeLeft = 60
	p, _ = p.update(engineEventMsg{event: timer.Event{Kind: timer.TimeWarning, State: st, Message: "1 minute left"}})
	if p.warning != "1 minute left" || p.state.TimeLeft != 60 {
		t.Fatalf("warning not applied: %+v", p)
	}

	p, _ = p.update(engineEventMsg{event: timer.Event{Kind: timer.SessionCompleted, State: core.Timer.State()}})
	if p.warning != "" {
		t.Fatal("completion should clear the warning")
	}
}

func TestPomodoroDurationForm(t *testing.T) {
	core := newTestCore(t)
	p := newPomodoroModel(core.Timer)

	p, _ = p.update(runeKey('c'))
	if !p.formActive || p.form == nil {
		t.Fatal("custom length form should open")
	}
	if *p.formMinutes != "25" || *p.formSegment != "focus" {
		t.Fatalf("form not prefilled: %q %q", *p.formMinutes, *p.formSegment)
	}

	p, _ = p.update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.formActive {
		t.Fatal("esc should close the form")
	}
}

func TestPomodoroViewShowsTask(t *testing.T) {
	core := newTestCore(t)
	task, _ := core.Tasks.Create(tasks.Input{Title: "Draft chapter", EstimatedPomodoros: 3})
	core.Tasks.SetActive(task.ID)

	p := newPomodoroModel(core.Timer)
	p.setSize(100, 30)
	out := p.view()
	for _, want := range []string{"25:00", "FOCUS", "Draft chapter", "0/3"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderSet(t *testing.T) {
	core := newTestCore(t)
	p := newPomodoroModel(core.Timer)
	p.state.SessionCount = 2
	p.state.TotalSessions = 4

	out := p.renderSet()
	if strings.Count(out, "●") != 2 || !strings.Contains(out, "2/4") {
		t.Fatalf("unexpected set rendering %q", out)
	}
}

// ============================================================
// Tasks view
// ============================================================

func loadTasks(t *testing.T, m tasksModel) tasksModel {
	t.Helper()
	m.setSize(100, 30)
	msg := m.refresh()()
	m, _ = m.update(msg)
	return m
}

func TestTasksListAndToggle(t *testing.T) {
	core := newTestCore(t)
	core.Tasks.Create(tasks.Input{Title: "First"})
	core.Tasks.Create(tasks.Input{Title: "Second"})

	m := loadTasks(t, newTasksModel(core.Tasks))
	if len(m.list) != 2 || m.list[0].Title != "Second" {
		t.Fatalf("expected newest first, got %+v", m.list)
	}

	m, cmd := m.update(runeKey('x'))
	if cmd == nil {
		t.Fatal("toggle should refresh")
	}
	m, _ = m.update(cmd())
	if !m.list[0].IsCompleted || m.stats.Completed != 1 {
		t.Fatalf("expected first row completed, got %+v", m.list[0])
	}
}

func TestTasksCursorBounds(t *testing.T) {
	core := newTestCore(t)
	core.Tasks.Create(tasks.Input{Title: "Only"})
	m := loadTasks(t, newTasksModel(core.Tasks))

	m, _ = m.update(runeKey('j'))
	if m.cursor != 0 {
		t.Fatal("cursor should not pass the last row")
	}
	m, _ = m.update(runeKey('k'))
	if m.cursor != 0 {
		t.Fatal("cursor should not go above the first row")
	}
}

func TestTasksEnterActivates(t *testing.T) {
	core := newTestCore(t)
	task, _ := core.Tasks.Create(tasks.Input{Title: "Focus me"})
	m := loadTasks(t, newTasksModel(core.Tasks))

	_, cmd := m.update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected status command")
	}
	if st, ok := cmd().(statusMsg); !ok || st.isError {
		t.Fatalf("unexpected status %+v", st)
	}
	cur := core.Timer.State().CurrentTask
	if cur == nil || cur.ID != task.ID {
		t.Fatalf("engine current task not set: %+v", cur)
	}
}

func TestTasksDelete(t *testing.T) {
	core := newTestCore(t)
	core.Tasks.Create(tasks.Input{Title: "Gone"})
	m := loadTasks(t, newTasksModel(core.Tasks))

	m, cmd := m.update(runeKey('d'))
	m, _ = m.update(cmd())
	if len(m.list) != 0 {
		t.Fatalf("expected empty list, got %+v", m.list)
	}
	if !strings.Contains(m.view(), "No tasks here") {
		t.Fatal("empty list hint missing")
	}
}

func TestTasksFilterAndSortCycle(t *testing.T) {
	core := newTestCore(t)
	a, _ := core.Tasks.Create(tasks.Input{Title: "Done", Priority: store.PriorityLow})
	core.Tasks.Create(tasks.Input{Title: "Open", Priority: store.PriorityRoyal})
	core.Tasks.ToggleCompletion(a.ID)

	m := loadTasks(t, newTasksModel(core.Tasks))

	m, cmd := m.update(runeKey('f'))
	m, _ = m.update(cmd())
	if m.listOptions().Filter != tasks.FilterActive || len(m.list) != 1 || m.list[0].Title != "Open" {
		t.Fatalf("active filter: %+v", m.list)
	}

	m, cmd = m.update(runeKey('f'))
	m, _ = m.update(cmd())
	if len(m.list) != 1 || m.list[0].Title != "Done" {
		t.Fatalf("completed filter: %+v", m.list)
	}

	m, cmd = m.update(runeKey('o'))
	m, _ = m.update(cmd())
	if m.listOptions().Sort != tasks.SortPriority {
		t.Fatalf("expected priority sort, got %s", m.listOptions().Sort)
	}
}

func TestTasksFormOpenAndCancel(t *testing.T) {
	core := newTestCore(t)
	task, _ := core.Tasks.Create(tasks.Input{Title: "Edit me", Tags: []string{"a", "b"}, EstimatedPomodoros: 4})
	m := loadTasks(t, newTasksModel(core.Tasks))

	m, _ = m.update(runeKey('e'))
	if !m.formActive || m.editingID != task.ID {
		t.Fatal("edit form should open for the selected task")
	}
	if *m.formTitle != "Edit me" || *m.formTags != "a, b" || *m.formEstimate != "4" {
		t.Fatalf("form not prefilled: %q %q %q", *m.formTitle, *m.formTags, *m.formEstimate)
	}
	if !strings.Contains(m.view(), "Edit Task") {
		t.Fatal("form title missing")
	}

	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive {
		t.Fatal("esc should cancel")
	}

	m, _ = m.update(runeKey('n'))
	if !m.formActive || m.editingID != "" || *m.formTitle != "" {
		t.Fatal("new form should start blank")
	}
}

// ============================================================
// Reports view
// ============================================================

func TestReportsPeriods(t *testing.T) {
	core := newTestCore(t)
	r := newReportsModel(core.Stats)
	r.setSize(100, 30)

	if r.period() != stats.PeriodWeek {
		t.Fatalf("default period should be week, got %s", r.period())
	}
	r, _ = r.update(r.refresh()())
	if len(r.series.Labels) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(r.series.Labels))
	}

	r, cmd := r.update(runeKey('h'))
	r, _ = r.update(cmd())
	if r.period() != stats.PeriodToday || len(r.series.Labels) != 24 {
		t.Fatalf("expected hourly buckets, got %s/%d", r.period(), len(r.series.Labels))
	}

	r, cmd = r.update(tea.KeyMsg{Type: tea.KeyTab})
	r, _ = r.update(cmd())
	if r.period() != stats.PeriodWeek {
		t.Fatalf("tab should advance the period, got %s", r.period())
	}
	if !strings.Contains(r.view(), "No focus sessions") {
		t.Fatal("empty period hint missing")
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSettingsPatchApplies(t *testing.T) {
	core := newTestCore(t)
	s := newSettingsModel(core)

	s, _ = s.update(tea.KeyMsg{Type: tea.KeyEnter})
	if !s.formActive {
		t.Fatal("enter should open the form")
	}
	if *s.focus != "25" || *s.theme != "royal" || !*s.autoBreaks {
		t.Fatalf("form not prefilled: %q %q %v", *s.focus, *s.theme, *s.autoBreaks)
	}

	*s.focus = "50"
	*s.longBreak = "nope"
	*s.sounds = false
	if !core.UpdateSettings(s.patch()) {
		t.Fatal("update failed")
	}

	st := core.Store.Settings()
	if st.Timer.FocusDuration != 50 || st.Timer.LongBreakDuration != 15 || st.Notifications.Sounds {
		t.Fatalf("unexpected settings %+v", st)
	}
	if core.Timer.State().TotalTime != 50*60 {
		t.Fatal("timer should pick up the new focus length")
	}
}

func TestSettingsView(t *testing.T) {
	core := newTestCore(t)
	s := newSettingsModel(core)
	s.setSize(100, 30)
	out := s.view()
	for _, want := range []string{"25 min", "royal", "never"} {
		if !strings.Contains(out, want) {
			t.Errorf("settings view missing %q", want)
		}
	}
}

// ============================================================
// Dashboard
// ============================================================

func TestDashboardLoadsRecentSessions(t *testing.T) {
	core := newTestCore(t)
	task, _ := core.Tasks.Create(tasks.Input{Title: "Review", EstimatedPomodoros: 2})
	core.Tasks.SetActive(task.ID)
	core.Timer.Start()
	core.Timer.Skip()

	d := newDashboardModel(core)
	d.setSize(120, 40)
	d, _ = d.update(d.loadData()())

	if len(d.recent) != 1 || d.statistics.TotalSessions != 1 {
		t.Fatalf("expected one recent session, got %d (%+v)", len(d.recent), d.statistics)
	}
	out := d.view()
	for _, want := range []string{"Review", "First Focus", "Recent Sessions"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

// ============================================================
// App model
// ============================================================

func TestNewApp(t *testing.T) {
	m := newTestApp(t)

	if m.activeView != viewDashboard {
		t.Fatal("default view should be dashboard")
	}
	if m.showHelp || m.exportPicking || m.isFormActive() {
		t.Fatal("unexpected initial overlay state")
	}
}

func TestAppViewStates(t *testing.T) {
	m := newTestApp(t)
	for v := range viewState(len(viewNames)) {
		m.activeView = v
		if out := m.View(); out == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	m := newTestApp(t)
	m.width = 0
	if out := m.View(); out != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", out)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	m := newTestApp(t)
	header := m.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppTabSwitching(t *testing.T) {
	m := newTestApp(t)

	model, _ := m.Update(runeKey('3'))
	m = model.(App)
	if m.activeView != viewTasks {
		t.Fatalf("expected tasks view, got %d", m.activeView)
	}

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(App)
	if m.activeView != viewReports {
		t.Fatalf("expected reports view, got %d", m.activeView)
	}

	// Tab cycles periods inside reports instead of leaving the view.
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = model.(App)
	if m.activeView != viewReports || m.reports.period() != stats.PeriodMonth {
		t.Fatalf("expected month period in reports, got view %d period %s", m.activeView, m.reports.period())
	}
}

func TestAppDashboardStartKeyDrivesTimer(t *testing.T) {
	m := newTestApp(t)
	model, _ := m.Update(runeKey(' '))
	m = model.(App)
	if !m.core.Timer.State().Running {
		t.Fatal("space on the dashboard should start the timer")
	}
}

func TestAppEngineEventUpdatesStatus(t *testing.T) {
	m := newTestApp(t)
	m.core.Timer.Start()

	model, cmd := m.Update(m.events.wait()())
	m = model.(App)
	if cmd == nil {
		t.Fatal("expected the event source to be re-armed")
	}
	if m.status != "focus started" || !m.pomodoro.state.Running || !m.dashboard.state.Running {
		t.Fatalf("unexpected app state after start: status=%q", m.status)
	}

	model, _ = m.Update(engineEventMsg{event: timer.Event{
		Kind:         timer.AchievementUnlocked,
		State:        m.core.Timer.State(),
		Achievements: []store.Achievement{{ID: store.AchFirstSession, Unlocked: true}},
	}})
	m = model.(App)
	if !strings.Contains(m.status, "First Focus") {
		t.Fatalf("expected achievement title in status, got %q", m.status)
	}
}

func TestAppStatusMessage(t *testing.T) {
	m := newTestApp(t)
	model, _ := m.Update(statusMsg{text: "test status"})
	m = model.(App)
	if !strings.Contains(m.renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppFooterShowsRunningClock(t *testing.T) {
	m := newTestApp(t)
	m.core.Timer.Start()
	m.pomodoro.state = m.core.Timer.State()
	if !strings.Contains(m.renderFooter(), "25:00") {
		t.Fatal("footer should show the countdown")
	}
}

func TestAppExportPicker(t *testing.T) {
	m := newTestApp(t)

	model, _ := m.Update(runeKey('E'))
	m = model.(App)
	if !m.exportPicking {
		t.Fatal("E should open the export picker")
	}
	model, _ = m.Update(runeKey('j'))
	m = model.(App)
	if m.exportCursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.exportCursor)
	}
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(App)
	if m.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

func TestAppExportFormats(t *testing.T) {
	m := newTestApp(t)
	m.core.Timer.Start()
	m.core.Timer.Skip()

	for i, suffix := range []string{".csv", ".json", ".json"} {
		msg := m.doExport(i)()
		done, ok := msg.(exportDoneMsg)
		if !ok {
			t.Fatalf("format %d: expected exportDoneMsg, got %+v", i, msg)
		}
		if !strings.HasSuffix(done.path, suffix) {
			t.Fatalf("format %d: unexpected path %s", i, done.path)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("format %d: %v", i, err)
		}
	}
	if m.core.Store.Settings().Data.LastBackup == nil {
		t.Fatal("backup export should record lastBackup")
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
	for i, g := range keys.FullHelp() {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test)
// ============================================================

func TestStylesRender(t *testing.T) {
	styles := map[string]func() string{
		"activeTab":     func() string { return activeTabStyle.Render("test") },
		"inactiveTab":   func() string { return inactiveTabStyle.Render("test") },
		"panel":         func() string { return panelStyle.Render("test") },
		"activePanel":   func() string { return activePanelStyle.Render("test") },
		"title":         func() string { return titleStyle.Render("test") },
		"gold":          func() string { return goldStyle.Render("test") },
		"focus":         func() string { return focusStyle.Render("test") },
		"break":         func() string { return breakStyle.Render("test") },
		"longBreak":     func() string { return longBreakStyle.Render("test") },
		"warning":       func() string { return warningStyle.Render("test") },
		"error":         func() string { return errorStyle.Render("test") },
		"muted":         func() string { return mutedStyle.Render("test") },
		"header":        func() string { return headerStyle.Render("test") },
		"footer":        func() string { return footerStyle.Render("test") },
		"selectedItem":  func() string { return selectedItemStyle.Render("test") },
		"normalItem":    func() string { return normalItemStyle.Render("test") },
		"completedItem": func() string { return completedItemStyle.Render("test") },
	}
	for name, fn := range styles {
		if fn() == "" {
			t.Fatalf("style %q rendered empty", name)
		}
	}
}
