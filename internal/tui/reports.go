package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/pomodoro/internal/stats"
)

var reportPeriods = []stats.Period{stats.PeriodToday, stats.PeriodWeek, stats.PeriodMonth}

var periodNames = map[stats.Period]string{
	stats.PeriodToday: "Today",
	stats.PeriodWeek:  "Week",
	stats.PeriodMonth: "Month",
}

type reportsModel struct {
	agg    *stats.Aggregator
	width  int
	height int

	periodIdx int
	series    stats.Series
	trend     stats.Trend

	chart barchart.Model
}

func newReportsModel(agg *stats.Aggregator) reportsModel {
	return reportsModel{
		agg:       agg,
		periodIdx: 1,
		chart:     barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

func (r reportsModel) period() stats.Period {
	return reportPeriods[r.periodIdx%len(reportPeriods)]
}

type reportsDataMsg struct {
	series stats.Series
	trend  stats.Trend
}

func (r reportsModel) refresh() tea.Cmd {
	p := r.period()
	return func() tea.Msg {
		return reportsDataMsg{series: r.agg.FocusSeries(p), trend: r.agg.Trend()}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		r.series = msg.series
		r.trend = msg.trend
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.periodIdx = (r.periodIdx + len(reportPeriods) - 1) % len(reportPeriods)
			return r, r.refresh()
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Tab):
			r.periodIdx = (r.periodIdx + 1) % len(reportPeriods)
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := max(r.width-8, 20)
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	style := lipgloss.NewStyle().Foreground(colorFocus)
	empty := lipgloss.NewStyle().Foreground(colorSubtle)

	bars := make([]barchart.BarData, 0, len(r.series.Labels))
	for i, label := range r.series.Labels {
		v := r.series.Hours[i]
		s := style
		if v == 0 {
			s = empty
		}
		bars = append(bars, barchart.BarData{
			Label:  label,
			Values: []barchart.BarValue{{Name: label, Value: v, Style: s}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) total() float64 {
	var sum float64
	for _, h := range r.series.Hours {
		sum += h
	}
	return sum
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for i, p := range reportPeriods {
		if i == r.periodIdx {
			tabs = append(tabs, activeTabStyle.Render(periodNames[p]))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(periodNames[p]))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus Analytics"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...),
	)

	trend := breakStyle.Render(r.trend.Text)
	if r.trend.Change < 0 {
		trend = errorStyle.Render(r.trend.Text)
	}
	summary := fmt.Sprintf("  Total %s  %s", goldStyle.Render(formatHours(r.total())), trend)

	body := r.chart.View()
	if r.total() == 0 {
		body = mutedStyle.Render("  No focus sessions in this period")
	}

	nav := mutedStyle.Render("  ←/→: period  tab: next period")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", body, "", summary, "", r.renderTable(w), "", nav,
		),
	)
}

// renderTable lists the non-empty buckets.
func (r reportsModel) renderTable(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %8s", "Bucket", "Hours")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(max(w-6, 1), 22))))
	n := 0
	for i, label := range r.series.Labels {
		if r.series.Hours[i] == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-12s %8.1f", label, r.series.Hours[i]))
		n++
	}
	if n == 0 {
		return ""
	}
	return strings.Join(rows, "\n")
}
