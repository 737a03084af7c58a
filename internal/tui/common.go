package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/pomodoro/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewDashboard viewState = iota
	viewTimer
	viewTasks
	viewReports
	viewSettings
)

var viewNames = []string{"Dashboard", "Timer", "Tasks", "Reports", "Settings"}

// --- Messages ---

type engineEventMsg struct {
	event timer.Event
}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// formatClock renders seconds as MM:SS; hours roll into the minutes.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func formatHours(h float64) string {
	return fmt.Sprintf("%.1fh", h)
}

// progressBar draws pct (0..100) as a bar of the given width.
func progressBar(pct float64, width int) string {
	if width < 1 {
		return ""
	}
	pct = max(0, min(pct, 100))
	filled := int(pct / 100 * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func segmentTitle(s timer.Segment) string {
	switch s {
	case timer.Break:
		return "SHORT BREAK"
	case timer.LongBreak:
		return "LONG BREAK"
	}
	return "FOCUS"
}

// validatePositive is a huh validator for whole numbers >= 1.
func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a whole number of at least 1")
	}
	return nil
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
