package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary   = lipgloss.Color("#9D4EDD") // royal purple
	colorGold      = lipgloss.Color("#FFD166")
	colorFocus     = lipgloss.Color("#EF476F")
	colorBreak     = lipgloss.Color("#06D6A0")
	colorLongBreak = lipgloss.Color("#118AB2")
	colorMuted     = lipgloss.Color("#666666")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#E0DDF0")
	colorSubtle    = lipgloss.Color("#3C3551")
)

var priorityColors = map[string]lipgloss.Color{
	"low":    lipgloss.Color("#8D99AE"),
	"medium": lipgloss.Color("#4CC9F0"),
	"high":   lipgloss.Color("#F77F00"),
	"royal":  colorGold,
}

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	goldStyle = lipgloss.NewStyle().
			Foreground(colorGold)

	focusStyle = lipgloss.NewStyle().
			Foreground(colorFocus)

	breakStyle = lipgloss.NewStyle().
			Foreground(colorBreak)

	longBreakStyle = lipgloss.NewStyle().
			Foreground(colorLongBreak)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	completedItemStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Strikethrough(true)
)
