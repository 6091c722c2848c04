package styles

import (
	"github.com/allbin/go-serial-hal/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	// Input styles
	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colors.Surface2).
			Padding(1, 2).
			Margin(1, 0)

	// Command line output
	InfoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Green)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	FaintStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)
)

// PortState is the lifecycle of the port as shown in the UI
type PortState int

const (
	PortConfiguring PortState = iota
	PortReady
	PortFailed
)

func (s PortState) Indicator() string {
	switch s {
	case PortReady:
		return lipgloss.NewStyle().Foreground(colors.Green).Render("●")
	case PortConfiguring:
		return lipgloss.NewStyle().Foreground(colors.Yellow).Render("○")
	default:
		return lipgloss.NewStyle().Foreground(colors.Red).Render("✗")
	}
}
