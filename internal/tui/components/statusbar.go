package components

import (
	"fmt"
	"time"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/internal/tui/colors"
	"github.com/allbin/go-serial-hal/internal/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

type StatusBar struct {
	device   string
	settings serial.Settings
	state    styles.PortState
	err      error
	notice   string
	width    int
	rx, tx   int
}

func NewStatusBar(device string, settings serial.Settings) *StatusBar {
	return &StatusBar{
		device:   device,
		settings: settings,
		state:    styles.PortConfiguring,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetReady() {
	sb.state = styles.PortReady
	sb.err = nil
}

func (sb *StatusBar) SetFailed(err error) {
	sb.state = styles.PortFailed
	sb.err = err
}

func (sb *StatusBar) Err() error {
	return sb.err
}

// SetNotice shows a transient message, such as a rejected input. An empty
// string clears it.
func (sb *StatusBar) SetNotice(notice string) {
	sb.notice = notice
}

func (sb *StatusBar) Notice() string {
	return sb.notice
}

// Count adds to the received and transmitted byte totals
func (sb *StatusBar) Count(rx, tx int) {
	sb.rx += rx
	sb.tx += tx
}

// View renders mode, device and state on the left and the line settings,
// byte counters and clock on the right.
func (sb *StatusBar) View(insert bool, sendingMode SendingMode, now time.Time) string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	modeStyle := lipgloss.NewStyle().Foreground(colors.Base).Bold(true).Padding(0, 1)
	mode := modeStyle.Background(colors.Blue).Render("NORMAL")
	if insert {
		mode = modeStyle.Background(colors.Green).Render("INSERT")
	}

	device := lipgloss.NewStyle().Foreground(colors.Mauve).Bold(true).Padding(0, 1).Render(sb.device)
	divider := lipgloss.NewStyle().Foreground(colors.Surface2).Padding(0, 1).Render("│")

	left := []string{mode, device, sb.state.Indicator()}
	if insert {
		left = append(left, lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode)))
	}
	problem := sb.notice
	if sb.err != nil {
		problem = sb.err.Error()
	}
	if problem != "" {
		left = append(left, lipgloss.NewStyle().Foreground(colors.Red).Padding(0, 1).Render(problem))
	}
	left = append(left, divider)
	leftSide := lipgloss.JoinHorizontal(lipgloss.Left, left...)

	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(fmt.Sprintf("⚡ %s  ↙ %d ↗ %d", sb.settings, sb.rx, sb.tx))
	clock := lipgloss.NewStyle().Foreground(colors.Subtext1).Padding(0, 1).Render(now.Format("15:04:05"))
	rightSide := lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)

	spacerWidth := max(width-lipgloss.Width(leftSide)-lipgloss.Width(rightSide), 1)
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	return lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
