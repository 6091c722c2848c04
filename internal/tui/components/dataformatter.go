package components

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-serial-hal/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// TxStatus tracks an outgoing message through write and flush
type TxStatus int

const (
	TxPending TxStatus = iota
	TxWritten
	TxFailed
)

// DataMsg is one chunk of traffic shown in the terminal
type DataMsg struct {
	Timestamp time.Time
	Data      []byte
	IsTX      bool
	Status    TxStatus
	Seq       uint64 // identifies a TX message until its result arrives
}

type DisplayMode struct {
	ShowHex        bool
	ShowASCII      bool
	ShowTimestamps bool
}

type DataFormatter struct {
	mode DisplayMode
}

func NewDataFormatter(mode DisplayMode) *DataFormatter {
	return &DataFormatter{mode: mode}
}

func (df *DataFormatter) DisplayMode() DisplayMode {
	return df.mode
}

func (df *DataFormatter) FormatMessage(msg DataMsg) string {
	var indicator string
	if msg.IsTX {
		txColor := colors.TX
		text := "TX"
		switch msg.Status {
		case TxPending:
			txColor, text = colors.Yellow, "TX ○"
		case TxWritten:
			txColor, text = colors.Green, "TX ✓"
		case TxFailed:
			txColor, text = colors.Red, "TX ✗"
		}
		indicator = lipgloss.NewStyle().Foreground(txColor).Bold(true).Render("↗ " + text)
	} else {
		indicator = lipgloss.NewStyle().Foreground(colors.RX).Bold(true).Render("↙ RX")
	}

	var parts []string
	if df.mode.ShowHex {
		parts = append(parts, fmt.Sprintf("HEX: % X", msg.Data))
	}
	if df.mode.ShowASCII {
		parts = append(parts, "ASCII: "+Printable(msg.Data))
	}
	if !df.mode.ShowHex && !df.mode.ShowASCII {
		parts = append(parts, fmt.Sprintf("BYTES: %d", len(msg.Data)))
	}

	line := fmt.Sprintf("%s: %s", indicator, strings.Join(parts, "  "))
	if df.mode.ShowTimestamps {
		ts := lipgloss.NewStyle().
			Foreground(colors.Subtext0).
			Render("[" + msg.Timestamp.Format("15:04:05.000") + "]")
		line = ts + " " + line
	}
	return line
}

func (df *DataFormatter) FormatMessages(messages []DataMsg) []string {
	formatted := make([]string, len(messages))
	for i, msg := range messages {
		formatted[i] = df.FormatMessage(msg)
	}
	return formatted
}

func (df *DataFormatter) ToggleHex() {
	df.mode.ShowHex = !df.mode.ShowHex
}

func (df *DataFormatter) ToggleASCII() {
	df.mode.ShowASCII = !df.mode.ShowASCII
}

func (df *DataFormatter) ToggleTimestamps() {
	df.mode.ShowTimestamps = !df.mode.ShowTimestamps
}

// Printable replaces bytes outside printable ASCII with dots, so received
// data cannot inject terminal control sequences.
func Printable(data []byte) string {
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ParseHex decodes hex such as "48656C6C6F", "48 65 6c" or "0x48 0x65".
func ParseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", "0x", "", "0X", "", ":", "").Replace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even length, got %d digits", len(s))
	}
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return data, nil
}
