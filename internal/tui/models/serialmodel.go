package models

import (
	"context"
	"sync"
	"time"

	serial "github.com/allbin/go-serial-hal"
	"github.com/allbin/go-serial-hal/hal"
	"github.com/allbin/go-serial-hal/internal/tui/components"
	"github.com/allbin/go-serial-hal/internal/tui/keys"
	"github.com/allbin/go-serial-hal/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// readChunk bounds how many already-available bytes one RX message carries
const readChunk = 4096

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	if m == InputModeInsert {
		return "INSERT"
	}
	return "NORMAL"
}

// ConfiguredMsg reports the outcome of configuring the port
type ConfiguredMsg struct {
	Err error
}

// TxResultMsg reports the outcome of writing and flushing the message with
// sequence number Seq
type TxResultMsg struct {
	Seq uint64
	N   int // bytes accepted by the port
	Err error
}

type readErrMsg struct {
	err error
}

type tickMsg time.Time

// Options selects the port the model configures and how it shows traffic.
// LineEnding is appended to ASCII input; WriteTimeout bounds each send.
type Options struct {
	Device       string
	Settings     serial.Settings
	Display      components.DisplayMode
	LineEnding   string
	WriteTimeout time.Duration
}

// SerialModel is a terminal on the registry's port. It configures the port
// when started, shows received bytes and sends what is typed in insert mode.
type SerialModel struct {
	registry *serial.Registry
	port     serial.Serial
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	// serializes outgoing messages so their bytes do not interleave
	writeMu sync.Mutex

	messages  []components.DataMsg
	txSeq     uint64
	inputMode InputMode
	ready     bool
	now       time.Time

	terminal  *components.Terminal
	input     *components.Input
	statusBar *components.StatusBar
	help      help.Model
	keys      keys.ListenKeys
}

// NewSerialModel returns a model that configures registry with opts when the
// program starts. Call Close when the program has exited.
func NewSerialModel(registry *serial.Registry, opts Options) *SerialModel {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &SerialModel{
		registry:  registry,
		port:      registry.Serial(),
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now(),
		terminal:  components.NewTerminal(80, 20, opts.Display),
		input:     components.NewInput(opts.LineEnding),
		statusBar: components.NewStatusBar(opts.Device, opts.Settings),
		help:      help.New(),
		keys:      keys.NewListenKeys(),
	}
}

// Close stops pending reads and writes
func (m *SerialModel) Close() {
	m.cancel()
}

func (m *SerialModel) Messages() []components.DataMsg {
	return m.messages
}

func (m *SerialModel) InputMode() InputMode {
	return m.inputMode
}

func (m *SerialModel) Init() tea.Cmd {
	return tea.Batch(m.configureCmd(), tick())
}

func (m *SerialModel) configureCmd() tea.Cmd {
	reg, device, settings := m.registry, m.opts.Device, m.opts.Settings
	return func() tea.Msg {
		return ConfiguredMsg{Err: reg.Configure(device, settings)}
	}
}

// readCmd waits for one byte, then takes whatever else is already available.
func (m *SerialModel) readCmd() tea.Cmd {
	ctx, port := m.ctx, m.port
	return func() tea.Msg {
		buf := make([]byte, readChunk)
		n, err := hal.ReadSome(ctx, port, buf)
		if err != nil {
			return readErrMsg{err: err}
		}
		return components.DataMsg{Timestamp: time.Now(), Data: buf[:n]}
	}
}

func (m *SerialModel) writeCmd(seq uint64, payload []byte) tea.Cmd {
	parent, port, timeout := m.ctx, m.port, m.opts.WriteTimeout
	return func() tea.Msg {
		m.writeMu.Lock()
		defer m.writeMu.Unlock()

		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()

		n, err := hal.Write(ctx, port, payload)
		if err != nil {
			return TxResultMsg{Seq: seq, N: n, Err: err}
		}
		return TxResultMsg{Seq: seq, N: n, Err: hal.Flush(ctx, port)}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *SerialModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, m.terminal.Update(msg)

	case tea.MouseMsg:
		return m, m.terminal.Update(msg)

	case tickMsg:
		m.now = time.Time(msg)
		return m, tick()

	case ConfiguredMsg:
		if msg.Err != nil {
			m.statusBar.SetFailed(msg.Err)
			return m, nil
		}
		m.statusBar.SetReady()
		return m, m.readCmd()

	case readErrMsg:
		if m.ctx.Err() == nil {
			m.statusBar.SetFailed(msg.err)
		}
		return m, nil

	case components.DataMsg:
		m.statusBar.Count(len(msg.Data), 0)
		m.append(msg)
		return m, m.readCmd()

	case TxResultMsg:
		m.statusBar.Count(0, msg.N)
		status := components.TxWritten
		if msg.Err != nil {
			status = components.TxFailed
			if m.ctx.Err() == nil {
				m.statusBar.SetNotice("send failed: " + msg.Err.Error())
			}
		}
		// A message cleared while in flight has nothing left to mark
		if tx := m.findTX(msg.Seq); tx != nil {
			tx.Status = status
			m.terminal.Render(m.messages)
		}
		return m, nil

	case tea.KeyMsg:
		if m.inputMode == InputModeInsert {
			return m, m.updateInsert(msg)
		}
		return m, m.updateNormal(msg)
	}
	return m, nil
}

func (m *SerialModel) updateNormal(msg tea.KeyMsg) tea.Cmd {
	formatter := m.terminal.Formatter()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.InsertMode):
		m.inputMode = InputModeInsert
		return m.input.Focus()
	case key.Matches(msg, m.keys.Clear):
		m.messages = nil
	case key.Matches(msg, m.keys.ToggleHex):
		formatter.ToggleHex()
	case key.Matches(msg, m.keys.ToggleASCII):
		formatter.ToggleASCII()
	case key.Matches(msg, m.keys.ToggleTimestamps):
		formatter.ToggleTimestamps()
	default:
		return nil
	}
	m.terminal.Render(m.messages)
	return nil
}

func (m *SerialModel) updateInsert(msg tea.KeyMsg) tea.Cmd {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Escape):
		m.inputMode = InputModeNormal
		m.input.Blur()
	case key.Matches(msg, m.keys.ToggleSendMode):
		m.input.ToggleSendingMode()
	case key.Matches(msg, m.keys.HistoryUp):
		m.input.HistoryUp()
	case key.Matches(msg, m.keys.HistoryDown):
		m.input.HistoryDown()
	case key.Matches(msg, m.keys.Send):
		return m.send()
	default:
		return m.input.Update(msg)
	}
	return nil
}

func (m *SerialModel) send() tea.Cmd {
	payload, err := m.input.Payload()
	if err != nil {
		m.statusBar.SetNotice(err.Error())
		return nil
	}
	if len(payload) == 0 {
		return nil
	}
	m.statusBar.SetNotice("")

	m.input.AddToHistory(m.input.Value())
	m.input.Reset()

	m.txSeq++
	m.append(components.DataMsg{
		Timestamp: time.Now(),
		Data:      payload,
		IsTX:      true,
		Status:    components.TxPending,
		Seq:       m.txSeq,
	})
	return m.writeCmd(m.txSeq, payload)
}

// findTX returns the outgoing message with sequence number seq, or nil if it
// has been cleared
func (m *SerialModel) findTX(seq uint64) *components.DataMsg {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].IsTX && m.messages[i].Seq == seq {
			return &m.messages[i]
		}
	}
	return nil
}

func (m *SerialModel) append(msg components.DataMsg) {
	m.messages = append(m.messages, msg)
	m.terminal.Render(m.messages)
}

func (m *SerialModel) resize(width, height int) {
	// status bar (1), input box (3), content border (1)
	m.terminal.SetSize(width, max(height-5, 1))
	m.input.SetWidth(width)
	m.statusBar.SetWidth(width)
	m.help.Width = width
	m.ready = true
}

func (m *SerialModel) View() string {
	content := "Initializing..."
	if m.ready {
		content = m.terminal.View()
	}

	parts := []string{styles.ContentBorderStyle.Render(content)}
	if m.help.ShowAll {
		parts = append(parts, styles.HelpStyle.Render(m.help.View(m.keys)))
	}
	insert := m.inputMode == InputModeInsert
	parts = append(parts,
		m.input.View(insert),
		m.statusBar.View(insert, m.input.SendingMode(), m.now),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
