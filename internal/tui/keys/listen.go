package keys

import "github.com/charmbracelet/bubbles/key"

// ListenKeys adds the insert-mode bindings used to send data
type ListenKeys struct {
	TerminalKeys
	Send           key.Binding
	ToggleSendMode key.Binding
	HistoryUp      key.Binding
	HistoryDown    key.Binding
}

func NewListenKeys() ListenKeys {
	return ListenKeys{
		TerminalKeys: NewTerminalKeys(),
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send message"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle ascii/hex"),
		),
		HistoryUp: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous message"),
		),
		HistoryDown: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next message"),
		),
	}
}

func (k ListenKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Send, k.Quit}
}

func (k ListenKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Clear},
		{k.ToggleHex, k.ToggleASCII, k.ToggleTimestamps},
		{k.Send, k.ToggleSendMode, k.HistoryUp, k.HistoryDown},
		{k.Help, k.Quit},
	}
}
