package keys

import "github.com/charmbracelet/bubbles/key"

// CommonKeys are bound in every view.
type CommonKeys struct {
	Quit key.Binding
	Help key.Binding
}

func NewCommonKeys() CommonKeys {
	return CommonKeys{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "stop"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
	}
}

// RunKeys drive the progress view.
type RunKeys struct {
	CommonKeys
	Follow     key.Binding
	ToggleSent key.Binding
	Clear      key.Binding
	Up         key.Binding
	Down       key.Binding
	GotoTop    key.Binding
	GotoBottom key.Binding
}

func NewRunKeys() RunKeys {
	return RunKeys{
		CommonKeys: NewCommonKeys(),
		Follow: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "follow log"),
		),
		ToggleSent: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "show sent frames"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear log"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "goto top"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "goto bottom"),
		),
	}
}

func (k RunKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Follow, k.ToggleSent, k.Quit}
}

func (k RunKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Follow, k.ToggleSent, k.Clear},
		{k.Up, k.Down, k.GotoTop, k.GotoBottom},
		{k.Help, k.Quit},
	}
}
