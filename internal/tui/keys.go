package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit        key.Binding
	sync        key.Binding
	reset       key.Binding
	clearRemote key.Binding
	copy        key.Binding
	refresh     key.Binding
	tab         key.Binding
	backtab     key.Binding
	buildInfo   key.Binding
	esc         key.Binding
	yes         key.Binding
	no          key.Binding
}

var keys = keyMap{
	quit:        key.NewBinding(key.WithKeys("q", "ctrl+c")),
	sync:        key.NewBinding(key.WithKeys("s")),
	reset:       key.NewBinding(key.WithKeys("r")),
	clearRemote: key.NewBinding(key.WithKeys("x")),
	copy:        key.NewBinding(key.WithKeys("c")),
	refresh:     key.NewBinding(key.WithKeys("f5", "R")),
	tab:         key.NewBinding(key.WithKeys("tab")),
	backtab:     key.NewBinding(key.WithKeys("shift+tab")),
	buildInfo:   key.NewBinding(key.WithKeys("v")),
	esc:         key.NewBinding(key.WithKeys("esc")),
	yes:         key.NewBinding(key.WithKeys("y")),
	no:          key.NewBinding(key.WithKeys("n", "esc")),
}

const dashboardHelp = "s: sync  r: reset remote  x: clear remote  c: copy status  tab: switch view  v: version  q: quit"
