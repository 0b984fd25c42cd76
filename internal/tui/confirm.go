package tui

// pendingAction is a destructive remote operation waiting for confirmation.
type pendingAction int

const (
	actionNone pendingAction = iota
	actionReset
	actionClearRemote
)

func (a pendingAction) String() string {
	switch a {
	case actionReset:
		return "Reset remote"
	case actionClearRemote:
		return "Clear remote"
	default:
		return ""
	}
}

type confirmModel struct {
	action pendingAction
}

func (m confirmModel) View() string {
	content := m.action.String() + "?\n\n"
	switch m.action {
	case actionReset:
		content += "The remote copy is replaced with the local data.\n"
	case actionClearRemote:
		content += "Every remote document of this budget is deleted.\n"
	}
	content += "A local backup is taken first.\n\n"
	content += "y yes    n no"
	return overlayBoxStyle.Render(content)
}
