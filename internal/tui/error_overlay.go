package tui

// errorOverlayModel shows the last failed action until dismissed.
type errorOverlayModel struct {
	title   string
	message string
}

func (m errorOverlayModel) View() string {
	title := m.title
	if title == "" {
		title = "Error"
	}
	return overlayBoxStyle.Render(errorStyle.Render(title) + "\n\n" + m.message + "\n\nenter / esc: close")
}
