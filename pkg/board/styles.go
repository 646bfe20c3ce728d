package board

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/fb/internal/models"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")
	successColor = lipgloss.Color("42")
	cyanColor    = lipgloss.Color("45")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	hintStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	sepStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	idStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	voteStyle      = lipgloss.NewStyle().Foreground(primaryColor)
	tagStyle       = lipgloss.NewStyle().Foreground(cyanColor)
	pendingStyle   = lipgloss.NewStyle().Foreground(warningColor).Italic(true)
	toastErrStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	toastInfoStyle = lipgloss.NewStyle().Foreground(successColor)
	searchStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	// Selected row style, inverted colors for visibility
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(lipgloss.Color("255"))

	// Dragged card style
	draggingStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("54")).
			Foreground(lipgloss.Color("255")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	statusColors = map[models.Status]lipgloss.Color{
		models.StatusOpen:       cyanColor,
		models.StatusInProgress: warningColor,
		models.StatusCompleted:  successColor,
		models.StatusRejected:   mutedColor,
	}
)

// columnColor returns the header color for a status column.
func columnColor(status models.Status) lipgloss.Color {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return lipgloss.Color("255")
}

// columnLabel returns the display label for a status column.
func columnLabel(status models.Status) string {
	switch status {
	case models.StatusOpen:
		return "OPEN"
	case models.StatusInProgress:
		return "IN PROGRESS"
	case models.StatusCompleted:
		return "COMPLETED"
	case models.StatusRejected:
		return "REJECTED"
	default:
		return string(status)
	}
}
