// Package output provides styled terminal output helpers (success, error,
// warning, feedback formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/fb/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("117"))
	voteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusOpen:       lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.StatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusRejected:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatStatus formats a status with color
func FormatStatus(s models.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// StatusBadge returns a status indicator with symbol
// e.g., "○ open", "▶ in_progress", "✓ completed", "✗ rejected"
func StatusBadge(status models.Status) string {
	symbols := map[models.Status]string{
		models.StatusOpen:       "○",
		models.StatusInProgress: "▶",
		models.StatusCompleted:  "✓",
		models.StatusRejected:   "✗",
	}
	symbol, ok := symbols[status]
	if !ok {
		symbol = "?"
	}
	style, hasStyle := statusStyles[status]
	if hasStyle {
		return style.Render(fmt.Sprintf("%s %s", symbol, status))
	}
	return fmt.Sprintf("%s %s", symbol, status)
}

// FormatVotes renders the upvote count, marking the current user's vote.
func FormatVotes(f *models.Feedback) string {
	mark := "♡"
	if f.IsUpvoted {
		mark = "♥"
	}
	return voteStyle.Render(fmt.Sprintf("%s %d", mark, f.UpvoteCount))
}

// FormatTags renders the tag list, or empty when there are none.
func FormatTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return tagStyle.Render(strings.Join(parts, " "))
}

// FormatFeedbackShort formats a feedback item on one line
func FormatFeedbackShort(f *models.Feedback) string {
	var parts []string
	parts = append(parts, titleStyle.Render(fmt.Sprintf("#%d", f.ID)))
	parts = append(parts, f.Title)
	parts = append(parts, FormatVotes(f))
	parts = append(parts, subtleStyle.Render(fmt.Sprintf("💬 %d", f.CommentCount)))
	parts = append(parts, FormatStatus(f.Status))

	if tags := FormatTags(f.EffectiveTags()); tags != "" {
		parts = append(parts, tags)
	}
	if f.Board != nil {
		parts = append(parts, subtleStyle.Render(f.Board.Name))
	}

	return strings.Join(parts, "  ")
}

// FormatFeedbackLong formats a feedback item in long format, with its
// comments when loaded.
func FormatFeedbackLong(f *models.Feedback, comments []models.Comment) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("#%d: %s", f.ID, f.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status: %s   Votes: %s\n", FormatStatus(f.Status), FormatVotes(f)))
	if f.Board != nil {
		sb.WriteString(fmt.Sprintf("Board: %s\n", f.Board.Name))
	}
	if tags := FormatTags(f.EffectiveTags()); tags != "" {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", tags))
	}
	if f.CreatedBy != nil {
		sb.WriteString(fmt.Sprintf("By: %s (%s)\n", f.CreatedBy.Username, FormatTimeAgo(f.CreatedAt)))
	}

	if f.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(subtleStyle.Render("Description:"))
		sb.WriteString("\n")
		sb.WriteString(f.Description)
		sb.WriteString("\n")
	}

	if len(comments) > 0 {
		sb.WriteString(fmt.Sprintf("\nCOMMENTS (%d):\n", len(comments)))
		for _, c := range comments {
			sb.WriteString(FormatComment(&c))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatComment formats a comment as an indented block. Provisional comments
// awaiting server confirmation are marked.
func FormatComment(c *models.Comment) string {
	author := "unknown"
	if c.User != nil {
		author = c.User.Username
	}
	header := fmt.Sprintf("  %s  %s", titleStyle.Render(author), subtleStyle.Render(FormatTimeAgo(c.CreatedAt)))
	if c.Pending {
		header += "  " + warningStyle.Render("[sending]")
	}
	return fmt.Sprintf("%s\n    %s", header, strings.ReplaceAll(c.Text, "\n", "\n    "))
}

// FormatBoardLine formats a board on one line
func FormatBoardLine(b *models.Board) string {
	visibility := "private"
	if b.Public {
		visibility = "public"
	}
	return fmt.Sprintf("%s  %s  %s  %s",
		titleStyle.Render(fmt.Sprintf("#%d", b.ID)),
		b.Name,
		subtleStyle.Render(fmt.Sprintf("%d feedback, %d members", b.FeedbackCount, b.MemberCount())),
		subtleStyle.Render("["+visibility+"]"))
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nBOARDS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// Bar renders a simple proportional bar for stats tables.
func Bar(count, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	n := count * width / max
	if n == 0 && count > 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}
