package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/fb/internal/output"
	"github.com/marcus/fb/internal/views"
)

// renderDetail renders the single-item view: title, status, description
// through the markdown renderer, and the comment thread. Opened with enter
// on a card; the comment composer opens on top of it with c.
func (m Model) renderDetail() string {
	if m.Width == 0 || m.Height == 0 {
		return "loading..."
	}
	item, ok := m.Store.GetFeedback(m.DetailID)
	if !ok {
		return m.renderBoard()
	}

	boxWidth := m.Width - 2
	if boxWidth > 100 {
		boxWidth = 100
	}
	boxHeight := m.Height - 2
	contentWidth := boxWidth - 4
	divider := sepStyle.Render(strings.Repeat("─", contentWidth))

	var lines []string
	title := titleStyle.Render(fmt.Sprintf("#%s %s", itoa(item.ID), item.Title))
	lines = append(lines, ansi.Truncate(title, contentWidth, "…"))

	badge := lipgloss.NewStyle().Bold(true).Foreground(columnColor(item.Status)).Render(columnLabel(item.Status))
	heart := "♡"
	if item.IsUpvoted {
		heart = "♥"
	}
	meta := badge + voteStyle.Render(fmt.Sprintf("  %s %d", heart, item.UpvoteCount))
	if tags := item.EffectiveTags(); len(tags) > 0 {
		meta += "  " + tagStyle.Render("#"+strings.Join(tags, " #"))
	}
	lines = append(lines, meta, "")

	if item.Description != "" {
		desc, err := output.RenderMarkdownWithWidth(item.Description, contentWidth)
		if err != nil {
			desc = item.Description
		}
		lines = append(lines, strings.Split(desc, "\n")...)
		lines = append(lines, "")
	}

	comments := views.CommentsFor(m.Store.Comments(), m.DetailID)
	lines = append(lines, divider)
	lines = append(lines, hintStyle.Render(fmt.Sprintf("%d comments", len(comments))))
	bodyStyle := lipgloss.NewStyle().Width(contentWidth)
	for _, cm := range comments {
		author := "someone"
		if cm.User != nil && cm.User.Username != "" {
			author = cm.User.Username
		}
		head := idStyle.Render(author)
		if !cm.CreatedAt.IsZero() {
			head += hintStyle.Render("  " + cm.CreatedAt.Format("2006-01-02 15:04"))
		}
		if cm.Pending {
			head += "  " + pendingStyle.Render("[sending]")
		}
		lines = append(lines, "", head)
		lines = append(lines, strings.Split(bodyStyle.Render(cm.Text), "\n")...)
	}

	footer := hintStyle.Render("c:comment  u:upvote  j/k:scroll  r:refresh  esc:back  q:quit")
	var composerLines []string
	if m.Composing {
		composerLines = append(composerLines, divider, searchStyle.Render("new comment"))
		composerLines = append(composerLines, strings.Split(m.Composer.View(), "\n")...)
		footer = hintStyle.Render("ctrl+d:send  esc:discard")
	}

	// Scroll the thread so the composer and footer always stay on screen.
	avail := boxHeight - 4 - len(composerLines)
	if avail < 3 {
		avail = 3
	}
	scroll := m.DetailScroll
	if scroll > len(lines)-avail {
		scroll = len(lines) - avail
	}
	if scroll < 0 {
		scroll = 0
	}
	if len(lines) > avail {
		end := scroll + avail
		if end > len(lines) {
			end = len(lines)
		}
		lines = lines[scroll:end]
	}

	var content strings.Builder
	for _, line := range lines {
		content.WriteString(line)
		content.WriteString("\n")
	}
	for _, line := range composerLines {
		content.WriteString(line)
		content.WriteString("\n")
	}
	if m.Toast != "" {
		style := toastInfoStyle
		if m.ToastErr {
			style = toastErrStyle
		}
		content.WriteString(style.Render(ansi.Truncate(m.Toast, contentWidth, "...")))
		content.WriteString("\n")
	}
	content.WriteString(footer)

	return boxStyle.
		Width(boxWidth - 2).
		MaxHeight(boxHeight).
		Render(strings.TrimRight(content.String(), "\n"))
}
