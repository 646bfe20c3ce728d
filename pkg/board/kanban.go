package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/mutate"
)

// cardHeight is the number of lines per card.
const cardHeight = 3

// minColWidth is the minimum column width to render.
const minColWidth = 16

// renderBoard renders the full kanban screen.
func (m Model) renderBoard() string {
	if m.Width == 0 || m.Height == 0 {
		return "loading..."
	}

	cols := m.columns()
	drag := m.Coord.Drag()
	dragging := drag.State() == mutate.DragActive || drag.State() == mutate.DragHovering
	dragID := drag.ItemID()
	hover := drag.Hover()

	boxWidth := m.Width - 2
	if boxWidth > 170 {
		boxWidth = 170
	}
	boxHeight := m.Height - 2

	// Inner content width (minus border + padding)
	contentWidth := boxWidth - 4
	numCols := len(columnOrder)
	separatorWidth := numCols - 1
	colWidth := (contentWidth - separatorWidth) / numCols
	if colWidth < minColWidth {
		colWidth = minColWidth
	}
	actualContentWidth := colWidth*numCols + separatorWidth

	// Header: board name + key hints
	title := titleStyle.Render(fmt.Sprintf(" %s ", m.boardName()))
	hints := "  h/l:cols  j/k:rows  enter:open  space:drag  u:upvote  /:search  b:board  r:refresh  q:quit"
	if dragging {
		hints = "  h/l:choose column  enter:drop  esc:cancel"
	}
	header := title + hintStyle.Render(hints)
	if lipgloss.Width(header) > actualContentWidth {
		header = ansi.Truncate(header, actualContentWidth, "...")
	}

	// Column headers
	var colHeaders []string
	for i, status := range columnOrder {
		items := cols[status]
		style := lipgloss.NewStyle().Bold(true).Foreground(columnColor(status))
		if i == m.Col {
			style = style.Underline(true)
		}
		text := style.Render(fmt.Sprintf("%s (%d)", columnLabel(status), len(items)))
		if dragging && hover == status {
			text = style.Render("▼ ") + text
		}
		colHeaders = append(colHeaders, fitCell(text, colWidth))
	}

	sep := sepStyle.Render("│")
	headerLine := strings.Join(colHeaders, sep)
	divider := sepStyle.Render(strings.Repeat("─", actualContentWidth))

	// Rows of the status line and footer eat into the card area.
	availableCardHeight := boxHeight - 7
	if availableCardHeight < cardHeight {
		availableCardHeight = cardHeight
	}
	maxVisibleCards := availableCardHeight / cardHeight
	if maxVisibleCards < 1 {
		maxVisibleCards = 1
	}

	// Scroll the selected column so the cursor stays visible. Other columns
	// always start from row 0.
	selectedScroll := 0
	selItems := cols[columnOrder[m.Col]]
	if m.Row >= maxVisibleCards {
		selectedScroll = m.Row - maxVisibleCards + 1
	}
	if selectedScroll > len(selItems)-maxVisibleCards {
		selectedScroll = len(selItems) - maxVisibleCards
	}
	if selectedScroll < 0 {
		selectedScroll = 0
	}

	var cardLines []string
	for visRow := 0; visRow < maxVisibleCards; visRow++ {
		for line := 0; line < cardHeight; line++ {
			var cells []string
			for colIdx, status := range columnOrder {
				items := cols[status]
				dataRow := visRow
				if colIdx == m.Col {
					dataRow = visRow + selectedScroll
				}
				var cell string
				if dataRow < len(items) {
					item := items[dataRow]
					selected := colIdx == m.Col && dataRow == m.Row
					isDragged := dragging && item.ID == dragID
					cell = m.renderCardLine(item, line, colWidth, selected, isDragged)
				} else {
					cell = strings.Repeat(" ", colWidth)
				}
				cells = append(cells, cell)
			}
			cardLines = append(cardLines, strings.Join(cells, sep))
		}
	}

	var content strings.Builder
	content.WriteString(header)
	content.WriteString("\n")
	content.WriteString(divider)
	content.WriteString("\n")
	content.WriteString(headerLine)
	content.WriteString("\n")
	content.WriteString(divider)
	content.WriteString("\n")
	for _, line := range cardLines {
		content.WriteString(line)
		content.WriteString("\n")
	}
	content.WriteString(divider)
	content.WriteString("\n")
	content.WriteString(fitCell(m.renderStatusLine(actualContentWidth), actualContentWidth))

	return boxStyle.
		Width(boxWidth - 2).
		MaxHeight(boxHeight).
		Render(strings.TrimRight(content.String(), "\n"))
}

// renderStatusLine renders the footer: search input, toast, or refresh info.
func (m Model) renderStatusLine(width int) string {
	if m.SearchMode {
		return searchStyle.Render("/ ") + m.SearchInput.View()
	}
	if m.Toast != "" {
		style := toastInfoStyle
		if m.ToastErr {
			style = toastErrStyle
		}
		return style.Render(ansi.Truncate(m.Toast, width, "..."))
	}
	if m.Loading {
		return hintStyle.Render("refreshing...")
	}
	line := ""
	if m.SearchQuery != "" {
		line = searchStyle.Render("filter: "+m.SearchQuery) + "  "
	}
	if !m.LastRefresh.IsZero() {
		line += hintStyle.Render("updated " + m.LastRefresh.Format("15:04:05"))
	}
	return line
}

// renderCardLine renders a single line of a card.
// Line 0: id + truncated title
// Line 1: vote count + tags (or sending marker)
// Line 2: blank separator
func (m Model) renderCardLine(item models.Feedback, line, width int, selected, dragged bool) string {
	var content string
	switch line {
	case 0:
		prefix := idStyle.Render("#"+itoa(item.ID)) + " "
		titleWidth := width - lipgloss.Width(prefix)
		if titleWidth < 4 {
			titleWidth = 4
		}
		title := item.Title
		if lipgloss.Width(title) > titleWidth {
			title = ansi.Truncate(title, titleWidth-1, "…")
		}
		content = prefix + title

	case 1:
		heart := "♡"
		if item.IsUpvoted {
			heart = "♥"
		}
		content = voteStyle.Render(fmt.Sprintf("%s %d", heart, item.UpvoteCount))
		if item.CommentCount > 0 {
			content += hintStyle.Render(fmt.Sprintf("  %d comments", item.CommentCount))
		}
		if tags := item.EffectiveTags(); len(tags) > 0 {
			content += "  " + tagStyle.Render("#"+strings.Join(tags, " #"))
		}

	case 2:
		content = ""
	}

	content = fitCell(content, width)

	if dragged {
		return draggingStyle.Render(ansi.Strip(content))
	}
	if selected {
		return selectedRowStyle.Render(ansi.Strip(content))
	}
	return content
}

// fitCell pads or truncates styled content to an exact display width.
func fitCell(content string, width int) string {
	w := lipgloss.Width(content)
	if w > width {
		content = ansi.Truncate(content, width, "…")
		w = lipgloss.Width(content)
	}
	if w < width {
		content += strings.Repeat(" ", width-w)
	}
	return content
}
