package output

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Feedback descriptions are markdown on the service side. Both the show view
// and the TUI detail view run them through Glamour; the width policy here is
// tuned for descriptions, which are short prose that reads badly as
// full-width lines on wide terminals.
const (
	fallbackWidth  = 80
	minRenderWidth = 20
	maxRenderWidth = 100
)

// descriptionWidth picks the wrap width for a description render: the
// terminal width, bounded to the readable range.
func descriptionWidth() int {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	} else if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			width = parsed
		}
	}
	if width > maxRenderWidth {
		width = maxRenderWidth
	}
	return width
}

// RenderMarkdown renders a feedback description for the current terminal.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, descriptionWidth())
}

// RenderMarkdownWithWidth renders a feedback description at an explicit wrap
// width. The result is trimmed flush so it sits directly under the item
// header without Glamour's surrounding blank lines.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minRenderWidth {
		width = minRenderWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.Trim(rendered, "\n"), nil
}
