package board

import (
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
)

// TickMsg triggers a periodic refresh.
type TickMsg time.Time

// FeedLoadedMsg carries a fresh authoritative snapshot of the feed.
type FeedLoadedMsg struct {
	Items  []models.Feedback
	Boards []models.Board
	Err    error
}

// StoreChangedMsg is sent by the cache subscription after any mutation, so
// the view re-renders optimistic applies and reverts as they happen.
type StoreChangedMsg struct{}

// CommentsLoadedMsg carries the comment thread for the open detail view.
type CommentsLoadedMsg struct {
	FeedbackID int64
	Comments   []models.Comment
	Err        error
}

// MutationDoneMsg reports a finished mutation round trip.
type MutationDoneMsg struct {
	Op  string
	Err error
}

// MutationFailedMsg is sent by the coordinator's notifier after a mutation
// was rolled back.
type MutationFailedMsg struct {
	Op  string
	Err error
}

// toastClearMsg expires the toast line. Stale expirations carry an old seq
// and are ignored.
type toastClearMsg struct {
	seq int
}

// scheduleTick returns a command that sends a TickMsg after the refresh
// interval.
func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.RefreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchFeed fetches the feedback list and boards from the server. The result
// is merged through the coordinator so it supersedes in-flight mutations.
func (m Model) fetchFeed() tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		items, err := client.ListFeedback(apiclient.ListFilters{})
		if err != nil {
			return FeedLoadedMsg{Err: err}
		}
		boards, err := client.ListBoards()
		if err != nil {
			return FeedLoadedMsg{Err: err}
		}
		return FeedLoadedMsg{Items: items, Boards: boards}
	}
}

// toggleUpvote runs the upvote mutation off the UI goroutine. The optimistic
// flip shows via the store subscription before the round trip completes.
func (m Model) toggleUpvote(id int64) tea.Cmd {
	coord := m.Coord
	return func() tea.Msg {
		err := coord.ToggleUpvote(id)
		return MutationDoneMsg{Op: "upvote", Err: err}
	}
}

// fetchComments loads the comment thread for a feedback item.
func (m Model) fetchComments(id int64) tea.Cmd {
	client := m.Client
	return func() tea.Msg {
		comments, err := client.ListComments(id)
		return CommentsLoadedMsg{FeedbackID: id, Comments: comments, Err: err}
	}
}

// submitComment posts the composed text through the coordinator. The
// provisional entry shows in the thread immediately via the store
// subscription; a failed create removes it again.
func (m Model) submitComment(id int64, text string) tea.Cmd {
	coord := m.Coord
	return func() tea.Msg {
		err := coord.AddComment(id, text)
		return MutationDoneMsg{Op: "comment", Err: err}
	}
}

// dropCard commits the active drag onto the given column and always ends the
// drag session, whether or not the move succeeded.
func (m Model) dropCard(col models.Status) tea.Cmd {
	drag := m.Coord.Drag()
	return func() tea.Msg {
		err := drag.Drop(col)
		drag.End()
		return MutationDoneMsg{Op: "move", Err: err}
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
