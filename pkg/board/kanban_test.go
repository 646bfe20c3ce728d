package board

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/mutate"
	"github.com/marcus/fb/internal/store"
)

// stubRemote counts calls; every operation succeeds.
type stubRemote struct {
	upvoteCalls int
	updateCalls int
	createCalls int
}

func (r *stubRemote) ToggleUpvote(id int64) (*apiclient.UpvoteResult, error) {
	r.upvoteCalls++
	return &apiclient.UpvoteResult{Upvoted: true, UpvoteCount: 1}, nil
}

func (r *stubRemote) UpdateFeedback(id int64, fields map[string]any) (*models.Feedback, error) {
	r.updateCalls++
	f := models.Feedback{ID: id}
	if s, ok := fields["status"].(models.Status); ok {
		f.Status = s
	}
	return &f, nil
}

func (r *stubRemote) CreateComment(feedbackID int64, text string) (*models.Comment, error) {
	r.createCalls++
	return &models.Comment{ID: 1, FeedbackID: feedbackID, Text: text}, nil
}

func (r *stubRemote) UpdateComment(id int64, text string) (*models.Comment, error) {
	return &models.Comment{ID: id, Text: text}, nil
}

func (r *stubRemote) DeleteComment(id int64) error { return nil }

func newTestModel(remote *stubRemote, items ...models.Feedback) Model {
	st := store.New()
	st.LoadFeedback(items...)

	searchInput := textinput.New()
	composer := textarea.New()
	composer.ShowLineNumbers = false
	return Model{
		Store:       st,
		Coord:       mutate.New(st, remote),
		SearchInput: searchInput,
		Composer:    composer,
		BoardIdx:    -1,
		Width:       120,
		Height:      40,
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNavigationClampsToColumns(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Status: models.StatusOpen},
		models.Feedback{ID: 2, Status: models.StatusOpen},
		models.Feedback{ID: 3, Status: models.StatusInProgress},
	)

	m.moveDown()
	if m.Row != 1 {
		t.Errorf("after moveDown: row = %d, want 1", m.Row)
	}
	m.moveDown()
	if m.Row != 1 {
		t.Errorf("moveDown past bottom: row = %d, want 1", m.Row)
	}

	// Moving to a shorter column clamps the row.
	m.moveRight()
	if m.Col != 1 || m.Row != 0 {
		t.Errorf("after moveRight: col=%d row=%d, want 1, 0", m.Col, m.Row)
	}

	m.moveLeft()
	m.moveLeft()
	if m.Col != 0 {
		t.Errorf("moveLeft past first column: col = %d, want 0", m.Col)
	}

	m.Col = len(columnOrder) - 1
	m.moveRight()
	if m.Col != len(columnOrder)-1 {
		t.Errorf("moveRight past last column: col = %d", m.Col)
	}
}

func TestSelectedFollowsCursor(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Status: models.StatusOpen},
		models.Feedback{ID: 2, Status: models.StatusInProgress},
	)

	item, ok := m.selected()
	if !ok || item.ID != 1 {
		t.Errorf("selected = %v, %v, want item 1", item, ok)
	}

	m.Col = 1
	item, ok = m.selected()
	if !ok || item.ID != 2 {
		t.Errorf("selected = %v, %v, want item 2", item, ok)
	}

	m.Col = 2
	if _, ok := m.selected(); ok {
		t.Error("selected reported an item in an empty column")
	}
}

func TestDragKeysFollowCursor(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Status: models.StatusOpen},
	)

	// space picks up the card
	next, _ := m.handleKey(key(" "))
	m = next.(Model)
	drag := m.Coord.Drag()
	if drag.State() != mutate.DragActive || drag.ItemID() != 1 {
		t.Fatalf("after space: state=%v item=%d", drag.State(), drag.ItemID())
	}

	// l carries it right; the hover target follows the cursor
	next, _ = m.handleKey(key("l"))
	m = next.(Model)
	if drag.Hover() != models.StatusInProgress {
		t.Errorf("hover = %q, want in_progress", drag.Hover())
	}

	// esc cancels and fully clears the session
	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if drag.State() != mutate.DragIdle {
		t.Errorf("after esc: state = %v, want idle", drag.State())
	}

	f, _ := m.Store.GetFeedback(1)
	if f.Status != models.StatusOpen {
		t.Errorf("cancelled drag changed status to %s", f.Status)
	}
}

func TestSecondPickupRejected(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Status: models.StatusOpen},
		models.Feedback{ID: 2, Status: models.StatusOpen},
	)

	next, _ := m.handleKey(key(" "))
	m = next.(Model)
	m.moveDown()
	next, _ = m.handleKey(key(" "))
	m = next.(Model)

	drag := m.Coord.Drag()
	if drag.ItemID() != 1 {
		t.Errorf("second pickup replaced the active drag: item = %d", drag.ItemID())
	}
	if m.Toast == "" || !m.ToastErr {
		t.Error("second pickup did not surface an error toast")
	}
}

func TestDropCommand(t *testing.T) {
	remote := &stubRemote{}
	m := newTestModel(remote, models.Feedback{ID: 1, Status: models.StatusOpen})

	drag := m.Coord.Drag()
	item, _ := m.Store.GetFeedback(1)
	drag.Start(item)

	cmd := m.dropCard(models.StatusCompleted)
	msg := cmd()
	done, ok := msg.(MutationDoneMsg)
	if !ok || done.Err != nil {
		t.Fatalf("drop msg = %#v", msg)
	}
	if remote.updateCalls != 1 {
		t.Errorf("remote calls = %d, want 1", remote.updateCalls)
	}
	if drag.State() != mutate.DragIdle {
		t.Error("drag not ended after drop")
	}
	f, _ := m.Store.GetFeedback(1)
	if f.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", f.Status)
	}
}

func TestDropOnSameColumnSkipsRemote(t *testing.T) {
	remote := &stubRemote{}
	m := newTestModel(remote, models.Feedback{ID: 1, Status: models.StatusOpen})

	drag := m.Coord.Drag()
	item, _ := m.Store.GetFeedback(1)
	drag.Start(item)

	cmd := m.dropCard(models.StatusOpen)
	cmd()
	if remote.updateCalls != 0 {
		t.Errorf("remote calls = %d, want 0 for same-column drop", remote.updateCalls)
	}
}

func TestSearchFiltersColumns(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Title: "Dark mode", Status: models.StatusOpen},
		models.Feedback{ID: 2, Title: "CSV export", Status: models.StatusOpen},
	)

	m.SearchQuery = "dark"
	cols := m.columns()
	open := cols[models.StatusOpen]
	if len(open) != 1 || open[0].ID != 1 {
		t.Errorf("filtered column = %v, want only the match", open)
	}
}

func TestCycleBoardFilter(t *testing.T) {
	m := newTestModel(&stubRemote{})
	m.Store.LoadBoards(
		models.Board{ID: 1, Name: "Product"},
		models.Board{ID: 2, Name: "Internal"},
	)

	if m.boardName() != "All Boards" {
		t.Errorf("initial board = %q", m.boardName())
	}
	m.cycleBoard()
	if m.BoardID != 1 {
		t.Errorf("after first cycle: board = %d", m.BoardID)
	}
	m.cycleBoard()
	m.cycleBoard()
	if m.BoardID != 0 {
		t.Errorf("cycle did not wrap to all boards: %d", m.BoardID)
	}
}

func TestEnterOpensAndEscClosesDetail(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 5, Title: "Dark mode", Status: models.StatusOpen},
	)

	next, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	if m.DetailID != 5 {
		t.Fatalf("after enter: DetailID = %d, want 5", m.DetailID)
	}

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.DetailID != 0 {
		t.Errorf("after esc: DetailID = %d, want 0 (back on the board)", m.DetailID)
	}
}

func TestDetailRendersThread(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 5, Title: "Dark mode", Status: models.StatusOpen, Description: "Please add a **dark** theme."},
	)
	m.DetailID = 5

	next, _ := m.Update(CommentsLoadedMsg{
		FeedbackID: 5,
		Comments: []models.Comment{
			{ID: 1, FeedbackID: 5, Text: "Agreed, my eyes hurt", User: &models.User{Username: "ana"}},
		},
	})
	m = next.(Model)

	out := m.View()
	for _, want := range []string{"Dark mode", "OPEN", "ana", "Agreed, my eyes hurt", "1 comments"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail render missing %q", want)
		}
	}
}

func TestDetailMarksPendingComments(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 5, Title: "Dark mode", Status: models.StatusOpen},
	)
	m.DetailID = 5
	m.Store.LoadComments(models.Comment{
		ClientID: "abc", Pending: true, FeedbackID: 5, Text: "on its way",
	})

	out := m.View()
	if !strings.Contains(out, "[sending]") {
		t.Error("pending comment not marked in the thread")
	}
}

func TestComposerSubmitsComment(t *testing.T) {
	remote := &stubRemote{}
	m := newTestModel(remote,
		models.Feedback{ID: 5, Title: "Dark mode", Status: models.StatusOpen},
	)
	m.DetailID = 5

	next, _ := m.handleKey(key("c"))
	m = next.(Model)
	if !m.Composing {
		t.Fatal("c did not open the composer")
	}

	m.Composer.SetValue("Looks good to me")
	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = next.(Model)
	if m.Composing {
		t.Error("composer still open after submit")
	}
	if cmd == nil {
		t.Fatal("submit returned no command")
	}

	msg := cmd()
	done, ok := msg.(MutationDoneMsg)
	if !ok || done.Op != "comment" || done.Err != nil {
		t.Fatalf("submit msg = %#v", msg)
	}
	if remote.createCalls != 1 {
		t.Errorf("remote create calls = %d, want 1", remote.createCalls)
	}

	var confirmed bool
	for _, cm := range m.Store.Comments() {
		if cm.Pending || cm.ClientID != "" {
			t.Errorf("provisional remnant in thread: %+v", cm)
		}
		if cm.ID == 1 && cm.Text == "Looks good to me" {
			confirmed = true
		}
	}
	if !confirmed {
		t.Error("confirmed comment missing from the thread")
	}
}

func TestComposerEscDiscards(t *testing.T) {
	remote := &stubRemote{}
	m := newTestModel(remote, models.Feedback{ID: 5, Status: models.StatusOpen})
	m.DetailID = 5

	next, _ := m.handleKey(key("c"))
	m = next.(Model)
	m.Composer.SetValue("never mind")

	next, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.Composing {
		t.Error("esc did not close the composer")
	}
	if m.DetailID != 5 {
		t.Errorf("esc from composer left the detail view: DetailID = %d", m.DetailID)
	}
	if len(m.Store.Comments()) != 0 || remote.createCalls != 0 {
		t.Error("discarded comment still reached the cache or the remote")
	}
}

func TestRenderBoardSmoke(t *testing.T) {
	m := newTestModel(&stubRemote{},
		models.Feedback{ID: 1, Title: "Dark mode", Status: models.StatusOpen, UpvoteCount: 3},
		models.Feedback{ID: 2, Title: "CSV export", Status: models.StatusCompleted},
	)

	out := m.View()
	if out == "" {
		t.Fatal("empty render")
	}
	for _, want := range []string{"OPEN", "IN PROGRESS", "COMPLETED", "REJECTED", "Dark mode"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q", want)
		}
	}
}
