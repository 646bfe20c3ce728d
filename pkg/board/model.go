// Package board is the interactive kanban TUI. It renders the cached
// feedback set as four status columns and drives every mutation through the
// coordinator, so a drop or an upvote shows instantly and rolls back on
// failure like any other client.
package board

import (
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/mutate"
	"github.com/marcus/fb/internal/store"
	"github.com/marcus/fb/internal/views"
)

// columnOrder is the left-to-right arrangement of the kanban columns. It
// follows the workflow order so a card normally travels rightward.
var columnOrder = models.AllStatuses()

// Model is the Bubble Tea model for the kanban view.
type Model struct {
	Client *apiclient.Client
	Store  *store.Store
	Coord  *mutate.Coordinator
	User   *models.User

	// Window dimensions
	Width  int
	Height int

	// Cursor position: column index and row within the column
	Col int
	Row int

	// Board filter. 0 shows all boards; BoardIdx tracks the cycle position,
	// -1 meaning "all".
	BoardID  int64
	BoardIdx int

	// Search state
	SearchMode  bool
	SearchInput textinput.Model
	SearchQuery string

	// Detail view state. DetailID is 0 while the board is showing.
	DetailID     int64
	DetailScroll int
	Composing    bool
	Composer     textarea.Model

	Loading     bool
	Err         error
	LastRefresh time.Time

	// Toast line shown under the board, cleared after a short delay
	Toast    string
	ToastErr bool
	toastSeq int

	RefreshInterval time.Duration
	Version         string
}

// Options configures a kanban session.
type Options struct {
	Client   *apiclient.Client
	User     *models.User
	BoardID  int64
	Interval time.Duration
	Version  string
}

// NewModel creates a kanban model with a fresh cache and coordinator. The
// returned model shares its store with the coordinator; external loads must
// go through Coord.RefreshFeedback so in-flight mutations are superseded.
func NewModel(opts Options) Model {
	searchInput := textinput.New()
	searchInput.Placeholder = "search"
	searchInput.Prompt = ""
	searchInput.Width = 40
	searchInput.CharLimit = 200

	composer := textarea.New()
	composer.Placeholder = "write a comment"
	composer.CharLimit = 2000
	composer.SetHeight(4)
	composer.ShowLineNumbers = false

	interval := opts.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	st := store.New()
	return Model{
		Client:          opts.Client,
		Store:           st,
		Coord:           mutate.New(st, opts.Client, mutate.WithUser(opts.User)),
		User:            opts.User,
		BoardID:         opts.BoardID,
		BoardIdx:        -1,
		SearchInput:     searchInput,
		Composer:        composer,
		Loading:         true,
		RefreshInterval: interval,
		Version:         opts.Version,
	}
}

// Run starts the kanban program and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	// Re-render on every cache change so optimistic applies and reverts show
	// up without waiting for the mutation round trip to finish.
	unsubscribe := m.Store.Subscribe(func() {
		p.Send(StoreChangedMsg{})
	})
	defer unsubscribe()

	// Failed mutations surface as a toast after the cache has already been
	// rolled back.
	m.Coord.SetNotifier(func(op string, err error) {
		p.Send(MutationFailedMsg{Op: op, Err: err})
	})

	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchFeed(), m.scheduleTick())
}

// columns computes the visible column contents from the cache, applying the
// search and board filters.
func (m Model) columns() map[models.Status][]models.Feedback {
	feed := views.Feed(m.Store.Feedback(), views.FeedOptions{
		Search:  m.SearchQuery,
		BoardID: m.BoardID,
	})
	return views.StatusColumns(feed)
}

// selected returns the feedback item under the cursor, if any.
func (m Model) selected() (models.Feedback, bool) {
	cols := m.columns()
	if m.Col < 0 || m.Col >= len(columnOrder) {
		return models.Feedback{}, false
	}
	items := cols[columnOrder[m.Col]]
	if m.Row < 0 || m.Row >= len(items) {
		return models.Feedback{}, false
	}
	return items[m.Row], true
}

// clampRow clamps the row cursor to the valid range in the current column.
func (m *Model) clampRow() {
	items := m.columns()[columnOrder[m.Col]]
	if len(items) == 0 {
		m.Row = 0
	} else if m.Row >= len(items) {
		m.Row = len(items) - 1
	}
}

// moveLeft moves the cursor to the previous column. During a drag the hover
// target follows the cursor.
func (m *Model) moveLeft() {
	if m.Col > 0 {
		m.Col--
		m.clampRow()
		m.syncHover()
	}
}

// moveRight moves the cursor to the next column.
func (m *Model) moveRight() {
	if m.Col < len(columnOrder)-1 {
		m.Col++
		m.clampRow()
		m.syncHover()
	}
}

func (m *Model) moveDown() {
	items := m.columns()[columnOrder[m.Col]]
	if m.Row < len(items)-1 {
		m.Row++
	}
}

func (m *Model) moveUp() {
	if m.Row > 0 {
		m.Row--
	}
}

// syncHover records the cursor column as the drag hover target when a drag
// is in progress. Hover never touches the cache.
func (m *Model) syncHover() {
	drag := m.Coord.Drag()
	switch drag.State() {
	case mutate.DragActive, mutate.DragHovering:
		drag.Over(columnOrder[m.Col])
	}
}

// cycleBoard advances the board filter through "all boards" and each cached
// board in turn.
func (m *Model) cycleBoard() {
	boards := m.Store.Boards()
	if len(boards) == 0 {
		return
	}
	m.BoardIdx++
	if m.BoardIdx >= len(boards) {
		m.BoardIdx = -1
		m.BoardID = 0
	} else {
		m.BoardID = boards[m.BoardIdx].ID
	}
	m.Row = 0
	m.clampRow()
}

// boardName returns the label for the active board filter.
func (m Model) boardName() string {
	if m.BoardID == 0 {
		return "All Boards"
	}
	if b, ok := m.Store.GetBoard(m.BoardID); ok {
		return b.Name
	}
	return "Board"
}

// setToast replaces the toast line and schedules its expiry.
func (m *Model) setToast(text string, isErr bool) tea.Cmd {
	m.Toast = text
	m.ToastErr = isErr
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case TickMsg:
		return m, tea.Batch(m.fetchFeed(), m.scheduleTick())

	case FeedLoadedMsg:
		m.Loading = false
		m.LastRefresh = time.Now()
		if msg.Err != nil {
			m.Err = msg.Err
			return m, m.setToast("refresh failed: "+msg.Err.Error(), true)
		}
		m.Err = nil
		m.Coord.RefreshFeedback(msg.Items)
		m.Store.LoadBoards(msg.Boards...)
		m.clampRow()
		return m, nil

	case StoreChangedMsg:
		m.clampRow()
		return m, nil

	case CommentsLoadedMsg:
		if msg.Err != nil {
			return m, m.setToast("comments failed: "+msg.Err.Error(), true)
		}
		m.Store.LoadComments(msg.Comments...)
		return m, nil

	case MutationDoneMsg:
		// Failures already surfaced via MutationFailedMsg; success needs no
		// handling beyond the store notification that drove the re-render.
		return m, nil

	case MutationFailedMsg:
		return m, m.setToast(msg.Op+" failed, change rolled back", true)

	case toastClearMsg:
		if msg.seq == m.toastSeq {
			m.Toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey processes key input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	drag := m.Coord.Drag()

	// Search mode: forward most keys to the textinput for cursor support.
	if m.SearchMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.SearchMode = false
			m.SearchQuery = ""
			m.SearchInput.SetValue("")
			m.clampRow()
			return m, nil
		case tea.KeyEnter:
			m.SearchMode = false
			return m, nil
		}
		var cmd tea.Cmd
		m.SearchInput, cmd = m.SearchInput.Update(msg)
		if q := m.SearchInput.Value(); q != m.SearchQuery {
			m.SearchQuery = q
			m.Row = 0
			m.clampRow()
		}
		return m, cmd
	}

	// The composer captures all input while open.
	if m.Composing {
		switch msg.Type {
		case tea.KeyEsc:
			m.Composing = false
			m.Composer.Reset()
			m.Composer.Blur()
			return m, nil
		case tea.KeyCtrlD:
			text := m.Composer.Value()
			m.Composing = false
			m.Composer.Reset()
			m.Composer.Blur()
			return m, m.submitComment(m.DetailID, text)
		}
		var cmd tea.Cmd
		m.Composer, cmd = m.Composer.Update(msg)
		return m, cmd
	}

	if m.DetailID != 0 {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "h", "left":
		m.moveLeft()
		return m, nil

	case "l", "right":
		m.moveRight()
		return m, nil

	case "j", "down":
		m.moveDown()
		return m, nil

	case "k", "up":
		m.moveUp()
		return m, nil

	case " ":
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := drag.Start(item); err != nil {
			return m, m.setToast(err.Error(), true)
		}
		return m, m.setToast("dragging #"+itoa(item.ID)+": h/l to move, enter to drop, esc to cancel", false)

	case "enter":
		switch drag.State() {
		case mutate.DragActive, mutate.DragHovering:
			return m, m.dropCard(columnOrder[m.Col])
		}
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.DetailID = item.ID
		m.DetailScroll = 0
		return m, m.fetchComments(item.ID)

	case "esc":
		switch drag.State() {
		case mutate.DragIdle:
			if m.SearchQuery != "" {
				m.SearchQuery = ""
				m.SearchInput.SetValue("")
				m.clampRow()
			}
		default:
			drag.End()
			return m, m.setToast("drag cancelled", false)
		}
		return m, nil

	case "u":
		item, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggleUpvote(item.ID)

	case "b":
		m.cycleBoard()
		return m, nil

	case "/":
		m.SearchMode = true
		m.SearchInput.Focus()
		return m, nil

	case "r":
		m.Loading = true
		return m, m.fetchFeed()
	}

	return m, nil
}

// handleDetailKey processes key input while the detail view is open.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.DetailID = 0
		m.DetailScroll = 0
		return m, nil

	case "c":
		m.Composing = true
		m.Composer.Reset()
		return m, m.Composer.Focus()

	case "u":
		return m, m.toggleUpvote(m.DetailID)

	case "j", "down":
		m.DetailScroll++
		return m, nil

	case "k", "up":
		if m.DetailScroll > 0 {
			m.DetailScroll--
		}
		return m, nil

	case "r":
		return m, m.fetchComments(m.DetailID)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.DetailID != 0 {
		return m.renderDetail()
	}
	return m.renderBoard()
}
