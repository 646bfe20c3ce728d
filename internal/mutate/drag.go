package mutate

import (
	"errors"
	"sync"

	"github.com/marcus/fb/internal/models"
)

// DragState is the drag-and-drop state machine phase.
type DragState int

const (
	DragIdle DragState = iota
	DragActive
	DragHovering
	DragDropped
)

// ErrDragActive reports a drag start while another drag session is active.
// Only one drag may be active process-wide.
var ErrDragActive = errors.New("another drag is already active")

// Drag models card drag-and-drop as an explicit state machine, independent of
// any input-event system. Over records a hover target purely for
// presentation; Drop is the only transition that commits; End always runs and
// unconditionally clears transient state, so no card is ever left marked
// "dragging" after a cancelled or invalid drag.
type Drag struct {
	coord *Coordinator

	mu     sync.Mutex
	state  DragState
	itemID int64
	from   models.Status
	hover  models.Status
}

// Drag returns the coordinator's single drag session.
func (c *Coordinator) Drag() *Drag {
	c.dragOnce.Do(func() {
		c.drag = &Drag{coord: c}
	})
	return c.drag
}

// Start begins dragging a feedback item.
func (d *Drag) Start(item models.Feedback) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragIdle {
		return ErrDragActive
	}
	d.state = DragActive
	d.itemID = item.ID
	d.from = item.Status
	d.hover = ""
	return nil
}

// Over records the column currently hovered. Presentation only: the cache is
// never mutated here. Ignored when no drag is active.
func (d *Drag) Over(col models.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DragActive && d.state != DragHovering {
		return
	}
	d.state = DragHovering
	d.hover = col
}

// Drop commits the drag onto the given column. Dropping onto the item's
// current column is a no-op that never calls the remote service. The caller
// must still call End afterwards.
func (d *Drag) Drop(col models.Status) error {
	d.mu.Lock()
	if d.state != DragActive && d.state != DragHovering {
		d.mu.Unlock()
		return nil
	}
	d.state = DragDropped
	id, from := d.itemID, d.from
	d.mu.Unlock()

	if col == from {
		return nil
	}
	return d.coord.MoveStatus(id, col)
}

// End clears all transient drag state. It is safe to call in any state and is
// the only path guaranteed to run whether or not a drop occurred.
func (d *Drag) End() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = DragIdle
	d.itemID = 0
	d.from = ""
	d.hover = ""
}

// State returns the current phase.
func (d *Drag) State() DragState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// ItemID returns the id of the card being dragged, or 0 when idle.
func (d *Drag) ItemID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.itemID
}

// Hover returns the column currently hovered, or "" when none.
func (d *Drag) Hover() models.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hover
}
