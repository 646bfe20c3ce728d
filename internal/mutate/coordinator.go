// Package mutate executes user-initiated mutations against the remote
// feedback service as a three-phase protocol: snapshot, optimistic apply,
// confirm or revert. The view reflects every change immediately; the server
// response is the truth that either confirms or undoes it.
package mutate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/store"
)

// Remote is the subset of the API client the coordinator drives.
type Remote interface {
	ToggleUpvote(id int64) (*apiclient.UpvoteResult, error)
	UpdateFeedback(id int64, fields map[string]any) (*models.Feedback, error)
	CreateComment(feedbackID int64, text string) (*models.Comment, error)
	UpdateComment(id int64, text string) (*models.Comment, error)
	DeleteComment(id int64) error
}

// Notifier receives exactly one call per failed mutation. op names the
// operation; err is what the remote (or pre-validation) reported.
type Notifier func(op string, err error)

var (
	// ErrNotLoaded reports a mutation on an entity the cache never saw.
	ErrNotLoaded = errors.New("entity not loaded")
	// ErrPending reports a mutation on a provisional comment that has not
	// been confirmed by the server yet.
	ErrPending = errors.New("comment not yet confirmed")
	// ErrEmptyText reports client-side pre-validation of comment text.
	// This avoids an obviously-doomed call; the server remains the
	// validation authority for everything else.
	ErrEmptyText = errors.New("text must not be empty")
)

// entityState serializes mutations per entity and tracks a logical version
// used as the stale-response guard: a confirm or revert only lands if no
// later write superseded the state it was computed against.
type entityState struct {
	mu      sync.Mutex
	version atomic.Uint64
}

// Coordinator orchestrates optimistic mutations over the store.
// Mutations on the same entity are serialized (a second call queues behind
// the first); mutations on different entities run independently.
type Coordinator struct {
	store  *store.Store
	remote Remote
	notify Notifier

	// onAuthFailure fires when a remote call is rejected as unauthorized,
	// after the optimistic state has been reverted. Typically clears the
	// persisted session and drops the UI to the unauthenticated state.
	onAuthFailure func()

	user *models.User // identity shown on provisional comments

	mu       sync.Mutex
	entities map[string]*entityState

	drag     *Drag
	dragOnce sync.Once
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithNotifier sets the failure notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notify = n }
}

// WithAuthFailureHook sets the callback for authorization failures.
func WithAuthFailureHook(fn func()) Option {
	return func(c *Coordinator) { c.onAuthFailure = fn }
}

// WithUser sets the identity attributed to provisional comments.
func WithUser(u *models.User) Option {
	return func(c *Coordinator) { c.user = u }
}

// New creates a coordinator over the given cache and remote.
func New(s *store.Store, remote Remote, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    s,
		remote:   remote,
		notify:   func(string, error) {},
		entities: make(map[string]*entityState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) entity(key string) *entityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.entities[key]
	if !ok {
		st = &entityState{}
		c.entities[key] = st
	}
	return st
}

func feedbackKey(id int64) string {
	return "feedback/" + strconv.FormatInt(id, 10)
}

func commentEntityKey(cacheKey string) string {
	return "comment/" + cacheKey
}

// SetNotifier replaces the failure notifier. Used by the TUI, which cannot
// build its notifier until the program exists.
func (c *Coordinator) SetNotifier(n Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n == nil {
		n = func(string, error) {}
	}
	c.notify = n
}

// fail reports a mutation failure exactly once and fires the auth hook when
// the session has become invalid.
func (c *Coordinator) fail(op string, err error) {
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()
	notify(op, err)
	if errors.Is(err, apiclient.ErrUnauthorized) && c.onAuthFailure != nil {
		c.onAuthFailure()
	}
}

// SupersedeFeedback marks a feedback item as refreshed from an authoritative
// source outside the coordinator (e.g. a list fetch). Any in-flight
// mutation's confirm or revert for that item becomes stale and will not land.
func (c *Coordinator) SupersedeFeedback(id int64) {
	c.entity(feedbackKey(id)).version.Add(1)
}

// RefreshFeedback replaces the cached feedback set with an authoritative
// batch and supersedes every in-flight mutation it covers.
func (c *Coordinator) RefreshFeedback(items []models.Feedback) {
	c.store.ResetFeedback(items)
	for i := range items {
		c.SupersedeFeedback(items[i].ID)
	}
}

// ToggleUpvote optimistically flips the current user's upvote on a feedback
// item. The authoritative merge on success is mandatory: the server may
// disagree with the optimistic guess (stale vote state, concurrent voters).
func (c *Coordinator) ToggleUpvote(id int64) error {
	st := c.entity(feedbackKey(id))
	st.mu.Lock()
	defer st.mu.Unlock()

	snap, ok := c.store.GetFeedback(id)
	if !ok {
		err := fmt.Errorf("upvote: %w", ErrNotLoaded)
		c.fail("upvote", err)
		return err
	}

	c.store.PatchFeedback(id, func(f *models.Feedback) {
		if f.IsUpvoted {
			f.IsUpvoted = false
			if f.UpvoteCount > 0 {
				f.UpvoteCount--
			}
		} else {
			f.IsUpvoted = true
			f.UpvoteCount++
		}
	})
	version := st.version.Load()

	res, err := c.remote.ToggleUpvote(id)
	if err != nil {
		if st.version.CompareAndSwap(version, version+1) {
			c.store.LoadFeedback(snap)
		}
		c.fail("upvote", err)
		return err
	}

	if st.version.CompareAndSwap(version, version+1) {
		c.store.PatchFeedback(id, func(f *models.Feedback) {
			f.IsUpvoted = res.Upvoted
			f.UpvoteCount = res.UpvoteCount
		})
	}
	return nil
}

// MoveStatus transitions a feedback item to a new workflow status. Moving to
// the current status is a no-op and never calls the remote service.
func (c *Coordinator) MoveStatus(id int64, target models.Status) error {
	if !models.IsValidStatus(target) {
		err := fmt.Errorf("move: invalid status %q", target)
		c.fail("move", err)
		return err
	}

	st := c.entity(feedbackKey(id))
	st.mu.Lock()
	defer st.mu.Unlock()

	snap, ok := c.store.GetFeedback(id)
	if !ok {
		err := fmt.Errorf("move: %w", ErrNotLoaded)
		c.fail("move", err)
		return err
	}
	if snap.Status == target {
		return nil
	}

	c.store.PatchFeedback(id, func(f *models.Feedback) {
		f.Status = target
	})
	version := st.version.Load()

	res, err := c.remote.UpdateFeedback(id, map[string]any{"status": target})
	if err != nil {
		if st.version.CompareAndSwap(version, version+1) {
			c.store.LoadFeedback(snap)
		}
		c.fail("move", err)
		return err
	}

	// The server response is the new truth for every field it returns.
	if st.version.CompareAndSwap(version, version+1) {
		c.store.LoadFeedback(*res)
	}
	return nil
}

// AddComment optimistically appends a provisional comment, then replaces it
// with the server's confirmed comment. A failed create removes the
// provisional entry entirely; no phantom comment survives.
func (c *Coordinator) AddComment(feedbackID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		err := fmt.Errorf("comment: %w", ErrEmptyText)
		c.fail("comment", err)
		return err
	}

	provisional := models.Comment{
		ClientID:   uuid.NewString(),
		Pending:    true,
		FeedbackID: feedbackID,
		Text:       text,
		User:       c.user,
		CreatedAt:  time.Now(),
	}
	provKey := provisional.Key()

	st := c.entity(commentEntityKey(provKey))
	st.mu.Lock()
	defer st.mu.Unlock()

	c.store.LoadComments(provisional)

	confirmed, err := c.remote.CreateComment(feedbackID, text)
	if err != nil {
		c.store.RemoveComment(provKey)
		c.fail("comment", err)
		return err
	}

	// Replace, not merge: the provisional entry gives its position to the
	// confirmed comment with its real server id.
	idx, _ := c.store.RemoveComment(provKey)
	c.store.InsertCommentAt(*confirmed, idx)
	return nil
}

// EditComment optimistically replaces a comment's text in place. Permission
// gating happens before this is invoked; the server re-validates regardless.
func (c *Coordinator) EditComment(cacheKey, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		err := fmt.Errorf("edit comment: %w", ErrEmptyText)
		c.fail("edit comment", err)
		return err
	}

	st := c.entity(commentEntityKey(cacheKey))
	st.mu.Lock()
	defer st.mu.Unlock()

	snap, ok := c.store.GetComment(cacheKey)
	if !ok {
		err := fmt.Errorf("edit comment: %w", ErrNotLoaded)
		c.fail("edit comment", err)
		return err
	}
	if snap.Pending {
		err := fmt.Errorf("edit comment: %w", ErrPending)
		c.fail("edit comment", err)
		return err
	}

	c.store.PatchComment(cacheKey, func(cm *models.Comment) {
		cm.Text = text
	})
	version := st.version.Load()

	confirmed, err := c.remote.UpdateComment(snap.ID, text)
	if err != nil {
		if st.version.CompareAndSwap(version, version+1) {
			c.store.PatchComment(cacheKey, func(cm *models.Comment) {
				cm.Text = snap.Text
			})
		}
		c.fail("edit comment", err)
		return err
	}

	if st.version.CompareAndSwap(version, version+1) {
		c.store.LoadComments(*confirmed)
	}
	return nil
}

// DeleteComment optimistically removes a comment. On failure the snapshot is
// re-inserted at its prior position (best effort; append when the original
// index cannot be honored).
func (c *Coordinator) DeleteComment(cacheKey string) error {
	st := c.entity(commentEntityKey(cacheKey))
	st.mu.Lock()
	defer st.mu.Unlock()

	snap, ok := c.store.GetComment(cacheKey)
	if !ok {
		err := fmt.Errorf("delete comment: %w", ErrNotLoaded)
		c.fail("delete comment", err)
		return err
	}
	if snap.Pending {
		err := fmt.Errorf("delete comment: %w", ErrPending)
		c.fail("delete comment", err)
		return err
	}

	idx, _ := c.store.RemoveComment(cacheKey)
	version := st.version.Load()

	if err := c.remote.DeleteComment(snap.ID); err != nil {
		if st.version.CompareAndSwap(version, version+1) {
			c.store.InsertCommentAt(snap, idx)
		}
		c.fail("delete comment", err)
		return err
	}

	st.version.CompareAndSwap(version, version+1)
	return nil
}
