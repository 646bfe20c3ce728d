// Package store is the in-memory cache of remote entities currently visible
// in the UI. It is a reflection of the server's state, never the record of
// truth: every field of every entry is overwritable by a later authoritative
// response.
package store

import (
	"strconv"
	"sync"

	"github.com/marcus/fb/internal/models"
)

// entity constrains collections to types whose pointer form exposes a cache key.
type entity[T any] interface {
	*T
	Key() string
}

// collection is an id-keyed set that preserves the relative order in which
// entries were first loaded. Loading an existing key replaces the value in
// place (last-write-wins, no field merge) without moving it; new keys append.
type collection[T any, PT entity[T]] struct {
	items map[string]PT
	order []string
}

func newCollection[T any, PT entity[T]]() collection[T, PT] {
	return collection[T, PT]{items: make(map[string]PT)}
}

func (c *collection[T, PT]) load(batch []T) {
	for i := range batch {
		v := batch[i]
		p := PT(&v)
		key := p.Key()
		if _, ok := c.items[key]; !ok {
			c.order = append(c.order, key)
		}
		c.items[key] = p
	}
}

func (c *collection[T, PT]) get(key string) (T, bool) {
	var zero T
	p, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return *p, true
}

func (c *collection[T, PT]) patch(key string, fn func(PT)) bool {
	p, ok := c.items[key]
	if !ok {
		return false
	}
	fn(p)
	return true
}

func (c *collection[T, PT]) remove(key string) (int, bool) {
	if _, ok := c.items[key]; !ok {
		return 0, false
	}
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return i, true
		}
	}
	return 0, false
}

func (c *collection[T, PT]) insertAt(v T, index int) {
	p := PT(&v)
	key := p.Key()
	if _, ok := c.items[key]; ok {
		c.items[key] = p
		return
	}
	c.items[key] = p
	if index < 0 || index > len(c.order) {
		index = len(c.order)
	}
	c.order = append(c.order, "")
	copy(c.order[index+1:], c.order[index:])
	c.order[index] = key
}

func (c *collection[T, PT]) list() []T {
	out := make([]T, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, *c.items[key])
	}
	return out
}

func (c *collection[T, PT]) reset() {
	c.items = make(map[string]PT)
	c.order = nil
}

// Store holds the working set of feedback items, boards, and comments.
// All reads return value copies; the cache owns its entries. Mutations notify
// subscribers so projections and rendering can re-derive.
type Store struct {
	mu       sync.RWMutex
	feedback collection[models.Feedback, *models.Feedback]
	boards   collection[models.Board, *models.Board]
	comments collection[models.Comment, *models.Comment]

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int

	// Logf receives diagnostics for silently-ignored operations (e.g. a
	// patch on an id that was never loaded). Nil discards.
	Logf func(format string, args ...any)
}

// New creates an empty store.
func New() *Store {
	return &Store{
		feedback: newCollection[models.Feedback, *models.Feedback](),
		boards:   newCollection[models.Board, *models.Board](),
		comments: newCollection[models.Comment, *models.Comment](),
		subs:     make(map[int]func()),
	}
}

// Subscribe registers a callback invoked after every cache change.
// The returned function unsubscribes. Callbacks run without the store lock
// held, so they may read the store freely.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Store) logf(format string, args ...any) {
	if s.Logf != nil {
		s.Logf(format, args...)
	}
}

// --- Feedback ---

// LoadFeedback inserts or replaces a batch of feedback items.
func (s *Store) LoadFeedback(items ...models.Feedback) {
	s.mu.Lock()
	s.feedback.load(items)
	s.mu.Unlock()
	s.notify()
}

// ResetFeedback discards loaded feedback and loads the batch in its order.
// Used on full refreshes, where the server's ordering replaces the old one.
func (s *Store) ResetFeedback(items []models.Feedback) {
	s.mu.Lock()
	s.feedback.reset()
	s.feedback.load(items)
	s.mu.Unlock()
	s.notify()
}

// GetFeedback returns the feedback item or false if it was never loaded.
// Missing means "not loaded", not an error.
func (s *Store) GetFeedback(id int64) (models.Feedback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedback.get(strconv.FormatInt(id, 10))
}

// PatchFeedback applies a field-level update to a loaded feedback item.
// A patch on a missing id is a logged no-op: patching implies the entity was
// previously loaded.
func (s *Store) PatchFeedback(id int64, fn func(*models.Feedback)) bool {
	s.mu.Lock()
	ok := s.feedback.patch(strconv.FormatInt(id, 10), fn)
	s.mu.Unlock()
	if !ok {
		s.logf("patch on unloaded feedback %d ignored", id)
		return false
	}
	s.notify()
	return true
}

// RemoveFeedback evicts a feedback item.
func (s *Store) RemoveFeedback(id int64) {
	s.mu.Lock()
	_, ok := s.feedback.remove(strconv.FormatInt(id, 10))
	s.mu.Unlock()
	if ok {
		s.notify()
	}
}

// Feedback returns all loaded feedback items in load order.
func (s *Store) Feedback() []models.Feedback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedback.list()
}

// --- Boards ---

// LoadBoards inserts or replaces a batch of boards.
func (s *Store) LoadBoards(boards ...models.Board) {
	s.mu.Lock()
	s.boards.load(boards)
	s.mu.Unlock()
	s.notify()
}

// GetBoard returns the board or false if it was never loaded.
func (s *Store) GetBoard(id int64) (models.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boards.get(strconv.FormatInt(id, 10))
}

// Boards returns all loaded boards in load order.
func (s *Store) Boards() []models.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boards.list()
}

// --- Comments ---

// LoadComments inserts or replaces a batch of comments. Comments are keyed by
// Comment.Key, so provisional entries coexist with confirmed ones.
func (s *Store) LoadComments(comments ...models.Comment) {
	s.mu.Lock()
	s.comments.load(comments)
	s.mu.Unlock()
	s.notify()
}

// GetComment returns the comment for a cache key, or false if absent.
func (s *Store) GetComment(key string) (models.Comment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments.get(key)
}

// PatchComment applies a field-level update to a loaded comment.
func (s *Store) PatchComment(key string, fn func(*models.Comment)) bool {
	s.mu.Lock()
	ok := s.comments.patch(key, fn)
	s.mu.Unlock()
	if !ok {
		s.logf("patch on unloaded comment %s ignored", key)
		return false
	}
	s.notify()
	return true
}

// RemoveComment evicts a comment and reports the order index it held, so a
// failed delete can restore it to its prior position.
func (s *Store) RemoveComment(key string) (int, bool) {
	s.mu.Lock()
	idx, ok := s.comments.remove(key)
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return idx, ok
}

// InsertCommentAt restores a comment at the given order index. Out-of-range
// indexes append; restoring position is best effort, comment ordering is not
// a strict invariant.
func (s *Store) InsertCommentAt(c models.Comment, index int) {
	s.mu.Lock()
	s.comments.insertAt(c, index)
	s.mu.Unlock()
	s.notify()
}

// Comments returns all loaded comments in load order.
func (s *Store) Comments() []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.comments.list()
}
