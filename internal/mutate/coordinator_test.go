package mutate

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marcus/fb/internal/apiclient"
	"github.com/marcus/fb/internal/models"
	"github.com/marcus/fb/internal/store"
)

// fakeRemote scripts remote responses per operation. Zero values succeed with
// echoes of the optimistic state.
type fakeRemote struct {
	mu sync.Mutex

	upvoteResult *apiclient.UpvoteResult
	upvoteErr    error
	upvoteCalls  int

	updateResult *models.Feedback
	updateErr    error
	updateCalls  int

	createResult *models.Comment
	createErr    error

	editResult *models.Comment
	editErr    error

	deleteErr error

	// barrier, when set, is closed by the test to release a blocked remote
	// call. Used to interleave concurrent mutations deterministically.
	barrier chan struct{}
}

func (r *fakeRemote) ToggleUpvote(id int64) (*apiclient.UpvoteResult, error) {
	r.mu.Lock()
	r.upvoteCalls++
	res, err, barrier := r.upvoteResult, r.upvoteErr, r.barrier
	r.mu.Unlock()
	if barrier != nil {
		<-barrier
	}
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	return &apiclient.UpvoteResult{Upvoted: true, UpvoteCount: 1}, nil
}

func (r *fakeRemote) UpdateFeedback(id int64, fields map[string]any) (*models.Feedback, error) {
	r.mu.Lock()
	r.updateCalls++
	res, err := r.updateResult, r.updateErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if res != nil {
		return res, nil
	}
	f := models.Feedback{ID: id}
	if s, ok := fields["status"].(models.Status); ok {
		f.Status = s
	}
	return &f, nil
}

func (r *fakeRemote) CreateComment(feedbackID int64, text string) (*models.Comment, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if r.createResult != nil {
		return r.createResult, nil
	}
	return &models.Comment{ID: 100, FeedbackID: feedbackID, Text: text}, nil
}

func (r *fakeRemote) UpdateComment(id int64, text string) (*models.Comment, error) {
	if r.editErr != nil {
		return nil, r.editErr
	}
	if r.editResult != nil {
		return r.editResult, nil
	}
	return &models.Comment{ID: id, Text: text}, nil
}

func (r *fakeRemote) DeleteComment(id int64) error {
	return r.deleteErr
}

func newTestCoordinator(remote *fakeRemote) (*Coordinator, *store.Store) {
	s := store.New()
	c := New(s, remote, WithUser(&models.User{ID: 1, Username: "me"}))
	return c, s
}

func TestToggleUpvoteConfirmsWithServerState(t *testing.T) {
	remote := &fakeRemote{upvoteResult: &apiclient.UpvoteResult{Upvoted: true, UpvoteCount: 9}}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1, UpvoteCount: 3})

	if err := c.ToggleUpvote(1); err != nil {
		t.Fatalf("ToggleUpvote: %v", err)
	}

	f, _ := s.GetFeedback(1)
	if !f.IsUpvoted || f.UpvoteCount != 9 {
		t.Errorf("after confirm: upvoted=%v count=%d, want true, 9 (server is authoritative)", f.IsUpvoted, f.UpvoteCount)
	}
}

func TestToggleUpvoteRevertRestoresExactState(t *testing.T) {
	remote := &fakeRemote{upvoteErr: errors.New("boom")}
	var notified []string
	c, s := newTestCoordinator(remote)
	c.SetNotifier(func(op string, err error) { notified = append(notified, op) })

	orig := models.Feedback{ID: 1, Title: "t", UpvoteCount: 3, IsUpvoted: false}
	s.LoadFeedback(orig)

	if err := c.ToggleUpvote(1); err == nil {
		t.Fatal("expected error")
	}

	f, _ := s.GetFeedback(1)
	if f.IsUpvoted != orig.IsUpvoted || f.UpvoteCount != orig.UpvoteCount {
		t.Errorf("revert left upvoted=%v count=%d, want original %v, %d", f.IsUpvoted, f.UpvoteCount, orig.IsUpvoted, orig.UpvoteCount)
	}
	if len(notified) != 1 || notified[0] != "upvote" {
		t.Errorf("notifications = %v, want exactly one upvote failure", notified)
	}
}

func TestToggleUpvoteFloorAtZero(t *testing.T) {
	remote := &fakeRemote{upvoteResult: &apiclient.UpvoteResult{Upvoted: false, UpvoteCount: 0}}
	c, s := newTestCoordinator(remote)
	// Inconsistent state from a stale snapshot: upvoted but count 0.
	s.LoadFeedback(models.Feedback{ID: 1, IsUpvoted: true, UpvoteCount: 0})

	if err := c.ToggleUpvote(1); err != nil {
		t.Fatalf("ToggleUpvote: %v", err)
	}
	f, _ := s.GetFeedback(1)
	if f.UpvoteCount < 0 {
		t.Errorf("count went negative: %d", f.UpvoteCount)
	}
}

func TestToggleUpvoteNotLoaded(t *testing.T) {
	c, _ := newTestCoordinator(&fakeRemote{})
	err := c.ToggleUpvote(99)
	if !errors.Is(err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
}

// togglingRemote emulates the server's real vote semantics: each call flips
// the caller's vote and moves the count one step.
type togglingRemote struct {
	fakeRemote
	upvoted bool
	count   int
}

func (r *togglingRemote) ToggleUpvote(id int64) (*apiclient.UpvoteResult, error) {
	r.upvoted = !r.upvoted
	if r.upvoted {
		r.count++
	} else {
		r.count--
	}
	return &apiclient.UpvoteResult{Upvoted: r.upvoted, UpvoteCount: r.count}, nil
}

func TestToggleTwiceRestoresInitialState(t *testing.T) {
	tests := []struct {
		name    string
		upvoted bool
		count   int
	}{
		{"starting not upvoted", false, 3},
		{"starting upvoted", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &togglingRemote{upvoted: tt.upvoted, count: tt.count}
			s := store.New()
			c := New(s, remote, WithUser(&models.User{ID: 1, Username: "me"}))
			s.LoadFeedback(models.Feedback{ID: 1, IsUpvoted: tt.upvoted, UpvoteCount: tt.count})

			if err := c.ToggleUpvote(1); err != nil {
				t.Fatalf("first toggle: %v", err)
			}
			mid, _ := s.GetFeedback(1)
			wantCount := tt.count + 1
			if tt.upvoted {
				wantCount = tt.count - 1
			}
			if mid.IsUpvoted == tt.upvoted || mid.UpvoteCount != wantCount {
				t.Fatalf("after first toggle: upvoted=%v count=%d, want %v, %d",
					mid.IsUpvoted, mid.UpvoteCount, !tt.upvoted, wantCount)
			}

			if err := c.ToggleUpvote(1); err != nil {
				t.Fatalf("second toggle: %v", err)
			}
			f, _ := s.GetFeedback(1)
			if f.IsUpvoted != tt.upvoted || f.UpvoteCount != tt.count {
				t.Errorf("after toggling twice: upvoted=%v count=%d, want the initial %v, %d",
					f.IsUpvoted, f.UpvoteCount, tt.upvoted, tt.count)
			}
		})
	}
}

func TestSerializedTogglesBothRoundTrip(t *testing.T) {
	remote := &fakeRemote{}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ToggleUpvote(1)
		}()
	}
	wg.Wait()

	remote.mu.Lock()
	calls := remote.upvoteCalls
	remote.mu.Unlock()
	if calls != 2 {
		t.Errorf("remote calls = %d, want 2 (second toggle queues, not coalesced)", calls)
	}
	// Each toggle saw the committed result of the previous one; the final
	// state is whatever the last server response said.
	f, _ := s.GetFeedback(1)
	if !f.IsUpvoted || f.UpvoteCount != 1 {
		t.Errorf("final state upvoted=%v count=%d, want true, 1", f.IsUpvoted, f.UpvoteCount)
	}
}

func TestStaleRevertDoesNotClobberRefresh(t *testing.T) {
	barrier := make(chan struct{})
	remote := &fakeRemote{upvoteErr: errors.New("timeout"), barrier: barrier}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1, Title: "old", UpvoteCount: 3})

	done := make(chan error, 1)
	go func() { done <- c.ToggleUpvote(1) }()

	// Wait for the optimistic apply, then refresh from an authoritative
	// snapshot while the remote call is still in flight.
	for {
		if f, _ := s.GetFeedback(1); f.IsUpvoted {
			break
		}
		time.Sleep(time.Millisecond)
	}
	c.RefreshFeedback([]models.Feedback{{ID: 1, Title: "refreshed", UpvoteCount: 10}})

	close(barrier)
	if err := <-done; err == nil {
		t.Fatal("expected upvote error")
	}

	// The failed mutation's revert is stale: the refresh superseded it.
	f, _ := s.GetFeedback(1)
	if f.Title != "refreshed" || f.UpvoteCount != 10 {
		t.Errorf("stale revert clobbered refresh: title=%q count=%d", f.Title, f.UpvoteCount)
	}
}

func TestMoveStatusSameStatusSkipsRemote(t *testing.T) {
	remote := &fakeRemote{}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1, Status: models.StatusOpen})

	if err := c.MoveStatus(1, models.StatusOpen); err != nil {
		t.Fatalf("MoveStatus: %v", err)
	}
	if remote.updateCalls != 0 {
		t.Errorf("remote called %d times for a same-status move, want 0", remote.updateCalls)
	}
}

func TestMoveStatusInvalidTarget(t *testing.T) {
	c, s := newTestCoordinator(&fakeRemote{})
	s.LoadFeedback(models.Feedback{ID: 1, Status: models.StatusOpen})

	if err := c.MoveStatus(1, models.Status("archived")); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestMoveStatusConfirmAdoptsFullResponse(t *testing.T) {
	remote := &fakeRemote{updateResult: &models.Feedback{
		ID: 1, Status: models.StatusInProgress, Title: "renamed elsewhere", UpvoteCount: 7,
	}}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1, Status: models.StatusOpen, Title: "local"})

	if err := c.MoveStatus(1, models.StatusInProgress); err != nil {
		t.Fatalf("MoveStatus: %v", err)
	}

	f, _ := s.GetFeedback(1)
	if f.Title != "renamed elsewhere" || f.UpvoteCount != 7 {
		t.Errorf("confirm did not adopt full server response: %+v", f)
	}
}

func TestMoveStatusRevert(t *testing.T) {
	remote := &fakeRemote{updateErr: errors.New("boom")}
	c, s := newTestCoordinator(remote)
	s.LoadFeedback(models.Feedback{ID: 1, Status: models.StatusOpen})

	if err := c.MoveStatus(1, models.StatusCompleted); err == nil {
		t.Fatal("expected error")
	}
	f, _ := s.GetFeedback(1)
	if f.Status != models.StatusOpen {
		t.Errorf("status = %s, want reverted to open", f.Status)
	}
}

func TestAddCommentReplacesProvisional(t *testing.T) {
	remote := &fakeRemote{createResult: &models.Comment{ID: 55, FeedbackID: 1, Text: "hi"}}
	c, s := newTestCoordinator(remote)

	if err := c.AddComment(1, "  hi  "); err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	comments := s.Comments()
	if len(comments) != 1 {
		t.Fatalf("len = %d, want 1 (provisional replaced, not kept)", len(comments))
	}
	got := comments[0]
	if got.ID != 55 || got.Pending || got.ClientID != "" {
		t.Errorf("confirmed comment = %+v, want server identity only", got)
	}
}

func TestAddCommentFailureLeavesNoPhantom(t *testing.T) {
	remote := &fakeRemote{createErr: errors.New("boom")}
	c, s := newTestCoordinator(remote)
	s.LoadComments(models.Comment{ID: 1, FeedbackID: 1, Text: "existing"})

	if err := c.AddComment(1, "doomed"); err == nil {
		t.Fatal("expected error")
	}
	for _, cm := range s.Comments() {
		if cm.Pending || strings.Contains(cm.Text, "doomed") {
			t.Errorf("phantom comment survived: %+v", cm)
		}
	}
}

func TestAddCommentEmptyText(t *testing.T) {
	remote := &fakeRemote{}
	c, _ := newTestCoordinator(remote)
	if err := c.AddComment(1, "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("err = %v, want ErrEmptyText", err)
	}
}

func TestAddCommentCarriesIdentity(t *testing.T) {
	c, s := newTestCoordinator(&fakeRemote{})

	// Observe the provisional entry via the subscription before the remote
	// call confirms it.
	var provisional *models.Comment
	s.Subscribe(func() {
		for _, cm := range s.Comments() {
			if cm.Pending {
				copied := cm
				provisional = &copied
			}
		}
	})

	if err := c.AddComment(1, "hello"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if provisional == nil {
		t.Fatal("provisional comment never appeared")
	}
	if provisional.User == nil || provisional.User.Username != "me" {
		t.Errorf("provisional user = %+v, want current identity", provisional.User)
	}
	if provisional.ClientID == "" {
		t.Error("provisional comment has no client id")
	}
}

func TestEditCommentRestoresTextOnFailure(t *testing.T) {
	remote := &fakeRemote{editErr: errors.New("boom")}
	c, s := newTestCoordinator(remote)
	s.LoadComments(models.Comment{ID: 5, Text: "original"})

	if err := c.EditComment("5", "changed"); err == nil {
		t.Fatal("expected error")
	}
	cm, _ := s.GetComment("5")
	if cm.Text != "original" {
		t.Errorf("text = %q, want restored original", cm.Text)
	}
}

func TestEditCommentRejectsPending(t *testing.T) {
	c, s := newTestCoordinator(&fakeRemote{})
	s.LoadComments(models.Comment{ClientID: "x", Pending: true, Text: "sending"})

	if err := c.EditComment("pending:x", "new"); !errors.Is(err, ErrPending) {
		t.Errorf("err = %v, want ErrPending", err)
	}
}

func TestDeleteCommentFailureRestoresPosition(t *testing.T) {
	remote := &fakeRemote{deleteErr: errors.New("boom")}
	c, s := newTestCoordinator(remote)
	s.LoadComments(
		models.Comment{ID: 1, Text: "a"},
		models.Comment{ID: 2, Text: "b"},
		models.Comment{ID: 3, Text: "c"},
	)

	if err := c.DeleteComment("2"); err == nil {
		t.Fatal("expected error")
	}

	comments := s.Comments()
	if len(comments) != 3 || comments[1].ID != 2 {
		t.Errorf("comment not restored to prior position: %v", comments)
	}
}

func TestDeleteCommentSuccess(t *testing.T) {
	c, s := newTestCoordinator(&fakeRemote{})
	s.LoadComments(models.Comment{ID: 1, Text: "a"})

	if err := c.DeleteComment("1"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}
	if len(s.Comments()) != 0 {
		t.Error("comment still present after delete")
	}
}

func TestAuthFailureHookFires(t *testing.T) {
	remote := &fakeRemote{upvoteErr: apiclient.ErrUnauthorized}
	s := store.New()
	var hookFired bool
	c := New(s, remote, WithAuthFailureHook(func() { hookFired = true }))
	s.LoadFeedback(models.Feedback{ID: 1})

	if err := c.ToggleUpvote(1); err == nil {
		t.Fatal("expected error")
	}
	if !hookFired {
		t.Error("auth failure hook did not fire")
	}
	// State was still reverted before the hook.
	f, _ := s.GetFeedback(1)
	if f.IsUpvoted {
		t.Error("optimistic state survived auth failure")
	}
}
