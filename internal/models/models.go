package models

import (
	"strconv"
	"strings"
	"time"
)

// Status represents feedback workflow status
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// AllStatuses returns the four workflow statuses in kanban column order.
func AllStatuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusRejected}
}

// IsValidStatus checks if a status is valid
func IsValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// NormalizeStatus converts alternate status names to canonical form
// Accepts: "progress" and "wip" as aliases for "in_progress", "done" for "completed"
func NormalizeStatus(s string) Status {
	switch s {
	case "progress", "wip":
		return StatusInProgress
	case "done":
		return StatusCompleted
	default:
		return Status(s)
	}
}

// Role represents a user's role
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleModerator   Role = "moderator"
	RoleContributor Role = "contributor"
)

// User represents an account on the feedback service
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// IsStaff reports whether the user has moderation privileges.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleModerator)
}

// Board represents a feedback board
type Board struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Public        bool      `json:"public"`
	CreatedBy     *User     `json:"created_by,omitempty"`
	Members       []User    `json:"members,omitempty"`
	FeedbackCount int       `json:"feedback_count"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`
}

// Key returns the cache key for a board.
func (b *Board) Key() string {
	return strconv.FormatInt(b.ID, 10)
}

// MemberCount returns the number of board members.
func (b *Board) MemberCount() int {
	return len(b.Members)
}

// Feedback represents a feedback item
type Feedback struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Board        *Board    `json:"board,omitempty"`
	BoardID      int64     `json:"board_id,omitempty"` // write-only on create
	Status       Status    `json:"status"`
	Tags         string    `json:"tags,omitempty"` // comma-delimited source field
	TagsList     []string  `json:"tags_list,omitempty"`
	CreatedBy    *User     `json:"created_by,omitempty"`
	UpvoteCount  int       `json:"upvote_count"`
	CommentCount int       `json:"comment_count"`
	IsUpvoted    bool      `json:"is_upvoted"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
	UpdatedAt    time.Time `json:"updated_at,omitzero"`
}

// Key returns the cache key for a feedback item.
func (f *Feedback) Key() string {
	return strconv.FormatInt(f.ID, 10)
}

// BoardRef returns the board id regardless of which field carried it.
func (f *Feedback) BoardRef() int64 {
	if f.Board != nil {
		return f.Board.ID
	}
	return f.BoardID
}

// EffectiveTags returns the tag list, falling back to parsing the
// comma-delimited source field when the server omitted tags_list.
func (f *Feedback) EffectiveTags() []string {
	if len(f.TagsList) > 0 {
		return f.TagsList
	}
	return ParseTags(f.Tags)
}

// ParseTags splits a comma-delimited tag field into trimmed, non-empty tags,
// preserving order.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Comment represents a comment on a feedback item
type Comment struct {
	ID         int64     `json:"id"`
	User       *User     `json:"user,omitempty"`
	FeedbackID int64     `json:"feedback_id,omitempty"` // write-only on create
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`

	// ClientID is set on provisional comments created optimistically before
	// the server has assigned a real id. Never serialized.
	ClientID string `json:"-"`
	Pending  bool   `json:"-"`
}

// Key returns the cache key for a comment. Provisional comments are keyed by
// their client-generated id until the server response replaces them.
func (c *Comment) Key() string {
	if c.ClientID != "" {
		return "pending:" + c.ClientID
	}
	return strconv.FormatInt(c.ID, 10)
}

// CanEditComment reports whether user may edit or delete the comment.
// Admins and moderators can mutate any comment; everyone else only their own.
// This gates the UI only; the server re-validates every mutation.
func CanEditComment(user *User, c *Comment) bool {
	if user == nil || c == nil {
		return false
	}
	if user.IsStaff() {
		return true
	}
	return c.User != nil && c.User.ID == user.ID
}

// Summary is the aggregate analytics snapshot from the summary endpoint
type Summary struct {
	TotalFeedback      int            `json:"total_feedback"`
	OpenFeedback       int            `json:"open_feedback"`
	InProgressFeedback int            `json:"in_progress_feedback"`
	CompletedFeedback  int            `json:"completed_feedback"`
	RejectedFeedback   int            `json:"rejected_feedback"`
	TopVotedFeedback   []Feedback     `json:"top_voted_feedback,omitempty"`
	FeedbackTrends     map[string]int `json:"feedback_trends,omitempty"`
	StatusDistribution map[string]int `json:"status_distribution,omitempty"`
	TagDistribution    map[string]int `json:"tag_distribution,omitempty"`
}
