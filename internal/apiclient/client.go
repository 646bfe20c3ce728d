// Package apiclient is an HTTP client for the remote feedback service.
package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/marcus/fb/internal/models"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// ValidationError carries field-level messages from a rejected request.
// The server is the validation authority; these messages are surfaced verbatim.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], "; ")))
	}
	return strings.Join(parts, ", ")
}

// Client is an HTTP client for the feedback service REST API.
// When Refresh is set, a request rejected as unauthorized triggers one token
// refresh and a single retry before the error is returned.
type Client struct {
	BaseURL     string
	AccessToken string
	HTTP        *http.Client

	// Refresh is the long-lived token used to mint a new access token.
	Refresh string
	// OnTokenRefresh receives each new access token so the caller can
	// persist it. Called outside any client lock.
	OnTokenRefresh func(access string)

	tokenMu sync.Mutex
}

// New creates a new API client.
func New(baseURL, accessToken string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		HTTP:        &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Auth types ---

// AuthResponse is the response from login and register.
type AuthResponse struct {
	User    models.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
}

// RefreshResponse is the response from a token refresh.
type RefreshResponse struct {
	Access string `json:"access"`
}

// RegisterRequest is the body for POST /api/auth/register/.
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// --- Auth methods ---

// Login exchanges credentials for tokens. No token required.
func (c *Client) Login(username, password string) (*AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp AuthResponse
	if err := c.doNoAuth("POST", "/api/auth/login/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. No token required.
func (c *Client) Register(req *RegisterRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doNoAuth("POST", "/api/auth/register/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me validates the current token and returns the authenticated user.
func (c *Client) Me() (*models.User, error) {
	var resp models.User
	if err := c.do("GET", "/api/auth/me/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(refresh string) (*RefreshResponse, error) {
	body := map[string]string{"refresh": refresh}
	var resp RefreshResponse
	if err := c.doNoAuth("POST", "/api/token/refresh/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Feedback types ---

// ListFilters are the server-side query parameters for listing feedback.
type ListFilters struct {
	BoardID  int64
	Status   models.Status
	Search   string
	Tags     string
	Ordering string // e.g. "-created_at", "upvotes"
}

// CreateFeedbackRequest is the body for POST /api/feedback/.
type CreateFeedbackRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BoardID     int64  `json:"board_id"`
	Tags        string `json:"tags,omitempty"`
}

// UpvoteResult is the authoritative outcome of an upvote toggle.
type UpvoteResult struct {
	Upvoted     bool `json:"upvoted"`
	UpvoteCount int  `json:"upvote_count"`
}

// --- Feedback methods ---

// ListFeedback lists feedback items matching the filters, in server order.
func (c *Client) ListFeedback(filters ListFilters) ([]models.Feedback, error) {
	params := url.Values{}
	if filters.BoardID != 0 {
		params.Set("board_id", strconv.FormatInt(filters.BoardID, 10))
	}
	if filters.Status != "" {
		params.Set("status", string(filters.Status))
	}
	if filters.Search != "" {
		params.Set("search", filters.Search)
	}
	if filters.Tags != "" {
		params.Set("tags", filters.Tags)
	}
	if filters.Ordering != "" {
		params.Set("ordering", filters.Ordering)
	}
	path := "/api/feedback/"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return doList[models.Feedback](c, path)
}

// GetFeedback retrieves a single feedback item.
func (c *Client) GetFeedback(id int64) (*models.Feedback, error) {
	var resp models.Feedback
	if err := c.do("GET", fmt.Sprintf("/api/feedback/%d/", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateFeedback creates a feedback item on a board.
func (c *Client) CreateFeedback(req *CreateFeedbackRequest) (*models.Feedback, error) {
	var resp models.Feedback
	if err := c.do("POST", "/api/feedback/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateFeedback patches fields on a feedback item and returns the
// authoritative result.
func (c *Client) UpdateFeedback(id int64, fields map[string]any) (*models.Feedback, error) {
	var resp models.Feedback
	if err := c.do("PATCH", fmt.Sprintf("/api/feedback/%d/", id), fields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteFeedback deletes a feedback item.
func (c *Client) DeleteFeedback(id int64) error {
	return c.do("DELETE", fmt.Sprintf("/api/feedback/%d/", id), nil, nil)
}

// ToggleUpvote flips the caller's upvote on a feedback item. The server
// decides the resulting state; the response is authoritative.
func (c *Client) ToggleUpvote(id int64) (*UpvoteResult, error) {
	var resp UpvoteResult
	if err := c.do("POST", fmt.Sprintf("/api/feedback/%d/upvote/", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSummary fetches the aggregate analytics snapshot for the last N days.
func (c *Client) GetSummary(days int) (*models.Summary, error) {
	path := "/api/feedback/summary/"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var resp models.Summary
	if err := c.do("GET", path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Comment methods ---

// ListComments lists the comments on a feedback item in server order.
func (c *Client) ListComments(feedbackID int64) ([]models.Comment, error) {
	path := fmt.Sprintf("/api/comments/?feedback_id=%d", feedbackID)
	return doList[models.Comment](c, path)
}

// CreateComment adds a comment to a feedback item.
func (c *Client) CreateComment(feedbackID int64, text string) (*models.Comment, error) {
	body := map[string]any{"feedback_id": feedbackID, "text": text}
	var resp models.Comment
	if err := c.do("POST", "/api/comments/", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(id int64, text string) (*models.Comment, error) {
	body := map[string]string{"text": text}
	var resp models.Comment
	if err := c.do("PATCH", fmt.Sprintf("/api/comments/%d/", id), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(id int64) error {
	return c.do("DELETE", fmt.Sprintf("/api/comments/%d/", id), nil, nil)
}

// --- Board types ---

// CreateBoardRequest is the body for POST /api/boards/.
type CreateBoardRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Public      bool    `json:"public"`
	MemberIDs   []int64 `json:"member_ids,omitempty"`
}

// --- Board methods ---

// ListBoards lists the boards visible to the authenticated user.
func (c *Client) ListBoards() ([]models.Board, error) {
	return doList[models.Board](c, "/api/boards/")
}

// CreateBoard creates a new board.
func (c *Client) CreateBoard(req *CreateBoardRequest) (*models.Board, error) {
	var resp models.Board
	if err := c.do("POST", "/api/boards/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateBoard patches board metadata.
func (c *Client) UpdateBoard(id int64, fields map[string]any) (*models.Board, error) {
	var resp models.Board
	if err := c.do("PATCH", fmt.Sprintf("/api/boards/%d/", id), fields, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

// listEnvelope is the paginated list shape some deployments return.
type listEnvelope[T any] struct {
	Results []T `json:"results"`
}

// doList fetches a collection, accepting both a bare JSON array and the
// paginated {"results": [...]} envelope.
func doList[T any](c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do("GET", path, nil, &raw); err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var env listEnvelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal list response: %w", err)
	}
	return env.Results, nil
}

// do executes an authenticated HTTP request.
func (c *Client) do(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, true)
}

// doNoAuth executes an unauthenticated HTTP request.
func (c *Client) doNoAuth(method, path string, body, result any) error {
	return c.doRequest(method, path, body, result, false)
}

func (c *Client) doRequest(method, path string, body, result any, auth bool) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	err := c.attempt(method, path, data, result, auth)
	if auth && errors.Is(err, ErrUnauthorized) && c.refreshAccess() {
		err = c.attempt(method, path, data, result, auth)
	}
	return err
}

// refreshAccess trades the refresh token for a new access token. It reports
// false when no refresh token is held or the exchange itself is rejected; the
// original unauthorized error then stands.
func (c *Client) refreshAccess() bool {
	c.tokenMu.Lock()
	refresh := c.Refresh
	c.tokenMu.Unlock()
	if refresh == "" {
		return false
	}

	resp, err := c.RefreshToken(refresh)
	if err != nil || resp.Access == "" {
		return false
	}

	c.tokenMu.Lock()
	c.AccessToken = resp.Access
	hook := c.OnTokenRefresh
	c.tokenMu.Unlock()
	if hook != nil {
		hook(resp.Access)
	}
	return true
}

// attempt executes a single HTTP exchange.
func (c *Client) attempt(method, path string, data []byte, result any, auth bool) error {
	var bodyReader io.Reader
	if data != nil {
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.tokenMu.Lock()
		token := c.AccessToken
		c.tokenMu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return c.decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// decodeError maps an HTTP error response onto the client error taxonomy.
func (c *Client) decodeError(status int, body []byte) error {
	message := serverMessage(body)

	switch status {
	case http.StatusUnauthorized:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrUnauthorized, message)
		}
		return ErrUnauthorized
	case http.StatusForbidden:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrForbidden, message)
		}
		return ErrForbidden
	case http.StatusNotFound:
		if message != "" {
			return fmt.Errorf("%w: %s", ErrNotFound, message)
		}
		return ErrNotFound
	case http.StatusBadRequest:
		if fields := fieldErrors(body); len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}
		if message != "" {
			return &ValidationError{Fields: map[string][]string{"detail": {message}}}
		}
	}

	if message != "" {
		return fmt.Errorf("HTTP %d: %s", status, message)
	}
	return fmt.Errorf("HTTP %d: %s", status, string(body))
}

// serverMessage extracts a human-readable message from the common error bodies
// ({"detail": "..."} or {"error": "..."}).
func serverMessage(body []byte) string {
	var obj struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &obj) != nil {
		return ""
	}
	if obj.Detail != "" {
		return obj.Detail
	}
	return obj.Error
}

// fieldErrors parses the serializer error shape: a map of field name to a
// list of messages. Non-list values and non-field keys are normalized.
func fieldErrors(body []byte) map[string][]string {
	var raw map[string]json.RawMessage
	if json.Unmarshal(body, &raw) != nil || len(raw) == 0 {
		return nil
	}
	fields := make(map[string][]string)
	for name, val := range raw {
		var list []string
		if json.Unmarshal(val, &list) == nil {
			fields[name] = list
			continue
		}
		var single string
		if json.Unmarshal(val, &single) == nil {
			fields[name] = []string{single}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
