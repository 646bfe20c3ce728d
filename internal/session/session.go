// Package session persists the authenticated identity between runs.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/marcus/fb/internal/models"
)

const sessionFile = "session.json"

// Session holds the tokens and cached identity for the current login.
// The cached user is a convenience only; commands that need a trusted
// identity re-validate the token against the service.
type Session struct {
	Access    string      `json:"access"`
	Refresh   string      `json:"refresh,omitempty"`
	User      models.User `json:"user"`
	ServerURL string      `json:"server_url,omitempty"`
	SavedAt   time.Time   `json:"saved_at"`
}

// Load reads the session from disk. A missing file is not an error: it means
// no one is logged in, and the returned session is nil.
func Load(baseDir string) (*Session, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, sessionFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.Access == "" {
		return nil, nil
	}
	return &sess, nil
}

// Save writes the session to disk using atomic write (temp file + rename).
// The file is user-only readable since it contains tokens.
func Save(baseDir string, sess *Session) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return err
	}
	sess.SavedAt = time.Now()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(baseDir, "session-*.json.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, filepath.Join(baseDir, sessionFile))
}

// Clear removes the persisted session. Clearing an absent session is a no-op.
func Clear(baseDir string) error {
	err := os.Remove(filepath.Join(baseDir, sessionFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CurrentIdentity returns the logged-in user, or nil when no session exists.
func CurrentIdentity(baseDir string) *models.User {
	sess, err := Load(baseDir)
	if err != nil || sess == nil {
		return nil
	}
	user := sess.User
	return &user
}
