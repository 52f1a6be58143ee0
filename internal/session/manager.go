package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/log"
)

// sessionIDLayout produces compact, sortable, human-readable IDs.
const sessionIDLayout = "20060102_150405"

// Manager owns the active session: the in-memory working copy the
// agent appends to, and its persistence through a FileStore.
//
// Manager is not safe for concurrent use.
type Manager struct {
	store   *FileStore
	logger  log.Logger
	current *Session
}

// NewManager creates a manager over the given store.
func NewManager(store *FileStore, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Create starts a new session with a timestamp-derived ID and makes it
// current. When two sessions are created within the same second, a
// random suffix keeps the IDs distinct.
func (m *Manager) Create() *Session {
	id := time.Now().Format(sessionIDLayout)
	if m.store.Exists(id) {
		id = id + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}

	m.current = NewSession(id)
	m.logger.Info("session created", "session_id", id)
	return m.current
}

// Load makes an existing session current. The second return value is
// false when the session does not exist; any other failure returns an error.
func (m *Manager) Load(id string) (*Session, bool, error) {
	sess, err := m.store.Load(id)
	if err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	m.current = sess
	m.logger.Info("session loaded", "session_id", id, "messages", len(sess.Messages))
	return sess, true, nil
}

// Current returns the active session, or nil when none is active.
func (m *Manager) Current() *Session { return m.current }

// Append adds messages to the active session in memory only.
func (m *Manager) Append(messages ...llm.Message) error {
	if m.current == nil {
		return fmt.Errorf("no active session")
	}
	m.current.Append(messages...)
	return nil
}

// Persist writes the active session to disk.
func (m *Manager) Persist() error {
	if m.current == nil {
		return fmt.Errorf("no active session")
	}
	return m.store.Save(m.current)
}

// Delete removes a session from disk. Returns false when the session
// does not exist. Deleting the active session also clears it.
func (m *Manager) Delete(id string) (bool, error) {
	if err := m.store.Delete(id); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if m.current != nil && m.current.ID == id {
		m.current = nil
	}
	return true, nil
}

// List returns summaries of all stored sessions, newest first.
func (m *Manager) List() ([]Summary, error) {
	return m.store.List()
}
