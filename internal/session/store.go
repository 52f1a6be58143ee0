package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Noah-wb/datachat/internal/llm"
	"github.com/Noah-wb/datachat/internal/log"
)

const (
	sessionFilePrefix = "session_"
	sessionFileSuffix = ".json"
)

// FileStore persists sessions as one JSON file per session under a
// single directory. File names follow session_<id>.json.
//
// FileStore methods are not safe for concurrent use on the same
// session ID; the caller owns that synchronization.
type FileStore struct {
	dir    string
	logger log.Logger
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string, logger log.Logger) (*FileStore, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// Dir returns the directory sessions are stored in.
func (s *FileStore) Dir() string { return s.dir }

func validateID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, sessionFilePrefix+id+sessionFileSuffix)
}

// Save writes the session to disk. Serialization is deterministic:
// saving an unchanged session twice produces byte-identical files.
func (s *FileStore) Save(sess *Session) error {
	if err := validateID(sess.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sess.ID, err)
	}
	data = append(data, '\n')

	// temp file + rename so a crash never leaves a half-written session
	tmp, err := os.CreateTemp(s.dir, sessionFilePrefix+sess.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session %s: %w", sess.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(sess.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session %s: %w", sess.ID, err)
	}
	return nil
}

// Load reads a session by ID. Returns ErrSessionNotFound when no file
// exists and ErrCorruptSession when the file cannot be decoded.
func (s *FileStore) Load(id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSession, id, err)
	}
	if sess.Messages == nil {
		sess.Messages = []llm.Message{}
	}
	return &sess, nil
}

// Exists reports whether a session file exists for the given ID.
func (s *FileStore) Exists(id string) bool {
	if validateID(id) != nil {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Delete removes a session file. Returns ErrSessionNotFound when the
// session does not exist.
func (s *FileStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// List returns summaries of all sessions, newest first. Files that
// fail to decode are logged and skipped rather than aborting the listing.
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, sessionFileSuffix) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, sessionFilePrefix), sessionFileSuffix)

		sess, err := s.Load(id)
		if err != nil {
			s.logger.Warn("skipping unreadable session file", "file", name, "error", err)
			continue
		}
		summaries = append(summaries, sess.summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID > summaries[j].ID
	})
	return summaries, nil
}
