package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const stateFile = "current_session"

// LoadCurrentSessionID loads the most recently active session ID from
// the state file inside the history directory.
//
// Returns ("", nil) when no state file exists - this is not an error.
func LoadCurrentSessionID(historyDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(historyDir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read state file: %w", err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", nil
	}
	if err := validateID(id); err != nil {
		return "", fmt.Errorf("invalid session ID in state file: %w", err)
	}
	return id, nil
}

// SaveCurrentSessionID records sessionID as the active session.
func SaveCurrentSessionID(historyDir, sessionID string) error {
	if err := validateID(sessionID); err != nil {
		return err
	}
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(historyDir, stateFile), []byte(sessionID+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// ClearCurrentSessionID removes the state file. Idempotent.
func ClearCurrentSessionID(historyDir string) error {
	err := os.Remove(filepath.Join(historyDir, stateFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove state file: %w", err)
	}
	return nil
}
