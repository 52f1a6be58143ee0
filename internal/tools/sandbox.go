package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath indicates a filename tried to escape the data root (CWE-22).
var ErrUnsafePath = errors.New("unsafe file path")

// Sandbox confines tool file access to a single data directory.
// Filenames from the model are reduced to their base name, so neither
// relative traversal nor absolute paths can reach outside the root.
type Sandbox struct {
	root string
}

// NewSandbox creates a sandbox rooted at dir, creating it if needed.
func NewSandbox(dir string) (*Sandbox, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve data directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("unable to create data directory: %w", err)
	}
	return &Sandbox{root: abs}, nil
}

// Root returns the absolute data directory.
func (s *Sandbox) Root() string { return s.root }

// Resolve maps a model-supplied filename to a safe absolute path inside
// the data root. Directory components are rejected rather than silently
// honored, and the resolved path is verified to stay under the root.
func (s *Sandbox) Resolve(filename string) (string, error) {
	name := strings.TrimSpace(filename)
	if name == "" {
		return "", fmt.Errorf("%w: empty filename", ErrUnsafePath)
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filename)
	}

	full := filepath.Join(s.root, name)

	// 正規化後仍須在資料目錄內
	abs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filename)
	}
	rootNorm := filepath.Clean(s.root) + string(filepath.Separator)
	if !strings.HasPrefix(abs+string(filepath.Separator), rootNorm) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, filename)
	}
	return abs, nil
}

// ListCSV returns the names of CSV files in the data root, sorted by
// the directory order os.ReadDir provides (lexical).
func (s *Sandbox) ListCSV() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
