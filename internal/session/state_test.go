package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentSessionStateRoundTrip(t *testing.T) {
	dir := t.TempDir()

	id, err := LoadCurrentSessionID(dir)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, SaveCurrentSessionID(dir, "20250101_120000"))
	id, err = LoadCurrentSessionID(dir)
	require.NoError(t, err)
	assert.Equal(t, "20250101_120000", id)

	require.NoError(t, ClearCurrentSessionID(dir))
	id, err = LoadCurrentSessionID(dir)
	require.NoError(t, err)
	assert.Empty(t, id)

	// clearing twice is fine
	require.NoError(t, ClearCurrentSessionID(dir))
}

func TestSaveCurrentSessionIDRejectsUnsafe(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, SaveCurrentSessionID(dir, "../escape"))
}

func TestLoadCurrentSessionIDMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("a/b\n"), 0644))

	_, err := LoadCurrentSessionID(dir)
	assert.Error(t, err)
}
