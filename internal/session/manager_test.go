package session

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Noah-wb/datachat/internal/llm"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(newTestStore(t), nil)
}

func TestManagerCreate(t *testing.T) {
	m := newTestManager(t)

	sess := m.Create()
	require.NotNil(t, sess)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}_\d{6}$`), sess.ID)
	assert.Same(t, sess, m.Current())
	assert.Empty(t, sess.Messages)
}

func TestManagerCreateCollision(t *testing.T) {
	m := newTestManager(t)

	first := m.Create()
	require.NoError(t, m.Persist())

	// 同一秒內建立第二個 session 時 ID 仍須唯一
	second := m.Create()
	if second.ID != first.ID {
		return
	}
	t.Fatalf("duplicate session ID %s", second.ID)
}

func TestManagerAppendPersistLoad(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store, nil)

	sess := m.Create()
	require.NoError(t, m.Append(llm.UserMessage("列出可用文件")))
	require.NoError(t, m.Append(llm.AssistantMessage("有 sales.csv。")))
	require.NoError(t, m.Persist())

	other := NewManager(store, nil)
	loaded, ok, err := other.Load(sess.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Messages, 2)
}

func TestManagerLoadMissing(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.Load("20990101_000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m.Current())
}

func TestManagerLoadCorruptIsRecoverable(t *testing.T) {
	store := newTestStore(t)
	m := NewManager(store, nil)

	path := filepath.Join(store.Dir(), "session_20240101_000000.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	// 損毀的檔案視同不存在，不是致命錯誤
	_, ok, err := m.Load("20240101_000000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, m.Current())
}

func TestManagerAppendWithoutSession(t *testing.T) {
	m := newTestManager(t)
	assert.Error(t, m.Append(llm.UserMessage("hi")))
	assert.Error(t, m.Persist())
}

func TestManagerDelete(t *testing.T) {
	m := newTestManager(t)

	sess := m.Create()
	require.NoError(t, m.Persist())

	ok, err := m.Delete(sess.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, m.Current())

	ok, err = m.Delete(sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
