package tokenstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileStore(path)

	tok, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save("abc.def.ghi"))
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	require.NoError(t, s.Save("second"))
	tok, _ = s.Load()
	assert.Equal(t, "second", tok)

	require.NoError(t, s.Clear())
	tok, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	// 重复清除不报错
	assert.NoError(t, s.Clear())
}

func TestFileStore_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "token"))
	require.NoError(t, s.Save("x"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token", entries[0].Name())
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save("t1"))
	tok, _ := s.Load()
	assert.Equal(t, "t1", tok)
	require.NoError(t, s.Clear())
	tok, _ = s.Load()
	assert.Empty(t, tok)
}
