package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRotated(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		if e.Name() != "app.log" && strings.HasPrefix(e.Name(), "app.") {
			n++
		}
	}
	return n
}

func TestRotatingWriter_RotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10})
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 0, countRotated(t, dir))

	_, err = w.Write([]byte("more"))
	require.NoError(t, err)
	assert.Equal(t, 1, countRotated(t, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "more", string(data))
}

func TestRotatingWriter_PrunesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")

	old := time.Now().Add(-time.Hour)
	for i, name := range []string{"app.2024-01-01-000000.log", "app.2024-01-02-000000.log", "app.2024-01-03-000000.log"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
		mt := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}

	w, err := NewRotatingWriter(path, RotationConfig{MaxBackups: 1})
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, 1, countRotated(t, dir))
	_, err = os.Stat(filepath.Join(dir, "app.2024-01-03-000000.log"))
	assert.NoError(t, err, "newest backup is kept")
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "app.log"), DefaultRotationConfig())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
