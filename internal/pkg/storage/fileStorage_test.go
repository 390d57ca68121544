package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDelete(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(dir)

	require.NoError(t, fs.Save("exports/a/page.png", strings.NewReader("first")))
	require.NoError(t, fs.Save("exports/a/page.png", strings.NewReader("second")))
	assert.True(t, fs.Exists("exports/a/page.png"))
	assert.Equal(t, filepath.Join(dir, "exports/a/page.png"), fs.Path("exports/a/page.png"))

	rc, err := fs.Get("exports/a/page.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Join(dir, "exports/a"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, fs.Delete("exports/a"))
	assert.False(t, fs.Exists("exports/a/page.png"))
}

func TestGetMissing(t *testing.T) {
	_, err := NewFileStorage(t.TempDir()).Get("nope.png")
	assert.True(t, os.IsNotExist(err))
}
