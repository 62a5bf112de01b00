package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "nested", "b.txt"), []byte("world"), 0o644))

	workDir := t.TempDir()
	zipPath := filepath.Join(workDir, "notes.oxdb.zip")
	require.NoError(t, Export(src, zipPath))

	info, err := os.Stat(zipPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	destParent := t.TempDir()
	destDir, err := Import(zipPath, destParent)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destParent, "notes.oxdb"), destDir)

	got, err := os.ReadFile(filepath.Join(destDir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got, err = os.ReadFile(filepath.Join(destDir, "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))
}

func TestExportRejectsNonDirectory(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(f, []byte("x"), 0o644))

	err := Export(f, filepath.Join(t.TempDir(), "out.zip"))
	assert.Error(t, err)
}
