package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupConfigNoFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	backup, err := BackupConfig(path)
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestBackupConfigCopiesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 5\n"), 0o644))

	backup, err := BackupConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Contains(t, string(data), "capacity: 5")
}

func TestListConfigBackupsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	first, err := BackupConfig(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.Contains(t, backups, first)
}

func TestCleanupOldBackupsKeepsOnlyMaxBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	for i := 0; i < MaxBackups+3; i++ {
		backupPath := path + BackupSuffix + "." + string(rune('a'+i))
		require.NoError(t, os.WriteFile(backupPath, []byte("b"), 0o644))
	}
	require.NoError(t, cleanupOldBackups(path))

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(backups), MaxBackups)
}

func TestRestoreConfigMissingBackupErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := RestoreConfig(path, filepath.Join(t.TempDir(), "nope.bak"))
	assert.Error(t, err)
}

func TestRestoreConfigRestoresContentAndBacksUpCurrent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("current"), 0o644))

	backupPath := filepath.Join(dir, "saved.bak")
	require.NoError(t, os.WriteFile(backupPath, []byte("restored"), 0o644))

	require.NoError(t, RestoreConfig(path, backupPath))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "restored", string(data))

	backups, err := ListConfigBackups(path)
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}
