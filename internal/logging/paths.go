package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.oxdb/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".oxdb", "logs")
	}
	return filepath.Join(home, ".oxdb", "logs")
}

// DefaultLogPath returns the default oxdb log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "oxdb.log")
}

