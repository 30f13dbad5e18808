package session

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.drift.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".drift")
}

// Dir returns the session-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "sessions", name)
}

// SocketPath returns the UDS socket path for a session.
func SocketPath(name string) string {
	return filepath.Join(Dir(name), "daemon.sock")
}

// LockPath returns the lock file path for a session.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// CacheDBPath returns the local snapshot cache database path.
func CacheDBPath(name string) string {
	return filepath.Join(Dir(name), "cache.db")
}

// PositionPath returns the device position file path for a session.
func PositionPath(name string) string {
	return filepath.Join(Dir(name), "position.json")
}

// TokenPath returns the bearer credential file path for a session.
func TokenPath(name string) string {
	return filepath.Join(Dir(name), "token")
}

// SessionConfigPath returns the per-session session.toml path.
func SessionConfigPath(name string) string {
	return filepath.Join(Dir(name), "session.toml")
}

// LogDir returns the log directory for a session.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the daemon log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "driftd.log")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the session directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
