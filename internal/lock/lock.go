// Package lock enforces the one-daemon-per-session rule. driftd takes an
// exclusive flock on the session directory before opening the snapshot cache
// or the control socket, so a second daemon pointed at the same session fails
// fast instead of corrupting either.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockHeldError reports the daemon already attached to the session.
type LockHeldError struct {
	PID  int
	Path string
}

func (e *LockHeldError) Error() string {
	if e.PID == 0 {
		return fmt.Sprintf("session in use: another driftd holds %s", e.Path)
	}
	return fmt.Sprintf("session in use: driftd pid %d holds %s", e.PID, e.Path)
}

// Lock is an acquired session lock. The flock is held for the lifetime of the
// daemon and released through Release on shutdown.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive lock for the session directory, creating it if
// needed. Returns LockHeldError when another daemon already holds it.
func Acquire(sessionDir string) (*Lock, error) {
	lockPath := filepath.Join(sessionDir, "LOCK")

	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		// Read the holder's PID from the file for the error message.
		data, _ := os.ReadFile(lockPath)
		pid := holderPID(string(data))
		_ = f.Close()
		return nil, &LockHeldError{PID: pid, Path: lockPath}
	}

	// Record who holds the lock; diagnostics only, the flock is authoritative.
	if err := f.Truncate(0); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, err
	}
	content := fmt.Sprintf("pid=%d\nstarted=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Lock{file: f, path: lockPath}, nil
}

// Release drops the lock and removes the lock file. Safe on a nil receiver
// and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Remove before closing so a crash between the two leaves no stale file.
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// holderPID extracts the pid= line written by Acquire. Zero means the holder
// could not be determined.
func holderPID(content string) int {
	for _, line := range strings.Split(content, "\n") {
		if after, ok := strings.CutPrefix(line, "pid="); ok {
			pid, _ := strconv.Atoi(after)
			return pid
		}
	}
	return 0
}
