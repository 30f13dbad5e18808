package session

import (
	"errors"
	"fmt"
	"regexp"
)

// Session names become directory, socket, and log file names under
// ~/.drift/sessions, so they are restricted to a single lowercase path
// segment that is safe on every filesystem.
const maxNameLength = 64

var namePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// ValidateName checks a session name before any path is built from it.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("session name is empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("session name %q is longer than %d characters", name, maxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid session name %q: use lowercase letters, digits, '-' and '_'", name)
	}
	return nil
}
