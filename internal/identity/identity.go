// Package identity supplies the bearer credential for the current session.
package identity

import (
	"context"
	"os"
	"strings"
)

// TokenSource yields an opaque bearer credential on demand. An empty token
// with a nil error means the session is unauthenticated, which callers treat
// as "proceed without credentials".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed credential, mostly useful in tests and tooling.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// FileTokenSource reads the credential from a file on every call so an
// out-of-band refresh is picked up without restarting the daemon. A missing
// file means unauthenticated, not an error.
type FileTokenSource struct {
	Path string
}

func (f *FileTokenSource) Token(context.Context) (string, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
