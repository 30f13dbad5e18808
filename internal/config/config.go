package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.drift/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
}

// Session represents a per-session session.toml describing the remote backend
// this session syncs against and the identity stamped onto authored messages.
type Session struct {
	// BaseURL is the backend REST endpoint (health probe, message append,
	// object-store uploads).
	BaseURL string `toml:"base_url"`
	// FeedURL is the websocket endpoint for the live message feed. Derived
	// from BaseURL when empty.
	FeedURL string `toml:"feed_url"`
	// Room is the message collection this session is bound to.
	Room string `toml:"room"`
	// Bucket is the object-store bucket attachments are uploaded into.
	Bucket string `toml:"bucket"`

	AuthorID   string `toml:"author_id"`
	AuthorName string `toml:"author_name"`

	// ProbeIntervalSeconds controls the connectivity probe cadence. Zero
	// means the default (15s).
	ProbeIntervalSeconds int `toml:"probe_interval_seconds"`
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// LoadSession reads a session.toml from the given path.
func LoadSession(path string) (*Session, error) {
	var s Session
	_, err := toml.DecodeFile(path, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSession writes a session.toml to the given path, creating parent dirs as needed.
func SaveSession(path string, s *Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(s)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
