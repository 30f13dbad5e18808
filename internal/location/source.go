package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileSource reads the device position from a JSON file maintained by a
// platform agent (`{"latitude": ..., "longitude": ...}`). The file's age
// stands in for fix freshness: a stale file fails a bounded Current call but
// still satisfies LastKnown. Accuracy does not change how the file is read.
type FileSource struct {
	Path string
}

func (f *FileSource) PermissionGranted(context.Context) (bool, error) {
	_, err := os.Stat(f.Path)
	if errors.Is(err, os.ErrPermission) {
		return false, nil
	}
	return true, nil
}

func (f *FileSource) ServicesEnabled(context.Context) (bool, error) {
	_, err := os.Stat(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrPermission) {
		return false, err
	}
	return true, nil
}

func (f *FileSource) Current(_ context.Context, _ Accuracy, maxAge time.Duration) (Fix, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return Fix{}, fmt.Errorf("stat position file: %w", err)
	}
	if time.Since(info.ModTime()) > maxAge {
		return Fix{}, fmt.Errorf("position is older than %s", maxAge)
	}
	return f.read()
}

func (f *FileSource) LastKnown(context.Context) (Fix, error) {
	return f.read()
}

func (f *FileSource) read() (Fix, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Fix{}, fmt.Errorf("read position file: %w", err)
	}
	var fix Fix
	if err := json.Unmarshal(data, &fix); err != nil {
		return Fix{}, fmt.Errorf("decode position file: %w", err)
	}
	return fix, nil
}
