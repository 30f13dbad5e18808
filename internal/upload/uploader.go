// Package upload resolves local attachments into durable references using a
// tiered fallback chain of transfer mechanisms.
package upload

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// ObjectStore is the slice of the object-store surface the uploader needs.
type ObjectStore interface {
	PutBlob(ctx context.Context, object string, data []byte, contentType string) error
	PutString(ctx context.Context, object, base64Data, contentType string) error
	RawUpload(ctx context.Context, object string, data []byte, contentType string) error
	DownloadURL(ctx context.Context, object string) (string, error)
}

// FileReader reads a local resource as raw bytes or as base64 text.
type FileReader interface {
	ReadBytes(path string) ([]byte, error)
	ReadBase64(path string) (string, error)
}

type osFiles struct{}

func (osFiles) ReadBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (osFiles) ReadBase64(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// tier is one transfer mechanism. Tiers are tried strictly in order and each
// attempt is fully independent of the previous one; reordering the chain is a
// data change, not a control-flow rewrite.
type tier struct {
	name string
	run  func(ctx context.Context, t Target) error
}

// Uploader turns local files into durable object references.
type Uploader struct {
	store  ObjectStore
	files  FileReader
	logger *zap.Logger
}

// New creates an uploader reading from the local filesystem.
func New(store ObjectStore, logger *zap.Logger) *Uploader {
	return &Uploader{store: store, files: osFiles{}, logger: logger}
}

// NewWithFiles creates an uploader with a custom file reader.
func NewWithFiles(store ObjectStore, files FileReader, logger *zap.Logger) *Uploader {
	return &Uploader{store: store, files: files, logger: logger}
}

// UploadBinary transfers the local file into folder and returns its durable
// download reference. The destination object is fixed before the first
// attempt; each tier that fails hands over to the next, and when all fail the
// deepest tier's error propagates.
func (u *Uploader) UploadBinary(ctx context.Context, localPath, folder, uploaderID string) (string, error) {
	target := NewTarget(localPath, folder, uploaderID)
	return u.upload(ctx, target)
}

func (u *Uploader) upload(ctx context.Context, target Target) (string, error) {
	tiers := []tier{
		{name: "blob", run: u.putBlob},
		{name: "base64", run: u.putBase64},
		{name: "raw-post", run: u.rawPost},
	}

	var lastErr error
	for _, tr := range tiers {
		err := tr.run(ctx, target)
		if err == nil {
			if u.logger != nil {
				u.logger.Info("attachment uploaded",
					zap.String("object", target.Object), zap.String("tier", tr.name))
			}
			return u.store.DownloadURL(ctx, target.Object)
		}
		if u.logger != nil {
			u.logger.Warn("upload tier failed",
				zap.String("object", target.Object), zap.String("tier", tr.name), zap.Error(err))
		}
		lastErr = err
	}

	return "", fmt.Errorf("upload %s: %w", target.Object, lastErr)
}

func (u *Uploader) putBlob(ctx context.Context, t Target) error {
	data, err := u.files.ReadBytes(t.LocalPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return u.store.PutBlob(ctx, t.Object, data, t.ContentType)
}

func (u *Uploader) putBase64(ctx context.Context, t Target) error {
	// Re-read the source as base64: the blob read itself may be what failed.
	encoded, err := u.files.ReadBase64(t.LocalPath)
	if err != nil {
		return fmt.Errorf("read file as base64: %w", err)
	}
	return u.store.PutString(ctx, t.Object, encoded, t.ContentType)
}

func (u *Uploader) rawPost(ctx context.Context, t Target) error {
	data, err := u.files.ReadBytes(t.LocalPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return u.store.RawUpload(ctx, t.Object, data, t.ContentType)
}
