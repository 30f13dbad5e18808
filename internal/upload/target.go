package upload

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Target describes one in-flight attachment transfer: the source file, the
// destination object and its content type. It is computed once before any
// tier runs so every fallback attempt finishes the write at the same object.
type Target struct {
	LocalPath   string
	Object      string
	ContentType string
}

// NewTarget derives the destination object name from the uploader identity, a
// timestamp and a random disambiguator, so concurrent uploads never collide.
func NewTarget(localPath, folder, uploaderID string) Target {
	ext := strings.ToLower(filepath.Ext(localPath))
	object := path.Join(folder, fmt.Sprintf("%s-%d-%s%s",
		uploaderID, time.Now().UnixMilli(), uuid.NewString()[:8], ext))
	return Target{
		LocalPath:   localPath,
		Object:      object,
		ContentType: contentTypeForExt(ext),
	}
}

func contentTypeForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		// Camera output without a recognized extension is treated as JPEG.
		return "image/jpeg"
	}
}
