package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matheus3301/drift/internal/identity"
)

// HTTPStore talks to the backend object-store REST surface for one bucket.
type HTTPStore struct {
	baseURL string
	bucket  string
	tokens  identity.TokenSource
	client  *http.Client
}

// NewHTTPStore creates a store client. tokens may be nil; uploads then run
// unauthenticated.
func NewHTTPStore(baseURL, bucket string, tokens identity.TokenSource) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		tokens:  tokens,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// PutBlob uploads raw bytes to the named object.
func (s *HTTPStore) PutBlob(ctx context.Context, object string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/v1/buckets/%s/objects?name=%s",
		s.baseURL, url.PathEscape(s.bucket), url.QueryEscape(object))
	return s.post(ctx, endpoint, bytes.NewReader(data), contentType, false)
}

// PutString uploads base64-encoded content to the named object. The server
// decodes before storing.
func (s *HTTPStore) PutString(ctx context.Context, object, base64Data, contentType string) error {
	payload, err := json.Marshal(map[string]string{
		"name":        object,
		"contentType": contentType,
		"data":        base64Data,
	})
	if err != nil {
		return fmt.Errorf("encode string upload: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1/buckets/%s/objects:base64", s.baseURL, url.PathEscape(s.bucket))
	return s.post(ctx, endpoint, bytes.NewReader(payload), "application/json", false)
}

// RawUpload posts the bytes straight to the provider's upload endpoint,
// attaching the session bearer credential when one is available. A 404 maps
// to ErrNotProvisioned; any other non-2xx maps to an HTTPError carrying
// status and body.
func (s *HTTPStore) RawUpload(ctx context.Context, object string, data []byte, contentType string) error {
	endpoint := fmt.Sprintf("%s/upload/v1/b/%s/o?name=%s",
		s.baseURL, url.PathEscape(s.bucket), url.QueryEscape(object))
	return s.post(ctx, endpoint, bytes.NewReader(data), contentType, true)
}

// DownloadURL resolves the durable reference for a stored object.
func (s *HTTPStore) DownloadURL(_ context.Context, object string) (string, error) {
	return fmt.Sprintf("%s/v1/buckets/%s/objects/%s?alt=media",
		s.baseURL, url.PathEscape(s.bucket), url.QueryEscape(object)), nil
}

func (s *HTTPStore) post(ctx context.Context, endpoint string, body io.Reader, contentType string, mapStatus bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	if s.tokens != nil {
		token, err := s.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("resolve token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if mapStatus {
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w (404 for %s)", ErrNotProvisioned, endpoint)
		}
		return &HTTPError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return fmt.Errorf("upload: server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}
