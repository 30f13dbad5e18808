// Package objectstore defines the remote object-store contract used for
// attachment uploads: binary upload, base64 string upload, a raw REST upload
// endpoint, and durable download-URL resolution.
package objectstore

import (
	"errors"
	"fmt"
)

// ErrNotProvisioned distinguishes a missing bucket/service from a transient
// transfer failure. It suggests backend misconfiguration, not a retryable
// fault.
var ErrNotProvisioned = errors.New("object store not provisioned: bucket or upload service missing, check backend configuration")

// HTTPError carries the status code and response body of a failed raw upload.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("object store returned %d: %s", e.Status, e.Body)
}
